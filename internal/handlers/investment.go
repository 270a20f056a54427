// internal/handlers/investment.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type InvestmentHandler struct {
	investmentService *services.InvestmentService
}

func NewInvestmentHandler(investmentService *services.InvestmentService) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
	}
}

// POST /assets/:id/funding
func (h *InvestmentHandler) CreateFundingTarget(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.CreateFundingTargetRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.investmentService.CreateFundingTarget(c.Request.Context(), account, assetID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, asset)
}

// POST /assets/:id/invest
func (h *InvestmentHandler) Invest(c *gin.Context) {
	h.moveFunds(c, h.investmentService.Invest)
}

// POST /assets/:id/withdraw
func (h *InvestmentHandler) Withdraw(c *gin.Context) {
	h.moveFunds(c, h.investmentService.WithdrawInvestment)
}

func (h *InvestmentHandler) moveFunds(c *gin.Context, op func(context.Context, models.AccountID, uint64, models.Amount) (*models.Investment, error)) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.AmountRequest
	if !bindJSON(c, &req) {
		return
	}

	investment, err := op(c.Request.Context(), account, assetID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, investment)
}

// GET /assets/:id/investors
func (h *InvestmentHandler) ListInvestors(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	investments, err := h.investmentService.ListInvestors(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, investments)
}

// GET /assets/:id/investors/:investor/shares
func (h *InvestmentHandler) GetInvestorShares(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}
	investor := c.Param("investor")

	shares, err := h.investmentService.GetInvestorShares(c.Request.Context(), assetID, investor)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_id":      assetID,
		"investor":      investor,
		"share_percent": shares,
	})
}

// GET /investments
func (h *InvestmentHandler) GetMyInvestments(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	params := utils.GetPaginationParams(c)

	investments, total, err := h.investmentService.ListAssetInvestments(c.Request.Context(), account, params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(investments, total, params)
	utils.PaginatedResponse(c, result)
}
