// internal/handlers/revenue.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type RevenueHandler struct {
	revenueService *services.RevenueService
}

func NewRevenueHandler(revenueService *services.RevenueService) *RevenueHandler {
	return &RevenueHandler{
		revenueService: revenueService,
	}
}

// POST /assets/:id/revenue
func (h *RevenueHandler) DistributeRevenue(c *gin.Context) {
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

	result, err := h.revenueService.Distribute(c.Request.Context(), account, assetID, req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /assets/:id/claim
func (h *RevenueHandler) ClaimRevenue(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	amount, err := h.revenueService.Claim(c.Request.Context(), account, assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_id": assetID,
		"investor": account,
		"amount":   amount,
	})
}

// GET /assets/:id/revenue
func (h *RevenueHandler) GetRevenuePool(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	pool, err := h.revenueService.GetRevenuePool(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, pool)
}

// GET /assets/:id/investors/:investor/claimable
func (h *RevenueHandler) GetClaimable(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	account, err := h.revenueService.GetRevenueAccount(c.Request.Context(), assetID, c.Param("investor"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, account)
}
