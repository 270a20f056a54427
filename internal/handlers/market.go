// internal/handlers/market.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type MarketHandler struct {
	marketService *services.MarketService
}

func NewMarketHandler(marketService *services.MarketService) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
	}
}

// POST /assets/:id/listings
func (h *MarketHandler) ListShares(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.ListSharesRequest
	if !bindJSON(c, &req) {
		return
	}

	listing, err := h.marketService.ListShares(c.Request.Context(), account, assetID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, listing)
}

// GET /assets/:id/listings
func (h *MarketHandler) GetListings(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	listings, err := h.marketService.ListListings(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listings)
}

// GET /assets/:id/listings/:seller
func (h *MarketHandler) GetListing(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	listing, err := h.marketService.GetListing(c.Request.Context(), assetID, c.Param("seller"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, listing)
}

// POST /assets/:id/buy
func (h *MarketHandler) BuyShares(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.BuySharesRequest
	if !bindJSON(c, &req) {
		return
	}

	purchase, err := h.marketService.BuyShares(c.Request.Context(), account, assetID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, purchase)
}
