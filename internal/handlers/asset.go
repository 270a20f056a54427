// internal/handlers/asset.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
	}
}

// POST /assets
func (h *AssetHandler) RegisterAsset(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.RegisterAssetRequest
	if !bindJSON(c, &req) {
		return
	}

	asset, err := h.assetService.RegisterAsset(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, asset)
}

// GET /assets
func (h *AssetHandler) ListAssets(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	assets, total, err := h.assetService.ListAssets(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(assets, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, asset)
}

// GET /assets/:id/exists
func (h *AssetHandler) AssetExists(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	exists, err := h.assetService.Exists(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_id": assetID,
		"exists":   exists,
	})
}

// GET /assets/:id/owner
func (h *AssetHandler) GetOwner(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	token, err := h.assetService.GetOwner(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, token)
}

// POST /assets/:id/transfer
func (h *AssetHandler) TransferAsset(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TransferTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.assetService.TransferAsset(c.Request.Context(), account, assetID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, token)
}
