// internal/handlers/license.go
package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// POST /licenses
func (h *LicenseHandler) IssueLicense(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.IssueLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	license, err := h.licenseService.IssueLicense(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, license)
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	licenseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	status, err := h.licenseService.GetLicense(c.Request.Context(), licenseID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, status)
}

// GET /licenses/:id/valid
func (h *LicenseHandler) IsValid(c *gin.Context) {
	licenseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	valid, err := h.licenseService.IsValid(c.Request.Context(), licenseID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license_id": licenseID,
		"is_valid":   valid,
	})
}

// GET /assets/:id/licenses
func (h *LicenseHandler) ListAssetLicenses(c *gin.Context) {
	assetID, ok := parseID(c, "id")
	if !ok {
		return
	}

	licenses, err := h.licenseService.ListAssetLicenses(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, licenses)
}

// POST /licenses/:id/renew
func (h *LicenseHandler) RenewLicense(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	licenseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.RenewLicenseRequest
	if !bindJSON(c, &req) {
		return
	}

	license, err := h.licenseService.RenewLicense(c.Request.Context(), account, licenseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, license)
}

// POST /licenses/:id/deactivate
func (h *LicenseHandler) DeactivateLicense(c *gin.Context) {
	h.toggle(c, h.licenseService.DeactivateLicense)
}

// POST /licenses/:id/reactivate
func (h *LicenseHandler) ReactivateLicense(c *gin.Context) {
	h.toggle(c, h.licenseService.ReactivateLicense)
}

func (h *LicenseHandler) toggle(c *gin.Context, op func(context.Context, models.AccountID, uint64) (*models.License, error)) {
	account, ok := caller(c)
	if !ok {
		return
	}
	licenseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	license, err := op(c.Request.Context(), account, licenseID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, license)
}

// POST /licenses/:id/transfer
func (h *LicenseHandler) TransferLicense(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	licenseID, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req services.TransferTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	token, err := h.licenseService.TransferLicense(c.Request.Context(), account, licenseID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, token)
}

// GET /refunds
func (h *LicenseHandler) GetPendingRefund(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	amount, err := h.licenseService.GetPendingRefund(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account": account,
		"amount":  amount,
	})
}

// POST /refunds/claim
func (h *LicenseHandler) ClaimRefund(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	amount, err := h.licenseService.ClaimRefund(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account": account,
		"amount":  amount,
	})
}
