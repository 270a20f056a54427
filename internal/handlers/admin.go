// internal/handlers/admin.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// GET /admin/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	stats, err := h.adminService.GetDashboardStats(c.Request.Context(), account)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}

// GET /settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, settings)
}

// PUT /admin/fees
func (h *AdminHandler) UpdateFeeSettings(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.UpdateFeeSettingsRequest
	if !bindJSON(c, &req) {
		return
	}

	settings, err := h.adminService.UpdateFeeSettings(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyAdminSettingsUpdated),
		"settings": settings,
	})
}

// POST /admin/creators
func (h *AdminHandler) RegisterCreator(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.RegisterCreatorRequest
	if !bindJSON(c, &req) {
		return
	}

	registration, err := h.adminService.RegisterCreator(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyAdminCreatorAdded),
		"creator": registration,
	})
}

// GET /creators
func (h *AdminHandler) ListCreators(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	creators, total, err := h.adminService.ListCreators(c.Request.Context(), params)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(creators, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /creators/:account
func (h *AdminHandler) IsRegisteredCreator(c *gin.Context) {
	creator := c.Param("account")

	registered, err := h.adminService.IsRegisteredCreator(c.Request.Context(), creator)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account":    creator,
		"registered": registered,
	})
}

// GET /admin/audit-logs
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}

	filter := services.AuditLogFilter{
		PaginationParams: utils.GetPaginationParams(c),
		Account:          c.Query("account"),
		Action:           c.Query("action"),
		ResourceType:     c.Query("resource_type"),
	}
	if after := c.Query("created_after"); after != "" {
		if parsed, err := time.Parse(time.RFC3339, after); err == nil {
			filter.CreatedAfter = &parsed
		}
	}

	logs, total, err := h.adminService.GetAuditLogs(c.Request.Context(), account, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(logs, total, filter.PaginationParams)
	utils.PaginatedResponse(c, result)
}
