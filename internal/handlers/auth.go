// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /auth/token
func (h *AuthHandler) IssueToken(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	account, ok := caller(c)
	if !ok {
		return
	}

	var req services.IssueTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.IssueToken(c.Request.Context(), account, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"message":       i18n.T(lang, i18n.KeyAuthTokenIssued),
		"account":       authResponse.Account,
		"role":          authResponse.Role,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}

// POST /auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	var req services.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidRefresh))
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account":       authResponse.Account,
		"role":          authResponse.Role,
		"token":         authResponse.AccessToken,
		"refresh_token": authResponse.RefreshToken,
		"token_type":    authResponse.TokenType,
		"expires_in":    authResponse.ExpiresIn,
	})
}

// GET /auth/me
func (h *AuthHandler) GetCurrentAccount(c *gin.Context) {
	account, ok := caller(c)
	if !ok {
		return
	}
	role, _ := utils.GetRoleFromContext(c)

	utils.SuccessResponse(c, gin.H{
		"account": account,
		"role":    role,
	})
}
