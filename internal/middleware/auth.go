// internal/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"

	"github.com/javajoker/media-ledger/internal/i18n"
	"github.com/javajoker/media-ledger/internal/utils"
)

// Context keys set by the auth middleware.
const (
	ContextAccountID = utils.ContextAccountKey
	ContextRole      = utils.ContextRoleKey
)

// authenticate resolves the bearer token. On failure it returns the
// translation key describing why.
func authenticate(c *gin.Context) (*utils.JWTClaims, string) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, i18n.KeyAuthRequired
	}

	token, ok := bearerToken(header)
	if !ok {
		return nil, i18n.KeyAuthInvalidToken
	}

	claims, err := utils.ValidateJWT(token)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, i18n.KeyAuthTokenExpired
	}
	if err != nil {
		return nil, i18n.KeyAuthInvalidToken
	}
	return claims, ""
}

func setCaller(c *gin.Context, claims *utils.JWTClaims) {
	c.Set(ContextAccountID, claims.AccountID)
	c.Set(ContextRole, claims.Role)
}

// AuthRequired rejects requests without a valid access token. The caller
// account is the token subject.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, failure := authenticate(c)
		if claims == nil {
			utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), failure))
			c.Abort()
			return
		}

		setCaller(c, claims)
		c.Next()
	}
}

func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ContextRole) != utils.RoleAdmin {
			message := i18n.T(utils.GetLangFromContext(c), i18n.KeyAdminAccessDenied)
			utils.ErrorResponse(c, http.StatusForbidden, "Unauthorized", message, nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth sets the caller when a valid token is present and lets
// anonymous requests through otherwise.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if claims, _ := authenticate(c); claims != nil {
			setCaller(c, claims)
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}
