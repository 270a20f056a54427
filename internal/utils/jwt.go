// internal/utils/jwt.go
package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

// Roles carried in access tokens.
const (
	RoleAccount = "account"
	RoleAdmin   = "admin"
)

const (
	tokenIssuer     = "media-ledger"
	refreshAudience = "refresh"
)

var (
	errSigningMethod  = errors.New("unexpected signing method")
	errNoAccount      = errors.New("token carries no account")
	errInvalidToken   = errors.New("invalid token")
	errInvalidRefresh = errors.New("invalid refresh token")
	jwtSecret         = []byte("your-secret-key-change-in-production")
)

// JWTClaims are the access token claims. The subject and AccountID are
// both the caller's ledger account.
type JWTClaims struct {
	AccountID string `json:"account_id"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

func registeredClaims(subject string, ttlHours int, audience ...string) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    tokenIssuer,
		Subject:   subject,
		Audience:  audience,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(ttlHours) * time.Hour)),
	}
}

func sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtSecret)
}

func hmacKey(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errSigningMethod
	}
	return jwtSecret, nil
}

func GenerateJWT(accountID, role string, ttlHours int) (string, error) {
	return sign(JWTClaims{
		AccountID:        accountID,
		Role:             role,
		RegisteredClaims: registeredClaims(accountID, ttlHours),
	})
}

// ValidateJWT accepts access tokens only. Expiry surfaces as
// jwt.ErrTokenExpired.
func ValidateJWT(tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errInvalidToken
	}
	if claims.AccountID == "" {
		return nil, errNoAccount
	}
	return claims, nil
}

func GenerateRefreshToken(accountID string, ttlHours int) (string, error) {
	return sign(registeredClaims(accountID, ttlHours, refreshAudience))
}

// ValidateRefreshToken returns the account a refresh token was issued to.
func ValidateRefreshToken(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, hmacKey)
	if err != nil {
		return "", err
	}
	if !token.Valid || !claims.VerifyAudience(refreshAudience, true) || claims.Subject == "" {
		return "", errInvalidRefresh
	}
	return claims.Subject, nil
}
