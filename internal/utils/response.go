// internal/utils/response.go
package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/javajoker/media-ledger/internal/i18n"
)

// Keys the auth and i18n middleware store on the gin context.
const (
	ContextLangKey    = "lang"
	ContextAccountKey = "account_id"
	ContextRoleKey    = "role"
)

// Envelope codes for failures that do not come from the ledger. Ledger
// errors carry their own code.
const (
	CodeInvalidInput = "InvalidInput"
	CodeUnauthorized = "Unauthenticated"
	CodeNotFound     = "NotFound"
	CodeInternal     = "Internal"
	CodeValidation   = "ValidationFailed"
	defaultLang      = "en"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type Meta struct {
	Pagination PageMeta `json:"pagination"`
}

type PageMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func SuccessResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{Success: true, Data: data})
}

func CreatedResponse(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{Success: true, Data: data})
}

// PaginatedResponse writes one page and mirrors the page numbers into
// the X-* headers.
func PaginatedResponse(c *gin.Context, result PaginationResult) {
	SetPaginationHeaders(c, result)
	c.JSON(http.StatusOK, APIResponse{
		Success: true,
		Data:    result.Data,
		Meta: &Meta{Pagination: PageMeta{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: result.TotalPages,
		}},
	})
}

func ErrorResponse(c *gin.Context, statusCode int, code, message string, details interface{}) {
	c.JSON(statusCode, APIResponse{
		Error: &APIError{Code: code, Message: message, Details: details},
	})
}

// localized returns message, or the translation of fallbackKey when
// message is empty.
func localized(c *gin.Context, message, fallbackKey string) string {
	if message != "" {
		return message
	}
	return i18n.T(GetLangFromContext(c), fallbackKey)
}

func BadRequestResponse(c *gin.Context, message string, details interface{}) {
	ErrorResponse(c, http.StatusBadRequest, CodeInvalidInput, localized(c, message, i18n.KeyRequestInvalidBody), details)
}

func UnauthorizedResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusUnauthorized, CodeUnauthorized, localized(c, message, i18n.KeyAuthRequired), nil)
}

func NotFoundResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusNotFound, CodeNotFound, localized(c, message, i18n.ErrorKey(CodeNotFound)), nil)
}

func InternalErrorResponse(c *gin.Context, message string) {
	ErrorResponse(c, http.StatusInternalServerError, CodeInternal, localized(c, message, i18n.KeyInternalError), nil)
}

func ValidationErrorResponse(c *gin.Context, errors []ValidationError) {
	ErrorResponse(c, http.StatusBadRequest, CodeValidation, localized(c, "", i18n.KeyRequestInvalidBody), errors)
}

func GetLangFromContext(c *gin.Context) string {
	if lang := c.GetString(ContextLangKey); lang != "" {
		return lang
	}
	return defaultLang
}

// GetAccountIDFromContext returns the authenticated account set by the
// auth middleware.
func GetAccountIDFromContext(c *gin.Context) (string, bool) {
	account := c.GetString(ContextAccountKey)
	return account, account != ""
}

func GetRoleFromContext(c *gin.Context) (string, bool) {
	role := c.GetString(ContextRoleKey)
	return role, role != ""
}
