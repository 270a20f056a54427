// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired       = "auth.required"
	KeyAuthInvalidToken   = "auth.invalid_token"
	KeyAuthTokenExpired   = "auth.token_expired"
	KeyAuthInvalidRefresh = "auth.invalid_refresh_token"
	KeyAuthTokenIssued    = "auth.token_issued"

	// Admin
	KeyAdminAccessDenied    = "admin.access_denied"
	KeyAdminSettingsUpdated = "admin.settings_updated"
	KeyAdminCreatorAdded    = "admin.creator_registered"

	// Requests
	KeyRequestInvalidBody = "request.invalid_body"
	KeyRequestInvalidID   = "request.invalid_id"
	KeyRateLimitExceeded  = "rate_limit.exceeded"

	// Errors without a ledger code
	KeyInternalError = "error.Internal"
)

// ErrorKey returns the translation key of a ledger error code.
func ErrorKey(code string) string {
	return "error." + code
}
