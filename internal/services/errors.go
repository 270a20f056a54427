// internal/services/errors.go
package services

import (
	"errors"
)

// ErrorKind groups ledger errors by the class of failure.
type ErrorKind string

const (
	KindNotFound           ErrorKind = "not_found"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindInvalidInput       ErrorKind = "invalid_input"
	KindStateConflict      ErrorKind = "state_conflict"
	KindTransferFailed     ErrorKind = "transfer_failed"
	KindReentrant          ErrorKind = "reentrant"
	KindArithmeticOverflow ErrorKind = "arithmetic_overflow"
	KindInternal           ErrorKind = "internal"
)

// LedgerError is a sentinel ledger failure. Wrap it with fmt.Errorf and %w
// to add context; compare with errors.Is.
type LedgerError struct {
	Kind    ErrorKind
	Code    string
	Message string
}

func (e *LedgerError) Error() string {
	return e.Message
}

func newError(kind ErrorKind, code, message string) *LedgerError {
	return &LedgerError{Kind: kind, Code: code, Message: message}
}

var (
	ErrNotFound      = newError(KindNotFound, "NotFound", "record not found")
	ErrAssetNotFound = newError(KindNotFound, "AssetNotFound", "asset not found")

	ErrUnauthorized  = newError(KindUnauthorized, "Unauthorized", "caller lacks the required role")
	ErrNotCreator    = newError(KindUnauthorized, "NotCreator", "caller is not the asset creator")
	ErrNotTokenOwner = newError(KindUnauthorized, "NotTokenOwner", "caller does not own the token")

	ErrInvalidInput    = newError(KindInvalidInput, "InvalidInput", "invalid input")
	ErrZeroAmount      = newError(KindInvalidInput, "ZeroAmount", "amount must be greater than zero")
	ErrInvalidGoal     = newError(KindInvalidInput, "InvalidGoal", "funding goal must be greater than zero")
	ErrInvalidAccount  = newError(KindInvalidInput, "InvalidAccount", "account must not be empty")
	ErrPeriodZero      = newError(KindInvalidInput, "PeriodZero", "period must be greater than zero")
	ErrPeriodTooLong   = newError(KindInvalidInput, "PeriodTooLong", "validity period exceeds the allowed maximum")
	ErrInsufficientFee = newError(KindInvalidInput, "InsufficientFee", "payment is below the required fee")

	ErrDuplicateAsset      = newError(KindStateConflict, "DuplicateAsset", "asset already registered")
	ErrAlreadyExists       = newError(KindStateConflict, "AlreadyExists", "record already exists")
	ErrGoalAlreadyReached  = newError(KindStateConflict, "GoalAlreadyReached", "funding goal already reached")
	ErrInsufficientBalance = newError(KindStateConflict, "InsufficientBalance", "amount exceeds recorded investment")
	ErrNothingToClaim      = newError(KindStateConflict, "NothingToClaim", "nothing to claim")
	ErrNoInvestors         = newError(KindStateConflict, "NoInvestors", "asset has no investors")
	ErrTerritoryLocked     = newError(KindStateConflict, "TerritoryLocked", "territory already has an exclusive license")
	ErrDuplicateLicense    = newError(KindStateConflict, "DuplicateLicense", "an active license already exists for this asset, type and territory")
	ErrLicenseInactive     = newError(KindStateConflict, "LicenseInactive", "license is inactive")
	ErrLicenseActive       = newError(KindStateConflict, "LicenseActive", "license is already active")
	ErrInvalidLicense      = newError(KindStateConflict, "InvalidLicense", "license is not valid")
	ErrNoShares            = newError(KindStateConflict, "NoShares", "caller holds no shares in this asset")
	ErrSellerHasNoShares   = newError(KindStateConflict, "SellerHasNoShares", "seller holds no shares in this asset")
	ErrListingNotFound     = newError(KindStateConflict, "ListingNotFound", "seller has not listed shares")
	ErrPriceMismatch       = newError(KindStateConflict, "PriceMismatch", "payment is below the listed price")

	ErrTransferFailed     = newError(KindTransferFailed, "TransferFailed", "payment rail rejected the transfer")
	ErrReentrant          = newError(KindReentrant, "Reentrant", "reentrant call rejected")
	ErrArithmeticOverflow = newError(KindArithmeticOverflow, "ArithmeticOverflow", "arithmetic overflow")
)

// AsLedgerError extracts the ledger sentinel from err, if any.
func AsLedgerError(err error) (*LedgerError, bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le, true
	}
	return nil, false
}

// KindOf classifies err. Errors that are not ledger errors are internal.
func KindOf(err error) ErrorKind {
	if le, ok := AsLedgerError(err); ok {
		return le.Kind
	}
	return KindInternal
}
