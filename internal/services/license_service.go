// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

const licenseSequence = "license"

type LicenseService struct {
	ledger *Ledger
}

type IssueLicenseRequest struct {
	AssetID        uint64             `json:"asset_id" validate:"required"`
	Licensee       string             `json:"licensee,omitempty" validate:"omitempty,account"`
	ValidityPeriod int64              `json:"validity_period"` // seconds
	LicenseType    models.LicenseType `json:"license_type" validate:"required,license_type"`
	Territory      models.Territory   `json:"territory" validate:"required,territory"`
	Payment        models.Amount      `json:"payment"`
}

type RenewLicenseRequest struct {
	AdditionalTime int64         `json:"additional_time"` // seconds
	Payment        models.Amount `json:"payment"`
}

type LicenseStatus struct {
	License *models.License  `json:"license"`
	Owner   models.AccountID `json:"owner"`
	IsValid bool             `json:"is_valid"`
}

func NewLicenseService(ledger *Ledger) *LicenseService {
	return &LicenseService{ledger: ledger}
}

func (s *LicenseService) IssueLicense(ctx context.Context, caller models.AccountID, req *IssueLicenseRequest) (*models.License, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var license *models.License
	err := s.ledger.execute(ctx, "issue_license", func(u *unit) error {
		asset, err := loadAsset(u.tx, req.AssetID)
		if err != nil {
			return err
		}
		if asset.Creator != caller {
			return ErrNotCreator
		}
		if req.ValidityPeriod <= 0 {
			return ErrPeriodZero
		}
		if req.ValidityPeriod > int64(s.ledger.cfg.MaxLicensePeriod.Seconds()) {
			return ErrPeriodTooLong
		}

		licensee := req.Licensee
		if licensee == "" {
			licensee = caller
		}

		if err := checkSlotFree(u.tx, req.AssetID, req.LicenseType, req.Territory); err != nil {
			return err
		}

		settings, err := loadSettings(u.tx, s.ledger.cfg)
		if err != nil {
			return err
		}
		if settings.FeeEnabled && req.Payment.Lt(settings.IssueFee) {
			return ErrInsufficientFee
		}

		id, err := u.nextID(licenseSequence)
		if err != nil {
			return err
		}
		license = &models.License{
			ID:          id,
			AssetID:     req.AssetID,
			Creator:     caller,
			Licensee:    licensee,
			ValidUntil:  saturatingAdd(u.now().Unix(), req.ValidityPeriod),
			LicenseType: req.LicenseType,
			Territory:   req.Territory,
			IsActive:    true,
		}
		if err := u.tx.Create(license).Error; err != nil {
			return fmt.Errorf("failed to create license: %w", err)
		}
		if err := acquireSlot(u.tx, license); err != nil {
			return err
		}
		if err := mintToken(u.tx, models.TokenKindLicense, id, licensee); err != nil {
			return err
		}

		if err := u.emit(models.LedgerEvent{
			Type:      models.EventLicenseIssued,
			AssetID:   req.AssetID,
			LicenseID: id,
			Account:   licensee,
			Payload: models.JSONB{
				"license_type": string(req.LicenseType),
				"territory":    string(req.Territory),
				"valid_until":  license.ValidUntil,
			},
		}); err != nil {
			return err
		}

		if !settings.FeeEnabled {
			return nil
		}
		return s.collectFee(u, settings, license, caller, req.Payment, settings.IssueFee)
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}

// IsValid reports whether the license token exists, is unexpired at the
// current second and the license is active.
func (s *LicenseService) IsValid(ctx context.Context, licenseID uint64) (bool, error) {
	conn := s.ledger.conn(ctx)
	token, err := loadToken(conn, models.TokenKindLicense, licenseID)
	if err != nil || token == nil {
		return false, err
	}
	license, err := loadLicense(conn, licenseID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return s.isValid(license), nil
}

func (s *LicenseService) isValid(license *models.License) bool {
	return license.IsActive && s.ledger.now().Unix() <= license.ValidUntil
}

func (s *LicenseService) GetLicense(ctx context.Context, licenseID uint64) (*LicenseStatus, error) {
	conn := s.ledger.conn(ctx)
	license, err := loadLicense(conn, licenseID)
	if err != nil {
		return nil, err
	}
	token, err := loadToken(conn, models.TokenKindLicense, licenseID)
	if err != nil {
		return nil, err
	}

	status := &LicenseStatus{License: license}
	if token != nil {
		status.Owner = token.Owner
		status.IsValid = s.isValid(license)
	}
	return status, nil
}

func (s *LicenseService) ListAssetLicenses(ctx context.Context, assetID uint64) ([]models.License, error) {
	var licenses []models.License
	if err := s.ledger.conn(ctx).Where("asset_id = ?", assetID).Order("id asc").Find(&licenses).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch licenses: %w", err)
	}
	return licenses, nil
}

// RenewLicense extends validity from the current expiry, saturating at the
// largest representable timestamp.
func (s *LicenseService) RenewLicense(ctx context.Context, caller models.AccountID, licenseID uint64, req *RenewLicenseRequest) (*models.License, error) {
	var license *models.License
	err := s.ledger.execute(ctx, "renew_license", func(u *unit) error {
		var err error
		license, err = loadLicense(u.tx, licenseID)
		if err != nil {
			return err
		}
		if err := requireTokenOwner(u.tx, licenseID, caller); err != nil {
			return err
		}
		if !license.IsActive {
			return ErrLicenseInactive
		}
		if req.AdditionalTime <= 0 {
			return ErrPeriodZero
		}

		settings, err := loadSettings(u.tx, s.ledger.cfg)
		if err != nil {
			return err
		}
		if settings.FeeEnabled && req.Payment.Lt(settings.RenewFee) {
			return ErrInsufficientFee
		}

		license.ValidUntil = saturatingAdd(license.ValidUntil, req.AdditionalTime)
		if err := u.tx.Save(license).Error; err != nil {
			return fmt.Errorf("failed to save license: %w", err)
		}

		if err := u.emit(models.LedgerEvent{
			Type:      models.EventLicenseRenewed,
			AssetID:   license.AssetID,
			LicenseID: licenseID,
			Account:   caller,
			Payload: models.JSONB{
				"additional_time": req.AdditionalTime,
				"valid_until":     license.ValidUntil,
			},
		}); err != nil {
			return err
		}

		if !settings.FeeEnabled {
			return nil
		}
		return s.collectFee(u, settings, license, caller, req.Payment, settings.RenewFee)
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}

// DeactivateLicense may be called by the issuing creator, the admin or the
// token owner. The exclusivity lock or index slot is released.
func (s *LicenseService) DeactivateLicense(ctx context.Context, caller models.AccountID, licenseID uint64) (*models.License, error) {
	var license *models.License
	err := s.ledger.execute(ctx, "deactivate_license", func(u *unit) error {
		var err error
		license, err = loadLicense(u.tx, licenseID)
		if err != nil {
			return err
		}

		if caller != license.Creator && !s.ledger.IsAdmin(caller) {
			if err := requireTokenOwner(u.tx, licenseID, caller); err != nil {
				return ErrUnauthorized
			}
		}
		if !license.IsActive {
			return ErrLicenseInactive
		}

		license.IsActive = false
		if err := u.tx.Save(license).Error; err != nil {
			return fmt.Errorf("failed to save license: %w", err)
		}
		if err := releaseSlot(u.tx, license); err != nil {
			return err
		}

		return u.emit(models.LedgerEvent{
			Type:      models.EventLicenseDeactivated,
			AssetID:   license.AssetID,
			LicenseID: licenseID,
			Account:   caller,
		})
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}

func (s *LicenseService) ReactivateLicense(ctx context.Context, caller models.AccountID, licenseID uint64) (*models.License, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}

	var license *models.License
	err := s.ledger.execute(ctx, "reactivate_license", func(u *unit) error {
		var err error
		license, err = loadLicense(u.tx, licenseID)
		if err != nil {
			return err
		}
		if license.IsActive {
			return ErrLicenseActive
		}

		if err := checkSlotFree(u.tx, license.AssetID, license.LicenseType, license.Territory); err != nil {
			return err
		}
		license.IsActive = true
		if err := u.tx.Save(license).Error; err != nil {
			return fmt.Errorf("failed to save license: %w", err)
		}
		if err := acquireSlot(u.tx, license); err != nil {
			return err
		}

		return u.emit(models.LedgerEvent{
			Type:      models.EventLicenseReactivated,
			AssetID:   license.AssetID,
			LicenseID: licenseID,
			Account:   caller,
		})
	})
	if err != nil {
		return nil, err
	}
	return license, nil
}

// TransferLicense moves the license token. Only valid licenses move.
func (s *LicenseService) TransferLicense(ctx context.Context, caller models.AccountID, licenseID uint64, req *TransferTokenRequest) (*models.Token, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	var token *models.Token
	err := s.ledger.execute(ctx, "transfer_license", func(u *unit) error {
		var err error
		token, err = loadToken(u.tx, models.TokenKindLicense, licenseID)
		if err != nil {
			return err
		}
		if token == nil {
			return ErrInvalidLicense
		}
		license, err := loadLicense(u.tx, licenseID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return ErrInvalidLicense
			}
			return err
		}
		if !s.isValid(license) {
			return ErrInvalidLicense
		}
		if token.Owner != caller {
			return ErrNotTokenOwner
		}

		from := token.Owner
		if err := moveToken(u.tx, token, req.To); err != nil {
			return err
		}

		return u.emit(models.LedgerEvent{
			Type:      models.EventLicenseTransferred,
			AssetID:   license.AssetID,
			LicenseID: licenseID,
			Account:   req.To,
			Payload:   models.JSONB{"from": from},
		})
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ClaimRefund pays out fee overpayments held under the pending policy.
func (s *LicenseService) ClaimRefund(ctx context.Context, caller models.AccountID) (models.Amount, error) {
	var amount models.Amount
	err := s.ledger.execute(ctx, "claim_refund", func(u *unit) error {
		refund, err := loadPendingRefund(u.tx, caller)
		if err != nil {
			return err
		}
		if refund.Amount.IsZero() {
			return ErrNothingToClaim
		}

		amount = refund.Amount
		refund.Amount = models.Amount{}
		if err := u.tx.Save(refund).Error; err != nil {
			return fmt.Errorf("failed to save pending refund: %w", err)
		}

		if err := u.transfer(s.ledger.cfg.FeeVaultAccount, caller, amount); err != nil {
			return err
		}
		return u.emit(models.LedgerEvent{
			Type:    models.EventRefundClaimed,
			Account: caller,
			Amount:  amount,
		})
	})
	if err != nil {
		return models.Amount{}, err
	}
	return amount, nil
}

func (s *LicenseService) GetPendingRefund(ctx context.Context, account models.AccountID) (models.Amount, error) {
	refund, err := loadPendingRefund(s.ledger.conn(ctx), account)
	if err != nil {
		return models.Amount{}, err
	}
	return refund.Amount, nil
}

// collectFee pulls the fee into the fee vault and forwards it to the
// recipient. Under the refund policy only the fee is pulled, so the excess
// never leaves the payer; under the pending policy the whole payment is
// pulled and the excess is held for ClaimRefund.
func (s *LicenseService) collectFee(u *unit, settings *models.LedgerSettings, license *models.License, payer models.AccountID, payment, fee models.Amount) error {
	excess, err := sub(payment, fee)
	if err != nil {
		return ErrInsufficientFee
	}

	pending := s.ledger.cfg.OverpaymentPolicy == config.OverpaymentPending
	pulled := fee
	if pending {
		pulled = payment
	}

	vault := s.ledger.cfg.FeeVaultAccount
	if pending && !excess.IsZero() {
		refund, err := loadPendingRefund(u.tx, payer)
		if err != nil {
			return err
		}
		if refund.Amount, err = add(refund.Amount, excess); err != nil {
			return err
		}
		if err := u.tx.Save(refund).Error; err != nil {
			return fmt.Errorf("failed to save pending refund: %w", err)
		}
	}

	if err := u.transfer(payer, vault, pulled); err != nil {
		return err
	}
	if settings.FeeRecipient != "" && settings.FeeRecipient != vault {
		if err := u.transfer(vault, settings.FeeRecipient, fee); err != nil {
			return err
		}
	}

	if !fee.IsZero() {
		if err := u.emit(models.LedgerEvent{
			Type:      models.EventFeePaid,
			AssetID:   license.AssetID,
			LicenseID: license.ID,
			Account:   payer,
			Amount:    fee,
			Payload:   models.JSONB{"recipient": settings.FeeRecipient},
		}); err != nil {
			return err
		}
	}

	if excess.IsZero() {
		return nil
	}
	eventType := models.EventRefundIssued
	if pending {
		eventType = models.EventRefundPending
	}
	return u.emit(models.LedgerEvent{
		Type:      eventType,
		AssetID:   license.AssetID,
		LicenseID: license.ID,
		Account:   payer,
		Amount:    excess,
	})
}

func loadLicense(db *gorm.DB, licenseID uint64) (*models.License, error) {
	var license models.License
	if err := db.Where("id = ?", licenseID).First(&license).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("license %d: %w", licenseID, ErrNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &license, nil
}

func requireTokenOwner(db *gorm.DB, licenseID uint64, caller models.AccountID) error {
	token, err := loadToken(db, models.TokenKindLicense, licenseID)
	if err != nil {
		return err
	}
	if token == nil || token.Owner != caller {
		return ErrNotTokenOwner
	}
	return nil
}

// checkSlotFree enforces exclusivity per (asset, territory) and uniqueness
// per (asset, type, territory) among active licenses.
func checkSlotFree(db *gorm.DB, assetID uint64, licenseType models.LicenseType, territory models.Territory) error {
	var count int64
	if licenseType == models.LicenseTypeExclusive {
		if err := db.Model(&models.TerritoryLock{}).
			Where("asset_id = ? AND territory = ?", assetID, territory).
			Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check territory lock: %w", err)
		}
		if count > 0 {
			return ErrTerritoryLocked
		}
		return nil
	}

	if err := db.Model(&models.ActiveLicenseIndex{}).
		Where("asset_id = ? AND license_type = ? AND territory = ?", assetID, licenseType, territory).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check license index: %w", err)
	}
	if count > 0 {
		return ErrDuplicateLicense
	}
	return nil
}

func acquireSlot(db *gorm.DB, license *models.License) error {
	var row interface{}
	if license.LicenseType == models.LicenseTypeExclusive {
		row = &models.TerritoryLock{AssetID: license.AssetID, Territory: license.Territory, LicenseID: license.ID}
	} else {
		row = &models.ActiveLicenseIndex{AssetID: license.AssetID, LicenseType: license.LicenseType, Territory: license.Territory, LicenseID: license.ID}
	}
	if err := db.Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if license.LicenseType == models.LicenseTypeExclusive {
				return ErrTerritoryLocked
			}
			return ErrDuplicateLicense
		}
		return fmt.Errorf("failed to reserve license slot: %w", err)
	}
	return nil
}

func releaseSlot(db *gorm.DB, license *models.License) error {
	var err error
	if license.LicenseType == models.LicenseTypeExclusive {
		err = db.Where("asset_id = ? AND territory = ? AND license_id = ?", license.AssetID, license.Territory, license.ID).
			Delete(&models.TerritoryLock{}).Error
	} else {
		err = db.Where("asset_id = ? AND license_type = ? AND territory = ? AND license_id = ?",
			license.AssetID, license.LicenseType, license.Territory, license.ID).
			Delete(&models.ActiveLicenseIndex{}).Error
	}
	if err != nil {
		return fmt.Errorf("failed to release license slot: %w", err)
	}
	return nil
}

func loadPendingRefund(db *gorm.DB, account models.AccountID) (*models.PendingRefund, error) {
	var refund models.PendingRefund
	err := db.Where("account = ?", account).First(&refund).Error
	if isNotFound(err) {
		return &models.PendingRefund{Account: account}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load pending refund: %w", err)
	}
	return &refund, nil
}

func saturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
