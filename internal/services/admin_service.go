// internal/services/admin_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

const settingsID = 1

type AdminService struct {
	ledger *Ledger
}

type AdminDashboardStats struct {
	TotalAssets        int64 `json:"total_assets"`
	FundedAssets       int64 `json:"funded_assets"`
	GoalReachedAssets  int64 `json:"goal_reached_assets"`
	TotalInvestments   int64 `json:"total_investments"`
	TotalLicenses      int64 `json:"total_licenses"`
	ActiveLicenses     int64 `json:"active_licenses"`
	OpenListings       int64 `json:"open_listings"`
	RegisteredCreators int64 `json:"registered_creators"`
	TotalEvents        int64 `json:"total_events"`
	EventsThisMonth    int64 `json:"events_this_month"`
}

type UpdateFeeSettingsRequest struct {
	FeeEnabled   *bool          `json:"fee_enabled,omitempty"`
	IssueFee     *models.Amount `json:"issue_fee,omitempty"`
	RenewFee     *models.Amount `json:"renew_fee,omitempty"`
	FeeRecipient string         `json:"fee_recipient,omitempty" validate:"omitempty,account"`
}

type RegisterCreatorRequest struct {
	Account string `json:"account" validate:"required,account"`
}

type AuditLogFilter struct {
	utils.PaginationParams
	Account      string     `json:"account,omitempty"`
	Action       string     `json:"action,omitempty"`
	ResourceType string     `json:"resource_type,omitempty"`
	CreatedAfter *time.Time `json:"created_after,omitempty"`
}

func NewAdminService(ledger *Ledger) *AdminService {
	return &AdminService{ledger: ledger}
}

// Dashboard Statistics
func (s *AdminService) GetDashboardStats(ctx context.Context, caller models.AccountID) (*AdminDashboardStats, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}

	db := s.ledger.conn(ctx)
	stats := &AdminDashboardStats{}
	now := s.ledger.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	// Asset statistics
	db.Model(&models.Asset{}).Count(&stats.TotalAssets)
	db.Model(&models.Asset{}).Where("funding_goal <> ?", "0").Count(&stats.FundedAssets)
	db.Model(&models.Asset{}).Where("goal_reached = ?", true).Count(&stats.GoalReachedAssets)
	db.Model(&models.Investment{}).Count(&stats.TotalInvestments)

	// License statistics
	db.Model(&models.License{}).Count(&stats.TotalLicenses)
	db.Model(&models.License{}).Where("is_active = ?", true).Count(&stats.ActiveLicenses)

	db.Model(&models.Listing{}).Count(&stats.OpenListings)
	db.Model(&models.CreatorRegistration{}).Count(&stats.RegisteredCreators)

	// Event statistics
	db.Model(&models.LedgerEvent{}).Count(&stats.TotalEvents)
	db.Model(&models.LedgerEvent{}).Where("created_at >= ?", monthStart.UTC()).Count(&stats.EventsThisMonth)

	return stats, nil
}

// Settings Management
func (s *AdminService) GetSettings(ctx context.Context) (*models.LedgerSettings, error) {
	return loadSettings(s.ledger.conn(ctx), s.ledger.cfg)
}

func (s *AdminService) UpdateFeeSettings(ctx context.Context, caller models.AccountID, req *UpdateFeeSettingsRequest) (*models.LedgerSettings, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	var settings *models.LedgerSettings
	err := s.ledger.execute(ctx, "update_fee_settings", func(u *unit) error {
		var err error
		settings, err = loadSettings(u.tx, s.ledger.cfg)
		if err != nil {
			return err
		}

		if req.FeeEnabled != nil {
			settings.FeeEnabled = *req.FeeEnabled
		}
		if req.IssueFee != nil {
			settings.IssueFee = *req.IssueFee
		}
		if req.RenewFee != nil {
			settings.RenewFee = *req.RenewFee
		}
		if req.FeeRecipient != "" {
			settings.FeeRecipient = req.FeeRecipient
		}
		settings.UpdatedBy = caller

		if err := u.tx.Save(settings).Error; err != nil {
			return fmt.Errorf("failed to update settings: %w", err)
		}

		return u.emit(models.LedgerEvent{
			Type:    models.EventFeeSettingsUpdated,
			Account: caller,
			Payload: models.JSONB{
				"fee_enabled":   settings.FeeEnabled,
				"issue_fee":     settings.IssueFee.String(),
				"renew_fee":     settings.RenewFee.String(),
				"fee_recipient": settings.FeeRecipient,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return settings, nil
}

// Creator Management
func (s *AdminService) RegisterCreator(ctx context.Context, caller models.AccountID, req *RegisterCreatorRequest) (*models.CreatorRegistration, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	registration := &models.CreatorRegistration{Account: req.Account, RegisteredBy: caller}
	err := s.ledger.execute(ctx, "register_creator", func(u *unit) error {
		registered, err := isRegisteredCreator(u.tx, req.Account)
		if err != nil {
			return err
		}
		if registered {
			return fmt.Errorf("creator %s: %w", req.Account, ErrAlreadyExists)
		}
		if err := u.tx.Create(registration).Error; err != nil {
			return fmt.Errorf("failed to register creator: %w", err)
		}

		return u.emit(models.LedgerEvent{
			Type:    models.EventCreatorRegistered,
			Account: req.Account,
		})
	})
	if err != nil {
		return nil, err
	}
	return registration, nil
}

func (s *AdminService) IsRegisteredCreator(ctx context.Context, account models.AccountID) (bool, error) {
	return isRegisteredCreator(s.ledger.conn(ctx), account)
}

func (s *AdminService) ListCreators(ctx context.Context, params utils.PaginationParams) ([]models.CreatorRegistration, int64, error) {
	query := s.ledger.conn(ctx).Model(&models.CreatorRegistration{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count creators: %w", err)
	}

	query = utils.ApplySort(query, params, []string{"created_at", "account"})
	query = utils.ApplyPagination(query, params)

	var creators []models.CreatorRegistration
	if err := query.Find(&creators).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch creators: %w", err)
	}
	return creators, total, nil
}

// Audit Logs
func (s *AdminService) GetAuditLogs(ctx context.Context, caller models.AccountID, filter AuditLogFilter) ([]models.AuditLog, int64, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, 0, ErrUnauthorized
	}

	query := s.ledger.conn(ctx).Model(&models.AuditLog{})
	if filter.Account != "" {
		query = query.Where("account = ?", filter.Account)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ResourceType != "" {
		query = query.Where("resource_type = ?", filter.ResourceType)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at >= ?", *filter.CreatedAfter)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count audit logs: %w", err)
	}

	query = utils.ApplySort(query, filter.PaginationParams, []string{"created_at", "action"})
	query = utils.ApplyPagination(query, filter.PaginationParams)

	var logs []models.AuditLog
	if err := query.Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch audit logs: %w", err)
	}
	return logs, total, nil
}

// CreateAuditLog stores one request-level audit entry.
func CreateAuditLog(db *gorm.DB, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	return db.Create(entry).Error
}

// loadSettings falls back to the configured defaults until the settings
// row has been seeded.
func loadSettings(db *gorm.DB, cfg config.LedgerConfig) (*models.LedgerSettings, error) {
	var settings models.LedgerSettings
	err := db.Where("id = ?", settingsID).First(&settings).Error
	if err == nil {
		return &settings, nil
	}
	if !isNotFound(err) {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	issueFee, err := models.ParseAmount(cfg.IssueFee)
	if err != nil {
		issueFee = models.Amount{}
	}
	renewFee, err := models.ParseAmount(cfg.RenewFee)
	if err != nil {
		renewFee = models.Amount{}
	}
	return &models.LedgerSettings{
		ID:           settingsID,
		FeeEnabled:   cfg.FeeEnabled,
		IssueFee:     issueFee,
		RenewFee:     renewFee,
		FeeRecipient: cfg.FeeVaultAccount,
	}, nil
}
