// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Info),
		TranslateError: true,
	}
	if cfg.LogLevel == "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	dialector := postgres.Open(cfg.DSN())
	if cfg.IsSQLite() {
		dialector = sqlite.Open(cfg.DSN())
	}

	// Connect to database
	db, err := gorm.Open(dialector, gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool. sqlite allows a single writer, so every
	// statement goes through one connection.
	if cfg.IsSQLite() {
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)
	}

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("driver", cfg.Driver).Info("Database connection established")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations")

	err := db.AutoMigrate(
		&models.Sequence{},
		&models.Asset{},
		&models.Investment{},
		&models.Token{},
		&models.RevenueAccount{},
		&models.RevenuePool{},
		&models.Listing{},
		&models.PendingRefund{},
		&models.License{},
		&models.TerritoryLock{},
		&models.ActiveLicenseIndex{},
		&models.LedgerSettings{},
		&models.CreatorRegistration{},
		&models.AuditLog{},
		&models.LedgerEvent{},
		&models.Balance{},
		&models.Allowance{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	createIndexes(db)

	logrus.Info("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_investments_asset ON investments(asset_id)",
		"CREATE INDEX IF NOT EXISTS idx_licenses_asset_type_territory ON licenses(asset_id, license_type, territory)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_asset_seq ON ledger_events(asset_id, seq)",
		"CREATE INDEX IF NOT EXISTS idx_ledger_events_license_seq ON ledger_events(license_id, seq)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_account_action ON audit_logs(account, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}
}

// SeedInitialData writes the settings row from configuration on first start.
func SeedInitialData(db *gorm.DB, cfg config.LedgerConfig) error {
	var count int64
	if err := db.Model(&models.LedgerSettings{}).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count ledger settings: %w", err)
	}
	if count > 0 {
		return nil
	}

	issueFee, err := models.ParseAmount(cfg.IssueFee)
	if err != nil {
		return fmt.Errorf("invalid LEDGER_ISSUE_FEE: %w", err)
	}
	renewFee, err := models.ParseAmount(cfg.RenewFee)
	if err != nil {
		return fmt.Errorf("invalid LEDGER_RENEW_FEE: %w", err)
	}

	settings := &models.LedgerSettings{
		ID:           1,
		FeeEnabled:   cfg.FeeEnabled,
		IssueFee:     issueFee,
		RenewFee:     renewFee,
		FeeRecipient: cfg.FeeVaultAccount,
		UpdatedBy:    cfg.AdminAccount,
	}
	if err := db.Create(settings).Error; err != nil {
		return fmt.Errorf("failed to seed ledger settings: %w", err)
	}

	logrus.Info("Ledger settings seeded")
	return nil
}

type txKey struct{}

// WithTx returns a context carrying tx. Collaborators that share the
// database join the transaction through Conn.
func WithTx(ctx context.Context, tx *gorm.DB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// Conn returns the transaction carried by ctx, or db bound to ctx.
func Conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok && tx != nil {
		return tx
	}
	return db.WithContext(ctx)
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
