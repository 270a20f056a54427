// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Ledger      LedgerConfig
	Payment     PaymentConfig
	AWS         AWSConfig
	I18n        I18nConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
	RateLimit    bool
	CORSOrigins  []string
}

type DatabaseConfig struct {
	Driver       string // postgres or sqlite
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	Path         string // sqlite file
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  int
	LogLevel     string
}

type JWTConfig struct {
	SecretKey       string
	AccessTokenTTL  int // in hours
	RefreshTokenTTL int // in hours
}

// Funding policies.
const (
	FundingGoalBound = "goal_bound"
	FundingOpen      = "open"
)

// Revenue delivery modes.
const (
	DeliveryPull = "pull"
	DeliveryPush = "push"
)

// Revenue authorities.
const (
	AuthorityOwner    = "owner"
	AuthorityProducer = "producer"
)

// Overpayment policies.
const (
	OverpaymentRefund  = "refund"
	OverpaymentPending = "pending"
)

// Market policies.
const (
	MarketDecoupled = "decoupled"
	MarketCoupled   = "coupled"
)

type LedgerConfig struct {
	AdminAccount              string
	EscrowAccount             string
	RevenueVaultAccount       string
	FeeVaultAccount           string
	FundingPolicy             string
	RevenueDelivery           string
	RevenueAuthority          string
	OverpaymentPolicy         string
	MarketPolicy              string
	RequireRegisteredCreators bool
	MaxLicensePeriod          time.Duration
	FeeEnabled                bool
	IssueFee                  string
	RenewFee                  string
}

// SystemAccounts are rail accounts owned by the ledger itself. Funds leave
// them without a prior allowance.
func (l LedgerConfig) SystemAccounts() []string {
	return []string{l.EscrowAccount, l.RevenueVaultAccount, l.FeeVaultAccount}
}

type PaymentConfig struct {
	StripeSecretKey string
	Currency        string
}

type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	EventBucket     string
}

type I18nConfig struct {
	DefaultLocale string
}

func Load() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "localhost"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 15),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
			RateLimit:    getEnvAsBool("SERVER_RATE_LIMIT", true),
			CORSOrigins:  getEnvAsList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "media_ledger"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			Path:         getEnv("DB_PATH", "media_ledger.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 25),
			MaxLifetime:  getEnvAsInt("DB_MAX_LIFETIME", 300),
			LogLevel:     getEnv("DB_LOG_LEVEL", "silent"),
		},
		JWT: JWTConfig{
			SecretKey:       getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			AccessTokenTTL:  getEnvAsInt("JWT_ACCESS_TTL", 24),
			RefreshTokenTTL: getEnvAsInt("JWT_REFRESH_TTL", 168),
		},
		Ledger: LedgerConfig{
			AdminAccount:              getEnv("LEDGER_ADMIN_ACCOUNT", "admin"),
			EscrowAccount:             getEnv("LEDGER_ESCROW_ACCOUNT", "ledger:escrow"),
			RevenueVaultAccount:       getEnv("LEDGER_REVENUE_VAULT", "ledger:revenue"),
			FeeVaultAccount:           getEnv("LEDGER_FEE_VAULT", "ledger:fees"),
			FundingPolicy:             getEnv("LEDGER_FUNDING_POLICY", FundingGoalBound),
			RevenueDelivery:           getEnv("LEDGER_REVENUE_DELIVERY", DeliveryPull),
			RevenueAuthority:          getEnv("LEDGER_REVENUE_AUTHORITY", AuthorityOwner),
			OverpaymentPolicy:         getEnv("LEDGER_OVERPAYMENT_POLICY", OverpaymentRefund),
			MarketPolicy:              getEnv("LEDGER_MARKET_POLICY", MarketDecoupled),
			RequireRegisteredCreators: getEnvAsBool("LEDGER_REQUIRE_REGISTERED_CREATORS", false),
			MaxLicensePeriod:          time.Duration(getEnvAsInt("LEDGER_MAX_LICENSE_DAYS", 3650)) * 24 * time.Hour,
			FeeEnabled:                getEnvAsBool("LEDGER_FEE_ENABLED", false),
			IssueFee:                  getEnv("LEDGER_ISSUE_FEE", "0"),
			RenewFee:                  getEnv("LEDGER_RENEW_FEE", "0"),
		},
		Payment: PaymentConfig{
			StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
			Currency:        getEnv("PAYMENT_CURRENCY", "usd"),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			EventBucket:     getEnv("AWS_EVENT_BUCKET", ""),
		},
		I18n: I18nConfig{
			DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),
		},
	}

	return config, config.Validate()
}

func (c *Config) Validate() error {
	if c.JWT.SecretKey == "your-secret-key-change-in-production" && c.Environment == "production" {
		return fmt.Errorf("JWT secret key must be changed in production")
	}

	if c.Database.Driver == "postgres" && c.Database.Password == "" && c.Environment == "production" {
		return fmt.Errorf("database password is required in production")
	}

	if c.Database.Driver != "postgres" && c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}

	return c.Ledger.Validate()
}

func (l LedgerConfig) Validate() error {
	checks := []struct {
		name    string
		value   string
		allowed []string
	}{
		{"LEDGER_FUNDING_POLICY", l.FundingPolicy, []string{FundingGoalBound, FundingOpen}},
		{"LEDGER_REVENUE_DELIVERY", l.RevenueDelivery, []string{DeliveryPull, DeliveryPush}},
		{"LEDGER_REVENUE_AUTHORITY", l.RevenueAuthority, []string{AuthorityOwner, AuthorityProducer}},
		{"LEDGER_OVERPAYMENT_POLICY", l.OverpaymentPolicy, []string{OverpaymentRefund, OverpaymentPending}},
		{"LEDGER_MARKET_POLICY", l.MarketPolicy, []string{MarketDecoupled, MarketCoupled}},
	}
	for _, check := range checks {
		if !contains(check.allowed, check.value) {
			return fmt.Errorf("%s must be one of %s, got %q", check.name, strings.Join(check.allowed, ", "), check.value)
		}
	}

	if l.AdminAccount == "" {
		return fmt.Errorf("LEDGER_ADMIN_ACCOUNT is required")
	}

	accounts := l.SystemAccounts()
	for i, account := range accounts {
		if account == "" {
			return fmt.Errorf("ledger system accounts must not be empty")
		}
		for _, other := range accounts[i+1:] {
			if account == other {
				return fmt.Errorf("ledger system account %q is used twice", account)
			}
		}
	}

	if l.MaxLicensePeriod <= 0 {
		return fmt.Errorf("LEDGER_MAX_LICENSE_DAYS must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(strings.ToLower(value)); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
