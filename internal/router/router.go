// internal/router/router.go
package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/handlers"
	"github.com/javajoker/media-ledger/internal/middleware"
	"github.com/javajoker/media-ledger/internal/services"
	"github.com/javajoker/media-ledger/internal/utils"
)

// Services holds the ledger components shared by every handler.
type Services struct {
	Ledger     *services.Ledger
	Events     *services.EventService
	Storage    *services.StorageService
	Rail       *services.LedgerRail
	Auth       *services.AuthService
	Asset      *services.AssetService
	Investment *services.InvestmentService
	Revenue    *services.RevenueService
	License    *services.LicenseService
	Market     *services.MarketService
	Admin      *services.AdminService
	Payment    *services.PaymentService
}

// NewServices builds the ledger on the in-database rail. Payouts to Stripe
// connected accounts are mirrored when a Stripe key is configured, and
// committed events are archived to S3 when a bucket is configured.
func NewServices(db *gorm.DB, cfg *config.Config, opts ...services.LedgerOption) (*Services, error) {
	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	events := services.NewEventService(db)
	if err := events.Subscribe(services.LogSink(logrus.StandardLogger())); err != nil {
		return nil, fmt.Errorf("failed to subscribe log sink: %w", err)
	}
	if err := events.Subscribe(services.MetricsSink); err != nil {
		return nil, fmt.Errorf("failed to subscribe metrics sink: %w", err)
	}
	if storageService.Enabled() {
		if err := events.SubscribeAsync(storageService.ArchiveSink, true); err != nil {
			return nil, fmt.Errorf("failed to subscribe archive sink: %w", err)
		}
	}

	ledgerRail := services.NewLedgerRail(db, cfg.Ledger.EscrowAccount, cfg.Ledger.SystemAccounts()...)
	var rail services.PaymentRail = ledgerRail
	if cfg.Payment.StripeSecretKey != "" {
		rail = services.NewStripePayoutRail(ledgerRail, cfg.Payment)
	}

	ledger := services.NewLedger(db, rail, events, cfg.Ledger, opts...)

	return &Services{
		Ledger:     ledger,
		Events:     events,
		Storage:    storageService,
		Rail:       ledgerRail,
		Auth:       services.NewAuthService(ledger, cfg.JWT),
		Asset:      services.NewAssetService(ledger),
		Investment: services.NewInvestmentService(ledger),
		Revenue:    services.NewRevenueService(ledger),
		License:    services.NewLicenseService(ledger),
		Market:     services.NewMarketService(ledger),
		Admin:      services.NewAdminService(ledger),
		Payment:    services.NewPaymentService(ledger, ledgerRail),
	}, nil
}

func Initialize(db *gorm.DB, cfg *config.Config) (*gin.Engine, *Services, error) {
	svc, err := NewServices(db, cfg)
	if err != nil {
		return nil, nil, err
	}
	return Setup(db, cfg, svc), svc, nil
}

// Setup mounts the HTTP API over svc.
func Setup(db *gorm.DB, cfg *config.Config, svc *Services) *gin.Engine {
	// Initialize handlers
	authHandler := handlers.NewAuthHandler(svc.Auth)
	assetHandler := handlers.NewAssetHandler(svc.Asset)
	investmentHandler := handlers.NewInvestmentHandler(svc.Investment)
	revenueHandler := handlers.NewRevenueHandler(svc.Revenue)
	licenseHandler := handlers.NewLicenseHandler(svc.License)
	marketHandler := handlers.NewMarketHandler(svc.Market)
	paymentHandler := handlers.NewPaymentHandler(svc.Payment)
	eventHandler := handlers.NewEventHandler(svc.Events, svc.Storage)
	adminHandler := handlers.NewAdminHandler(svc.Admin)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))
	r.Use(middleware.I18nMiddleware())
	limits := middleware.NewLimits(cfg.Server.RateLimit)
	r.Use(limits.General)

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 routes
	v1 := r.Group("/v1")
	v1.Use(middleware.OptionalAuth(), middleware.AuditLogMiddleware(db))
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(limits.Auth)
		{
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.POST("/token", middleware.AuthRequired(), middleware.AdminRequired(), authHandler.IssueToken)
			auth.GET("/me", middleware.AuthRequired(), authHandler.GetCurrentAccount)
		}

		// Asset registry, funding, revenue and share market
		assets := v1.Group("/assets")
		{
			assets.GET("", assetHandler.ListAssets)
			assets.GET("/:id", assetHandler.GetAsset)
			assets.GET("/:id/exists", assetHandler.AssetExists)
			assets.GET("/:id/owner", assetHandler.GetOwner)
			assets.GET("/:id/investors", investmentHandler.ListInvestors)
			assets.GET("/:id/investors/:investor/shares", investmentHandler.GetInvestorShares)
			assets.GET("/:id/investors/:investor/claimable", revenueHandler.GetClaimable)
			assets.GET("/:id/revenue", revenueHandler.GetRevenuePool)
			assets.GET("/:id/listings", marketHandler.GetListings)
			assets.GET("/:id/listings/:seller", marketHandler.GetListing)
			assets.GET("/:id/licenses", licenseHandler.ListAssetLicenses)

			// Authenticated routes
			protected := assets.Group("")
			protected.Use(middleware.AuthRequired(), limits.Write)
			{
				protected.POST("", assetHandler.RegisterAsset)
				protected.POST("/:id/transfer", assetHandler.TransferAsset)
				protected.POST("/:id/funding", investmentHandler.CreateFundingTarget)
				protected.POST("/:id/invest", investmentHandler.Invest)
				protected.POST("/:id/withdraw", investmentHandler.Withdraw)
				protected.POST("/:id/revenue", revenueHandler.DistributeRevenue)
				protected.POST("/:id/claim", revenueHandler.ClaimRevenue)
				protected.POST("/:id/listings", marketHandler.ListShares)
				protected.POST("/:id/buy", marketHandler.BuyShares)
			}
		}

		v1.GET("/investments", middleware.AuthRequired(), investmentHandler.GetMyInvestments)

		// License routes
		licenses := v1.Group("/licenses")
		{
			licenses.GET("/:id", licenseHandler.GetLicense)
			licenses.GET("/:id/valid", licenseHandler.IsValid)

			protected := licenses.Group("")
			protected.Use(middleware.AuthRequired(), limits.Write)
			{
				protected.POST("", licenseHandler.IssueLicense)
				protected.POST("/:id/renew", licenseHandler.RenewLicense)
				protected.POST("/:id/deactivate", licenseHandler.DeactivateLicense)
				protected.POST("/:id/reactivate", licenseHandler.ReactivateLicense)
				protected.POST("/:id/transfer", licenseHandler.TransferLicense)
			}
		}

		refunds := v1.Group("/refunds")
		refunds.Use(middleware.AuthRequired())
		{
			refunds.GET("", licenseHandler.GetPendingRefund)
			refunds.POST("/claim", limits.Write, licenseHandler.ClaimRefund)
		}

		// Payment rail routes
		rail := v1.Group("/rail")
		rail.Use(middleware.AuthRequired())
		{
			rail.GET("/balance", paymentHandler.GetBalance)
			rail.POST("/approve", limits.Write, paymentHandler.Approve)
			rail.POST("/mint", middleware.AdminRequired(), paymentHandler.Mint)
		}

		// Event log routes (public)
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.ListEvents)
			events.GET("/:seq/archive", eventHandler.GetArchiveURL)
		}

		v1.GET("/settings", adminHandler.GetSettings)
		v1.GET("/creators", adminHandler.ListCreators)
		v1.GET("/creators/:account", adminHandler.IsRegisteredCreator)

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired())
		{
			admin.GET("/stats", adminHandler.GetDashboardStats)
			admin.PUT("/fees", adminHandler.UpdateFeeSettings)
			admin.POST("/creators", adminHandler.RegisterCreator)
			admin.GET("/audit-logs", adminHandler.GetAuditLogs)
		}
	}

	return r
}
