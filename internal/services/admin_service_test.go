// internal/services/admin_service_test.go
package services

import (
	"time"

	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

func (s *LedgerSuite) TestFeeSettings() {
	settings, err := s.admin.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.False(settings.FeeEnabled)
	s.Equal(s.cfg.FeeVaultAccount, settings.FeeRecipient)

	enabled := true
	fee := amt(25)
	_, err = s.admin.UpdateFeeSettings(s.ctx, testCreator, &UpdateFeeSettingsRequest{FeeEnabled: &enabled})
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.admin.UpdateFeeSettings(s.ctx, testAdmin, &UpdateFeeSettingsRequest{FeeRecipient: "has space"})
	s.ErrorIs(err, ErrInvalidInput)

	s.published = nil
	updated, err := s.admin.UpdateFeeSettings(s.ctx, testAdmin, &UpdateFeeSettingsRequest{FeeEnabled: &enabled, IssueFee: &fee})
	s.Require().NoError(err)
	s.True(updated.FeeEnabled)
	s.Equal("25", updated.IssueFee.String())
	s.True(updated.RenewFee.IsZero(), "fields left out keep their value")
	s.Equal(testAdmin, updated.UpdatedBy)

	s.Require().Len(s.published, 1)
	s.Equal(models.EventFeeSettingsUpdated, s.published[0].Type)
	s.Equal("25", s.published[0].Payload["issue_fee"])

	settings, err = s.admin.GetSettings(s.ctx)
	s.Require().NoError(err)
	s.True(settings.FeeEnabled)
	s.Equal("25", settings.IssueFee.String())
}

func (s *LedgerSuite) TestCreatorRegistry() {
	_, err := s.admin.RegisterCreator(s.ctx, testCreator, &RegisterCreatorRequest{Account: testCreator})
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.admin.RegisterCreator(s.ctx, testAdmin, &RegisterCreatorRequest{})
	s.ErrorIs(err, ErrInvalidAccount)

	registration, err := s.admin.RegisterCreator(s.ctx, testAdmin, &RegisterCreatorRequest{Account: testCreator})
	s.Require().NoError(err)
	s.Equal(testAdmin, registration.RegisteredBy)

	_, err = s.admin.RegisterCreator(s.ctx, testAdmin, &RegisterCreatorRequest{Account: testCreator})
	s.ErrorIs(err, ErrAlreadyExists)

	registered, err := s.admin.IsRegisteredCreator(s.ctx, testCreator)
	s.Require().NoError(err)
	s.True(registered)
	registered, err = s.admin.IsRegisteredCreator(s.ctx, "nobody")
	s.Require().NoError(err)
	s.False(registered)

	_, err = s.admin.RegisterCreator(s.ctx, testAdmin, &RegisterCreatorRequest{Account: "studio"})
	s.Require().NoError(err)

	creators, total, err := s.admin.ListCreators(s.ctx, utils.PaginationParams{Page: 1, Limit: 10, Sort: "account", Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(creators, 2)
	s.Equal(testCreator, creators[0].Account)
}

func (s *LedgerSuite) TestDashboardStats() {
	_, err := s.admin.GetDashboardStats(s.ctx, testCreator)
	s.ErrorIs(err, ErrUnauthorized)

	assetID := s.investedAsset("Stats", map[string]uint64{"alice": 10}, []string{"alice"})
	s.registerAsset(testCreator, "Unfunded")
	_, err = s.issue(assetID, "viewer", time.Hour, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.Require().NoError(err)
	_, err = s.market.ListShares(s.ctx, "alice", assetID, &ListSharesRequest{Price: amt(5)})
	s.Require().NoError(err)

	stats, err := s.admin.GetDashboardStats(s.ctx, testAdmin)
	s.Require().NoError(err)
	s.Equal(int64(2), stats.TotalAssets)
	s.Equal(int64(1), stats.FundedAssets)
	s.Equal(int64(1), stats.GoalReachedAssets)
	s.Equal(int64(1), stats.TotalInvestments)
	s.Equal(int64(1), stats.TotalLicenses)
	s.Equal(int64(1), stats.ActiveLicenses)
	s.Equal(int64(1), stats.OpenListings)
	s.Equal(s.eventCount(), stats.TotalEvents)
	s.Equal(stats.TotalEvents, stats.EventsThisMonth)
}

func (s *LedgerSuite) TestAuditLogs() {
	entries := []models.AuditLog{
		{Account: "alice", Action: "POST /v1/assets", ResourceType: "assets", Status: 201},
		{Account: "bob", Action: "POST /v1/assets/:id/invest", ResourceType: "assets", ResourceID: "1", Status: 200},
		{Account: "alice", Action: "POST /v1/licenses", ResourceType: "licenses", Status: 409},
	}
	for i := range entries {
		s.Require().NoError(CreateAuditLog(s.db, &entries[i]))
	}

	_, _, err := s.admin.GetAuditLogs(s.ctx, "alice", AuditLogFilter{})
	s.ErrorIs(err, ErrUnauthorized)

	logs, total, err := s.admin.GetAuditLogs(s.ctx, testAdmin, AuditLogFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10},
		Account:          "alice",
	})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(logs, 2)

	logs, total, err = s.admin.GetAuditLogs(s.ctx, testAdmin, AuditLogFilter{
		PaginationParams: utils.PaginationParams{Page: 1, Limit: 10},
		ResourceType:     "assets",
		Action:           "POST /v1/assets/:id/invest",
	})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Require().Len(logs, 1)
	s.Equal("bob", logs[0].Account)

	future := time.Now().Add(time.Hour)
	_, total, err = s.admin.GetAuditLogs(s.ctx, testAdmin, AuditLogFilter{CreatedAfter: &future})
	s.Require().NoError(err)
	s.Zero(total)
}
