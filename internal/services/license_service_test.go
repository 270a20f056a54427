// internal/services/license_service_test.go
package services

import (
	"math"
	"time"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

func (s *LedgerSuite) issue(assetID uint64, licensee string, period time.Duration, licenseType models.LicenseType, territory models.Territory) (*models.License, error) {
	return s.licenses.IssueLicense(s.ctx, testCreator, &IssueLicenseRequest{
		AssetID:        assetID,
		Licensee:       licensee,
		ValidityPeriod: int64(period.Seconds()),
		LicenseType:    licenseType,
		Territory:      territory,
	})
}

func (s *LedgerSuite) enableFees(issueFee, renewFee uint64, recipient string) {
	enabled := true
	issue, renew := amt(issueFee), amt(renewFee)
	_, err := s.admin.UpdateFeeSettings(s.ctx, testAdmin, &UpdateFeeSettingsRequest{
		FeeEnabled:   &enabled,
		IssueFee:     &issue,
		RenewFee:     &renew,
		FeeRecipient: recipient,
	})
	s.Require().NoError(err)
}

func (s *LedgerSuite) TestExclusiveTerritoryLock() {
	assetID := s.registerAsset(testCreator, "Exclusive")

	europe, err := s.issue(assetID, "distributor", time.Hour, models.LicenseTypeExclusive, models.TerritoryEurope)
	s.Require().NoError(err)
	s.Equal(uint64(1), europe.ID)

	_, err = s.issue(assetID, "rival", time.Hour, models.LicenseTypeExclusive, models.TerritoryEurope)
	s.ErrorIs(err, ErrTerritoryLocked)

	_, err = s.issue(assetID, "rival", time.Hour, models.LicenseTypeExclusive, models.TerritoryNorthAmerica)
	s.NoError(err)

	other := s.registerAsset(testCreator, "Other")
	_, err = s.issue(other, "rival", time.Hour, models.LicenseTypeExclusive, models.TerritoryEurope)
	s.NoError(err, "locks are scoped to one asset")
}

func (s *LedgerSuite) TestDuplicateNonExclusiveLicense() {
	assetID := s.registerAsset(testCreator, "Duplicate")

	_, err := s.issue(assetID, "a", time.Hour, models.LicenseTypeNonExclusive, models.TerritoryEurope)
	s.Require().NoError(err)

	_, err = s.issue(assetID, "b", time.Hour, models.LicenseTypeNonExclusive, models.TerritoryEurope)
	s.ErrorIs(err, ErrDuplicateLicense)

	_, err = s.issue(assetID, "b", time.Hour, models.LicenseTypeStreaming, models.TerritoryEurope)
	s.NoError(err)

	_, err = s.issue(assetID, "b", time.Hour, models.LicenseTypeNonExclusive, models.TerritoryAsia)
	s.NoError(err)
}

func (s *LedgerSuite) TestIssueLicenseRejections() {
	assetID := s.registerAsset(testCreator, "Rejections")

	_, err := s.issue(assetID, "x", 0, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.ErrorIs(err, ErrPeriodZero)

	_, err = s.issue(assetID, "x", s.cfg.MaxLicensePeriod+time.Second, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.ErrorIs(err, ErrPeriodTooLong)

	_, err = s.issue(assetID, "x", s.cfg.MaxLicensePeriod, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.NoError(err, "the cap itself is allowed")

	_, err = s.issue(assetID+1, "x", time.Hour, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.ErrorIs(err, ErrAssetNotFound)

	_, err = s.licenses.IssueLicense(s.ctx, "impostor", &IssueLicenseRequest{
		AssetID:        assetID,
		ValidityPeriod: 60,
		LicenseType:    models.LicenseTypeStreaming,
		Territory:      models.TerritoryAsia,
	})
	s.ErrorIs(err, ErrNotCreator)

	_, err = s.issue(assetID, "x", time.Hour, models.LicenseTypeStreaming, models.Territory("atlantis"))
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *LedgerSuite) TestLicenseValidityBoundary() {
	assetID := s.registerAsset(testCreator, "Boundary")
	start := s.now

	license, err := s.issue(assetID, "", 100*time.Second, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.Require().NoError(err)
	s.Equal(start.Unix()+100, license.ValidUntil)
	s.Equal(testCreator, license.Licensee, "an empty licensee issues to the creator")

	status, err := s.licenses.GetLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.Equal(testCreator, status.Owner)
	s.True(status.IsValid)

	s.now = start.Add(100 * time.Second)
	valid, err := s.licenses.IsValid(s.ctx, license.ID)
	s.Require().NoError(err)
	s.True(valid, "valid through the expiry second")

	s.now = start.Add(101 * time.Second)
	valid, err = s.licenses.IsValid(s.ctx, license.ID)
	s.Require().NoError(err)
	s.False(valid)

	valid, err = s.licenses.IsValid(s.ctx, 42)
	s.Require().NoError(err)
	s.False(valid, "unknown licenses are not valid")

	_, err = s.licenses.GetLicense(s.ctx, 42)
	s.ErrorIs(err, ErrNotFound)
}

func (s *LedgerSuite) TestTransferRequiresValidLicense() {
	assetID := s.registerAsset(testCreator, "Resale")
	start := s.now

	license, err := s.issue(assetID, "viewer", 100*time.Second, models.LicenseTypeNonExclusive, models.TerritoryAsia)
	s.Require().NoError(err)

	s.now = start.Add(150 * time.Second)
	_, err = s.licenses.TransferLicense(s.ctx, "viewer", license.ID, &TransferTokenRequest{To: "buyer"})
	s.ErrorIs(err, ErrInvalidLicense)

	_, err = s.licenses.RenewLicense(s.ctx, testCreator, license.ID, &RenewLicenseRequest{AdditionalTime: 100})
	s.ErrorIs(err, ErrNotTokenOwner, "only the holder renews")

	renewed, err := s.licenses.RenewLicense(s.ctx, "viewer", license.ID, &RenewLicenseRequest{AdditionalTime: 100})
	s.Require().NoError(err)
	s.Equal(start.Unix()+200, renewed.ValidUntil, "renewal extends the old expiry, not now")

	_, err = s.licenses.TransferLicense(s.ctx, "buyer", license.ID, &TransferTokenRequest{To: "buyer"})
	s.ErrorIs(err, ErrNotTokenOwner)

	token, err := s.licenses.TransferLicense(s.ctx, "viewer", license.ID, &TransferTokenRequest{To: "buyer"})
	s.Require().NoError(err)
	s.Equal("buyer", token.Owner)

	status, err := s.licenses.GetLicense(s.ctx, license.ID)
	s.Require().NoError(err)
	s.Equal("buyer", status.Owner)
	s.Equal("viewer", status.License.Licensee)

	_, err = s.licenses.TransferLicense(s.ctx, "buyer", 99, &TransferTokenRequest{To: "viewer"})
	s.ErrorIs(err, ErrInvalidLicense)
}

func (s *LedgerSuite) TestRenewalSaturates() {
	assetID := s.registerAsset(testCreator, "Forever")

	license, err := s.issue(assetID, "", time.Hour, models.LicenseTypeStreaming, models.TerritoryGlobal)
	s.Require().NoError(err)

	renewed, err := s.licenses.RenewLicense(s.ctx, testCreator, license.ID, &RenewLicenseRequest{AdditionalTime: math.MaxInt64})
	s.Require().NoError(err)
	s.Equal(int64(math.MaxInt64), renewed.ValidUntil)

	renewed, err = s.licenses.RenewLicense(s.ctx, testCreator, license.ID, &RenewLicenseRequest{AdditionalTime: 1})
	s.Require().NoError(err)
	s.Equal(int64(math.MaxInt64), renewed.ValidUntil)

	_, err = s.licenses.RenewLicense(s.ctx, testCreator, license.ID, &RenewLicenseRequest{})
	s.ErrorIs(err, ErrPeriodZero)
}

func (s *LedgerSuite) TestDeactivateReleasesTerritory() {
	assetID := s.registerAsset(testCreator, "Toggle")

	first, err := s.issue(assetID, "first", time.Hour, models.LicenseTypeExclusive, models.TerritoryEurope)
	s.Require().NoError(err)

	_, err = s.licenses.DeactivateLicense(s.ctx, "stranger", first.ID)
	s.ErrorIs(err, ErrUnauthorized)

	deactivated, err := s.licenses.DeactivateLicense(s.ctx, testCreator, first.ID)
	s.Require().NoError(err)
	s.False(deactivated.IsActive)

	_, err = s.licenses.DeactivateLicense(s.ctx, testAdmin, first.ID)
	s.ErrorIs(err, ErrLicenseInactive)

	valid, err := s.licenses.IsValid(s.ctx, first.ID)
	s.Require().NoError(err)
	s.False(valid)

	_, err = s.licenses.RenewLicense(s.ctx, "first", first.ID, &RenewLicenseRequest{AdditionalTime: 60})
	s.ErrorIs(err, ErrLicenseInactive)

	second, err := s.issue(assetID, "second", time.Hour, models.LicenseTypeExclusive, models.TerritoryEurope)
	s.Require().NoError(err, "the lock was released")

	_, err = s.licenses.ReactivateLicense(s.ctx, testCreator, first.ID)
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.licenses.ReactivateLicense(s.ctx, testAdmin, first.ID)
	s.ErrorIs(err, ErrTerritoryLocked)

	_, err = s.licenses.DeactivateLicense(s.ctx, "second", second.ID)
	s.Require().NoError(err, "the token owner may deactivate")

	reactivated, err := s.licenses.ReactivateLicense(s.ctx, testAdmin, first.ID)
	s.Require().NoError(err)
	s.True(reactivated.IsActive)

	_, err = s.licenses.ReactivateLicense(s.ctx, testAdmin, first.ID)
	s.ErrorIs(err, ErrLicenseActive)

	licenses, err := s.licenses.ListAssetLicenses(s.ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(licenses, 2)
	s.True(licenses[0].IsActive)
	s.False(licenses[1].IsActive)
}

func (s *LedgerSuite) TestDisabledFeesIgnorePayment() {
	assetID := s.registerAsset(testCreator, "Free")
	s.fund(testCreator, 100)

	_, err := s.licenses.IssueLicense(s.ctx, testCreator, &IssueLicenseRequest{
		AssetID:        assetID,
		ValidityPeriod: 60,
		LicenseType:    models.LicenseTypeStreaming,
		Territory:      models.TerritoryGlobal,
		Payment:        amt(40),
	})
	s.Require().NoError(err)
	s.Equal("100", s.balance(testCreator).String())
}

func (s *LedgerSuite) TestIssueFeeWithImmediateRefund() {
	assetID := s.registerAsset(testCreator, "Paid")
	s.fund(testCreator, 100)
	s.enableFees(10, 5, "treasury")

	_, err := s.licenses.IssueLicense(s.ctx, testCreator, &IssueLicenseRequest{
		AssetID:        assetID,
		ValidityPeriod: 60,
		LicenseType:    models.LicenseTypeStreaming,
		Territory:      models.TerritoryGlobal,
		Payment:        amt(9),
	})
	s.ErrorIs(err, ErrInsufficientFee)

	s.published = nil
	license, err := s.licenses.IssueLicense(s.ctx, testCreator, &IssueLicenseRequest{
		AssetID:        assetID,
		ValidityPeriod: 60,
		LicenseType:    models.LicenseTypeStreaming,
		Territory:      models.TerritoryGlobal,
		Payment:        amt(15),
	})
	s.Require().NoError(err)
	s.Equal([]models.EventType{
		models.EventLicenseIssued,
		models.EventFeePaid,
		models.EventRefundIssued,
	}, s.publishedTypes())
	s.Equal("5", s.published[2].Amount.String())

	s.Equal("90", s.balance(testCreator).String())
	s.Equal("10", s.balance("treasury").String())
	s.True(s.balance(s.cfg.FeeVaultAccount).IsZero())

	_, err = s.licenses.RenewLicense(s.ctx, testCreator, license.ID, &RenewLicenseRequest{AdditionalTime: 60, Payment: amt(5)})
	s.Require().NoError(err)
	s.Equal("85", s.balance(testCreator).String())
	s.Equal("15", s.balance("treasury").String())

	pending, err := s.licenses.GetPendingRefund(s.ctx, testCreator)
	s.Require().NoError(err)
	s.True(pending.IsZero())
}

func (s *LedgerSuite) TestIssueFeeWithPendingRefund() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.OverpaymentPolicy = config.OverpaymentPending
	})
	assetID := s.registerAsset(testCreator, "Pending")
	s.fund(testCreator, 100)
	s.enableFees(10, 5, "")

	_, err := s.licenses.IssueLicense(s.ctx, testCreator, &IssueLicenseRequest{
		AssetID:        assetID,
		ValidityPeriod: 60,
		LicenseType:    models.LicenseTypeStreaming,
		Territory:      models.TerritoryGlobal,
		Payment:        amt(15),
	})
	s.Require().NoError(err)
	s.Equal("85", s.balance(testCreator).String())
	s.Equal("15", s.balance(s.cfg.FeeVaultAccount).String())

	pending, err := s.licenses.GetPendingRefund(s.ctx, testCreator)
	s.Require().NoError(err)
	s.Equal("5", pending.String())

	refunded, err := s.licenses.ClaimRefund(s.ctx, testCreator)
	s.Require().NoError(err)
	s.Equal("5", refunded.String())
	s.Equal("90", s.balance(testCreator).String())
	s.Equal("10", s.balance(s.cfg.FeeVaultAccount).String())

	_, err = s.licenses.ClaimRefund(s.ctx, testCreator)
	s.ErrorIs(err, ErrNothingToClaim)
}
