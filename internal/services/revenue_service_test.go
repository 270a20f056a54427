// internal/services/revenue_service_test.go
package services

import (
	"context"
	"errors"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

// investedAsset funds an asset to its goal with the given stakes.
func (s *LedgerSuite) investedAsset(title string, stakes map[string]uint64, order []string) uint64 {
	var goal uint64
	for _, stake := range stakes {
		goal += stake
	}
	assetID := s.fundedAsset(title, goal)
	for _, investor := range order {
		s.fund(investor, stakes[investor])
		_, err := s.investments.Invest(s.ctx, investor, assetID, amt(stakes[investor]))
		s.Require().NoError(err)
	}
	return assetID
}

func (s *LedgerSuite) TestDistributeAndClaim() {
	assetID := s.investedAsset("Split", map[string]uint64{"alice": 30, "bob": 70}, []string{"alice", "bob"})
	s.fund(testAdmin, 100)

	s.published = nil
	result, err := s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(100))
	s.Require().NoError(err)
	s.Equal("100", result.Credited.String())
	s.True(result.Dust.IsZero())
	s.Equal([]models.EventType{
		models.EventRevenueDistributed,
		models.EventRevenueCredited,
		models.EventRevenueCredited,
	}, s.publishedTypes())

	claimable, err := s.revenue.GetClaimable(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.Equal("30", claimable.String())
	claimable, err = s.revenue.GetClaimable(s.ctx, assetID, "bob")
	s.Require().NoError(err)
	s.Equal("70", claimable.String())
	s.Equal("100", s.balance(s.cfg.RevenueVaultAccount).String())

	claimed, err := s.revenue.Claim(s.ctx, "alice", assetID)
	s.Require().NoError(err)
	s.Equal("30", claimed.String())
	s.Equal("30", s.balance("alice").String())
	s.Equal("70", s.balance(s.cfg.RevenueVaultAccount).String())

	_, err = s.revenue.Claim(s.ctx, "alice", assetID)
	s.ErrorIs(err, ErrNothingToClaim)

	account, err := s.revenue.GetRevenueAccount(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.True(account.Claimable.IsZero())
	s.Equal("30", account.Claimed.String())

	_, err = s.revenue.Claim(s.ctx, "stranger", assetID)
	s.ErrorIs(err, ErrNothingToClaim)
}

func (s *LedgerSuite) TestDistributeLeavesDustInPool() {
	assetID := s.investedAsset("Dust", map[string]uint64{"alice": 1, "bob": 1, "carol": 1}, []string{"alice", "bob", "carol"})
	s.fund(testAdmin, 10)

	result, err := s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(10))
	s.Require().NoError(err)
	s.Equal("9", result.Credited.String())
	s.Equal("1", result.Dust.String())
	s.Len(result.Shares, 3)

	pool, err := s.revenue.GetRevenuePool(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal("10", pool.Deposited.String())
	s.Equal("9", pool.Credited.String())
	s.Equal("1", pool.Dust.String())

	_, err = s.revenue.GetRevenuePool(s.ctx, assetID+1)
	s.ErrorIs(err, ErrAssetNotFound)
}

func (s *LedgerSuite) TestDistributeRejections() {
	empty := s.fundedAsset("Empty", 10)
	funded := s.investedAsset("Funded", map[string]uint64{"alice": 10}, []string{"alice"})
	s.fund(testAdmin, 10)
	s.fund("mallory", 10)

	_, err := s.revenue.Distribute(s.ctx, testAdmin, empty, amt(5))
	s.ErrorIs(err, ErrNoInvestors)

	_, err = s.revenue.Distribute(s.ctx, "mallory", funded, amt(5))
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.revenue.Distribute(s.ctx, testAdmin, funded, models.Amount{})
	s.ErrorIs(err, ErrZeroAmount)

	_, err = s.revenue.Distribute(s.ctx, testAdmin, 99, amt(5))
	s.ErrorIs(err, ErrAssetNotFound)

	_, err = s.revenue.Distribute(s.ctx, testAdmin, funded, amt(50))
	s.ErrorIs(err, ErrTransferFailed, "the admin only holds 10")

	pool, err := s.revenue.GetRevenuePool(s.ctx, funded)
	s.Require().NoError(err)
	s.True(pool.Deposited.IsZero())
}

func (s *LedgerSuite) TestProducerRevenueAuthority() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.RevenueAuthority = config.AuthorityProducer
	})
	assetID := s.investedAsset("Producer", map[string]uint64{"alice": 10}, []string{"alice"})
	s.fund(testAdmin, 10)
	s.fund(testCreator, 10)

	_, err := s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(5))
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.revenue.Distribute(s.ctx, testCreator, assetID, amt(5))
	s.Require().NoError(err)

	claimable, err := s.revenue.GetClaimable(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.Equal("5", claimable.String())
}

func (s *LedgerSuite) TestPushDelivery() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.RevenueDelivery = config.DeliveryPush
	})
	assetID := s.investedAsset("Push", map[string]uint64{"alice": 30, "bob": 70}, []string{"alice", "bob"})
	s.fund(testAdmin, 100)

	s.published = nil
	_, err := s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(100))
	s.Require().NoError(err)
	s.Equal([]models.EventType{
		models.EventRevenueDistributed,
		models.EventRevenuePaid,
		models.EventRevenuePaid,
	}, s.publishedTypes())

	s.Equal("30", s.balance("alice").String())
	s.Equal("70", s.balance("bob").String())
	s.True(s.balance(s.cfg.RevenueVaultAccount).IsZero())

	account, err := s.revenue.GetRevenueAccount(s.ctx, assetID, "bob")
	s.Require().NoError(err)
	s.True(account.Claimable.IsZero())
	s.Equal("70", account.Claimed.String())

	_, err = s.revenue.Claim(s.ctx, "bob", assetID)
	s.ErrorIs(err, ErrNothingToClaim)
}

func (s *LedgerSuite) TestPushDeliveryIsAtomic() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.RevenueDelivery = config.DeliveryPush
	})
	assetID := s.investedAsset("Atomic", map[string]uint64{"alice": 30, "bob": 70}, []string{"alice", "bob"})
	s.fund(testAdmin, 100)
	published := len(s.published)

	s.rail.before = func(ctx context.Context, from, to models.AccountID, amount models.Amount) error {
		if to == "bob" {
			return errors.New("bob's bank is closed")
		}
		return nil
	}

	_, err := s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(100))
	s.Require().ErrorIs(err, ErrTransferFailed)

	s.Equal("100", s.balance(testAdmin).String())
	s.True(s.balance("alice").IsZero(), "the payout made before the failure is rolled back")
	s.Len(s.published, published)

	account, err := s.revenue.GetRevenueAccount(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.True(account.Claimed.IsZero())
}
