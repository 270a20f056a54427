// internal/services/market_service_test.go
package services

import (
	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

func (s *LedgerSuite) TestListShares() {
	assetID := s.investedAsset("Listed", map[string]uint64{"alice": 40, "bob": 60}, []string{"alice", "bob"})

	_, err := s.market.ListShares(s.ctx, "carol", assetID, &ListSharesRequest{Price: amt(10)})
	s.ErrorIs(err, ErrNoShares)

	_, err = s.market.ListShares(s.ctx, "alice", assetID+1, &ListSharesRequest{Price: amt(10)})
	s.ErrorIs(err, ErrAssetNotFound)

	listing, err := s.market.ListShares(s.ctx, "alice", assetID, &ListSharesRequest{Price: amt(50)})
	s.Require().NoError(err)
	s.Equal("50", listing.Price.String())

	// Relisting replaces the price.
	_, err = s.market.ListShares(s.ctx, "alice", assetID, &ListSharesRequest{Price: amt(45)})
	s.Require().NoError(err)

	listings, err := s.market.ListListings(s.ctx, assetID)
	s.Require().NoError(err)
	s.Require().Len(listings, 1)
	s.Equal("45", listings[0].Price.String())

	_, err = s.market.GetListing(s.ctx, assetID, "bob")
	s.ErrorIs(err, ErrNotFound)
}

func (s *LedgerSuite) TestBuySharesMovesWholeStake() {
	assetID := s.investedAsset("Market", map[string]uint64{"alice": 40, "bob": 60}, []string{"alice", "bob"})
	s.fund("carol", 100)

	_, err := s.market.ListShares(s.ctx, "alice", assetID, &ListSharesRequest{Price: amt(50)})
	s.Require().NoError(err)

	// Decoupled: the buyer's payment is not checked against the listing.
	purchase, err := s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(20)})
	s.Require().NoError(err)
	s.Equal("40", purchase.Stake.String())
	s.Equal("40", purchase.Investment.Amount.String())
	s.Equal(uint64(40), purchase.Investment.SharePercent)

	s.Equal("20", s.balance("alice").String())
	s.Equal("80", s.balance("carol").String())

	asset, err := s.assets.GetAsset(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal(models.AccountList{"carol", "bob"}, asset.Investors)
	s.Equal("100", asset.TotalRaised.String())

	_, err = s.investments.GetInvestment(s.ctx, assetID, "alice")
	s.ErrorIs(err, ErrNotFound)
	_, err = s.market.GetListing(s.ctx, assetID, "alice")
	s.ErrorIs(err, ErrNotFound, "the listing is consumed by the sale")

	_, err = s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(1)})
	s.ErrorIs(err, ErrSellerHasNoShares)
}

func (s *LedgerSuite) TestBuySharesMergesIntoExistingStake() {
	assetID := s.investedAsset("Merge", map[string]uint64{"alice": 40, "bob": 60}, []string{"alice", "bob"})
	s.fund("bob", 10)

	purchase, err := s.market.BuyShares(s.ctx, "bob", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(10)})
	s.Require().NoError(err)
	s.Equal("100", purchase.Investment.Amount.String())
	s.Equal(uint64(100), purchase.Investment.SharePercent)

	asset, err := s.assets.GetAsset(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal(models.AccountList{"bob"}, asset.Investors)

	_, err = s.market.BuyShares(s.ctx, "bob", assetID, &BuySharesRequest{Seller: "bob", Payment: amt(1)})
	s.ErrorIs(err, ErrInvalidInput)
}

func (s *LedgerSuite) TestCoupledMarketPolicy() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.MarketPolicy = config.MarketCoupled
	})
	assetID := s.investedAsset("Coupled", map[string]uint64{"alice": 40, "bob": 60}, []string{"alice", "bob"})
	s.fund("carol", 100)

	_, err := s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(50)})
	s.ErrorIs(err, ErrListingNotFound)

	_, err = s.market.ListShares(s.ctx, "alice", assetID, &ListSharesRequest{Price: amt(50)})
	s.Require().NoError(err)

	_, err = s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(49)})
	s.ErrorIs(err, ErrPriceMismatch)
	s.Equal("100", s.balance("carol").String())

	_, err = s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(50)})
	s.Require().NoError(err)
	s.Equal("50", s.balance("alice").String())
}

func (s *LedgerSuite) TestBoughtStakeEarnsRevenue() {
	assetID := s.investedAsset("Earn", map[string]uint64{"alice": 40, "bob": 60}, []string{"alice", "bob"})
	s.fund("carol", 10)
	s.fund(testAdmin, 100)

	_, err := s.market.BuyShares(s.ctx, "carol", assetID, &BuySharesRequest{Seller: "alice", Payment: amt(10)})
	s.Require().NoError(err)

	_, err = s.revenue.Distribute(s.ctx, testAdmin, assetID, amt(100))
	s.Require().NoError(err)

	claimable, err := s.revenue.GetClaimable(s.ctx, assetID, "carol")
	s.Require().NoError(err)
	s.Equal("40", claimable.String())
	claimable, err = s.revenue.GetClaimable(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.True(claimable.IsZero())
}
