// internal/services/investment_service_test.go
package services

import (
	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

func (s *LedgerSuite) TestFundingGoalReleasesEscrow() {
	assetID := s.fundedAsset("Goal", 10)
	s.fund("alice", 10)
	s.fund("bob", 10)

	_, err := s.investments.Invest(s.ctx, "alice", assetID, amt(6))
	s.Require().NoError(err)
	s.Equal("6", s.balance(s.cfg.EscrowAccount).String())

	s.published = nil
	_, err = s.investments.Invest(s.ctx, "bob", assetID, amt(4))
	s.Require().NoError(err)

	s.Equal([]models.EventType{
		models.EventInvestmentMade,
		models.EventFundingGoalReached,
		models.EventFundsReleased,
	}, s.publishedTypes())
	s.Equal("10", s.published[1].Amount.String())
	s.Equal("10", s.published[2].Amount.String())
	s.Equal(testPayout, s.published[2].Account)

	s.Equal("10", s.balance(testPayout).String())
	s.True(s.balance(s.cfg.EscrowAccount).IsZero())

	asset, err := s.assets.GetAsset(s.ctx, assetID)
	s.Require().NoError(err)
	s.True(asset.GoalReached)
	s.True(asset.Escrowed.IsZero())
	s.Equal("10", asset.TotalRaised.String())

	aliceShare, err := s.investments.GetInvestorShares(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(60), aliceShare)
	bobShare, err := s.investments.GetInvestorShares(s.ctx, assetID, "bob")
	s.Require().NoError(err)
	s.Equal(uint64(40), bobShare)

	s.fund("carol", 5)
	_, err = s.investments.Invest(s.ctx, "carol", assetID, amt(1))
	s.ErrorIs(err, ErrGoalAlreadyReached)

	_, err = s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(1))
	s.ErrorIs(err, ErrGoalAlreadyReached)
}

func (s *LedgerSuite) TestInvestmentsSumToTotalRaised() {
	assetID := s.fundedAsset("Sum", 1000)
	for _, investor := range []string{"alice", "bob", "carol"} {
		s.fund(investor, 100)
	}

	steps := []struct {
		investor string
		amount   uint64
		withdraw bool
	}{
		{"alice", 40, false},
		{"bob", 25, false},
		{"alice", 15, true},
		{"carol", 60, false},
		{"bob", 25, true},
		{"alice", 5, false},
	}
	for _, step := range steps {
		var err error
		if step.withdraw {
			_, err = s.investments.WithdrawInvestment(s.ctx, step.investor, assetID, amt(step.amount))
		} else {
			_, err = s.investments.Invest(s.ctx, step.investor, assetID, amt(step.amount))
		}
		s.Require().NoError(err)

		asset, err := s.assets.GetAsset(s.ctx, assetID)
		s.Require().NoError(err)
		investments, err := s.investments.ListInvestors(s.ctx, assetID)
		s.Require().NoError(err)

		sum := models.Amount{}
		for _, investment := range investments {
			s.False(investment.Amount.IsZero(), "investor list holds only positive stakes")
			sum, err = sum.Add(investment.Amount)
			s.Require().NoError(err)
		}
		s.Equal(asset.TotalRaised.String(), sum.String())
		s.Equal(asset.TotalRaised.String(), s.balance(s.cfg.EscrowAccount).String())
	}
}

func (s *LedgerSuite) TestWithdrawInvestment() {
	assetID := s.fundedAsset("Withdraw", 100)
	s.fund("alice", 50)

	_, err := s.investments.Invest(s.ctx, "alice", assetID, amt(30))
	s.Require().NoError(err)

	investment, err := s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(10))
	s.Require().NoError(err)
	s.Equal("20", investment.Amount.String())
	s.Equal(uint64(20), investment.SharePercent)
	s.Equal("30", s.balance("alice").String())

	_, err = s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(25))
	s.ErrorIs(err, ErrInsufficientBalance)

	_, err = s.investments.WithdrawInvestment(s.ctx, "bob", assetID, amt(1))
	s.ErrorIs(err, ErrInsufficientBalance)

	_, err = s.investments.WithdrawInvestment(s.ctx, "alice", assetID, models.Amount{})
	s.ErrorIs(err, ErrZeroAmount)

	investment, err = s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(20))
	s.Require().NoError(err)
	s.True(investment.Amount.IsZero())
	s.Equal("50", s.balance("alice").String())

	asset, err := s.assets.GetAsset(s.ctx, assetID)
	s.Require().NoError(err)
	s.Empty(asset.Investors)
	s.True(asset.TotalRaised.IsZero())

	share, err := s.investments.GetInvestorShares(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.Zero(share)
}

func (s *LedgerSuite) TestWithdrawSwapRemovesInvestor() {
	assetID := s.fundedAsset("Order", 1000)
	for _, investor := range []string{"alice", "bob", "carol"} {
		s.fund(investor, 10)
		_, err := s.investments.Invest(s.ctx, investor, assetID, amt(10))
		s.Require().NoError(err)
	}

	_, err := s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(10))
	s.Require().NoError(err)

	asset, err := s.assets.GetAsset(s.ctx, assetID)
	s.Require().NoError(err)
	s.Equal(models.AccountList{"carol", "bob"}, asset.Investors)
}

func (s *LedgerSuite) TestFundingTargetRules() {
	assetID := s.registerAsset(testCreator, "Rules")
	s.fund("alice", 10)

	_, err := s.investments.Invest(s.ctx, "alice", assetID, amt(1))
	s.ErrorIs(err, ErrAssetNotFound, "goal-bound funding needs a target")

	_, err = s.investments.CreateFundingTarget(s.ctx, testCreator, assetID, &CreateFundingTargetRequest{Goal: amt(10), PayoutAccount: testPayout})
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.investments.CreateFundingTarget(s.ctx, testAdmin, assetID, &CreateFundingTargetRequest{PayoutAccount: testPayout})
	s.ErrorIs(err, ErrInvalidGoal)

	_, err = s.investments.CreateFundingTarget(s.ctx, testAdmin, assetID, &CreateFundingTargetRequest{Goal: amt(10)})
	s.ErrorIs(err, ErrInvalidAccount)

	_, err = s.investments.CreateFundingTarget(s.ctx, testAdmin, 99, &CreateFundingTargetRequest{Goal: amt(10), PayoutAccount: testPayout})
	s.ErrorIs(err, ErrAssetNotFound)

	asset, err := s.investments.CreateFundingTarget(s.ctx, testAdmin, assetID, &CreateFundingTargetRequest{Goal: amt(10), PayoutAccount: testPayout})
	s.Require().NoError(err)
	s.Equal("10", asset.FundingGoal.String())

	_, err = s.investments.CreateFundingTarget(s.ctx, testAdmin, assetID, &CreateFundingTargetRequest{Goal: amt(20), PayoutAccount: testPayout})
	s.ErrorIs(err, ErrAlreadyExists)

	_, err = s.investments.Invest(s.ctx, "alice", assetID, models.Amount{})
	s.ErrorIs(err, ErrZeroAmount)
}

func (s *LedgerSuite) TestOpenFundingPolicy() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.FundingPolicy = config.FundingOpen
	})
	assetID := s.registerAsset(testCreator, "Open")
	s.fund("alice", 100)

	investment, err := s.investments.Invest(s.ctx, "alice", assetID, amt(20))
	s.Require().NoError(err)
	s.Zero(investment.SharePercent, "uncapped assets report no percentage")

	_, err = s.investments.CreateFundingTarget(s.ctx, testCreator, assetID, &CreateFundingTargetRequest{Goal: amt(50), PayoutAccount: testPayout})
	s.Require().NoError(err)

	share, err := s.investments.GetInvestorShares(s.ctx, assetID, "alice")
	s.Require().NoError(err)
	s.Equal(uint64(40), share)

	_, err = s.investments.Invest(s.ctx, "alice", assetID, amt(30))
	s.Require().NoError(err)
	s.Equal("50", s.balance(testPayout).String())
}

func (s *LedgerSuite) TestCoveredGoalReleasesOnCreation() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.FundingPolicy = config.FundingOpen
	})
	assetID := s.registerAsset(testCreator, "Covered")
	s.fund("alice", 20)
	s.fund("bob", 5)

	_, err := s.investments.Invest(s.ctx, "alice", assetID, amt(20))
	s.Require().NoError(err)
	_, err = s.investments.Invest(s.ctx, "bob", assetID, amt(5))
	s.Require().NoError(err)

	s.published = nil
	asset, err := s.investments.CreateFundingTarget(s.ctx, testCreator, assetID, &CreateFundingTargetRequest{Goal: amt(10), PayoutAccount: testPayout})
	s.Require().NoError(err)
	s.True(asset.GoalReached)
	s.True(asset.Escrowed.IsZero())
	s.Equal([]models.EventType{
		models.EventFundingTargetCreated,
		models.EventFundingGoalReached,
		models.EventFundsReleased,
	}, s.publishedTypes())

	s.Equal("25", s.balance(testPayout).String())
	s.True(s.balance(s.cfg.EscrowAccount).IsZero())

	_, err = s.investments.WithdrawInvestment(s.ctx, "alice", assetID, amt(20))
	s.ErrorIs(err, ErrGoalAlreadyReached)
	_, err = s.investments.Invest(s.ctx, "bob", assetID, amt(1))
	s.ErrorIs(err, ErrGoalAlreadyReached)
}

func (s *LedgerSuite) TestListAssetInvestments() {
	first := s.fundedAsset("First", 100)
	second := s.fundedAsset("Second", 100)
	s.fund("alice", 100)

	_, err := s.investments.Invest(s.ctx, "alice", first, amt(10))
	s.Require().NoError(err)
	_, err = s.investments.Invest(s.ctx, "alice", second, amt(20))
	s.Require().NoError(err)

	investments, total, err := s.investments.ListAssetInvestments(s.ctx, "alice", utils.PaginationParams{Page: 1, Limit: 10, Sort: "asset_id", Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(investments, 2)
	s.Equal(first, investments[0].AssetID)
	s.Equal("20", investments[1].Amount.String())
}

func (s *LedgerSuite) TestSharePercent() {
	s.Zero(sharePercent(amt(5), models.Amount{}))
	s.Equal(uint64(33), sharePercent(amt(1), amt(3)))
	s.Equal(uint64(150), sharePercent(amt(15), amt(10)))
}
