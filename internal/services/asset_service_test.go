// internal/services/asset_service_test.go
package services

import (
	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

func (s *LedgerSuite) TestRegisterAssetAssignsSequentialIDs() {
	first, err := s.assets.RegisterAsset(s.ctx, testCreator, &RegisterAssetRequest{Title: "Midnight Harbor"})
	s.Require().NoError(err)
	second, err := s.assets.RegisterAsset(s.ctx, "other-creator", &RegisterAssetRequest{Title: "Paper Moons"})
	s.Require().NoError(err)

	s.Equal(uint64(1), first.ID)
	s.Equal(uint64(2), second.ID)
	s.Equal(testCreator, first.Creator)
	s.True(first.TotalRaised.IsZero())
	s.False(first.HasFundingTarget())

	owner, err := s.assets.GetOwner(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal(testCreator, owner.Owner)

	s.Require().NotEmpty(s.published)
	evt := s.published[0]
	s.Equal(models.EventAssetRegistered, evt.Type)
	s.Equal(uint64(1), evt.AssetID)
	s.Equal(testCreator, evt.Account)
	s.Equal("Midnight Harbor", evt.Payload["title"])
}

func (s *LedgerSuite) TestRegisterAssetRejectsDuplicateTitle() {
	s.registerAsset(testCreator, "Midnight Harbor")

	_, err := s.assets.RegisterAsset(s.ctx, "someone-else", &RegisterAssetRequest{Title: "Midnight Harbor"})
	s.ErrorIs(err, ErrDuplicateAsset)
	s.Equal(KindStateConflict, KindOf(err))

	exists, err := s.assets.Exists(s.ctx, 2)
	s.Require().NoError(err)
	s.False(exists)
}

func (s *LedgerSuite) TestRegisterAssetValidatesInput() {
	_, err := s.assets.RegisterAsset(s.ctx, testCreator, &RegisterAssetRequest{Title: "   "})
	s.ErrorIs(err, ErrInvalidInput)

	_, err = s.assets.RegisterAsset(s.ctx, "", &RegisterAssetRequest{Title: "Nobody"})
	s.ErrorIs(err, ErrInvalidAccount)
}

func (s *LedgerSuite) TestExists() {
	exists, err := s.assets.Exists(s.ctx, 0)
	s.Require().NoError(err)
	s.False(exists, "id 0 is never assigned")

	id := s.registerAsset(testCreator, "Exists")
	exists, err = s.assets.Exists(s.ctx, id)
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.assets.Exists(s.ctx, id+1)
	s.Require().NoError(err)
	s.False(exists)

	_, err = s.assets.GetAsset(s.ctx, id+1)
	s.ErrorIs(err, ErrAssetNotFound)
}

func (s *LedgerSuite) TestTransferAssetKeepsCreator() {
	id := s.registerAsset(testCreator, "Handover")

	_, err := s.assets.TransferAsset(s.ctx, "intruder", id, &TransferTokenRequest{To: "intruder"})
	s.ErrorIs(err, ErrNotTokenOwner)

	token, err := s.assets.TransferAsset(s.ctx, testCreator, id, &TransferTokenRequest{To: "studio"})
	s.Require().NoError(err)
	s.Equal("studio", token.Owner)

	owner, err := s.assets.GetOwner(s.ctx, id)
	s.Require().NoError(err)
	s.Equal("studio", owner.Owner)

	asset, err := s.assets.GetAsset(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(testCreator, asset.Creator)

	_, err = s.assets.TransferAsset(s.ctx, "studio", id+1, &TransferTokenRequest{To: "x"})
	s.ErrorIs(err, ErrAssetNotFound)
}

func (s *LedgerSuite) TestListAssetsSearchAndPaging() {
	s.registerAsset(testCreator, "Blue Hour")
	s.registerAsset(testCreator, "Blue Velvet Nights")
	s.registerAsset(testCreator, "Red Desert")

	assets, total, err := s.assets.ListAssets(s.ctx, utils.PaginationParams{Page: 1, Limit: 10, Search: "Blue", Sort: "id", Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Require().Len(assets, 2)
	s.Equal("Blue Hour", assets[0].Title)

	assets, total, err = s.assets.ListAssets(s.ctx, utils.PaginationParams{Page: 2, Limit: 2, Sort: "id", Order: "asc"})
	s.Require().NoError(err)
	s.Equal(int64(3), total)
	s.Require().Len(assets, 1)
	s.Equal("Red Desert", assets[0].Title)
}

func (s *LedgerSuite) TestRegisteredCreatorsPolicy() {
	s.setup(func(cfg *config.LedgerConfig) {
		cfg.RequireRegisteredCreators = true
	})

	_, err := s.assets.RegisterAsset(s.ctx, testCreator, &RegisterAssetRequest{Title: "Gated"})
	s.ErrorIs(err, ErrUnauthorized)

	_, err = s.admin.RegisterCreator(s.ctx, testAdmin, &RegisterCreatorRequest{Account: testCreator})
	s.Require().NoError(err)

	_, err = s.assets.RegisterAsset(s.ctx, testCreator, &RegisterAssetRequest{Title: "Gated"})
	s.NoError(err)

	_, err = s.assets.RegisterAsset(s.ctx, testAdmin, &RegisterAssetRequest{Title: "House Production"})
	s.NoError(err, "the admin registers without a creator entry")
}
