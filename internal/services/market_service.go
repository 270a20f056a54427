// internal/services/market_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

// MarketService moves whole investor stakes between accounts. A listing is
// an announcement; only the coupled policy holds buyers to it.
type MarketService struct {
	ledger *Ledger
}

type ListSharesRequest struct {
	Price models.Amount `json:"price"`
}

type BuySharesRequest struct {
	Seller  string        `json:"seller"`
	Payment models.Amount `json:"payment"`
}

type Purchase struct {
	AssetID    uint64             `json:"asset_id"`
	Seller     models.AccountID   `json:"seller"`
	Stake      models.Amount      `json:"stake"`
	Payment    models.Amount      `json:"payment"`
	Investment *models.Investment `json:"investment"`
}

func NewMarketService(ledger *Ledger) *MarketService {
	return &MarketService{ledger: ledger}
}

func (s *MarketService) ListShares(ctx context.Context, caller models.AccountID, assetID uint64, req *ListSharesRequest) (*models.Listing, error) {
	var listing *models.Listing
	err := s.ledger.execute(ctx, "list_shares", func(u *unit) error {
		if _, err := loadAsset(u.tx, assetID); err != nil {
			return err
		}
		investment, err := loadInvestment(u.tx, assetID, caller)
		if err != nil {
			return err
		}
		if investment == nil || investment.Amount.IsZero() {
			return ErrNoShares
		}

		listing, err = loadListing(u.tx, assetID, caller)
		if err != nil {
			return err
		}
		if listing == nil {
			listing = &models.Listing{AssetID: assetID, Seller: caller}
		}
		listing.Price = req.Price
		if err := u.tx.Save(listing).Error; err != nil {
			return fmt.Errorf("failed to save listing: %w", err)
		}

		return u.emit(models.LedgerEvent{
			Type:    models.EventSharesListed,
			AssetID: assetID,
			Account: caller,
			Amount:  req.Price,
			Payload: models.JSONB{"stake": investment.Amount.String()},
		})
	})
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// BuyShares moves the seller's entire stake to the caller, then pays the
// seller.
func (s *MarketService) BuyShares(ctx context.Context, caller models.AccountID, assetID uint64, req *BuySharesRequest) (*Purchase, error) {
	if req.Seller == "" || caller == "" {
		return nil, ErrInvalidAccount
	}
	if req.Seller == caller {
		return nil, fmt.Errorf("%w: buyer and seller are the same account", ErrInvalidInput)
	}

	var purchase *Purchase
	err := s.ledger.execute(ctx, "buy_shares", func(u *unit) error {
		asset, err := loadAsset(u.tx, assetID)
		if err != nil {
			return err
		}
		sold, err := loadInvestment(u.tx, assetID, req.Seller)
		if err != nil {
			return err
		}
		if sold == nil || sold.Amount.IsZero() {
			return ErrSellerHasNoShares
		}

		listing, err := loadListing(u.tx, assetID, req.Seller)
		if err != nil {
			return err
		}
		if s.ledger.cfg.MarketPolicy == config.MarketCoupled {
			if listing == nil {
				return ErrListingNotFound
			}
			if req.Payment.Lt(listing.Price) {
				return ErrPriceMismatch
			}
		}
		if listing != nil {
			if err := u.tx.Delete(listing).Error; err != nil {
				return fmt.Errorf("failed to remove listing: %w", err)
			}
		}

		bought, err := s.moveStake(u.tx, asset, sold, caller)
		if err != nil {
			return err
		}
		if err := u.tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to save asset: %w", err)
		}

		if err := u.transfer(caller, req.Seller, req.Payment); err != nil {
			return err
		}

		purchase = &Purchase{
			AssetID:    assetID,
			Seller:     req.Seller,
			Stake:      sold.Amount,
			Payment:    req.Payment,
			Investment: bought,
		}
		return u.emit(models.LedgerEvent{
			Type:    models.EventSharesPurchased,
			AssetID: assetID,
			Account: caller,
			Amount:  req.Payment,
			Payload: models.JSONB{
				"seller": req.Seller,
				"stake":  sold.Amount.String(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return purchase, nil
}

// moveStake merges the seller's investment into the buyer's. A new buyer
// takes the seller's slot in the investor list.
func (s *MarketService) moveStake(tx *gorm.DB, asset *models.Asset, sold *models.Investment, buyer models.AccountID) (*models.Investment, error) {
	bought, err := loadInvestment(tx, asset.ID, buyer)
	if err != nil {
		return nil, err
	}

	if err := tx.Where("asset_id = ? AND investor = ?", asset.ID, sold.Investor).
		Delete(&models.Investment{}).Error; err != nil {
		return nil, fmt.Errorf("failed to delete investment: %w", err)
	}

	sellerSlot := asset.Investors.Index(sold.Investor)
	if bought == nil {
		bought = &models.Investment{AssetID: asset.ID, Investor: buyer}
		if sellerSlot >= 0 {
			asset.Investors[sellerSlot] = buyer
		} else {
			asset.Investors = append(asset.Investors, buyer)
		}
	} else if sellerSlot >= 0 {
		asset.Investors = asset.Investors.SwapRemove(sellerSlot)
	}

	if bought.Amount, err = add(bought.Amount, sold.Amount); err != nil {
		return nil, err
	}
	bought.SharePercent = sharePercent(bought.Amount, asset.FundingGoal)
	if err := tx.Save(bought).Error; err != nil {
		return nil, fmt.Errorf("failed to save investment: %w", err)
	}
	return bought, nil
}

func (s *MarketService) GetListing(ctx context.Context, assetID uint64, seller models.AccountID) (*models.Listing, error) {
	listing, err := loadListing(s.ledger.conn(ctx), assetID, seller)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("listing of %s on asset %d: %w", seller, assetID, ErrNotFound)
	}
	return listing, nil
}

func (s *MarketService) ListListings(ctx context.Context, assetID uint64) ([]models.Listing, error) {
	var listings []models.Listing
	if err := s.ledger.conn(ctx).Where("asset_id = ?", assetID).Order("created_at asc").Find(&listings).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch listings: %w", err)
	}
	return listings, nil
}

func loadListing(db *gorm.DB, assetID uint64, seller models.AccountID) (*models.Listing, error) {
	var listing models.Listing
	err := db.Where("asset_id = ? AND seller = ?", assetID, seller).First(&listing).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load listing: %w", err)
	}
	return &listing, nil
}
