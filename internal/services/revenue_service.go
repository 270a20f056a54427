// internal/services/revenue_service.go
package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
)

type RevenueService struct {
	ledger *Ledger
}

type ShareCredit struct {
	Investor models.AccountID `json:"investor"`
	Amount   models.Amount    `json:"amount"`
}

type DistributionResult struct {
	AssetID  uint64        `json:"asset_id"`
	Revenue  models.Amount `json:"revenue"`
	Credited models.Amount `json:"credited"`
	Dust     models.Amount `json:"dust"`
	Delivery string        `json:"delivery"`
	Shares   []ShareCredit `json:"shares"`
}

func NewRevenueService(ledger *Ledger) *RevenueService {
	return &RevenueService{ledger: ledger}
}

// Distribute splits revenue across current investors pro rata. The
// remainder of the integer division stays in the pool as dust.
func (s *RevenueService) Distribute(ctx context.Context, caller models.AccountID, assetID uint64, revenue models.Amount) (*DistributionResult, error) {
	var result *DistributionResult
	err := s.ledger.execute(ctx, "distribute_revenue", func(u *unit) error {
		asset, err := loadAsset(u.tx, assetID)
		if err != nil {
			return err
		}
		if !s.isRevenueAuthority(caller, asset) {
			return ErrUnauthorized
		}
		if revenue.IsZero() {
			return ErrZeroAmount
		}
		if asset.TotalRaised.IsZero() {
			return ErrNoInvestors
		}

		investments, err := investmentsInOrder(u.tx, asset)
		if err != nil {
			return err
		}

		push := s.ledger.cfg.RevenueDelivery == config.DeliveryPush
		result = &DistributionResult{AssetID: assetID, Revenue: revenue, Delivery: s.ledger.cfg.RevenueDelivery}

		for _, investment := range investments {
			share, err := investment.Amount.MulDiv(revenue, asset.TotalRaised)
			if err != nil {
				return ErrArithmeticOverflow
			}
			if share.IsZero() {
				continue
			}

			account, err := loadRevenueAccount(u.tx, assetID, investment.Investor)
			if err != nil {
				return err
			}
			if push {
				account.Claimed, err = add(account.Claimed, share)
			} else {
				account.Claimable, err = add(account.Claimable, share)
			}
			if err != nil {
				return err
			}
			if err := u.tx.Save(account).Error; err != nil {
				return fmt.Errorf("failed to save revenue account: %w", err)
			}

			if result.Credited, err = add(result.Credited, share); err != nil {
				return err
			}
			result.Shares = append(result.Shares, ShareCredit{Investor: investment.Investor, Amount: share})
		}

		if result.Dust, err = sub(revenue, result.Credited); err != nil {
			return err
		}
		if err := s.accumulatePool(u.tx, result); err != nil {
			return err
		}

		vault := s.ledger.cfg.RevenueVaultAccount
		if err := u.transfer(caller, vault, revenue); err != nil {
			return err
		}

		if err := u.emit(models.LedgerEvent{
			Type:    models.EventRevenueDistributed,
			AssetID: assetID,
			Account: caller,
			Amount:  revenue,
			Payload: models.JSONB{
				"credited": result.Credited.String(),
				"dust":     result.Dust.String(),
				"delivery": result.Delivery,
			},
		}); err != nil {
			return err
		}

		eventType := models.EventRevenueCredited
		if push {
			eventType = models.EventRevenuePaid
		}
		for _, credit := range result.Shares {
			if push {
				if err := u.transfer(vault, credit.Investor, credit.Amount); err != nil {
					return err
				}
			}
			if err := u.emit(models.LedgerEvent{
				Type:    eventType,
				AssetID: assetID,
				Account: credit.Investor,
				Amount:  credit.Amount,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Claim pays out the caller's claimable balance. The balance is zeroed
// before the rail is called.
func (s *RevenueService) Claim(ctx context.Context, caller models.AccountID, assetID uint64) (models.Amount, error) {
	var amount models.Amount
	err := s.ledger.execute(ctx, "claim_revenue", func(u *unit) error {
		account, err := loadRevenueAccount(u.tx, assetID, caller)
		if err != nil {
			return err
		}
		if account.Claimable.IsZero() {
			return ErrNothingToClaim
		}

		amount = account.Claimable
		account.Claimable = models.Amount{}
		if account.Claimed, err = add(account.Claimed, amount); err != nil {
			return err
		}
		if err := u.tx.Save(account).Error; err != nil {
			return fmt.Errorf("failed to save revenue account: %w", err)
		}

		if err := u.transfer(s.ledger.cfg.RevenueVaultAccount, caller, amount); err != nil {
			return err
		}
		return u.emit(models.LedgerEvent{
			Type:    models.EventRevenueClaimed,
			AssetID: assetID,
			Account: caller,
			Amount:  amount,
		})
	})
	if err != nil {
		return models.Amount{}, err
	}
	return amount, nil
}

func (s *RevenueService) GetClaimable(ctx context.Context, assetID uint64, investor models.AccountID) (models.Amount, error) {
	account, err := loadRevenueAccount(s.ledger.conn(ctx), assetID, investor)
	if err != nil {
		return models.Amount{}, err
	}
	return account.Claimable, nil
}

func (s *RevenueService) GetRevenueAccount(ctx context.Context, assetID uint64, investor models.AccountID) (*models.RevenueAccount, error) {
	return loadRevenueAccount(s.ledger.conn(ctx), assetID, investor)
}

func (s *RevenueService) GetRevenuePool(ctx context.Context, assetID uint64) (*models.RevenuePool, error) {
	conn := s.ledger.conn(ctx)
	if _, err := loadAsset(conn, assetID); err != nil {
		return nil, err
	}
	return loadRevenuePool(conn, assetID)
}

func (s *RevenueService) isRevenueAuthority(caller models.AccountID, asset *models.Asset) bool {
	if s.ledger.cfg.RevenueAuthority == config.AuthorityProducer {
		return caller != "" && caller == asset.Creator
	}
	return s.ledger.IsAdmin(caller)
}

func (s *RevenueService) accumulatePool(tx *gorm.DB, result *DistributionResult) error {
	pool, err := loadRevenuePool(tx, result.AssetID)
	if err != nil {
		return err
	}
	if pool.Deposited, err = add(pool.Deposited, result.Revenue); err != nil {
		return err
	}
	if pool.Credited, err = add(pool.Credited, result.Credited); err != nil {
		return err
	}
	if pool.Dust, err = add(pool.Dust, result.Dust); err != nil {
		return err
	}
	if err := tx.Save(pool).Error; err != nil {
		return fmt.Errorf("failed to save revenue pool: %w", err)
	}
	return nil
}

func loadRevenueAccount(db *gorm.DB, assetID uint64, investor models.AccountID) (*models.RevenueAccount, error) {
	var account models.RevenueAccount
	err := db.Where("asset_id = ? AND investor = ?", assetID, investor).First(&account).Error
	if isNotFound(err) {
		return &models.RevenueAccount{AssetID: assetID, Investor: investor}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue account: %w", err)
	}
	return &account, nil
}

func loadRevenuePool(db *gorm.DB, assetID uint64) (*models.RevenuePool, error) {
	var pool models.RevenuePool
	err := db.Where("asset_id = ?", assetID).First(&pool).Error
	if isNotFound(err) {
		return &models.RevenuePool{AssetID: assetID}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load revenue pool: %w", err)
	}
	return &pool, nil
}

// investmentsInOrder returns the asset's investments following its
// investor list.
func investmentsInOrder(tx *gorm.DB, asset *models.Asset) ([]models.Investment, error) {
	investments := make([]models.Investment, 0, len(asset.Investors))
	for _, investor := range asset.Investors {
		investment, err := loadInvestment(tx, asset.ID, investor)
		if err != nil {
			return nil, err
		}
		if investment != nil {
			investments = append(investments, *investment)
		}
	}
	return investments, nil
}
