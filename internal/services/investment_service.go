// internal/services/investment_service.go
package services

import (
	"context"
	"fmt"
	"math"

	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

type InvestmentService struct {
	ledger *Ledger
}

type CreateFundingTargetRequest struct {
	Goal          models.Amount `json:"goal"`
	PayoutAccount string        `json:"payout_account"`
}

type AmountRequest struct {
	Amount models.Amount `json:"amount"`
}

func NewInvestmentService(ledger *Ledger) *InvestmentService {
	return &InvestmentService{ledger: ledger}
}

// CreateFundingTarget sets the goal and payout account. A goal already
// covered by totalRaised is reached immediately and the escrow released.
func (s *InvestmentService) CreateFundingTarget(ctx context.Context, caller models.AccountID, assetID uint64, req *CreateFundingTargetRequest) (*models.Asset, error) {
	if s.ledger.cfg.FundingPolicy == config.FundingGoalBound && !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	if req.Goal.IsZero() {
		return nil, ErrInvalidGoal
	}
	if req.PayoutAccount == "" {
		return nil, ErrInvalidAccount
	}

	var asset *models.Asset
	err := s.ledger.execute(ctx, "create_funding_target", func(u *unit) error {
		var err error
		asset, err = loadAsset(u.tx, assetID)
		if err != nil {
			return err
		}
		if asset.HasFundingTarget() {
			return fmt.Errorf("funding target for asset %d: %w", assetID, ErrAlreadyExists)
		}

		asset.FundingGoal = req.Goal
		asset.PayoutAccount = req.PayoutAccount
		if err := u.tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to save funding target: %w", err)
		}

		if err := s.recomputeShares(u.tx, asset); err != nil {
			return err
		}

		if err := u.emit(models.LedgerEvent{
			Type:    models.EventFundingTargetCreated,
			AssetID: assetID,
			Account: req.PayoutAccount,
			Amount:  req.Goal,
		}); err != nil {
			return err
		}

		// Contributions made while the asset was uncapped may already
		// cover the new goal.
		if asset.TotalRaised.Lt(req.Goal) {
			return nil
		}
		return s.release(u, asset)
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

// Invest records the contribution, then pulls it into escrow. Crossing the
// goal releases the whole escrow to the payout account in the same call.
func (s *InvestmentService) Invest(ctx context.Context, caller models.AccountID, assetID uint64, amount models.Amount) (*models.Investment, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if caller == "" {
		return nil, ErrInvalidAccount
	}

	var investment *models.Investment
	err := s.ledger.execute(ctx, "invest", func(u *unit) error {
		asset, err := loadAsset(u.tx, assetID)
		if err != nil {
			return err
		}
		if s.ledger.cfg.FundingPolicy == config.FundingGoalBound && !asset.HasFundingTarget() {
			return fmt.Errorf("asset %d has no funding target: %w", assetID, ErrAssetNotFound)
		}
		if asset.GoalReached {
			return ErrGoalAlreadyReached
		}

		investment, err = loadInvestment(u.tx, assetID, caller)
		if err != nil {
			return err
		}
		if investment == nil {
			investment = &models.Investment{AssetID: assetID, Investor: caller}
			asset.Investors = append(asset.Investors, caller)
		}

		if investment.Amount, err = add(investment.Amount, amount); err != nil {
			return err
		}
		if asset.TotalRaised, err = add(asset.TotalRaised, amount); err != nil {
			return err
		}
		if asset.Escrowed, err = add(asset.Escrowed, amount); err != nil {
			return err
		}
		investment.SharePercent = sharePercent(investment.Amount, asset.FundingGoal)

		if err := u.tx.Save(investment).Error; err != nil {
			return fmt.Errorf("failed to save investment: %w", err)
		}
		if err := u.tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to save asset: %w", err)
		}

		escrow := s.ledger.cfg.EscrowAccount
		if err := u.transfer(caller, escrow, amount); err != nil {
			return err
		}
		if err := u.emit(models.LedgerEvent{
			Type:    models.EventInvestmentMade,
			AssetID: assetID,
			Account: caller,
			Amount:  amount,
		}); err != nil {
			return err
		}

		if !asset.HasFundingTarget() || asset.TotalRaised.Lt(asset.FundingGoal) {
			return nil
		}
		return s.release(u, asset)
	})
	if err != nil {
		return nil, err
	}
	return investment, nil
}

func (s *InvestmentService) release(u *unit, asset *models.Asset) error {
	released := asset.Escrowed
	asset.GoalReached = true
	asset.Escrowed = models.Amount{}
	if err := u.tx.Save(asset).Error; err != nil {
		return fmt.Errorf("failed to mark goal reached: %w", err)
	}

	if err := u.emit(models.LedgerEvent{
		Type:    models.EventFundingGoalReached,
		AssetID: asset.ID,
		Amount:  asset.TotalRaised,
	}); err != nil {
		return err
	}

	if err := u.transfer(s.ledger.cfg.EscrowAccount, asset.PayoutAccount, released); err != nil {
		return err
	}
	return u.emit(models.LedgerEvent{
		Type:    models.EventFundsReleased,
		AssetID: asset.ID,
		Account: asset.PayoutAccount,
		Amount:  released,
	})
}

func (s *InvestmentService) WithdrawInvestment(ctx context.Context, caller models.AccountID, assetID uint64, amount models.Amount) (*models.Investment, error) {
	if amount.IsZero() {
		return nil, ErrZeroAmount
	}

	var investment *models.Investment
	err := s.ledger.execute(ctx, "withdraw_investment", func(u *unit) error {
		asset, err := loadAsset(u.tx, assetID)
		if err != nil {
			return err
		}
		if asset.GoalReached {
			return ErrGoalAlreadyReached
		}

		investment, err = loadInvestment(u.tx, assetID, caller)
		if err != nil {
			return err
		}
		if investment == nil || investment.Amount.Lt(amount) {
			return ErrInsufficientBalance
		}

		if investment.Amount, err = sub(investment.Amount, amount); err != nil {
			return err
		}
		if asset.TotalRaised, err = sub(asset.TotalRaised, amount); err != nil {
			return err
		}
		if asset.Escrowed, err = sub(asset.Escrowed, amount); err != nil {
			return err
		}

		if investment.Amount.IsZero() {
			if err := deleteInvestment(u.tx, asset, caller); err != nil {
				return err
			}
		} else {
			investment.SharePercent = sharePercent(investment.Amount, asset.FundingGoal)
			if err := u.tx.Save(investment).Error; err != nil {
				return fmt.Errorf("failed to save investment: %w", err)
			}
		}
		if err := u.tx.Save(asset).Error; err != nil {
			return fmt.Errorf("failed to save asset: %w", err)
		}

		if err := u.transfer(s.ledger.cfg.EscrowAccount, caller, amount); err != nil {
			return err
		}
		return u.emit(models.LedgerEvent{
			Type:    models.EventInvestmentWithdrawn,
			AssetID: assetID,
			Account: caller,
			Amount:  amount,
		})
	})
	if err != nil {
		return nil, err
	}
	return investment, nil
}

// GetInvestorShares returns the last computed percentage, 0 if the investor
// never invested.
func (s *InvestmentService) GetInvestorShares(ctx context.Context, assetID uint64, investor models.AccountID) (uint64, error) {
	investment, err := loadInvestment(s.ledger.conn(ctx), assetID, investor)
	if err != nil || investment == nil {
		return 0, err
	}
	return investment.SharePercent, nil
}

func (s *InvestmentService) GetInvestment(ctx context.Context, assetID uint64, investor models.AccountID) (*models.Investment, error) {
	investment, err := loadInvestment(s.ledger.conn(ctx), assetID, investor)
	if err != nil {
		return nil, err
	}
	if investment == nil {
		return nil, fmt.Errorf("investment of %s in asset %d: %w", investor, assetID, ErrNotFound)
	}
	return investment, nil
}

// ListInvestors returns current investments in investor-list order.
func (s *InvestmentService) ListInvestors(ctx context.Context, assetID uint64) ([]models.Investment, error) {
	conn := s.ledger.conn(ctx)
	asset, err := loadAsset(conn, assetID)
	if err != nil {
		return nil, err
	}

	var rows []models.Investment
	if err := conn.Where("asset_id = ?", assetID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch investments: %w", err)
	}
	byInvestor := make(map[models.AccountID]models.Investment, len(rows))
	for _, row := range rows {
		byInvestor[row.Investor] = row
	}

	investments := make([]models.Investment, 0, len(asset.Investors))
	for _, investor := range asset.Investors {
		if row, ok := byInvestor[investor]; ok {
			investments = append(investments, row)
		}
	}
	return investments, nil
}

func (s *InvestmentService) ListAssetInvestments(ctx context.Context, investor models.AccountID, params utils.PaginationParams) ([]models.Investment, int64, error) {
	query := s.ledger.conn(ctx).Model(&models.Investment{}).Where("investor = ?", investor)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count investments: %w", err)
	}

	allowedSortFields := []string{"asset_id", "created_at", "updated_at"}
	query = utils.ApplySort(query, params, allowedSortFields)
	query = utils.ApplyPagination(query, params)

	var investments []models.Investment
	if err := query.Find(&investments).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch investments: %w", err)
	}
	return investments, total, nil
}

// recomputeShares refreshes every stored percentage after the goal changes.
func (s *InvestmentService) recomputeShares(tx *gorm.DB, asset *models.Asset) error {
	var investments []models.Investment
	if err := tx.Where("asset_id = ?", asset.ID).Find(&investments).Error; err != nil {
		return fmt.Errorf("failed to fetch investments: %w", err)
	}
	for i := range investments {
		investments[i].SharePercent = sharePercent(investments[i].Amount, asset.FundingGoal)
		if err := tx.Save(&investments[i]).Error; err != nil {
			return fmt.Errorf("failed to save investment: %w", err)
		}
	}
	return nil
}

// sharePercent is floor(amount*100/goal), 0 without a goal. Values beyond
// the int64 column range are clamped.
func sharePercent(amount, goal models.Amount) uint64 {
	if goal.IsZero() {
		return 0
	}
	percent, err := amount.MulDiv(models.NewAmount(100), goal)
	if err != nil {
		return math.MaxInt64
	}
	v, ok := percent.Uint64()
	if !ok || v > math.MaxInt64 {
		return math.MaxInt64
	}
	return v
}

// loadInvestment returns nil when the investor holds nothing.
func loadInvestment(db *gorm.DB, assetID uint64, investor models.AccountID) (*models.Investment, error) {
	var investment models.Investment
	err := db.Where("asset_id = ? AND investor = ?", assetID, investor).First(&investment).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load investment: %w", err)
	}
	return &investment, nil
}

// deleteInvestment drops the row and swap-removes the investor from the
// asset's list. The caller saves the asset.
func deleteInvestment(tx *gorm.DB, asset *models.Asset, investor models.AccountID) error {
	if err := tx.Where("asset_id = ? AND investor = ?", asset.ID, investor).
		Delete(&models.Investment{}).Error; err != nil {
		return fmt.Errorf("failed to delete investment: %w", err)
	}
	if i := asset.Investors.Index(investor); i >= 0 {
		asset.Investors = asset.Investors.SwapRemove(i)
	}
	return nil
}
