// internal/services/asset_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

const assetSequence = "asset"

type AssetService struct {
	ledger *Ledger
}

type RegisterAssetRequest struct {
	Title string `json:"title" validate:"required,title"`
}

type TransferTokenRequest struct {
	To string `json:"to" validate:"required,account"`
}

func NewAssetService(ledger *Ledger) *AssetService {
	return &AssetService{ledger: ledger}
}

func (s *AssetService) RegisterAsset(ctx context.Context, caller models.AccountID, req *RegisterAssetRequest) (*models.Asset, error) {
	// Validate request
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if caller == "" {
		return nil, ErrInvalidAccount
	}

	var asset *models.Asset
	err := s.ledger.execute(ctx, "register_asset", func(u *unit) error {
		if s.ledger.cfg.RequireRegisteredCreators && !s.ledger.IsAdmin(caller) {
			registered, err := isRegisteredCreator(u.tx, caller)
			if err != nil {
				return err
			}
			if !registered {
				return fmt.Errorf("%s is not a registered creator: %w", caller, ErrUnauthorized)
			}
		}

		var count int64
		if err := u.tx.Model(&models.Asset{}).Where("title = ?", req.Title).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check title: %w", err)
		}
		if count > 0 {
			return ErrDuplicateAsset
		}

		id, err := u.nextID(assetSequence)
		if err != nil {
			return err
		}

		asset = &models.Asset{
			ID:      id,
			Title:   req.Title,
			Creator: caller,
		}
		if err := u.tx.Create(asset).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrDuplicateAsset
			}
			return fmt.Errorf("failed to create asset: %w", err)
		}

		if err := mintToken(u.tx, models.TokenKindAsset, id, caller); err != nil {
			return err
		}

		return u.emit(models.LedgerEvent{
			Type:    models.EventAssetRegistered,
			AssetID: id,
			Account: caller,
			Payload: models.JSONB{"title": req.Title},
		})
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *AssetService) Exists(ctx context.Context, assetID uint64) (bool, error) {
	if assetID == 0 {
		return false, nil
	}
	var count int64
	if err := s.ledger.conn(ctx).Model(&models.Asset{}).Where("id = ?", assetID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check asset: %w", err)
	}
	return count > 0, nil
}

func (s *AssetService) GetAsset(ctx context.Context, assetID uint64) (*models.Asset, error) {
	return loadAsset(s.ledger.conn(ctx), assetID)
}

func (s *AssetService) ListAssets(ctx context.Context, params utils.PaginationParams) ([]models.Asset, int64, error) {
	query := s.ledger.conn(ctx).Model(&models.Asset{})
	if params.Search != "" {
		query = query.Where("title LIKE ?", "%"+params.Search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count assets: %w", err)
	}

	// Apply sorting
	allowedSortFields := []string{"id", "created_at", "title"}
	query = utils.ApplySort(query, params, allowedSortFields)

	// Apply pagination
	query = utils.ApplyPagination(query, params)

	var assets []models.Asset
	if err := query.Find(&assets).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch assets: %w", err)
	}
	return assets, total, nil
}

// GetOwner returns the current holder of the asset token.
func (s *AssetService) GetOwner(ctx context.Context, assetID uint64) (*models.Token, error) {
	token, err := loadToken(s.ledger.conn(ctx), models.TokenKindAsset, assetID)
	if err != nil {
		return nil, err
	}
	if token == nil {
		return nil, fmt.Errorf("asset %d: %w", assetID, ErrAssetNotFound)
	}
	return token, nil
}

// TransferAsset moves the asset token. The registered creator is unchanged.
func (s *AssetService) TransferAsset(ctx context.Context, caller models.AccountID, assetID uint64, req *TransferTokenRequest) (*models.Token, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAccount, err)
	}

	var token *models.Token
	err := s.ledger.execute(ctx, "transfer_asset", func(u *unit) error {
		var err error
		token, err = loadToken(u.tx, models.TokenKindAsset, assetID)
		if err != nil {
			return err
		}
		if token == nil {
			return fmt.Errorf("asset %d: %w", assetID, ErrAssetNotFound)
		}
		if token.Owner != caller {
			return ErrNotTokenOwner
		}

		from := token.Owner
		if err := moveToken(u.tx, token, req.To); err != nil {
			return err
		}

		return u.emit(models.LedgerEvent{
			Type:    models.EventAssetTransferred,
			AssetID: assetID,
			Account: req.To,
			Payload: models.JSONB{"from": from},
		})
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

func loadAsset(db *gorm.DB, assetID uint64) (*models.Asset, error) {
	var asset models.Asset
	if err := db.Where("id = ?", assetID).First(&asset).Error; err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("asset %d: %w", assetID, ErrAssetNotFound)
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &asset, nil
}

func isRegisteredCreator(db *gorm.DB, account models.AccountID) (bool, error) {
	var count int64
	if err := db.Model(&models.CreatorRegistration{}).Where("account = ?", account).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check creator registration: %w", err)
	}
	return count > 0, nil
}

func mintToken(db *gorm.DB, kind models.TokenKind, id uint64, owner models.AccountID) error {
	token := &models.Token{Kind: kind, ID: id, Owner: owner}
	if err := db.Create(token).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%s token %d: %w", kind, id, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to mint %s token: %w", kind, err)
	}
	return nil
}

// loadToken returns nil when the token was never minted.
func loadToken(db *gorm.DB, kind models.TokenKind, id uint64) (*models.Token, error) {
	var token models.Token
	err := db.Where("kind = ? AND id = ?", kind, id).First(&token).Error
	if isNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s token: %w", kind, err)
	}
	return &token, nil
}

func moveToken(db *gorm.DB, token *models.Token, to models.AccountID) error {
	if to == "" {
		return ErrInvalidAccount
	}
	token.Owner = to
	if err := db.Model(&models.Token{}).
		Where("kind = ? AND id = ?", token.Kind, token.ID).
		Update("owner", to).Error; err != nil {
		return fmt.Errorf("failed to transfer %s token %d: %w", token.Kind, token.ID, err)
	}
	return nil
}
