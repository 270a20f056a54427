// internal/services/payment_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/transfer"
	"github.com/stripe/stripe-go/v74/transferreversal"
	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/database"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

// PaymentRail moves value between accounts. Implementations that call back
// into the ledger must pass ctx through unchanged.
type PaymentRail interface {
	Transfer(ctx context.Context, from, to models.AccountID, amount models.Amount) error
	BalanceOf(ctx context.Context, account models.AccountID) (models.Amount, error)
}

var (
	ErrRailInsufficientFunds     = errors.New("insufficient funds")
	ErrRailInsufficientAllowance = errors.New("insufficient allowance")
	ErrRailInvalidAccount        = errors.New("invalid rail account")
)

// LedgerRail is a fungible-token rail kept in the ledger database. Funds
// leave a non-system account only against an allowance granted to spender.
// Inside a ledger operation it joins the running transaction.
type LedgerRail struct {
	db      *gorm.DB
	spender models.AccountID
	system  map[models.AccountID]bool
}

func NewLedgerRail(db *gorm.DB, spender models.AccountID, systemAccounts ...models.AccountID) *LedgerRail {
	system := make(map[models.AccountID]bool, len(systemAccounts))
	for _, account := range systemAccounts {
		system[account] = true
	}
	return &LedgerRail{
		db:      db,
		spender: spender,
		system:  system,
	}
}

func (r *LedgerRail) Spender() models.AccountID {
	return r.spender
}

func (r *LedgerRail) Transfer(ctx context.Context, from, to models.AccountID, amount models.Amount) error {
	if from == "" || to == "" {
		return ErrRailInvalidAccount
	}
	if amount.IsZero() {
		return nil
	}

	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if !r.system[from] {
			if err := r.spendAllowance(tx, from, amount); err != nil {
				return err
			}
		}
		if err := r.debit(tx, from, amount); err != nil {
			return err
		}
		return r.credit(tx, to, amount)
	})
}

func (r *LedgerRail) BalanceOf(ctx context.Context, account models.AccountID) (models.Amount, error) {
	balance, err := loadBalance(database.Conn(ctx, r.db), account)
	if err != nil {
		return models.Amount{}, err
	}
	return balance.Amount, nil
}

// Approve sets the amount spender may pull from owner.
func (r *LedgerRail) Approve(ctx context.Context, owner, spender models.AccountID, amount models.Amount) error {
	if owner == "" || spender == "" {
		return ErrRailInvalidAccount
	}
	conn := database.Conn(ctx, r.db)
	allowance, err := loadAllowance(conn, owner, spender)
	if err != nil {
		return err
	}
	allowance.Amount = amount
	if err := conn.Save(allowance).Error; err != nil {
		return fmt.Errorf("failed to save allowance: %w", err)
	}
	return nil
}

func (r *LedgerRail) Allowance(ctx context.Context, owner, spender models.AccountID) (models.Amount, error) {
	allowance, err := loadAllowance(database.Conn(ctx, r.db), owner, spender)
	if err != nil {
		return models.Amount{}, err
	}
	return allowance.Amount, nil
}

// Mint creates funds out of thin air. Development faucet only.
func (r *LedgerRail) Mint(ctx context.Context, account models.AccountID, amount models.Amount) error {
	if account == "" {
		return ErrRailInvalidAccount
	}
	return database.Conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		return r.credit(tx, account, amount)
	})
}

func (r *LedgerRail) spendAllowance(tx *gorm.DB, owner models.AccountID, amount models.Amount) error {
	allowance, err := loadAllowance(tx, owner, r.spender)
	if err != nil {
		return err
	}
	if allowance.Amount.Lt(amount) {
		return fmt.Errorf("%w: %s approved %s, needs %s", ErrRailInsufficientAllowance, owner, allowance.Amount, amount)
	}
	allowance.Amount, _ = allowance.Amount.Sub(amount)
	return tx.Save(allowance).Error
}

func (r *LedgerRail) debit(tx *gorm.DB, account models.AccountID, amount models.Amount) error {
	balance, err := loadBalance(tx, account)
	if err != nil {
		return err
	}
	if balance.Amount.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrRailInsufficientFunds, account, balance.Amount, amount)
	}
	balance.Amount, _ = balance.Amount.Sub(amount)
	return tx.Save(balance).Error
}

func (r *LedgerRail) credit(tx *gorm.DB, account models.AccountID, amount models.Amount) error {
	balance, err := loadBalance(tx, account)
	if err != nil {
		return err
	}
	balance.Amount, err = balance.Amount.Add(amount)
	if err != nil {
		return err
	}
	return tx.Save(balance).Error
}

func loadBalance(db *gorm.DB, account models.AccountID) (*models.Balance, error) {
	var balance models.Balance
	err := db.Where("account = ?", account).First(&balance).Error
	if isNotFound(err) {
		return &models.Balance{Account: account}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load balance: %w", err)
	}
	return &balance, nil
}

func loadAllowance(db *gorm.DB, owner, spender models.AccountID) (*models.Allowance, error) {
	var allowance models.Allowance
	err := db.Where("owner = ? AND spender = ?", owner, spender).First(&allowance).Error
	if isNotFound(err) {
		return &models.Allowance{Owner: owner, Spender: spender}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load allowance: %w", err)
	}
	return &allowance, nil
}

// StripePayoutRail mirrors transfers into Stripe connected accounts
// (acct_...) through the Transfers API after the inner rail has moved the
// funds. Amounts are in the smallest currency unit. A payout sent during a
// ledger operation that later fails is reversed.
type StripePayoutRail struct {
	PaymentRail
	currency        string
	createTransfer  func(*stripe.TransferParams) (*stripe.Transfer, error)
	reverseTransfer func(*stripe.TransferReversalParams) (*stripe.TransferReversal, error)
}

type StripeOption func(*StripePayoutRail)

// WithTransferFunc replaces transfer.New, mostly for tests.
func WithTransferFunc(fn func(*stripe.TransferParams) (*stripe.Transfer, error)) StripeOption {
	return func(r *StripePayoutRail) {
		r.createTransfer = fn
	}
}

// WithReversalFunc replaces transferreversal.New, mostly for tests.
func WithReversalFunc(fn func(*stripe.TransferReversalParams) (*stripe.TransferReversal, error)) StripeOption {
	return func(r *StripePayoutRail) {
		r.reverseTransfer = fn
	}
}

func NewStripePayoutRail(inner PaymentRail, cfg config.PaymentConfig, opts ...StripeOption) *StripePayoutRail {
	// Initialize Stripe
	stripe.Key = cfg.StripeSecretKey

	currency := cfg.Currency
	if currency == "" {
		currency = "usd"
	}

	r := &StripePayoutRail{
		PaymentRail:     inner,
		currency:        currency,
		createTransfer:  transfer.New,
		reverseTransfer: transferreversal.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func IsStripeAccount(account models.AccountID) bool {
	return strings.HasPrefix(account, "acct_")
}

func (r *StripePayoutRail) Transfer(ctx context.Context, from, to models.AccountID, amount models.Amount) error {
	if err := r.PaymentRail.Transfer(ctx, from, to, amount); err != nil {
		return err
	}
	if !IsStripeAccount(to) || amount.IsZero() {
		return nil
	}

	cents, ok := amount.Uint64()
	if !ok || cents > math.MaxInt64 {
		return fmt.Errorf("payout of %s exceeds the Stripe amount range", amount)
	}

	params := &stripe.TransferParams{
		Amount:      stripe.Int64(int64(cents)),
		Currency:    stripe.String(r.currency),
		Destination: stripe.String(to),
	}
	params.Context = ctx
	params.AddMetadata("source_account", from)

	t, err := r.createTransfer(params)
	if err != nil {
		return fmt.Errorf("failed to create stripe transfer: %w", err)
	}
	if t == nil {
		return nil
	}
	if t.Reversed {
		return fmt.Errorf("stripe transfer %s was reversed", t.ID)
	}

	OnRollback(ctx, func(ctx context.Context) error {
		return r.reverse(ctx, t.ID, int64(cents))
	})
	return nil
}

func (r *StripePayoutRail) reverse(ctx context.Context, transferID string, cents int64) error {
	params := &stripe.TransferReversalParams{
		ID:     stripe.String(transferID),
		Amount: stripe.Int64(cents),
	}
	params.Context = ctx
	params.AddMetadata("reason", "ledger_rollback")

	if _, err := r.reverseTransfer(params); err != nil {
		return fmt.Errorf("failed to reverse stripe transfer %s: %w", transferID, err)
	}
	return nil
}

// PaymentService exposes rail accounts to API callers.
type PaymentService struct {
	ledger *Ledger
	rail   *LedgerRail
}

type ApproveRequest struct {
	Spender string        `json:"spender,omitempty" validate:"omitempty,account"`
	Amount  models.Amount `json:"amount"`
}

type MintRequest struct {
	Account string        `json:"account" validate:"required,account"`
	Amount  models.Amount `json:"amount"`
}

type AccountBalance struct {
	Account   models.AccountID `json:"account"`
	Balance   models.Amount    `json:"balance"`
	Allowance models.Amount    `json:"allowance"`
	Spender   models.AccountID `json:"spender,omitempty"`
}

// NewPaymentService takes the in-database rail for approvals and the
// faucet. rail may be nil when the ledger runs against an external rail.
func NewPaymentService(ledger *Ledger, rail *LedgerRail) *PaymentService {
	return &PaymentService{
		ledger: ledger,
		rail:   rail,
	}
}

func (s *PaymentService) Approve(ctx context.Context, caller models.AccountID, req *ApproveRequest) (*AccountBalance, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.rail == nil {
		return nil, fmt.Errorf("%w: approvals are handled by the external rail", ErrInvalidInput)
	}
	if caller == "" {
		return nil, ErrInvalidAccount
	}

	spender := req.Spender
	if spender == "" {
		spender = s.rail.Spender()
	}
	if err := s.rail.Approve(ctx, caller, spender, req.Amount); err != nil {
		return nil, fmt.Errorf("failed to approve %s: %w", spender, err)
	}
	return s.Balance(ctx, caller)
}

func (s *PaymentService) Balance(ctx context.Context, account models.AccountID) (*AccountBalance, error) {
	balance, err := s.ledger.rail.BalanceOf(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to read balance: %w", err)
	}
	result := &AccountBalance{
		Account: account,
		Balance: balance,
	}
	if s.rail != nil {
		result.Spender = s.rail.Spender()
		result.Allowance, err = s.rail.Allowance(ctx, account, result.Spender)
		if err != nil {
			return nil, fmt.Errorf("failed to read allowance: %w", err)
		}
	}
	return result, nil
}

func (s *PaymentService) Mint(ctx context.Context, caller models.AccountID, req *MintRequest) (*AccountBalance, error) {
	if !s.ledger.IsAdmin(caller) {
		return nil, ErrUnauthorized
	}
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if s.rail == nil {
		return nil, fmt.Errorf("%w: the faucet needs the ledger rail", ErrInvalidInput)
	}
	if req.Amount.IsZero() {
		return nil, ErrZeroAmount
	}
	if err := s.rail.Mint(ctx, req.Account, req.Amount); err != nil {
		if errors.Is(err, models.ErrAmountOverflow) {
			return nil, ErrArithmeticOverflow
		}
		return nil, fmt.Errorf("failed to mint: %w", err)
	}
	return s.Balance(ctx, req.Account)
}
