// internal/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/javajoker/media-ledger/internal/config"
	"github.com/javajoker/media-ledger/internal/database"
	"github.com/javajoker/media-ledger/internal/metrics"
	"github.com/javajoker/media-ledger/internal/models"
)

// Guard serializes state-mutating operations and rejects nested entry.
// Nested calls are recognised through the context handed to collaborators,
// so anything that calls back into the ledger must pass that context on.
// A caller without the mark waits for the guard like any concurrent
// operation, bounded only by its own context.
type Guard struct {
	once sync.Once
	slot chan struct{}
}

type guardKey struct{}

func (g *Guard) Enter(ctx context.Context) (context.Context, func(), error) {
	if held, _ := ctx.Value(guardKey{}).(*Guard); held == g {
		return nil, nil, ErrReentrant
	}
	g.once.Do(func() { g.slot = make(chan struct{}, 1) })

	// A free slot wins over an already cancelled context.
	select {
	case g.slot <- struct{}{}:
	default:
		select {
		case g.slot <- struct{}{}:
		case <-ctx.Done():
			return nil, nil, fmt.Errorf("waiting for the ledger: %w", ctx.Err())
		}
	}
	return context.WithValue(ctx, guardKey{}, g), func() { <-g.slot }, nil
}

type rollbackKey struct{}

// rollbackHooks undo side effects a database rollback cannot reach, such
// as payouts already sent to an external processor.
type rollbackHooks struct {
	fns []func(context.Context) error
}

// OnRollback registers fn to run if the ledger operation carried by ctx
// fails. It reports false when ctx carries no operation.
func OnRollback(ctx context.Context, fn func(context.Context) error) bool {
	hooks, ok := ctx.Value(rollbackKey{}).(*rollbackHooks)
	if !ok {
		return false
	}
	hooks.fns = append(hooks.fns, fn)
	return true
}

// run calls the hooks newest first. Failures are logged; the operation
// has already failed.
func (h *rollbackHooks) run(ctx context.Context) {
	for i := len(h.fns) - 1; i >= 0; i-- {
		if err := h.fns[i](ctx); err != nil {
			logrus.WithError(err).Error("Failed to undo side effect of rolled back operation")
		}
	}
}

// Ledger is the shared runtime of every ledger service: storage, payment
// rail, event outbox, policies and clock.
type Ledger struct {
	db     *gorm.DB
	rail   PaymentRail
	events *EventService
	guard  *Guard
	cfg    config.LedgerConfig
	now    func() time.Time
}

type LedgerOption func(*Ledger)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) LedgerOption {
	return func(l *Ledger) {
		l.now = now
	}
}

func NewLedger(db *gorm.DB, rail PaymentRail, events *EventService, cfg config.LedgerConfig, opts ...LedgerOption) *Ledger {
	l := &Ledger{
		db:     db,
		rail:   rail,
		events: events,
		guard:  &Guard{},
		cfg:    cfg,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

func (l *Ledger) Config() config.LedgerConfig {
	return l.cfg
}

func (l *Ledger) IsAdmin(account models.AccountID) bool {
	return account != "" && account == l.cfg.AdminAccount
}

// conn is used by views. Inside an operation it resolves to the running
// transaction so collaborators observe uncommitted bookkeeping.
func (l *Ledger) conn(ctx context.Context) *gorm.DB {
	return database.Conn(ctx, l.db)
}

// unit is one atomic operation in progress.
type unit struct {
	ctx    context.Context
	tx     *gorm.DB
	ledger *Ledger
	events []models.LedgerEvent
}

// execute runs fn under the guard inside one transaction. Events recorded
// by fn are published only after commit.
func (l *Ledger) execute(ctx context.Context, operation string, fn func(u *unit) error) error {
	start := time.Now()
	events, err := l.executeLocked(ctx, fn)
	metrics.ObserveOperation(operation, string(kindLabel(err)), time.Since(start))
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"operation": operation,
			"kind":      KindOf(err),
		}).WithError(err).Debug("Ledger operation rejected")
		return err
	}

	l.events.Publish(events)
	return nil
}

func (l *Ledger) executeLocked(ctx context.Context, fn func(u *unit) error) ([]models.LedgerEvent, error) {
	guarded, release, err := l.guard.Enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	hooks := &rollbackHooks{}
	guarded = context.WithValue(guarded, rollbackKey{}, hooks)

	u := &unit{ledger: l}
	err = database.WithTransaction(l.db.WithContext(guarded), func(tx *gorm.DB) error {
		u.tx = tx
		u.ctx = database.WithTx(guarded, tx)
		u.events = nil
		return fn(u)
	})
	if err != nil {
		hooks.run(context.WithoutCancel(guarded))
		return nil, err
	}
	return u.events, nil
}

func kindLabel(err error) ErrorKind {
	if err == nil {
		return "ok"
	}
	return KindOf(err)
}

func (u *unit) now() time.Time {
	return u.ledger.now()
}

// emit appends an event to the outbox inside the running transaction.
func (u *unit) emit(evt models.LedgerEvent) error {
	recorded, err := u.ledger.events.record(u.tx, evt, u.now())
	if err != nil {
		return err
	}
	u.events = append(u.events, recorded)
	return nil
}

// transfer moves funds on the payment rail. Bookkeeping must already be
// written when this is called.
func (u *unit) transfer(from, to models.AccountID, amount models.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := u.ledger.rail.Transfer(u.ctx, from, to, amount); err != nil {
		return fmt.Errorf("%w: %s -> %s %s: %v", ErrTransferFailed, from, to, amount, err)
	}
	return nil
}

// nextID advances a named gap-free sequence.
func (u *unit) nextID(name string) (uint64, error) {
	return nextSequence(u.tx, name)
}

func nextSequence(tx *gorm.DB, name string) (uint64, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Sequence{Name: name, Value: 0}).Error; err != nil {
		return 0, fmt.Errorf("failed to init sequence %s: %w", name, err)
	}
	if err := tx.Model(&models.Sequence{}).Where("name = ?", name).
		UpdateColumn("value", gorm.Expr("value + ?", 1)).Error; err != nil {
		return 0, fmt.Errorf("failed to advance sequence %s: %w", name, err)
	}
	var seq models.Sequence
	if err := tx.Where("name = ?", name).First(&seq).Error; err != nil {
		return 0, fmt.Errorf("failed to read sequence %s: %w", name, err)
	}
	return seq.Value, nil
}

// add and sub map amount arithmetic failures onto ledger errors.
func add(a, b models.Amount) (models.Amount, error) {
	sum, err := a.Add(b)
	if err != nil {
		return models.Amount{}, ErrArithmeticOverflow
	}
	return sum, nil
}

func sub(a, b models.Amount) (models.Amount, error) {
	diff, err := a.Sub(b)
	if err != nil {
		return models.Amount{}, ErrArithmeticOverflow
	}
	return diff, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
