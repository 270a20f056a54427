// internal/services/event_service.go
package services

import (
	"context"
	"fmt"
	"time"

	evbus "github.com/asaskevich/EventBus"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/media-ledger/internal/database"
	"github.com/javajoker/media-ledger/internal/metrics"
	"github.com/javajoker/media-ledger/internal/models"
	"github.com/javajoker/media-ledger/internal/utils"
)

// EventTopic receives every committed ledger event. Each event is also
// published on a topic named after its type.
const EventTopic = "ledger:event"

const eventSequence = "event"

type EventService struct {
	db  *gorm.DB
	bus evbus.Bus
}

type EventFilter struct {
	utils.PaginationParams
	AfterSeq  uint64           `json:"after_seq"`
	AssetID   uint64           `json:"asset_id,omitempty"`
	LicenseID uint64           `json:"license_id,omitempty"`
	Type      models.EventType `json:"type,omitempty"`
}

func NewEventService(db *gorm.DB) *EventService {
	return &EventService{
		db:  db,
		bus: evbus.New(),
	}
}

// Subscribe registers a synchronous handler for every committed event.
func (s *EventService) Subscribe(handler func(models.LedgerEvent)) error {
	return s.bus.Subscribe(EventTopic, handler)
}

// SubscribeType registers a synchronous handler for one event type.
func (s *EventService) SubscribeType(eventType models.EventType, handler func(models.LedgerEvent)) error {
	return s.bus.Subscribe(string(eventType), handler)
}

// SubscribeAsync registers a handler that runs off the caller's goroutine.
// Transactional handlers see events one at a time, in order.
func (s *EventService) SubscribeAsync(handler func(models.LedgerEvent), transactional bool) error {
	return s.bus.SubscribeAsync(EventTopic, handler, transactional)
}

// WaitAsync blocks until asynchronous handlers have drained.
func (s *EventService) WaitAsync() {
	s.bus.WaitAsync()
}

// Publish fans committed events out to subscribers in sequence order.
func (s *EventService) Publish(events []models.LedgerEvent) {
	for _, evt := range events {
		s.bus.Publish(EventTopic, evt)
		s.bus.Publish(string(evt.Type), evt)
	}
}

// record writes the outbox row inside tx and returns the stored event.
func (s *EventService) record(tx *gorm.DB, evt models.LedgerEvent, now time.Time) (models.LedgerEvent, error) {
	seq, err := nextSequence(tx, eventSequence)
	if err != nil {
		return models.LedgerEvent{}, err
	}
	evt.Seq = seq
	evt.ID = uuid.New()
	evt.CreatedAt = now.UTC()

	if err := tx.Create(&evt).Error; err != nil {
		return models.LedgerEvent{}, fmt.Errorf("failed to record %s event: %w", evt.Type, err)
	}
	return evt, nil
}

// ListEvents returns committed events in sequence order.
func (s *EventService) ListEvents(ctx context.Context, filter EventFilter) ([]models.LedgerEvent, int64, error) {
	if filter.Limit < 1 {
		filter.Limit = 100
	}
	if filter.Page < 1 {
		filter.Page = 1
	}

	conn := database.Conn(ctx, s.db)

	var total int64
	if err := conn.Model(&models.LedgerEvent{}).Scopes(filter.scope).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count events: %w", err)
	}

	var events []models.LedgerEvent
	query := utils.ApplyPagination(conn.Scopes(filter.scope).Order("seq asc"), filter.PaginationParams)
	if err := query.Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch events: %w", err)
	}
	return events, total, nil
}

func (f EventFilter) scope(db *gorm.DB) *gorm.DB {
	db = db.Where("seq > ?", f.AfterSeq)
	if f.AssetID != 0 {
		db = db.Where("asset_id = ?", f.AssetID)
	}
	if f.LicenseID != 0 {
		db = db.Where("license_id = ?", f.LicenseID)
	}
	if f.Type != "" {
		db = db.Where("type = ?", f.Type)
	}
	return db
}

// LogSink writes one structured log line per event.
func LogSink(logger *logrus.Logger) func(models.LedgerEvent) {
	return func(evt models.LedgerEvent) {
		fields := logrus.Fields{
			"seq":   evt.Seq,
			"event": evt.Type,
		}
		if evt.AssetID != 0 {
			fields["asset_id"] = evt.AssetID
		}
		if evt.LicenseID != 0 {
			fields["license_id"] = evt.LicenseID
		}
		if evt.Account != "" {
			fields["account"] = evt.Account
		}
		if !evt.Amount.IsZero() {
			fields["amount"] = evt.Amount.String()
		}
		logger.WithFields(fields).Info("Ledger event")
	}
}

// MetricsSink counts events by type.
func MetricsSink(evt models.LedgerEvent) {
	metrics.RecordEvent(evt)
}
