// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/javajoker/media-ledger/internal/models"
)

var (
	// eventsTotal counts committed ledger events.
	// Labels: type (event type)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "media_ledger",
		Name:      "events_total",
		Help:      "Total committed ledger events by type",
	}, []string{"type"})

	// operationsTotal counts ledger operations by outcome.
	// Labels: operation, kind (ok or the error kind)
	operationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "media_ledger",
		Name:      "operations_total",
		Help:      "Total ledger operations by outcome",
	}, []string{"operation", "kind"})

	operationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "media_ledger",
		Name:      "operation_duration_seconds",
		Help:      "Ledger operation latency in seconds, including the payment rail",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"operation"})

	// archiveFailures counts events the archiver could not store.
	archiveFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "media_ledger",
		Name:      "event_archive_failures_total",
		Help:      "Total ledger events that failed to archive",
	})
)

func RecordEvent(evt models.LedgerEvent) {
	eventsTotal.WithLabelValues(string(evt.Type)).Inc()
}

func ObserveOperation(operation, kind string, elapsed time.Duration) {
	operationsTotal.WithLabelValues(operation, kind).Inc()
	operationDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func RecordArchiveFailure() {
	archiveFailures.Inc()
}
