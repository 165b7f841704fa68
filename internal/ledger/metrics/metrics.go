package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the ledger module. Operation counters
// split by result so rejected calls (which mutate nothing) are visible next
// to applied ones.
type Metrics struct {
	OperationsTotal   *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	EventsDropped     prometheus.Counter
	TokensMinted      prometheus.Counter
	TokensBurned      prometheus.Counter
}

// New creates a Metrics instance with all ledger metrics registered.
func New() *Metrics {
	return &Metrics{
		OperationsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carecoin_ledger_operations_total",
			Help: "Ledger operations that validated and applied",
		}, []string{"operation"}),
		RejectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "carecoin_ledger_rejections_total",
			Help: "Ledger operations rejected during validation, by error code",
		}, []string{"operation", "code"}),
		OperationDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carecoin_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations including store writes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		EventsDropped: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carecoin_ledger_events_dropped_total",
			Help: "Advisory events dropped because the inbox was full",
		}),
		TokensMinted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carecoin_ledger_tokens_minted_total",
			Help: "Base units minted into circulation",
		}),
		TokensBurned: promauto.NewCounter(prometheus.CounterOpts{
			Name: "carecoin_ledger_tokens_burned_total",
			Help: "Base units burned out of circulation",
		}),
	}
}

// ObserveOperation records a completed operation and its duration.
func (m *Metrics) ObserveOperation(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.OperationsTotal.WithLabelValues(operation).Inc()
	m.OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// ObserveRejection records a validation failure by error code.
func (m *Metrics) ObserveRejection(operation, code string) {
	if m == nil {
		return
	}
	m.RejectionsTotal.WithLabelValues(operation, code).Inc()
}

// AddMinted records base units entering circulation.
func (m *Metrics) AddMinted(amount uint64) {
	if m == nil {
		return
	}
	m.TokensMinted.Add(float64(amount))
}

// AddBurned records base units leaving circulation.
func (m *Metrics) AddBurned(amount uint64) {
	if m == nil {
		return
	}
	m.TokensBurned.Add(float64(amount))
}

// IncrementEventsDropped counts an advisory event lost to backpressure.
func (m *Metrics) IncrementEventsDropped() {
	if m == nil {
		return
	}
	m.EventsDropped.Inc()
}
