package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for lead mutations: direct writes, queued
// change requests, resolutions and batch runs.
type Metrics struct {
	DirectUpdates          prometheus.Counter
	ChangeRequestsCreated  prometheus.Counter
	ChangeRequestsResolved *prometheus.CounterVec
	BatchItems             *prometheus.CounterVec
	BatchDuration          prometheus.Histogram
}

// New registers lead metrics on reg. Pass nil to use the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		DirectUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "giyus_lead_direct_updates_total",
			Help: "Total number of proposals applied directly by privileged actors",
		}),
		ChangeRequestsCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "giyus_change_requests_created_total",
			Help: "Total number of change requests added to the ledger",
		}),
		ChangeRequestsResolved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "giyus_change_requests_resolved_total",
			Help: "Total number of change requests resolved, by outcome",
		}, []string{"outcome"}),
		BatchItems: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "giyus_batch_items_total",
			Help: "Batch update items by result (updated, failed)",
		}, []string{"result"}),
		BatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "giyus_batch_duration_seconds",
			Help:    "Duration of batch update runs",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

func (m *Metrics) IncrementDirectUpdate() {
	if m == nil {
		return
	}
	m.DirectUpdates.Inc()
}

func (m *Metrics) AddChangeRequestsCreated(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.ChangeRequestsCreated.Add(float64(n))
}

func (m *Metrics) IncrementResolved(outcome string) {
	if m == nil {
		return
	}
	m.ChangeRequestsResolved.WithLabelValues(outcome).Inc()
}

// ObserveBatch records one batch run. Call with time.Now() taken at the start.
func (m *Metrics) ObserveBatch(start time.Time, updated, failed int) {
	if m == nil {
		return
	}
	m.BatchItems.WithLabelValues("updated").Add(float64(updated))
	m.BatchItems.WithLabelValues("failed").Add(float64(failed))
	m.BatchDuration.Observe(time.Since(start).Seconds())
}
