package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SyncMetrics exposes the sync loop and quote store on /-/metrics.
type SyncMetrics struct {
	cycles      *prometheus.CounterVec
	changes     *prometheus.CounterVec
	duration    prometheus.Histogram
	storeSize   prometheus.Gauge
	lastSuccess prometheus.Gauge
	pushes      *prometheus.CounterVec
}

// NewSyncMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewSyncMetrics(reg prometheus.Registerer) (*SyncMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &SyncMetrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Subsystem: "sync",
			Name:      "cycles_total",
			Help:      "Sync cycles by outcome (ok, fetch_error, persist_error, skipped).",
		}, []string{"outcome"}),
		changes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Records changed by reconciliation, by kind (inserted, updated).",
		}, []string{"kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "quotes",
			Subsystem: "sync",
			Name:      "cycle_duration_seconds",
			Help:      "Wall time of one sync cycle.",
			Buckets:   prometheus.DefBuckets,
		}),
		storeSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quotes",
			Name:      "store_size",
			Help:      "Number of quotes currently held.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "quotes",
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful sync cycle.",
		}),
		pushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "quotes",
			Subsystem: "remote",
			Name:      "pushes_total",
			Help:      "Quotes pushed to the remote feed, by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.cycles, m.changes, m.duration, m.storeSize, m.lastSuccess, m.pushes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// ObserveCycle records one finished cycle.
func (m *SyncMetrics) ObserveCycle(outcome string, inserted, updated int, d time.Duration) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())

	if outcome == "ok" {
		m.changes.WithLabelValues("inserted").Add(float64(inserted))
		m.changes.WithLabelValues("updated").Add(float64(updated))
		m.lastSuccess.SetToCurrentTime()
	}
}

// SetStoreSize records the current number of quotes.
func (m *SyncMetrics) SetStoreSize(n int) {
	m.storeSize.Set(float64(n))
}

// ObservePush records the result of one push.
func (m *SyncMetrics) ObservePush(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}

	m.pushes.WithLabelValues(result).Inc()
}
