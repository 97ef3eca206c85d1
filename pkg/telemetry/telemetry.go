// Package telemetry exposes Prometheus counters and a histogram over this
// system's own pipeline, served from the /metrics endpoint described
// in SPEC_FULL.md's ambient-stack section. Grounded on
// runZeroInc-sockstats, a telemetry-collection tool instrumented the
// same way — a telemetry system instrumenting itself is squarely
// in-domain here.
package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics is the set of counters and the histogram this core publishes.
type Metrics struct {
	HeartbeatsIngested prometheus.Counter
	DecodeErrors       prometheus.Counter
	RowsPersisted      prometheus.Counter
	PersistenceErrors  prometheus.Counter
	ClassifierPassSecs prometheus.Histogram
	AlertsEmitted      *prometheus.CounterVec
}

// New registers and returns a fresh Metrics set against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HeartbeatsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "heartbeats_ingested_total",
			Help:      "Heartbeats accepted through the HTTP collect endpoint.",
		}),
		DecodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "decode_errors_total",
			Help:      "Upload requests rejected because the stream failed to decode.",
		}),
		RowsPersisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "rows_persisted_total",
			Help:      "Stats rows successfully inserted.",
		}),
		PersistenceErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "persistence_errors_total",
			Help:      "Classifier working-set selects that failed in the storage backend.",
		}),
		ClassifierPassSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "monitoring",
			Name:      "classifier_pass_seconds",
			Help:      "Wall-clock duration of one classifier+aggregator pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		AlertsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "monitoring",
			Name:      "alerts_emitted_total",
			Help:      "Alert messages emitted, by satellite status.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		m.HeartbeatsIngested,
		m.DecodeErrors,
		m.RowsPersisted,
		m.PersistenceErrors,
		m.ClassifierPassSecs,
		m.AlertsEmitted,
	)
	return m
}
