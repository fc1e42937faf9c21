// Package metrics exposes Prometheus instrumentation for tracker runs.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "layoffwatch"

// Metrics holds the collectors of a tracker process on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	feeds          *prometheus.CounterVec
	entries        *prometheus.CounterVec
	alerts         *prometheus.CounterVec
	datasetRecords prometheus.Gauge
	lastRun        prometheus.Gauge
	fetchDuration  prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.feeds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feeds_total",
		Help:      "Feeds processed by outcome status",
	}, []string{"status"})
	m.entries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "entries_total",
		Help:      "Feed entries by extraction outcome",
	}, []string{"outcome"})
	m.alerts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alerts_total",
		Help:      "High-impact alerts by dispatch outcome",
	}, []string{"outcome"})
	m.datasetRecords = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "dataset_records",
		Help:      "Records in the dataset after the last write",
	})
	m.lastRun = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the last completed run",
	})
	m.fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "feed_fetch_seconds",
		Help:      "Time spent fetching and parsing a single feed",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})

	m.registry.MustRegister(
		m.feeds, m.entries, m.alerts,
		m.datasetRecords, m.lastRun, m.fetchDuration,
	)
	return m
}

func (m *Metrics) FeedProcessed(status string, took time.Duration) {
	m.feeds.WithLabelValues(status).Inc()
	m.fetchDuration.Observe(took.Seconds())
}

func (m *Metrics) EntryOutcome(outcome string) {
	m.entries.WithLabelValues(outcome).Inc()
}

func (m *Metrics) AlertOutcome(outcome string) {
	m.alerts.WithLabelValues(outcome).Inc()
}

func (m *Metrics) DatasetWritten(records int) {
	m.datasetRecords.Set(float64(records))
}

func (m *Metrics) RunFinished(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// WriteTextfile writes the current values to path in the node_exporter
// textfile collector format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
