// Package metrics exposes Prometheus metrics for the analysis engine:
// parse and reparse counts and latencies, incremental-vs-full reparse
// outcomes, open documents, and indexed symbols.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"vislcg/cg3kit/pkg/config"
)

// Reparse outcome labels.
const (
	ModeIncremental = "incremental"
	ModeFull        = "full"
)

// Collector registers and records all engine metrics.
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	parsesTotal      *prometheus.CounterVec
	parseDuration    *prometheus.HistogramVec
	reparsesTotal    *prometheus.CounterVec
	diagnostics      *prometheus.CounterVec
	documentsOpen    prometheus.Gauge
	indexedSymbols   prometheus.Gauge
	resolutionsTotal *prometheus.CounterVec
}

// NewCollector creates a collector and registers its metrics with the
// registry. A nil registry gets a fresh private one.
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	buckets := cfg.ParseDurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}

	c := &Collector{
		config:   cfg,
		registry: registry,

		parsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parses_total",
				Help:      "Total number of full document parses",
			},
			[]string{"status"},
		),

		parseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "parse_duration_seconds",
				Help:      "Duration of document analysis in seconds",
				Buckets:   buckets,
			},
			[]string{"mode"},
		),

		reparsesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "reparses_total",
				Help:      "Total number of edit reparses by outcome mode",
			},
			[]string{"mode"},
		),

		diagnostics: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "diagnostics_total",
				Help:      "Total diagnostics produced, by type",
			},
			[]string{"type"},
		),

		documentsOpen: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "documents_open",
				Help:      "Number of documents currently held by the workspace",
			},
		),

		indexedSymbols: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "indexed_symbols",
				Help:      "Number of distinct symbols in the live index",
			},
		),

		resolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "resolutions_total",
				Help:      "Symbol resolutions by result",
			},
			[]string{"result"},
		),
	}

	registry.MustRegister(
		c.parsesTotal,
		c.parseDuration,
		c.reparsesTotal,
		c.diagnostics,
		c.documentsOpen,
		c.indexedSymbols,
		c.resolutionsTotal,
	)
	return c
}

// Registry returns the underlying Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// RecordParse records a full parse with its duration and whether it
// produced error diagnostics.
func (c *Collector) RecordParse(d time.Duration, hadErrors bool) {
	if !c.config.Enabled {
		return
	}
	status := "ok"
	if hadErrors {
		status = "findings"
	}
	c.parsesTotal.WithLabelValues(status).Inc()
	c.parseDuration.WithLabelValues(ModeFull).Observe(d.Seconds())
}

// RecordReparse records an edit reparse and whether it reused part of the
// previous tree or rescanned to end of document.
func (c *Collector) RecordReparse(d time.Duration, mode string) {
	if !c.config.Enabled {
		return
	}
	c.reparsesTotal.WithLabelValues(mode).Inc()
	c.parseDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// RecordDiagnostics bumps the per-type diagnostic counters.
func (c *Collector) RecordDiagnostics(byType map[string]int) {
	if !c.config.Enabled {
		return
	}
	for t, n := range byType {
		c.diagnostics.WithLabelValues(t).Add(float64(n))
	}
}

// SetDocumentsOpen tracks the number of open documents.
func (c *Collector) SetDocumentsOpen(n int) {
	if !c.config.Enabled {
		return
	}
	c.documentsOpen.Set(float64(n))
}

// SetIndexedSymbols tracks the size of the live symbol index.
func (c *Collector) SetIndexedSymbols(n int) {
	if !c.config.Enabled {
		return
	}
	c.indexedSymbols.Set(float64(n))
}

// RecordResolution records a symbol resolution hit or miss.
func (c *Collector) RecordResolution(found bool) {
	if !c.config.Enabled {
		return
	}
	result := "hit"
	if !found {
		result = "miss"
	}
	c.resolutionsTotal.WithLabelValues(result).Inc()
}
