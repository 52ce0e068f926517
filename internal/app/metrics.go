package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Search outcome labels.
const (
	searchOK            = "ok"
	searchFailed        = "extraction_error"
	searchConfigMissing = "config_missing"
)

// Metrics are registered on a per-App registry so several Apps (tests, mostly)
// can coexist in one process.
type Metrics struct {
	CacheLookups  *prometheus.CounterVec
	CatalogBuilds prometheus.Counter
	BuildDuration prometheus.Histogram
	Restaurants   prometheus.Gauge
	Searches      *prometheus.CounterVec
}

// NewMetrics registers the zeal collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		CacheLookups: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeal_cache_lookups_total",
				Help: "Catalog cache lookups by outcome",
			},
			[]string{"result"},
		),
		CatalogBuilds: f.NewCounter(
			prometheus.CounterOpts{
				Name: "zeal_catalog_builds_total",
				Help: "Full catalog rebuilds",
			},
		),
		BuildDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "zeal_catalog_build_duration_seconds",
				Help:    "Duration of a full catalog rebuild in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
		),
		Restaurants: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "zeal_catalog_restaurants",
				Help: "Restaurants in the current catalog",
			},
		),
		Searches: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "zeal_searches_total",
				Help: "Searches by status",
			},
			[]string{"status"},
		),
	}
}
