package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "servicearea_runs_total",
		Help: "Total service area pipeline runs by outcome",
	}, []string{"status"})
	StageDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "servicearea_stage_duration_ms",
		Help:    "Pipeline stage duration in milliseconds",
		Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000, 30000},
	}, []string{"stage"})
	CacheHitsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "servicearea_cache_hits_total",
		Help: "Total cache hits by cache",
	}, []string{"cache"})
	CacheMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "servicearea_cache_misses_total",
		Help: "Total cache misses by cache",
	}, []string{"cache"})
)

func init() {
	prometheus.MustRegister(RunsTotal)
	prometheus.MustRegister(StageDurationMs)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// ObserveStage records the elapsed time of a stage when the returned
// function is called.
func ObserveStage(stage string) func() {
	start := time.Now()
	return func() {
		StageDurationMs.WithLabelValues(stage).Observe(float64(time.Since(start).Milliseconds()))
	}
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
