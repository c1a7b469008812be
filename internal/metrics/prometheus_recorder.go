package metrics

import (
	"net/http"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry        *prom.Registry
	stageDuration   *prom.HistogramVec
	runDuration     prom.Histogram
	stageResults    *prom.CounterVec
	speciesFetched  prom.Counter
	archiveOutcome  *prom.CounterVec
	archiveDuration prom.Histogram
}

// NewPrometheusRecorder constructs and registers Prometheus metrics against
// the given registry (a fresh one is created when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}

	pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "herbario",
		Name:      "stage_duration_seconds",
		Help:      "Duration of individual pipeline stages",
		Buckets:   prom.DefBuckets,
	}, []string{"stage"})
	pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "herbario",
		Name:      "run_duration_seconds",
		Help:      "Total pipeline run duration",
		Buckets:   prom.DefBuckets,
	})
	pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "herbario",
		Name:      "stage_results_total",
		Help:      "Stage result counts by outcome",
	}, []string{"stage", "result"})
	pr.speciesFetched = prom.NewCounter(prom.CounterOpts{
		Namespace: "herbario",
		Name:      "species_fetched_total",
		Help:      "Species detail records fetched from the API",
	})
	pr.archiveOutcome = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "herbario",
		Name:      "archive_outcomes_total",
		Help:      "Archive build outcomes by final status",
	}, []string{"outcome"})
	pr.archiveDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "herbario",
		Name:      "archive_duration_seconds",
		Help:      "Duration of archive builds",
		Buckets:   prom.DefBuckets,
	})

	reg.MustRegister(
		pr.stageDuration,
		pr.runDuration,
		pr.stageResults,
		pr.speciesFetched,
		pr.archiveOutcome,
		pr.archiveDuration,
	)
	return pr
}

// Handler exposes the recorder's registry for scraping.
func (pr *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(pr.registry, promhttp.HandlerOpts{})
}

func (pr *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	pr.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (pr *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	pr.runDuration.Observe(d.Seconds())
}

func (pr *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	pr.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (pr *PrometheusRecorder) IncSpeciesFetched(n int) {
	pr.speciesFetched.Add(float64(n))
}

func (pr *PrometheusRecorder) IncArchiveOutcome(outcome string) {
	pr.archiveOutcome.WithLabelValues(outcome).Inc()
}

func (pr *PrometheusRecorder) ObserveArchiveDuration(d time.Duration) {
	pr.archiveDuration.Observe(d.Seconds())
}
