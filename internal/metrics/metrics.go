// Package metrics exposes analysis run metrics in Prometheus format.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Veraticus/transcript-recon/internal/model"
)

const namespace = "recon"

// Recorder implements analysis.Recorder on its own registry.
type Recorder struct {
	registry       *prometheus.Registry
	analyses       *prometheus.CounterVec
	failures       *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	findings       *prometheus.CounterVec
	recommendation prometheus.Histogram
	refund         prometheus.Histogram
}

// New creates a recorder. Go runtime and process collectors are registered
// alongside the analysis metrics.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed analysis runs by overall risk.",
		}, []string{"overall_risk"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Failed analysis runs by the stage that failed.",
		}, []string{"stage"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"stage"}),
		findings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "findings_total",
			Help:      "Findings reported by type.",
		}, []string{"type"}),
		recommendation: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recommendations_per_analysis",
			Help:      "Recommendations produced per run.",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50},
		}),
		refund: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "potential_refund_dollars",
			Help:      "Total potential refund per run.",
			Buckets:   []float64{0, 100, 500, 1000, 5000, 10000, 50000},
		}),
	}

	r.registry.MustRegister(
		r.analyses,
		r.failures,
		r.stageDuration,
		r.findings,
		r.recommendation,
		r.refund,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObserveStage records a stage timing.
func (r *Recorder) ObserveStage(stage string, elapsed time.Duration) {
	r.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// ObserveResult records a completed run.
func (r *Recorder) ObserveResult(result *model.AnalysisResult) {
	r.analyses.WithLabelValues(string(result.Summary.OverallRisk)).Inc()
	r.recommendation.Observe(float64(len(result.Recommendations)))
	r.refund.Observe(result.Summary.TotalPotentialRefund)
	for _, y := range result.Years {
		for _, f := range y.Findings {
			r.findings.WithLabelValues(string(f.Type)).Inc()
		}
	}
}

// ObserveFailure records a failed run.
func (r *Recorder) ObserveFailure(stage string, _ error) {
	r.failures.WithLabelValues(stage).Inc()
}

// Handler serves the registry for scraping.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
