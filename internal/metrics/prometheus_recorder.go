package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once            sync.Once
	stageDuration   *prom.HistogramVec
	buildDuration   prom.Histogram
	stageResults    *prom.CounterVec
	buildOutcome    *prom.CounterVec
	verifyOutcome   *prom.CounterVec
	coveragePercent prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "fpgadoc",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual documentation build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "fpgadoc",
			Name:      "build_duration_seconds",
			Help:      "Total documentation build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fpgadoc",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fpgadoc",
			Name:      "build_outcomes_total",
			Help:      "Documentation build outcomes by final status",
		}, []string{"outcome"})
		pr.verifyOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "fpgadoc",
			Name:      "verify_outcomes_total",
			Help:      "Project build verification outcomes by project and class",
		}, []string{"project", "outcome"})
		pr.coveragePercent = prom.NewGauge(prom.GaugeOpts{
			Namespace: "fpgadoc",
			Name:      "coverage_percent",
			Help:      "Line coverage percentage from the last processed report",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.verifyOutcome, pr.coveragePercent)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) IncVerifyOutcome(project, outcome string) {
	if p == nil || p.verifyOutcome == nil {
		return
	}
	p.verifyOutcome.WithLabelValues(project, outcome).Inc()
}

func (p *PrometheusRecorder) SetCoveragePercent(pct float64) {
	if p == nil || p.coveragePercent == nil {
		return
	}
	p.coveragePercent.Set(pct)
}
