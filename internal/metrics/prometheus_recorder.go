package metrics

import (
	"strconv"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "promptpack"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	runDuration   prom.Histogram
	stageResults  *prom.CounterVec
	runOutcome    *prom.CounterVec
	edits         *prom.CounterVec
	conflicts     prom.Counter
	documents     *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pipeline stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.runDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Total run duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.runOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "run_outcomes_total",
			Help:      "Runs by final status",
		}, []string{"outcome"})
		pr.edits = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Edits by resolution state (proposed, kept, dropped)",
		}, []string{"state"})
		pr.conflicts = prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "edit_conflicts_total",
			Help:      "Partially overlapping edit pairs that aborted a run",
		})
		pr.documents = prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Documents packed per engine",
		}, []string{"engine", "abbreviated"})
		reg.MustRegister(pr.stageDuration, pr.runDuration, pr.stageResults, pr.runOutcome, pr.edits, pr.conflicts, pr.documents)
	})
	return pr
}

// Registry returns the registry the metrics are registered with.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

// WriteTextfile writes all metrics in text exposition format, for the
// node_exporter textfile collector.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	return prom.WriteToTextfile(path, p.reg)
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveRunDuration(d time.Duration) {
	if p == nil || p.runDuration == nil {
		return
	}
	p.runDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncRunOutcome(outcome OutcomeLabel) {
	if p == nil || p.runOutcome == nil {
		return
	}
	p.runOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) AddEdits(proposed, kept int) {
	if p == nil || p.edits == nil {
		return
	}
	p.edits.WithLabelValues("proposed").Add(float64(proposed))
	p.edits.WithLabelValues("kept").Add(float64(kept))
	p.edits.WithLabelValues("dropped").Add(float64(proposed - kept))
}

func (p *PrometheusRecorder) IncConflict() {
	if p == nil || p.conflicts == nil {
		return
	}
	p.conflicts.Inc()
}

func (p *PrometheusRecorder) IncDocument(engine string, abbreviated bool) {
	if p == nil || p.documents == nil {
		return
	}
	p.documents.WithLabelValues(engine, strconv.FormatBool(abbreviated)).Inc()
}
