package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// OutcomeLabel is the final status of a render or apply run.
type OutcomeLabel string

const (
	OutcomeSuccess  OutcomeLabel = "success"
	OutcomeConflict OutcomeLabel = "conflict"
	OutcomeFailed   OutcomeLabel = "failed"
	OutcomeCanceled OutcomeLabel = "canceled"
)

// Recorder defines observability hooks for pipeline runs. Implementations
// may forward to Prometheus; NoopRecorder is the default.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncRunOutcome(outcome OutcomeLabel)
	// AddEdits records candidate edits and how many survived resolution.
	AddEdits(proposed, kept int)
	IncConflict()
	IncDocument(engine string, abbreviated bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncRunOutcome(OutcomeLabel)                 {}
func (NoopRecorder) AddEdits(int, int)                          {}
func (NoopRecorder) IncConflict()                               {}
func (NoopRecorder) IncDocument(string, bool)                   {}
