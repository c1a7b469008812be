// Package metrics defines observability hooks for pipeline and archive
// operations, with a Prometheus-backed implementation for daemon mode.
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

// Recorder defines observability hooks for pipeline and archive metrics.
// The NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncSpeciesFetched(n int)
	IncArchiveOutcome(outcome string) // outcome: success|failed
	ObserveArchiveDuration(d time.Duration)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncSpeciesFetched(int)                      {}
func (NoopRecorder) IncArchiveOutcome(string)                   {}
func (NoopRecorder) ObserveArchiveDuration(time.Duration)       {}
