package metrics

import "time"

// Outcome labels regeneration and publish counters.
type Outcome string

const (
	OutcomeSuccess  Outcome = "success"
	OutcomeWarning  Outcome = "warning"
	OutcomeFailed   Outcome = "failed"
	OutcomeCanceled Outcome = "canceled"
	OutcomeInvalid  Outcome = "invalid"
)

// Recorder receives regeneration, publish and webhook delivery observations.
type Recorder interface {
	ObserveRegenerateDuration(d time.Duration)
	IncRegenerateOutcome(o Outcome)
	SetPosts(n int)
	AddArtifactsWritten(n int)
	AddArtifactsPruned(n int)
	IncPublishOutcome(o Outcome)
	IncNotifyResult(success bool)
	IncNotifyRetry()
}

// NoopRecorder drops everything. It is the default when metrics are off.
type NoopRecorder struct{}

func (NoopRecorder) ObserveRegenerateDuration(time.Duration) {}
func (NoopRecorder) IncRegenerateOutcome(Outcome)            {}
func (NoopRecorder) SetPosts(int)                            {}
func (NoopRecorder) AddArtifactsWritten(int)                 {}
func (NoopRecorder) AddArtifactsPruned(int)                  {}
func (NoopRecorder) IncPublishOutcome(Outcome)               {}
func (NoopRecorder) IncNotifyResult(bool)                    {}
func (NoopRecorder) IncNotifyRetry()                         {}

// OrNoop returns r, or a NoopRecorder when r is nil.
func OrNoop(r Recorder) Recorder {
	if r == nil {
		return NoopRecorder{}
	}
	return r
}
