package metrics

import "time"

// RequestOutcome enumerates CMS request results for labels.
type RequestOutcome string

const (
	OutcomeSuccess   RequestOutcome = "success"
	OutcomeHTTPError RequestOutcome = "http_error"
	OutcomeTimeout   RequestOutcome = "timeout"
	OutcomeNetwork   RequestOutcome = "network_error"
)

// Recorder defines observability hooks. Implementations may forward to
// Prometheus or anything else; NoopRecorder is the default.
type Recorder interface {
	ObserveRequestDuration(resource string, d time.Duration, outcome RequestOutcome)
	ObserveGenerationDuration(d time.Duration)
	IncSitemapOutcome(outcome, reason string) // outcome: ok|fallback
	SetSitemapRoutes(n int)
	SetPageFetchConcurrency(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveRequestDuration(string, time.Duration, RequestOutcome) {}
func (NoopRecorder) ObserveGenerationDuration(time.Duration)                      {}
func (NoopRecorder) IncSitemapOutcome(string, string)                             {}
func (NoopRecorder) SetSitemapRoutes(int)                                         {}
func (NoopRecorder) SetPageFetchConcurrency(int)                                  {}
