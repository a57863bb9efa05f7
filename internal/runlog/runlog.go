// Package runlog keeps a history of sitemap generation runs.
package runlog

import (
	"context"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/sitemap"
)

// Run is one recorded sitemap run.
type Run struct {
	ID           int64     `json:"-"`
	RunID        string    `json:"run_id"`
	StartedAt    time.Time `json:"started_at"`
	DurationMS   int64     `json:"duration_ms"`
	Outcome      string    `json:"outcome"`
	Reason       string    `json:"reason"`
	Routes       int       `json:"routes"`
	Written      []string  `json:"written"`
	MinimalWrite bool      `json:"minimal_write,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Store persists runs.
type Store interface {
	Record(ctx context.Context, run Run) error
	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]Run, error)
	// Get returns the run with runID, or nil when unknown.
	Get(ctx context.Context, runID string) (*Run, error)
	Close() error
}

// FromResult converts a run result, and the error Run returned with it,
// into a record.
func FromResult(res *sitemap.Result, runErr error) Run {
	run := Run{
		RunID:        res.RunID,
		StartedAt:    res.StartedAt,
		DurationMS:   res.Duration.Milliseconds(),
		Outcome:      res.Outcome.Label(),
		Reason:       string(res.Outcome.Reason()),
		Routes:       res.RouteCount,
		Written:      res.Written,
		MinimalWrite: res.MinimalWrite,
	}
	switch {
	case runErr != nil:
		run.Error = runErr.Error()
	case res.WriteErr != nil:
		run.Error = res.WriteErr.Error()
	case res.LegacyErr != nil:
		run.Error = res.LegacyErr.Error()
	case res.Outcome.Cause() != nil:
		run.Error = res.Outcome.Cause().Error()
	}
	return run
}
