package runlog

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndRecent(t *testing.T) {
	s := newStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, outcome := range []string{"ok", "fallback", "ok"} {
		require.NoError(t, s.Record(t.Context(), Run{
			RunID:     "run-" + string(rune('a'+i)),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Outcome:   outcome,
			Reason:    "none",
			Routes:    8 + i,
			Written:   []string{"dist/sitemap.xml", "dist/robots.txt"},
		}))
	}

	runs, err := s.Recent(t.Context(), 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "run-c", runs[0].RunID)
	require.Equal(t, "run-b", runs[1].RunID)
	require.Equal(t, 10, runs[0].Routes)
	require.Equal(t, []string{"dist/sitemap.xml", "dist/robots.txt"}, runs[0].Written)
	require.True(t, runs[0].StartedAt.Equal(base.Add(2*time.Hour)))

	got, err := s.Get(t.Context(), "run-b")
	require.NoError(t, err)
	require.Equal(t, "fallback", got.Outcome)

	got, err = s.Get(t.Context(), "missing")
	require.NoError(t, err)
	require.Nil(t, got)

	require.Error(t, s.Record(t.Context(), Run{RunID: "run-a"}), "run ids are unique")
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	s, err := NewSQLiteStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(t.Context(), Run{RunID: "r1", StartedAt: time.Now(), Outcome: "ok", Reason: "none"}))
	require.NoError(t, s.Close())

	s, err = NewSQLiteStore(path)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()
	runs, err := s.Recent(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.Nil(t, runs[0].Written)
}

func TestFromResult(t *testing.T) {
	cause := errors.APIUnavailableError("down").Build()
	res := &sitemap.Result{
		RunID:      "abc",
		StartedAt:  time.Now(),
		Duration:   1500 * time.Millisecond,
		Outcome:    sitemap.Fallback(sitemap.ReasonAPIUnavailable, sitemap.StaticRoutes(time.Now()), cause),
		RouteCount: 8,
		Written:    []string{"a", "b"},
	}
	run := FromResult(res, nil)
	require.Equal(t, "fallback", run.Outcome)
	require.Equal(t, "api_unavailable", run.Reason)
	require.Equal(t, int64(1500), run.DurationMS)
	require.Equal(t, 8, run.Routes)
	require.Contains(t, run.Error, "down")
}
