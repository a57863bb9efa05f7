package metrics

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveRequestDuration("posts", 150*time.Millisecond, OutcomeSuccess)
	pr.ObserveGenerationDuration(500 * time.Millisecond)
	pr.IncSitemapOutcome("fallback", "api_unavailable")
	pr.IncSitemapOutcome("fallback", "api_unavailable")
	pr.SetSitemapRoutes(12)
	pr.SetPageFetchConcurrency(3)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.sitemapOutcomes.WithLabelValues("fallback", "api_unavailable")))
	require.Equal(t, 12.0, testutil.ToFloat64(pr.sitemapRoutes))
	require.Equal(t, 3.0, testutil.ToFloat64(pr.pageConcurrency))

	mfs, err := reg.Gather()
	require.NoError(t, err)
	require.NotEmpty(t, mfs)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.ObserveRequestDuration("posts", time.Second, OutcomeTimeout)
	pr.IncSitemapOutcome("ok", "")
	pr.SetSitemapRoutes(1)
}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveRequestDuration("tags", time.Millisecond, OutcomeNetwork)
	r.SetPageFetchConcurrency(1)
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.SetSitemapRoutes(8)

	rec := httptest.NewRecorder()
	HTTPHandler(pr.Registry()).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "sitepress_sitemap_routes 8")
}

func TestWriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncSitemapOutcome("ok", "none")

	path := filepath.Join(t.TempDir(), "sitepress.prom")
	require.NoError(t, WriteTextfile(path, pr.Registry()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(data), `sitepress_sitemap_runs_total{outcome="ok",reason="none"} 1`))
}
