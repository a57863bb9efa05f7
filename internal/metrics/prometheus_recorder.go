package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	registry           *prom.Registry
	requestDuration    *prom.HistogramVec
	generationDuration prom.Histogram
	sitemapOutcomes    *prom.CounterVec
	sitemapRoutes      prom.Gauge
	pageConcurrency    prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics on reg
// (a fresh registry when nil).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{registry: reg}
	pr.requestDuration = prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: "sitepress",
		Name:      "cms_request_duration_seconds",
		Help:      "Duration of individual CMS requests",
		Buckets:   prom.DefBuckets,
	}, []string{"resource", "outcome"})
	pr.generationDuration = prom.NewHistogram(prom.HistogramOpts{
		Namespace: "sitepress",
		Name:      "sitemap_generation_duration_seconds",
		Help:      "Total sitemap generation duration",
		Buckets:   prom.DefBuckets,
	})
	pr.sitemapOutcomes = prom.NewCounterVec(prom.CounterOpts{
		Namespace: "sitepress",
		Name:      "sitemap_runs_total",
		Help:      "Sitemap runs by outcome and fallback reason",
	}, []string{"outcome", "reason"})
	pr.sitemapRoutes = prom.NewGauge(prom.GaugeOpts{
		Namespace: "sitepress",
		Name:      "sitemap_routes",
		Help:      "Number of routes in the last written sitemap",
	})
	pr.pageConcurrency = prom.NewGauge(prom.GaugeOpts{
		Namespace: "sitepress",
		Name:      "sitemap_page_fetch_concurrency",
		Help:      "Concurrency used for the last post pagination fan-out",
	})
	reg.MustRegister(pr.requestDuration, pr.generationDuration, pr.sitemapOutcomes, pr.sitemapRoutes, pr.pageConcurrency)
	return pr
}

// Registry returns the registry the metrics were registered on.
func (p *PrometheusRecorder) Registry() *prom.Registry {
	return p.registry
}

func (p *PrometheusRecorder) ObserveRequestDuration(resource string, d time.Duration, outcome RequestOutcome) {
	if p == nil {
		return
	}
	p.requestDuration.WithLabelValues(resource, string(outcome)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveGenerationDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.generationDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncSitemapOutcome(outcome, reason string) {
	if p == nil {
		return
	}
	p.sitemapOutcomes.WithLabelValues(outcome, reason).Inc()
}

func (p *PrometheusRecorder) SetSitemapRoutes(n int) {
	if p == nil {
		return
	}
	p.sitemapRoutes.Set(float64(n))
}

func (p *PrometheusRecorder) SetPageFetchConcurrency(n int) {
	if p == nil {
		return
	}
	p.pageConcurrency.Set(float64(n))
}
