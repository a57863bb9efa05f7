package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/runlog"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
)

// SitemapCmd implements the 'sitemap' command, the build-time hook.
type SitemapCmd struct {
	Output         string `short:"o" help:"Output directory (overrides sitemap.output_dir)"`
	SiteURL        string `name:"site-url" help:"Public site URL (overrides site.url)"`
	MetricsFile    string `name:"metrics-textfile" help:"Write Prometheus metrics to this textfile (overrides metrics.textfile)"`
	Record         bool   `help:"Record the run in the daemon run log"`
	FailOnFallback bool   `name:"fail-on-fallback" help:"Exit non-zero when the static fallback sitemap was written"`
}

func (s *SitemapCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if s.Output != "" {
		cfg.Sitemap.OutputDir = s.Output
	}
	if s.SiteURL != "" {
		cfg.Site.URL = s.SiteURL
	}
	if s.MetricsFile != "" {
		cfg.Metrics.Textfile = s.MetricsFile
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	client, err := newClient(cfg, rec, g.Logger)
	if err != nil {
		return err
	}
	gen := sitemap.NewGenerator(client,
		sitemap.WithPageSize(cfg.Sitemap.PageSize),
		sitemap.WithConcurrency(cfg.Sitemap.Concurrency),
		sitemap.WithRecorder(rec),
		sitemap.WithLogger(g.Logger))

	res, runErr := gen.Run(ctx, cfg.Site.URL, sitemap.Writer{
		OutputDir: cfg.Sitemap.OutputDir,
		LegacyDir: cfg.Sitemap.LegacyDir,
	})

	if cfg.Metrics.Textfile != "" {
		if err := metrics.WriteTextfile(cfg.Metrics.Textfile, reg); err != nil {
			g.Logger.Warn("Writing metrics textfile failed", logfields.Path(cfg.Metrics.Textfile), logfields.Error(err))
		}
	}
	if s.Record && res != nil {
		if err := recordRun(ctx, cfg.Daemon.StateDB, runlog.FromResult(res, runErr)); err != nil {
			g.Logger.Warn("Recording run failed", logfields.Error(err))
		}
	}
	if runErr != nil {
		return runErr
	}

	_, _ = fmt.Fprintf(g.out(), "%s: %d routes (%s, reason %s)\n",
		res.RunID, res.RouteCount, res.Outcome.Label(), res.Outcome.Reason())
	for _, path := range res.Written {
		_, _ = fmt.Fprintf(g.out(), "  wrote %s\n", path)
	}
	if s.FailOnFallback && res.Outcome.IsFallback() {
		return errors.APIUnavailableError("static fallback sitemap written").
			WithCause(res.Outcome.Cause()).
			WithContext("reason", string(res.Outcome.Reason())).
			Build()
	}
	return nil
}

func recordRun(ctx context.Context, dbPath string, run runlog.Run) error {
	store, err := runlog.NewSQLiteStore(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return store.Record(context.WithoutCancel(ctx), run)
}
