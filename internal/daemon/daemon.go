// Package daemon regenerates the sitemap on a schedule, records every run
// and optionally serves the JSON API alongside.
package daemon

import (
	"context"
	stderrors "errors"
	"log/slog"
	"sync"

	prom "github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/fetch"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/notify"
	"git.home.luguber.info/inful/sitepress/internal/runlog"
	"git.home.luguber.info/inful/sitepress/internal/server"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
	"git.home.luguber.info/inful/sitepress/internal/version"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

const jobName = "sitemap"

// ErrRunInProgress is returned by RunOnce when another run has not finished.
var ErrRunInProgress = stderrors.New("sitemap run already in progress")

// Daemon owns the scheduler, config watcher, run log and publisher.
type Daemon struct {
	configPath string

	mu  sync.RWMutex
	cfg *config.Config

	registry  *prom.Registry
	recorder  *metrics.PrometheusRecorder
	store     runlog.Store
	publisher notify.Publisher
	logger    *slog.Logger

	scheduler *Scheduler
	jobID     string
	runCtx    context.Context

	runMu sync.Mutex
}

// Option configures a Daemon.
type Option func(*Daemon)

func WithLogger(l *slog.Logger) Option {
	return func(d *Daemon) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithRunLog replaces the SQLite run log configured by daemon.state_db.
func WithRunLog(store runlog.Store) Option {
	return func(d *Daemon) { d.store = store }
}

// WithPublisher replaces the NATS publisher configured by notify.
func WithPublisher(p notify.Publisher) Option {
	return func(d *Daemon) { d.publisher = p }
}

// New creates a daemon for cfg. configPath is watched for changes unless it
// is empty or daemon.no_watch is set.
func New(cfg *config.Config, configPath string, opts ...Option) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.ConfigError("config is required").Build()
	}
	d := &Daemon{
		configPath: configPath,
		cfg:        cfg,
		registry:   prom.NewRegistry(),
		logger:     slog.Default(),
		runCtx:     context.Background(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.recorder = metrics.NewPrometheusRecorder(d.registry)

	if d.store == nil {
		store, err := runlog.NewSQLiteStore(cfg.Daemon.StateDB)
		if err != nil {
			return nil, err
		}
		d.store = store
	}
	if d.publisher == nil {
		pub, err := notify.New(cfg.Notify, d.logger)
		if err != nil {
			d.logger.Warn("Notifications disabled", logfields.Error(err))
			pub = notify.NoopPublisher{}
		}
		d.publisher = pub
	}

	scheduler, err := NewScheduler(d.logger)
	if err != nil {
		_ = d.store.Close()
		return nil, err
	}
	d.scheduler = scheduler
	return d, nil
}

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// Registry exposes the daemon's metrics.
func (d *Daemon) Registry() *prom.Registry { return d.registry }

// RunLog exposes the run history.
func (d *Daemon) RunLog() runlog.Store { return d.store }

// RunOnce generates and writes the sitemap with the active configuration,
// records the run and publishes it. Concurrent calls return ErrRunInProgress.
func (d *Daemon) RunOnce(ctx context.Context) (*sitemap.Result, error) {
	if !d.runMu.TryLock() {
		d.logger.WarnContext(ctx, "Skipping sitemap run, previous run still in progress")
		return nil, ErrRunInProgress
	}
	defer d.runMu.Unlock()

	cfg := d.Config()
	client, err := d.newClient(cfg)
	if err != nil {
		return nil, err
	}
	gen := sitemap.NewGenerator(client,
		sitemap.WithPageSize(cfg.Sitemap.PageSize),
		sitemap.WithConcurrency(cfg.Sitemap.Concurrency),
		sitemap.WithRecorder(d.recorder),
		sitemap.WithLogger(d.logger))

	res, runErr := gen.Run(ctx, cfg.Site.URL, sitemap.Writer{
		OutputDir: cfg.Sitemap.OutputDir,
		LegacyDir: cfg.Sitemap.LegacyDir,
	})
	if res == nil {
		return nil, runErr
	}

	// Bookkeeping outlives a cancelled run so the outcome is never lost.
	bookCtx := context.WithoutCancel(ctx)
	if err := d.store.Record(bookCtx, runlog.FromResult(res, runErr)); err != nil {
		d.logger.ErrorContext(ctx, "Recording run failed", logfields.RunID(res.RunID), logfields.Error(err))
	}
	if err := d.publisher.Publish(bookCtx, notify.EventFromResult(res)); err != nil {
		d.logger.WarnContext(ctx, "Publishing run event failed", logfields.RunID(res.RunID), logfields.Error(err))
	}
	return res, runErr
}

func (d *Daemon) newClient(cfg *config.Config) (*wordpress.Client, error) {
	ua := cfg.WordPress.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	f := fetch.New(
		fetch.WithTimeout(cfg.WordPress.Timeout),
		fetch.WithUserAgent(ua),
		fetch.WithRecorder(d.recorder))
	return wordpress.NewClient(cfg.WordPress.APIURL, f, wordpress.WithLogger(d.logger))
}

// ReloadConfig swaps in newCfg and reschedules when the interval changed.
func (d *Daemon) ReloadConfig(_ context.Context, newCfg *config.Config) error {
	d.mu.Lock()
	old := d.cfg
	d.cfg = newCfg
	jobID := d.jobID
	d.mu.Unlock()

	if jobID == "" || newCfg.Daemon.Interval == old.Daemon.Interval {
		return nil
	}
	id, err := d.scheduler.Reschedule(jobID, jobName, newCfg.Daemon.Interval, d.scheduledRun)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.jobID = id
	d.mu.Unlock()
	d.logger.Info("Sitemap schedule updated", slog.Duration("interval", newCfg.Daemon.Interval))
	return nil
}

func (d *Daemon) scheduledRun() {
	d.mu.RLock()
	ctx := d.runCtx
	d.mu.RUnlock()
	if ctx.Err() != nil {
		return
	}
	// Failures are logged and recorded by RunOnce.
	_, _ = d.RunOnce(ctx)
}

// Run schedules regeneration, watches the config file and serves the API
// when enabled. It blocks until ctx is cancelled and then releases every
// resource the daemon holds.
func (d *Daemon) Run(ctx context.Context) error {
	defer d.close()

	cfg := d.Config()
	d.mu.Lock()
	d.runCtx = ctx
	d.mu.Unlock()

	jobID, err := d.scheduler.ScheduleEvery(jobName, cfg.Daemon.Interval, d.scheduledRun)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.jobID = jobID
	d.mu.Unlock()

	d.scheduler.Start(ctx)
	defer func() {
		if err := d.scheduler.Stop(context.WithoutCancel(ctx)); err != nil {
			d.logger.Error("Scheduler shutdown failed", logfields.Error(err))
		}
	}()

	if d.configPath != "" && !cfg.Daemon.NoWatch {
		watcher, err := NewConfigWatcher(d.configPath, d)
		if err != nil {
			return err
		}
		if err := watcher.Start(ctx); err != nil {
			return err
		}
		defer watcher.Stop()
	}

	d.logger.Info("Daemon started",
		slog.Duration("interval", cfg.Daemon.Interval),
		slog.Bool("serve", cfg.Daemon.Serve))

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Daemon.Serve {
		client, err := d.newClient(cfg)
		if err != nil {
			return err
		}
		srv := server.New(client,
			browse.NewProjectCatalog(client,
				browse.WithMaxAge(cfg.Server.CatalogMaxAge),
				browse.WithCatalogLogger(d.logger)),
			server.WithRunLog(d.store),
			server.WithRegistry(d.registry),
			server.WithStaticDir(cfg.Server.StaticDir),
			server.WithLogger(d.logger))
		g.Go(func() error { return srv.ListenAndServe(gctx, cfg.Server.Addr) })
	}
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	err = g.Wait()
	d.logger.Info("Daemon stopped")
	return err
}

func (d *Daemon) close() {
	d.publisher.Close()
	if err := d.store.Close(); err != nil {
		d.logger.Error("Closing run log failed", logfields.Error(err))
	}
}
