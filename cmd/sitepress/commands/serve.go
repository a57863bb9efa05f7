package commands

import (
	"context"
	"os/signal"
	"syscall"

	prom "github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/runlog"
	"git.home.luguber.info/inful/sitepress/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Addr   string `short:"a" help:"Listen address (overrides server.addr)"`
	RunLog bool   `name:"run-log" help:"Expose the daemon run log at /api/runs"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if s.Addr != "" {
		cfg.Server.Addr = s.Addr
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	reg := prom.NewRegistry()
	rec := metrics.NewPrometheusRecorder(reg)
	client, err := newClient(cfg, rec, g.Logger)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithRegistry(reg),
		server.WithStaticDir(cfg.Server.StaticDir),
		server.WithLogger(g.Logger),
	}
	if s.RunLog {
		store, err := runlog.NewSQLiteStore(cfg.Daemon.StateDB)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
		opts = append(opts, server.WithRunLog(store))
	}

	catalog := browse.NewProjectCatalog(client,
		browse.WithMaxAge(cfg.Server.CatalogMaxAge),
		browse.WithCatalogLogger(g.Logger))
	return server.New(client, catalog, opts...).ListenAndServe(ctx, cfg.Server.Addr)
}
