package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/sitepress/internal/daemon"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Serve   bool `help:"Also serve the JSON API (overrides daemon.serve)"`
	NoWatch bool `name:"no-watch" help:"Do not reload the configuration file on change"`
}

func (d *DaemonCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	if d.Serve {
		cfg.Daemon.Serve = true
	}
	if d.NoWatch {
		cfg.Daemon.NoWatch = true
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	dmn, err := daemon.New(cfg, root.Config, daemon.WithLogger(g.Logger))
	if err != nil {
		return fmt.Errorf("failed to create daemon: %w", err)
	}
	g.Logger.Info("Starting daemon mode")
	return dmn.Run(ctx)
}
