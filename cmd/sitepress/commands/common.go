package commands

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/sitepress/internal/config"
	"git.home.luguber.info/inful/sitepress/internal/fetch"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/version"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// Global carries state shared by every command.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"sitepress.yaml" env:"SITEPRESS_CONFIG"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Sitemap  SitemapCmd  `cmd:"" help:"Generate sitemap.xml and robots.txt from the CMS"`
	Posts    PostsCmd    `cmd:"" help:"List blog posts"`
	Post     PostCmd     `cmd:"" help:"Show a single blog post"`
	Projects ProjectsCmd `cmd:"" help:"List portfolio projects"`
	Facets   FacetsCmd   `cmd:"" help:"Show taxonomy facets with counts"`
	Serve    ServeCmd    `cmd:"" help:"Serve the JSON content API"`
	Daemon   DaemonCmd   `cmd:"" help:"Regenerate the sitemap on a schedule"`
	Init     InitCmd     `cmd:"" help:"Initialize a new configuration file"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}

// loadConfig reads the configuration file, or defaults plus environment
// overrides when it does not exist, and switches logging to its settings.
func (c *CLI) loadConfig(g *Global) (*config.Config, error) {
	cfg, err := config.LoadOrDefault(c.Config)
	if err != nil {
		return nil, err
	}
	logger := cfg.Logging.NewLogger(os.Stderr, c.Verbose)
	slog.SetDefault(logger)
	g.Logger = logger
	return cfg, nil
}

func (g *Global) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

func newClient(cfg *config.Config, rec metrics.Recorder, logger *slog.Logger) (*wordpress.Client, error) {
	ua := cfg.WordPress.UserAgent
	if ua == "" {
		ua = version.UserAgent()
	}
	f := fetch.New(
		fetch.WithTimeout(cfg.WordPress.Timeout),
		fetch.WithUserAgent(ua),
		fetch.WithRecorder(rec))
	return wordpress.NewClient(cfg.WordPress.APIURL, f, wordpress.WithLogger(logger))
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
