package config

import (
	"strings"
	"time"
)

const (
	DefaultTimeout       = 10 * time.Second
	DefaultPageSize      = 100
	MaxPageSize          = 100
	DefaultConcurrency   = 20
	MaxConcurrency       = 20
	DefaultOutputDir     = "./dist"
	DefaultLegacyDir     = "./public"
	DefaultAddr          = ":8080"
	DefaultCatalogMaxAge = 5 * time.Minute
	DefaultInterval      = time.Hour
	DefaultStateDB       = "./sitepress.db"
	DefaultSubject       = "sitepress.sitemap"
	DefaultNotifyTimeout = 5 * time.Second
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

// appliers run in order; later domains may read values set by earlier ones.
var appliers = []DefaultApplier{
	siteDefaults{},
	wordpressDefaults{},
	sitemapDefaults{},
	serverDefaults{},
	daemonDefaults{},
	notifyDefaults{},
	loggingDefaults{},
}

func applyDefaults(cfg *Config) {
	if cfg.Version == "" {
		cfg.Version = "1"
	}
	for _, a := range appliers {
		a.ApplyDefaults(cfg)
	}
}

type siteDefaults struct{}

func (siteDefaults) Domain() string { return "site" }

func (siteDefaults) ApplyDefaults(cfg *Config) {
	cfg.Site.URL = strings.TrimSuffix(strings.TrimSpace(cfg.Site.URL), "/")
}

type wordpressDefaults struct{}

func (wordpressDefaults) Domain() string { return "wordpress" }

func (wordpressDefaults) ApplyDefaults(cfg *Config) {
	cfg.WordPress.APIURL = strings.TrimSuffix(strings.TrimSpace(cfg.WordPress.APIURL), "/")
	if cfg.WordPress.Timeout <= 0 {
		cfg.WordPress.Timeout = DefaultTimeout
	}
}

type sitemapDefaults struct{}

func (sitemapDefaults) Domain() string { return "sitemap" }

func (sitemapDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Sitemap.OutputDir == "" {
		cfg.Sitemap.OutputDir = DefaultOutputDir
	}
	if cfg.Sitemap.LegacyDir == "" {
		cfg.Sitemap.LegacyDir = DefaultLegacyDir
	}
	if cfg.Sitemap.PageSize <= 0 {
		cfg.Sitemap.PageSize = DefaultPageSize
	}
	if cfg.Sitemap.PageSize > MaxPageSize {
		cfg.Sitemap.PageSize = MaxPageSize
	}
	if cfg.Sitemap.Concurrency <= 0 || cfg.Sitemap.Concurrency > MaxConcurrency {
		cfg.Sitemap.Concurrency = DefaultConcurrency
	}
}

type serverDefaults struct{}

func (serverDefaults) Domain() string { return "server" }

func (serverDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.StaticDir == "" {
		cfg.Server.StaticDir = cfg.Sitemap.OutputDir
	}
	if cfg.Server.CatalogMaxAge <= 0 {
		cfg.Server.CatalogMaxAge = DefaultCatalogMaxAge
	}
}

type daemonDefaults struct{}

func (daemonDefaults) Domain() string { return "daemon" }

func (daemonDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Daemon.Interval <= 0 {
		cfg.Daemon.Interval = DefaultInterval
	}
	if cfg.Daemon.StateDB == "" {
		cfg.Daemon.StateDB = DefaultStateDB
	}
}

type notifyDefaults struct{}

func (notifyDefaults) Domain() string { return "notify" }

func (notifyDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Notify.Subject == "" {
		cfg.Notify.Subject = DefaultSubject
	}
	if cfg.Notify.Timeout <= 0 {
		cfg.Notify.Timeout = DefaultNotifyTimeout
	}
}

type loggingDefaults struct{}

func (loggingDefaults) Domain() string { return "logging" }

func (loggingDefaults) ApplyDefaults(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
}
