package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Config is the process-wide configuration. It is resolved once at startup and
// injected into the components that need it.
type Config struct {
	Version   string          `yaml:"version"`
	Site      SiteConfig      `yaml:"site"`
	WordPress WordPressConfig `yaml:"wordpress"`
	Sitemap   SitemapConfig   `yaml:"sitemap"`
	Server    ServerConfig    `yaml:"server"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Notify    NotifyConfig    `yaml:"notify,omitempty"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics,omitempty"`
}

// SiteConfig describes the public site the sitemap points at.
type SiteConfig struct {
	URL string `yaml:"url"` // Absolute site URL, trailing slash removed
}

// WordPressConfig describes the headless CMS.
type WordPressConfig struct {
	APIURL    string        `yaml:"api_url"` // e.g. https://cms.example.com/wp-json/wp/v2
	Timeout   time.Duration `yaml:"timeout"` // Per-request deadline
	UserAgent string        `yaml:"user_agent,omitempty"`
}

// SitemapConfig controls sitemap generation.
type SitemapConfig struct {
	OutputDir   string `yaml:"output_dir"`  // Build output directory, created when missing
	LegacyDir   string `yaml:"legacy_dir"`  // Written only when it already exists
	PageSize    int    `yaml:"page_size"`   // Posts per request while paginating
	Concurrency int    `yaml:"concurrency"` // Max in-flight page requests
}

// ServerConfig controls the JSON API.
type ServerConfig struct {
	Addr          string        `yaml:"addr"`
	StaticDir     string        `yaml:"static_dir"`      // Where sitemap.xml and robots.txt are served from
	CatalogMaxAge time.Duration `yaml:"catalog_max_age"` // Project catalog cache lifetime
}

// DaemonConfig controls scheduled regeneration.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval"`
	StateDB  string        `yaml:"state_db"` // SQLite run log path, ":memory:" allowed
	NoWatch  bool          `yaml:"no_watch"` // Disable config file watching
	Serve    bool          `yaml:"serve"`    // Also run the JSON API
}

// NotifyConfig controls NATS run notifications. An empty NATSURL disables them.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url,omitempty"`
	Subject string        `yaml:"subject,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LoggingConfig selects the slog level and handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// MetricsConfig controls metric export for one-shot runs.
type MetricsConfig struct {
	Textfile string `yaml:"textfile,omitempty"` // node_exporter textfile collector target
}

// Default returns a configuration built only from defaults and environment overrides.
func Default() *Config {
	cfg := &Config{Version: "1"}
	applyEnvOverrides(cfg)
	applyDefaults(cfg)
	return cfg
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, errors.ConfigError("configuration file not found").
			WithContext("path", configPath).
			Build()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to read config file").
			Fatal().
			WithContext("path", configPath).
			Build()
	}

	return Parse(data)
}

// LoadOrDefault behaves like Load but falls back to Default when the file is absent.
func LoadOrDefault(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		loadEnvFile()
		cfg := Default()
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		return cfg, nil
	}
	return Load(configPath)
}

// Parse decodes YAML after ${VAR} expansion, applies defaults and validates.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "failed to unmarshal config").Fatal().Build()
	}

	applyEnvOverrides(&cfg)
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SitemapURL is the absolute URL robots.txt advertises.
func (c *Config) SitemapURL() string {
	return strings.TrimSuffix(c.Site.URL, "/") + "/sitemap.xml"
}

func (c *Config) String() string {
	return fmt.Sprintf("site=%s api=%s output=%s", c.Site.URL, c.WordPress.APIURL, c.Sitemap.OutputDir)
}
