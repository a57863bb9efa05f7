package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).
			Build()
	}

	example := Example()
	data, err := yaml.Marshal(example)
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "failed to marshal config").Build()
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "failed to write config file").
			WithContext("path", configPath).
			Build()
	}
	return nil
}

// Example returns the configuration written by Init.
func Example() *Config {
	cfg := &Config{
		Version: "1",
		Site:    SiteConfig{URL: "https://example.com"},
		WordPress: WordPressConfig{
			APIURL:  "https://cms.example.com/wp-json/wp/v2",
			Timeout: DefaultTimeout,
		},
		Sitemap: SitemapConfig{
			OutputDir:   DefaultOutputDir,
			LegacyDir:   DefaultLegacyDir,
			PageSize:    DefaultPageSize,
			Concurrency: DefaultConcurrency,
		},
		Server: ServerConfig{Addr: DefaultAddr, CatalogMaxAge: DefaultCatalogMaxAge},
		Daemon: DaemonConfig{Interval: DefaultInterval, StateDB: DefaultStateDB},
		Logging: LoggingConfig{
			Level:  LogLevelInfo,
			Format: LogFormatText,
		},
	}
	return cfg
}
