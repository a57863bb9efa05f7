package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// Environment overrides applied after the file is decoded.
const (
	EnvSiteURL   = "SITEPRESS_SITE_URL"
	EnvAPIURL    = "SITEPRESS_API_URL"
	EnvOutputDir = "SITEPRESS_OUTPUT_DIR"
)

// loadEnvFile loads .env then .env.local if present. Existing process
// environment variables are never overwritten.
func loadEnvFile() {
	for _, envPath := range []string{".env", ".env.local"} {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			slog.Warn("Failed to load env file", "path", envPath, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "path", envPath)
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvSiteURL); v != "" {
		cfg.Site.URL = v
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		cfg.WordPress.APIURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		cfg.Sitemap.OutputDir = v
	}
}
