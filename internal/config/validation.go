package config

import (
	"net/url"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Validate checks invariants that defaults cannot repair.
func (c *Config) Validate() error {
	if err := validateAbsoluteURL("site.url", c.Site.URL); err != nil {
		return err
	}
	if err := validateAbsoluteURL("wordpress.api_url", c.WordPress.APIURL); err != nil {
		return err
	}
	if c.Sitemap.OutputDir == "" {
		return errors.ConfigError("sitemap.output_dir is required").Build()
	}
	return nil
}

func validateAbsoluteURL(field, raw string) error {
	if raw == "" {
		return errors.ConfigError("required configuration missing").
			WithContext("field", field).
			Build()
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.ConfigError("must be an absolute http(s) URL").
			WithCause(err).
			WithContext("field", field).
			WithContext("value", raw).
			Build()
	}
	return nil
}
