package sitemap

import (
	"math"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// ChangeFreq is the sitemap <changefreq> value. Only the three frequencies
// the site uses are allowed.
type ChangeFreq string

const (
	Daily   ChangeFreq = "daily"
	Weekly  ChangeFreq = "weekly"
	Monthly ChangeFreq = "monthly"
)

func (c ChangeFreq) Valid() bool {
	switch c {
	case Daily, Weekly, Monthly:
		return true
	}
	return false
}

// Route is one <url> entry.
type Route struct {
	Path       string
	LastMod    time.Time
	ChangeFreq ChangeFreq
	Priority   float64
}

// Validate checks the path, frequency and priority invariants.
func (r Route) Validate() error {
	if !strings.HasPrefix(r.Path, "/") {
		return errors.ValidationError("route path must start with /").
			WithContext("path", r.Path).
			Build()
	}
	if !r.ChangeFreq.Valid() {
		return errors.ValidationError("unsupported changefreq").
			WithContext("path", r.Path).
			WithContext("changefreq", string(r.ChangeFreq)).
			Build()
	}
	if r.Priority < 0 || r.Priority > 1 || math.Abs(r.Priority*10-math.Round(r.Priority*10)) > 1e-9 {
		return errors.ValidationError("priority must be within [0.0, 1.0] with one decimal").
			WithContext("path", r.Path).
			WithContext("priority", r.Priority).
			Build()
	}
	if r.LastMod.IsZero() {
		return errors.ValidationError("route has no lastmod").
			WithContext("path", r.Path).
			Build()
	}
	return nil
}

type staticRoute struct {
	path       string
	changeFreq ChangeFreq
	priority   float64
}

var staticRoutes = []staticRoute{
	{"/", Weekly, 1.0},
	{"/about", Monthly, 0.8},
	{"/skills", Monthly, 0.8},
	{"/experience", Monthly, 0.8},
	{"/services", Monthly, 0.9},
	{"/projects", Monthly, 0.9},
	{"/contact", Monthly, 0.7},
	{"/blog", Daily, 0.9},
}

// StaticRoutes returns the fixed pages, all last modified at generatedAt.
func StaticRoutes(generatedAt time.Time) []Route {
	routes := make([]Route, len(staticRoutes))
	for i, s := range staticRoutes {
		routes[i] = Route{Path: s.path, LastMod: generatedAt, ChangeFreq: s.changeFreq, Priority: s.priority}
	}
	return routes
}

// StaticPaths lists the paths of the fixed pages in sitemap order.
func StaticPaths() []string {
	paths := make([]string, len(staticRoutes))
	for i, s := range staticRoutes {
		paths[i] = s.path
	}
	return paths
}

// PostPath is the blog route for a post slug.
func PostPath(slug string) string { return "/blog/" + slug }

// CategoryPath is the filtered blog view for a category slug.
func CategoryPath(slug string) string { return "/blog/category/" + slug }

// TagPath is the filtered blog view for a tag slug.
func TagPath(slug string) string { return "/blog/tag/" + slug }
