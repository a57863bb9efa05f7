package sitemap

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

func TestRouteValidate(t *testing.T) {
	ok := Route{Path: "/blog", LastMod: generatedAt, ChangeFreq: Daily, Priority: 0.9}
	require.NoError(t, ok.Validate())

	bad := map[string]Route{
		"relative path":  {Path: "blog", LastMod: generatedAt, ChangeFreq: Daily, Priority: 0.5},
		"bad changefreq": {Path: "/", LastMod: generatedAt, ChangeFreq: "hourly", Priority: 0.5},
		"priority range": {Path: "/", LastMod: generatedAt, ChangeFreq: Daily, Priority: 1.5},
		"two decimals":   {Path: "/", LastMod: generatedAt, ChangeFreq: Daily, Priority: 0.25},
		"no lastmod":     {Path: "/", ChangeFreq: Daily, Priority: 0.5},
	}
	for name, r := range bad {
		require.True(t, errors.HasCategory(r.Validate(), errors.CategoryValidation), name)
	}
}

func TestStaticRoutesAreValid(t *testing.T) {
	routes := StaticRoutes(generatedAt)
	require.Equal(t, []string{"/", "/about", "/skills", "/experience", "/services", "/projects", "/contact", "/blog"}, StaticPaths())
	for _, r := range routes {
		require.NoError(t, r.Validate(), r.Path)
	}
}

func TestRenderXML(t *testing.T) {
	data, err := RenderXML(siteURL+"/", []Route{
		{Path: "/", LastMod: generatedAt, ChangeFreq: Weekly, Priority: 1},
		{Path: "/blog/a&b", LastMod: time.Date(2024, 1, 2, 23, 0, 0, 0, time.FixedZone("X", -3*3600)), ChangeFreq: Monthly, Priority: 0.7},
	})
	require.NoError(t, err)
	out := string(data)

	require.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	require.Contains(t, out, `<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	require.Contains(t, out, "<loc>https://example.com/</loc>")
	require.Contains(t, out, "<priority>1.0</priority>")
	require.Contains(t, out, "<loc>https://example.com/blog/a&amp;b</loc>")
	require.Contains(t, out, "<lastmod>2024-01-03</lastmod>", "lastmod is rendered in UTC")
	require.Contains(t, out, "<changefreq>monthly</changefreq>")

	_, err = RenderXML(siteURL, []Route{{Path: "nope", LastMod: generatedAt, ChangeFreq: Daily}})
	require.Error(t, err)
}

func TestOutcome(t *testing.T) {
	routes := StaticRoutes(generatedAt)
	ok := Ok(routes)
	require.True(t, ok.IsOk())
	require.Equal(t, "ok", ok.Label())
	require.Equal(t, ReasonNone, ok.Reason())

	fb := Fallback(ReasonEmpty, routes, nil)
	require.True(t, fb.IsFallback())
	require.Equal(t, "fallback", fb.Label())

	var gotReason Reason
	fb.Match(func([]Route) { t.Fatal("unexpected ok") }, func(r Reason, _ []Route) { gotReason = r })
	require.Equal(t, ReasonEmpty, gotReason)
}
