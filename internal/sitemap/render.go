package sitemap

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

// Namespace is the sitemap protocol 0.9 namespace.
const Namespace = "http://www.sitemaps.org/schemas/sitemap/0.9"

const dateLayout = "2006-01-02"

type urlSet struct {
	XMLName xml.Name   `xml:"urlset"`
	XMLNS   string     `xml:"xmlns,attr"`
	URLs    []urlEntry `xml:"url"`
}

type urlEntry struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// FormatDate renders a lastmod value as YYYY-MM-DD in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

// FormatPriority renders a priority with exactly one decimal.
func FormatPriority(p float64) string {
	return strconv.FormatFloat(p, 'f', 1, 64)
}

// RenderXML serializes routes as a sitemap document rooted at siteURL.
// Every route is validated first.
func RenderXML(siteURL string, routes []Route) ([]byte, error) {
	base := strings.TrimSuffix(siteURL, "/")
	set := urlSet{XMLNS: Namespace, URLs: make([]urlEntry, 0, len(routes))}
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		set.URLs = append(set.URLs, urlEntry{
			Loc:        base + r.Path,
			LastMod:    FormatDate(r.LastMod),
			ChangeFreq: string(r.ChangeFreq),
			Priority:   FormatPriority(r.Priority),
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(set); err != nil {
		return nil, errors.InternalError("failed to encode sitemap").WithCause(err).Build()
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// RenderRobots returns a robots.txt allowing everything and pointing at the
// sitemap.
func RenderRobots(siteURL string) []byte {
	return []byte("User-agent: *\nAllow: /\n\nSitemap: " + strings.TrimSuffix(siteURL, "/") + "/sitemap.xml\n")
}
