// Package sitemap builds sitemap.xml and robots.txt from CMS content.
//
// Generation always yields something publishable. When the CMS cannot be
// reached, answers with nothing, or misbehaves, the Outcome is a Fallback
// carrying only the static routes. Run returns an error only when even the
// static sitemap cannot be written to disk.
package sitemap
