// Package facets derives filter facets from the terms embedded in a result set.
package facets

import "git.home.luguber.info/inful/sitepress/internal/wordpress"

// Facet is a term in use by the current items. Count is the number of those
// items carrying the term, not the CMS-wide count.
type Facet struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Count int    `json:"count"`
}

// Extract returns the distinct terms for role in first-encounter order.
// A term repeated within a single item counts once for that item.
func Extract[T wordpress.Termed](items []T, role wordpress.TaxonomyRole) []Facet {
	out := []Facet{}
	index := make(map[int]int)
	for _, item := range items {
		seen := make(map[int]struct{})
		for _, term := range wordpress.TermsOf(item, role) {
			if _, dup := seen[term.ID]; dup {
				continue
			}
			seen[term.ID] = struct{}{}
			if i, ok := index[term.ID]; ok {
				out[i].Count++
				continue
			}
			index[term.ID] = len(out)
			out = append(out, Facet{ID: term.ID, Name: term.Name, Slug: term.Slug, Count: 1})
		}
	}
	return out
}
