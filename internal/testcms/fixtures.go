package testcms

import (
	"time"

	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// Date parses a WordPress timestamp and panics on bad input.
func Date(s string) wordpress.Timestamp {
	if s == "" {
		return wordpress.Timestamp{}
	}
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		panic(err)
	}
	return wordpress.Timestamp{Time: t}
}

// Post builds a post with the given embedded categories and tags.
func Post(id int, slug, date, modified string, categories, tags []wordpress.Term) wordpress.Post {
	p := wordpress.Post{
		ID:       id,
		Slug:     slug,
		Date:     Date(date),
		Modified: Date(modified),
		Title:    wordpress.Rendered{Rendered: slug},
		Content:  wordpress.Rendered{Rendered: "<p>" + slug + " body</p>"},
		Embedded: wordpress.Embedded{Terms: [][]wordpress.Term{categories, tags}},
	}
	for _, t := range categories {
		p.Categories = append(p.Categories, t.ID)
	}
	for _, t := range tags {
		p.Tags = append(p.Tags, t.ID)
	}
	return p
}

// Project builds a project with the given embedded categories and technologies.
func Project(id int, slug, date string, featured bool, categories, technologies []wordpress.Term) wordpress.Project {
	return wordpress.Project{
		ID:       id,
		Slug:     slug,
		Date:     Date(date),
		Title:    wordpress.Rendered{Rendered: slug},
		Content:  wordpress.Rendered{Rendered: "<p>" + slug + " body</p>"},
		ACF:      wordpress.Fields{FeaturedStatus: wordpress.FlexBool(featured)},
		Embedded: wordpress.Embedded{Terms: [][]wordpress.Term{categories, technologies}},
	}
}

// Term builds a term.
func Term(id int, name, slug, taxonomy string) wordpress.Term {
	return wordpress.Term{ID: id, Name: name, Slug: slug, Taxonomy: taxonomy}
}
