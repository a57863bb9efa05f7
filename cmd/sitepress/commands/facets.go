package commands

import (
	"context"
	"fmt"
	"io"

	"git.home.luguber.info/inful/sitepress/internal/facets"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// FacetsCmd implements the 'facets' command.
type FacetsCmd struct {
	Collection string `arg:"" optional:"" help:"Collection to facet (posts or projects)" enum:"posts,projects" default:"projects"`
	JSON       bool   `help:"Print JSON instead of text"`
}

type facetGroup struct {
	Name   string         `json:"name"`
	Facets []facets.Facet `json:"facets"`
}

func (f *FacetsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var groups []facetGroup
	switch f.Collection {
	case "posts":
		posts, err := allPosts(ctx, client)
		if err != nil {
			return err
		}
		groups = []facetGroup{
			{Name: "categories", Facets: facets.Extract(posts, wordpress.RoleCategory)},
			{Name: "tags", Facets: facets.Extract(posts, wordpress.RoleTag)},
		}
	default:
		projects, err := client.AllProjects(ctx, wordpress.MaxPerPage)
		if err != nil {
			return err
		}
		groups = []facetGroup{
			{Name: "categories", Facets: facets.Extract(projects, wordpress.RoleCategory)},
			{Name: "technologies", Facets: facets.Extract(projects, wordpress.RoleTechnology)},
		}
	}

	if f.JSON {
		return writeJSON(g.out(), groups)
	}
	printFacets(g.out(), groups)
	return nil
}

func allPosts(ctx context.Context, client *wordpress.Client) ([]wordpress.Post, error) {
	var posts []wordpress.Post
	for page := 1; ; page++ {
		p, err := client.ListPosts(ctx, wordpress.PostQuery{Page: page, PerPage: wordpress.MaxPerPage})
		if err != nil {
			return nil, err
		}
		posts = append(posts, p.Items...)
		if !p.HasNext() {
			return posts, nil
		}
	}
}

func printFacets(w io.Writer, groups []facetGroup) {
	for _, group := range groups {
		_, _ = fmt.Fprintf(w, "%s:\n", group.Name)
		for _, f := range group.Facets {
			_, _ = fmt.Fprintf(w, "  %-24s %4d  (id %d)\n", f.Name, f.Count, f.ID)
		}
		if len(group.Facets) == 0 {
			_, _ = fmt.Fprintln(w, "  none")
		}
	}
}
