package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// ProjectsCmd implements the 'projects' command.
type ProjectsCmd struct {
	Page       int    `short:"p" help:"Page number" default:"1"`
	PerPage    int    `name:"per-page" help:"Projects per page" default:"9"`
	Category   int    `help:"Filter by category id"`
	Technology int    `help:"Filter by technology id"`
	Search     string `short:"s" help:"Search title, excerpt and body"`
	Featured   string `help:"Featured filter (any, true, false)" enum:"any,true,false" default:"any"`
	JSON       bool   `help:"Print JSON instead of text"`
}

func (p *ProjectsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	q := browse.CatalogQuery{
		CategoryID:   p.Category,
		TechnologyID: p.Technology,
		Search:       p.Search,
		Page:         p.Page,
		PerPage:      p.PerPage,
	}
	if p.Featured != "any" {
		featured, err := strconv.ParseBool(p.Featured)
		if err != nil {
			return errors.ValidationError("featured must be any, true or false").WithCause(err).Build()
		}
		q.Featured = &featured
	}

	catalog := browse.NewProjectCatalog(client, browse.WithCatalogLogger(g.Logger))
	page, err := catalog.Query(context.Background(), q)
	if err != nil {
		return err
	}
	if p.JSON {
		return writeJSON(g.out(), page)
	}
	printProjects(g.out(), page)
	return nil
}

func printProjects(w io.Writer, page *browse.CatalogPage) {
	_, _ = fmt.Fprintf(w, "Page %d of %d (%d projects)\n", page.Page, page.TotalPages, page.Total)
	for _, project := range page.Items {
		marker := " "
		if project.Featured() {
			marker = "*"
		}
		_, _ = fmt.Fprintf(w, "%s %6d  %s  %-32s  %s\n",
			marker, project.ID, sitemap.FormatDate(project.Date.Time), project.Slug,
			termNames(project.Terms(wordpress.RoleTechnology)))
	}
	if len(page.Items) == 0 {
		_, _ = fmt.Fprintln(w, "No projects found")
	}
}
