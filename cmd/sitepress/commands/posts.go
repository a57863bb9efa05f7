package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/browse"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/sitemap"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// PostsCmd implements the 'posts' command.
type PostsCmd struct {
	Page     int    `short:"p" help:"Page number" default:"1"`
	PerPage  int    `name:"per-page" help:"Posts per page" default:"9"`
	Category int    `help:"Filter by category id"`
	Tag      int    `help:"Filter by tag id"`
	Search   string `short:"s" help:"Full-text search"`
	JSON     bool   `help:"Print JSON instead of text"`
}

func (p *PostsCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	state := browse.StateFor(browse.Filter{CategoryID: p.Category, TagID: p.Tag, Search: p.Search}, p.Page)
	b := browse.NewPostBrowser(client,
		browse.WithPerPage(p.PerPage),
		browse.WithState(state),
		browse.WithLogger(g.Logger))

	view := b.Load(context.Background())
	if view.Failed {
		return view.Err
	}
	if p.JSON {
		return writeJSON(g.out(), view)
	}
	printPosts(g.out(), view)
	return nil
}

func printPosts(w io.Writer, view browse.View) {
	_, _ = fmt.Fprintf(w, "Page %d of %d (%d posts, %s)\n", view.Page, view.TotalPages, view.Total, view.Mode)
	for _, post := range view.Posts {
		_, _ = fmt.Fprintf(w, "%6d  %s  %-40s  %s\n",
			post.ID, sitemap.FormatDate(post.Date.Time), post.Slug, post.Title.Text())
	}
	if len(view.Posts) == 0 {
		_, _ = fmt.Fprintln(w, "No posts found")
	}
}

// PostCmd implements the 'post' command.
type PostCmd struct {
	Identifier string `arg:"" help:"Post slug, or numeric id with --id"`
	ID         bool   `help:"Treat the identifier as a numeric id"`
	Related    int    `help:"Number of related posts to show" default:"3"`
	JSON       bool   `help:"Print JSON instead of text"`
}

func (p *PostCmd) Run(g *Global, root *CLI) error {
	cfg, err := root.loadConfig(g)
	if err != nil {
		return err
	}
	client, err := newClient(cfg, metrics.NoopRecorder{}, g.Logger)
	if err != nil {
		return err
	}

	ctx := context.Background()
	post, err := client.GetPost(ctx, p.Identifier, !p.ID)
	if err != nil {
		return err
	}
	if post == nil {
		_, _ = fmt.Fprintf(g.out(), "Post %q not found\n", p.Identifier)
		return nil
	}

	var related []wordpress.Post
	if p.Related > 0 {
		if related, err = browse.NewPostBrowser(client).Related(ctx, *post, p.Related); err != nil {
			return err
		}
	}

	if p.JSON {
		return writeJSON(g.out(), struct {
			*wordpress.Post
			ReadingMinutes int              `json:"reading_minutes"`
			Related        []wordpress.Post `json:"related"`
		}{post, post.ReadingMinutes(), related})
	}

	w := g.out()
	_, _ = fmt.Fprintf(w, "%s\n", post.Title.Text())
	_, _ = fmt.Fprintf(w, "%s · %d min read", sitemap.FormatDate(post.Date.Time), post.ReadingMinutes())
	if author := post.Author(); author != "" {
		_, _ = fmt.Fprintf(w, " · %s", author)
	}
	_, _ = fmt.Fprintln(w)
	if names := termNames(post.Terms(wordpress.RoleCategory)); names != "" {
		_, _ = fmt.Fprintf(w, "Categories: %s\n", names)
	}
	if names := termNames(post.Terms(wordpress.RoleTag)); names != "" {
		_, _ = fmt.Fprintf(w, "Tags: %s\n", names)
	}
	_, _ = fmt.Fprintf(w, "\n%s\n", post.Excerpt.Text())
	for _, r := range related {
		_, _ = fmt.Fprintf(w, "  related: %s\n", r.Slug)
	}
	return nil
}

func termNames(terms []wordpress.Term) string {
	names := make([]string, 0, len(terms))
	for _, t := range terms {
		names = append(names, t.Name)
	}
	return strings.Join(names, ", ")
}
