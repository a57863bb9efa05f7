package sitemap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/metrics"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

const (
	DefaultPageSize    = 100
	DefaultConcurrency = 20
	MaxConcurrency     = 20
)

// Dynamic route metadata.
const (
	postChangeFreq     = Monthly
	postPriority       = 0.7
	categoryChangeFreq = Weekly
	categoryPriority   = 0.6
	tagChangeFreq      = Weekly
	tagPriority        = 0.5
)

// Source is the subset of the content client the generator reads from.
type Source interface {
	ListPosts(ctx context.Context, q wordpress.PostQuery) (*wordpress.Page[wordpress.Post], error)
	ListCategories(ctx context.Context, perPage int) ([]wordpress.Term, error)
	ListTags(ctx context.Context, perPage int) ([]wordpress.Term, error)
}

// Generator turns CMS content into sitemap routes.
type Generator struct {
	src         Source
	pageSize    int
	concurrency int
	recorder    metrics.Recorder
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithPageSize sets posts per page request, clamped to [1, 100].
func WithPageSize(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.pageSize = min(n, wordpress.MaxPerPage)
		}
	}
}

// WithConcurrency caps in-flight page requests, clamped to [1, 20].
func WithConcurrency(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.concurrency = min(n, MaxConcurrency)
		}
	}
}

func WithRecorder(r metrics.Recorder) Option {
	return func(g *Generator) {
		if r != nil {
			g.recorder = r
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock replaces time.Now for the static routes' lastmod.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func NewGenerator(src Source, opts ...Option) *Generator {
	g := &Generator{
		src:         src,
		pageSize:    DefaultPageSize,
		concurrency: DefaultConcurrency,
		recorder:    metrics.NoopRecorder{},
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the route set. It never fails: every problem, including a
// panic while building routes, yields a Fallback with the static routes.
func (g *Generator) Generate(ctx context.Context) (out Outcome) {
	static := StaticRoutes(g.now())

	defer func() {
		if r := recover(); r != nil {
			err := errors.InternalError("sitemap generation panicked").
				WithContext("panic", fmt.Sprint(r)).
				Build()
			g.logger.ErrorContext(ctx, "Recovered from panic during sitemap generation", logfields.Error(err))
			out = Fallback(ReasonFetchFailed, static, err)
		}
	}()

	probe, err := g.src.ListPosts(ctx, wordpress.PostQuery{Page: 1, PerPage: 1})
	if err != nil {
		return Fallback(ReasonAPIUnavailable, static, err)
	}
	if probe.Total == 0 {
		return Fallback(ReasonEmpty, static, nil)
	}

	posts, err := g.fetchAllPosts(ctx)
	if err != nil {
		return Fallback(ReasonFetchFailed, static, err)
	}
	if len(posts) == 0 {
		return Fallback(ReasonEmpty, static, nil)
	}

	categories, err := g.src.ListCategories(ctx, wordpress.DefaultTermPerPage)
	if err != nil {
		return Fallback(ReasonFetchFailed, static, err)
	}
	tags, err := g.src.ListTags(ctx, wordpress.DefaultTermPerPage)
	if err != nil {
		return Fallback(ReasonFetchFailed, static, err)
	}

	routes := buildRoutes(static, posts, categories, tags)
	for _, r := range routes {
		if err := r.Validate(); err != nil {
			return Fallback(ReasonInvalidRoute, static, err)
		}
	}
	return Ok(routes)
}

// fetchAllPosts reads page 1, then pages 2..N concurrently. Each page lands
// in its own slot, so the merge keeps CMS order; duplicates that shift
// between pages while paginating are dropped by id.
func (g *Generator) fetchAllPosts(ctx context.Context) ([]wordpress.Post, error) {
	first, err := g.src.ListPosts(ctx, wordpress.PostQuery{Page: 1, PerPage: g.pageSize})
	if err != nil {
		return nil, err
	}

	pages := make([][]wordpress.Post, max(first.TotalPages, 1))
	pages[0] = first.Items

	if len(pages) > 1 {
		limit := min(g.concurrency, len(pages)-1)
		g.recorder.SetPageFetchConcurrency(limit)

		var group errgroup.Group
		group.SetLimit(limit)
		for i := 1; i < len(pages); i++ {
			group.Go(func() error {
				res, err := g.src.ListPosts(ctx, wordpress.PostQuery{Page: i + 1, PerPage: g.pageSize})
				if err != nil {
					return err
				}
				pages[i] = res.Items
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}

	seen := make(map[int]struct{})
	var posts []wordpress.Post
	for _, page := range pages {
		for _, p := range page {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			posts = append(posts, p)
		}
	}
	g.logger.DebugContext(ctx, "Fetched posts", logfields.Resource("posts"), slog.Int("pages", len(pages)), slog.Int("posts", len(posts)))
	return posts, nil
}

// buildRoutes appends post, category and tag routes to the static ones.
// A taxonomy route's lastmod is the newest lastmod among posts carrying the
// term, or the generation time when none of the fetched posts do.
func buildRoutes(static []Route, posts []wordpress.Post, categories, tags []wordpress.Term) []Route {
	generatedAt := static[0].LastMod
	newest := map[wordpress.TaxonomyRole]map[int]time.Time{
		wordpress.RoleCategory: {},
		wordpress.RoleTag:      {},
	}

	routes := append([]Route(nil), static...)
	for _, p := range posts {
		lastMod := p.LastModified()
		if lastMod.IsZero() {
			lastMod = generatedAt
		}
		routes = append(routes, Route{
			Path:       PostPath(p.Slug),
			LastMod:    lastMod,
			ChangeFreq: postChangeFreq,
			Priority:   postPriority,
		})
		for role, byTerm := range newest {
			for _, t := range p.Terms(role) {
				if lastMod.After(byTerm[t.ID]) {
					byTerm[t.ID] = lastMod
				}
			}
		}
	}

	termRoutes := func(terms []wordpress.Term, role wordpress.TaxonomyRole, path func(string) string, freq ChangeFreq, prio float64) {
		for _, t := range terms {
			lastMod, ok := newest[role][t.ID]
			if !ok {
				lastMod = generatedAt
			}
			routes = append(routes, Route{Path: path(t.Slug), LastMod: lastMod, ChangeFreq: freq, Priority: prio})
		}
	}
	termRoutes(categories, wordpress.RoleCategory, CategoryPath, categoryChangeFreq, categoryPriority)
	termRoutes(tags, wordpress.RoleTag, TagPath, tagChangeFreq, tagPriority)
	return routes
}
