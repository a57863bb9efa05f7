package browse

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitepress/internal/facets"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// DefaultCatalogMaxAge bounds how long the project collection is reused.
const DefaultCatalogMaxAge = 5 * time.Minute

const defaultRelated = 3

// ProjectSource is the subset of the content client a ProjectCatalog needs.
type ProjectSource interface {
	AllProjects(ctx context.Context, perPage int) ([]wordpress.Project, error)
	ListProjects(ctx context.Context, q wordpress.ProjectQuery) (*wordpress.Page[wordpress.Project], error)
}

// CatalogQuery filters the project collection. TechnologyID plays the role
// of the tag dimension in Filter.
type CatalogQuery struct {
	CategoryID   int
	TechnologyID int
	Search       string
	Featured     *bool
	Page         int
	PerPage      int
}

// QueryFromState maps a filter state onto a catalog query.
func QueryFromState(s *State, perPage int) CatalogQuery {
	f := s.Filter()
	return CatalogQuery{
		CategoryID:   f.CategoryID,
		TechnologyID: f.TagID,
		Search:       f.Search,
		Page:         s.Page(),
		PerPage:      perPage,
	}
}

// Facets are the terms present in a filtered project set.
type Facets struct {
	Categories   []facets.Facet `json:"categories"`
	Technologies []facets.Facet `json:"technologies"`
}

// CatalogPage is one locally paginated slice of the filtered collection.
type CatalogPage struct {
	Items      []wordpress.Project `json:"items"`
	Total      int                 `json:"total"`
	TotalPages int                 `json:"total_pages"`
	Page       int                 `json:"page"`
	PerPage    int                 `json:"per_page"`
	Facets     Facets              `json:"facets"`
}

// ProjectCatalog caches the whole project collection and answers filtered,
// paginated queries from memory.
type ProjectCatalog struct {
	src    ProjectSource
	maxAge time.Duration
	now    func() time.Time
	logger *slog.Logger

	mu        sync.Mutex
	projects  []wordpress.Project
	fetchedAt time.Time
}

// CatalogOption configures a ProjectCatalog.
type CatalogOption func(*ProjectCatalog)

// WithMaxAge sets the cache lifetime; zero or less keeps the default.
func WithMaxAge(d time.Duration) CatalogOption {
	return func(c *ProjectCatalog) {
		if d > 0 {
			c.maxAge = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) CatalogOption {
	return func(c *ProjectCatalog) { c.now = now }
}

func WithCatalogLogger(l *slog.Logger) CatalogOption {
	return func(c *ProjectCatalog) {
		if l != nil {
			c.logger = l
		}
	}
}

func NewProjectCatalog(src ProjectSource, opts ...CatalogOption) *ProjectCatalog {
	c := &ProjectCatalog{
		src:    src,
		maxAge: DefaultCatalogMaxAge,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Projects returns the full collection, fetching it when the cache is empty
// or older than the max age.
func (c *ProjectCatalog) Projects(ctx context.Context) ([]wordpress.Project, error) {
	c.mu.Lock()
	fresh := c.projects != nil && c.now().Sub(c.fetchedAt) < c.maxAge
	projects := c.projects
	c.mu.Unlock()
	if fresh {
		return projects, nil
	}
	return c.Refresh(ctx)
}

// Refresh refetches the collection regardless of age. On failure the previous
// collection stays cached.
func (c *ProjectCatalog) Refresh(ctx context.Context) ([]wordpress.Project, error) {
	start := c.now()
	projects, err := c.src.AllProjects(ctx, wordpress.MaxPerPage)
	if err != nil {
		return nil, err
	}
	if projects == nil {
		projects = []wordpress.Project{}
	}
	c.mu.Lock()
	c.projects = projects
	c.fetchedAt = c.now()
	c.mu.Unlock()

	c.logger.DebugContext(ctx, "Project catalog refreshed",
		logfields.Resource("project"),
		slog.Int("projects", len(projects)),
		logfields.DurationMS(float64(c.now().Sub(start).Milliseconds())))
	return projects, nil
}

// Query filters the cached collection. Category and technology are
// intersected; search matches title, excerpt and body case-insensitively.
// Facets describe the filtered set before pagination.
func (c *ProjectCatalog) Query(ctx context.Context, q CatalogQuery) (*CatalogPage, error) {
	all, err := c.Projects(ctx)
	if err != nil {
		return nil, err
	}

	perPage := q.PerPage
	if perPage <= 0 || perPage > wordpress.MaxPerPage {
		perPage = DefaultPerPage
	}
	needle := foldSearch(q.Search)

	matched := make([]wordpress.Project, 0, len(all))
	for _, p := range all {
		if q.CategoryID > 0 && !wordpress.HasTerm(p, wordpress.RoleCategory, q.CategoryID) {
			continue
		}
		if q.TechnologyID > 0 && !wordpress.HasTerm(p, wordpress.RoleTechnology, q.TechnologyID) {
			continue
		}
		if q.Featured != nil && p.Featured() != *q.Featured {
			continue
		}
		if needle != "" && !matchesSearch(p, needle) {
			continue
		}
		matched = append(matched, p)
	}

	total := len(matched)
	totalPages := wordpress.TotalPagesFor(total, perPage)
	page := min(max(q.Page, 1), max(totalPages, 1))
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	return &CatalogPage{
		Items:      matched[start:end],
		Total:      total,
		TotalPages: totalPages,
		Page:       page,
		PerPage:    perPage,
		Facets: Facets{
			Categories:   facets.Extract(matched, wordpress.RoleCategory),
			Technologies: facets.Extract(matched, wordpress.RoleTechnology),
		},
	}, nil
}

// Related returns up to n other projects, newest first, asking the CMS to
// exclude the given one. n <= 0 means 3.
func (c *ProjectCatalog) Related(ctx context.Context, project wordpress.Project, n int) ([]wordpress.Project, error) {
	if n <= 0 {
		n = defaultRelated
	}
	page, err := c.src.ListProjects(ctx, wordpress.ProjectQuery{
		PerPage: min(n, wordpress.MaxPerPage),
		Exclude: []int{project.ID},
	})
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}

func foldSearch(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return cases.Fold().String(norm.NFC.String(s))
}

func matchesSearch(p wordpress.Project, needle string) bool {
	fold := cases.Fold()
	for _, field := range []string{
		p.Title.Text(),
		p.Excerpt.Text(),
		p.ACF.ProjectExcerpt,
		p.Content.Text(),
	} {
		if field != "" && strings.Contains(fold.String(norm.NFC.String(field)), needle) {
			return true
		}
	}
	return false
}
