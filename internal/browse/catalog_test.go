package browse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/testcms"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

var (
	catClient = testcms.Term(1, "Client work", "client-work", "category")
	catOSS    = testcms.Term(2, "Open source", "open-source", "category")
	techGo    = testcms.Term(20, "Go", "go", "technology")
	techVue   = testcms.Term(21, "Vue", "vue", "technology")
)

type fakeProjects struct {
	projects []wordpress.Project
	fetches  int
	err      error
	queries  []wordpress.ProjectQuery
}

func (f *fakeProjects) AllProjects(context.Context, int) ([]wordpress.Project, error) {
	f.fetches++
	if f.err != nil {
		return nil, f.err
	}
	return f.projects, nil
}

func (f *fakeProjects) ListProjects(_ context.Context, q wordpress.ProjectQuery) (*wordpress.Page[wordpress.Project], error) {
	f.queries = append(f.queries, q)
	return &wordpress.Page[wordpress.Project]{Items: f.projects[:1]}, nil
}

func catalogFixture() *fakeProjects {
	one := func(t wordpress.Term) []wordpress.Term { return []wordpress.Term{t} }
	shop := testcms.Project(1, "shop", "2024-05-01T00:00:00", true, one(catClient), []wordpress.Term{techGo, techVue})
	shop.Title = wordpress.Rendered{Rendered: "Straße Shop"}
	return &fakeProjects{projects: []wordpress.Project{
		shop,
		testcms.Project(2, "cli", "2024-04-01T00:00:00", false, one(catOSS), one(techGo)),
		testcms.Project(3, "dashboard", "2024-03-01T00:00:00", false, one(catClient), one(techVue)),
		testcms.Project(4, "api", "2024-02-01T00:00:00", true, one(catClient), one(techGo)),
	}}
}

func slugs(ps []wordpress.Project) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = p.Slug
	}
	return out
}

func TestCatalogIntersectsCategoryAndTechnology(t *testing.T) {
	src := catalogFixture()
	c := NewProjectCatalog(src)

	page, err := c.Query(t.Context(), CatalogQuery{CategoryID: catClient.ID, TechnologyID: techGo.ID})
	require.NoError(t, err)
	require.Equal(t, []string{"shop", "api"}, slugs(page.Items))
	require.Equal(t, 2, page.Total)

	require.Len(t, page.Facets.Categories, 1)
	require.Equal(t, 2, page.Facets.Categories[0].Count)
	require.Equal(t, "go", page.Facets.Technologies[0].Slug)
	require.Equal(t, 2, page.Facets.Technologies[0].Count)
	require.Equal(t, 1, page.Facets.Technologies[1].Count)

	page, err = c.Query(t.Context(), CatalogQuery{Featured: wordpress.Bool(false)})
	require.NoError(t, err)
	require.Equal(t, []string{"cli", "dashboard"}, slugs(page.Items))
	require.Equal(t, 1, src.fetches, "the collection is fetched once")
}

func TestCatalogSearchIsCaseFolded(t *testing.T) {
	c := NewProjectCatalog(catalogFixture())

	page, err := c.Query(t.Context(), CatalogQuery{Search: "STRASSE"})
	require.NoError(t, err)
	require.Equal(t, []string{"shop"}, slugs(page.Items))

	page, err = c.Query(t.Context(), CatalogQuery{Search: "Dashboard BODY"})
	require.NoError(t, err)
	require.Equal(t, []string{"dashboard"}, slugs(page.Items))
}

func TestCatalogPaginatesLocally(t *testing.T) {
	c := NewProjectCatalog(catalogFixture())

	page, err := c.Query(t.Context(), CatalogQuery{PerPage: 3, Page: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"api"}, slugs(page.Items))
	require.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Facets.Categories, 2, "facets cover the whole filtered set")

	page, err = c.Query(t.Context(), CatalogQuery{PerPage: 3, Page: 9})
	require.NoError(t, err)
	require.Equal(t, 2, page.Page)

	page, err = c.Query(t.Context(), CatalogQuery{TechnologyID: 999})
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 1, page.Page)
	require.Zero(t, page.TotalPages)
}

func TestCatalogCacheExpiry(t *testing.T) {
	src := catalogFixture()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewProjectCatalog(src, WithMaxAge(time.Minute), WithClock(func() time.Time { return now }))

	_, err := c.Projects(t.Context())
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	_, err = c.Projects(t.Context())
	require.NoError(t, err)
	require.Equal(t, 1, src.fetches)

	now = now.Add(time.Minute)
	_, err = c.Projects(t.Context())
	require.NoError(t, err)
	require.Equal(t, 2, src.fetches)

	src.err = context.DeadlineExceeded
	_, err = c.Refresh(t.Context())
	require.Error(t, err)
	projects, err := c.Projects(t.Context())
	require.NoError(t, err, "a failed refresh keeps the previous collection")
	require.Len(t, projects, 4)
}

func TestCatalogRelated(t *testing.T) {
	src := catalogFixture()
	c := NewProjectCatalog(src)

	_, err := c.Related(t.Context(), src.projects[2], 0)
	require.NoError(t, err)
	require.Equal(t, []wordpress.ProjectQuery{{PerPage: 3, Exclude: []int{3}}}, src.queries)
}

func TestCatalogWithLiveClientAndState(t *testing.T) {
	cms := testcms.New(t)
	src := catalogFixture()
	cms.AddProjects(src.projects...)
	client, err := wordpress.NewClient(cms.APIURL(), nil)
	require.NoError(t, err)

	s := NewState()
	s.SetTag(techVue.ID)
	s.SetCategory(catClient.ID)

	page, err := NewProjectCatalog(client).Query(t.Context(), QueryFromState(s, 0))
	require.NoError(t, err)
	require.Equal(t, []string{"shop", "dashboard"}, slugs(page.Items))
}
