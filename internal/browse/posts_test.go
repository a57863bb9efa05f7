package browse

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/testcms"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

var (
	catNews   = testcms.Term(1, "News", "news", "category")
	catGuides = testcms.Term(2, "Guides", "guides", "category")
	tagGo     = testcms.Term(10, "Go", "go", "post_tag")
)

func newBlog(t *testing.T) (*testcms.TestCMS, *wordpress.Client) {
	t.Helper()
	cms := testcms.New(t)
	cms.SetCategories(catNews, catGuides)
	for i, day := range []string{"01", "02", "03", "04", "05", "06", "07", "08", "09", "10", "11", "12"} {
		cats := []wordpress.Term{catNews}
		if i%3 == 0 {
			cats = []wordpress.Term{catGuides}
		}
		cms.AddPosts(testcms.Post(i+1, "post-"+day, "2024-02-"+day+"T08:00:00", "", cats, []wordpress.Term{tagGo}))
	}
	c, err := wordpress.NewClient(cms.APIURL(), nil)
	require.NoError(t, err)
	return cms, c
}

func TestPostBrowserLoad(t *testing.T) {
	cms, c := newBlog(t)
	b := NewPostBrowser(c)

	view := b.Load(t.Context())
	require.False(t, view.Failed)
	require.Len(t, view.Posts, DefaultPerPage)
	require.Equal(t, 12, view.Total)
	require.Equal(t, 2, view.TotalPages)
	require.Equal(t, Idle, view.Mode)
	require.Len(t, view.Categories, 2)

	b.SetPage(5)
	require.Equal(t, 2, b.Query().Page, "page clamps to the last known page count")
	view = b.Load(t.Context())
	require.Len(t, view.Posts, 3)

	b.Update(func(s *State) { s.SetCategory(catGuides.ID) })
	q := b.Query()
	require.Equal(t, 1, q.Page)
	require.Equal(t, catGuides.ID, q.CategoryID)
	view = b.Load(t.Context())
	require.Equal(t, Filtered, view.Mode)
	require.Equal(t, 4, view.Total)

	require.Equal(t, 1, cms.RequestCount("categories"), "categories load once")
}

func TestPostBrowserSeededCategories(t *testing.T) {
	cms, c := newBlog(t)
	b := NewPostBrowser(c, WithCategories([]wordpress.Term{catNews}))

	view := b.Load(t.Context())
	require.False(t, view.Failed)
	require.Equal(t, []wordpress.Term{catNews}, view.Categories)
	require.Zero(t, cms.RequestCount("categories"))
}

func TestPostBrowserFailureAndRetry(t *testing.T) {
	cms, c := newBlog(t)
	b := NewPostBrowser(c)
	cms.Fail("posts", http.StatusBadGateway)

	view := b.Load(t.Context())
	require.True(t, view.Failed)
	require.Equal(t, FailedMessage, view.Message)
	require.True(t, errors.HasCategory(view.Err, errors.CategoryAPIUnavailable))
	require.Equal(t, 1, cms.RequestCount("posts"), "no automatic retry")

	cms.Fail("posts", 0)
	view = b.Retry(t.Context())
	require.False(t, view.Failed)
	require.Len(t, view.Posts, DefaultPerPage)
}

type fakePosts struct {
	queries []wordpress.PostQuery
}

func (f *fakePosts) ListPosts(_ context.Context, q wordpress.PostQuery) (*wordpress.Page[wordpress.Post], error) {
	f.queries = append(f.queries, q)
	return &wordpress.Page[wordpress.Post]{Items: []wordpress.Post{}, Page: q.Page, PerPage: q.PerPage}, nil
}

func (f *fakePosts) ListCategories(context.Context, int) ([]wordpress.Term, error) {
	return []wordpress.Term{}, nil
}

func TestPostBrowserQueryCarriesEveryDimension(t *testing.T) {
	src := &fakePosts{}
	b := NewPostBrowser(src, WithPerPage(6), WithState(StateFor(Filter{CategoryID: 1, TagID: 2, Search: "go"}, 3)))
	_ = b.Load(t.Context())

	require.Equal(t, []wordpress.PostQuery{{Page: 3, PerPage: 6, CategoryID: 1, TagID: 2, Search: "go"}}, src.queries)
}

func TestPostBrowserRelated(t *testing.T) {
	src := &fakePosts{}
	b := NewPostBrowser(src)
	post := testcms.Post(5, "x", "2024-01-01T00:00:00", "", []wordpress.Term{catGuides, catNews}, nil)

	_, err := b.Related(t.Context(), post, 0)
	require.NoError(t, err)
	require.Equal(t, wordpress.PostQuery{PerPage: 3, CategoryID: catGuides.ID, Exclude: []int{5}}, src.queries[0])
}
