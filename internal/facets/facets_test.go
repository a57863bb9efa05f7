package facets

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitepress/internal/testcms"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

var (
	news   = testcms.Term(1, "News", "news", "category")
	guides = testcms.Term(2, "Guides", "guides", "category")
	golang = testcms.Term(10, "Go", "go", "post_tag")
	vue    = testcms.Term(20, "Vue", "vue", "technology")
	rust   = testcms.Term(21, "Rust", "rust", "technology")
)

func TestExtractLocalCountsInEncounterOrder(t *testing.T) {
	posts := []wordpress.Post{
		testcms.Post(1, "a", "2024-01-01T00:00:00", "", []wordpress.Term{guides}, []wordpress.Term{golang}),
		testcms.Post(2, "b", "2024-01-02T00:00:00", "", []wordpress.Term{news, guides}, nil),
		testcms.Post(3, "c", "2024-01-03T00:00:00", "", []wordpress.Term{news, news}, nil),
	}
	// Global counts must be ignored.
	posts[0].Embedded.Terms[0][0].Count = 99

	got := Extract(posts, wordpress.RoleCategory)
	require.Equal(t, []Facet{
		{ID: 2, Name: "Guides", Slug: "guides", Count: 2},
		{ID: 1, Name: "News", Slug: "news", Count: 2},
	}, got)

	tags := Extract(posts, wordpress.RoleTag)
	require.Equal(t, []Facet{{ID: 10, Name: "Go", Slug: "go", Count: 1}}, tags)
}

func TestExtractIsIdempotent(t *testing.T) {
	projects := []wordpress.Project{
		testcms.Project(1, "x", "2024-01-01T00:00:00", false, []wordpress.Term{news}, []wordpress.Term{rust, vue}),
		testcms.Project(2, "y", "2024-01-02T00:00:00", true, nil, []wordpress.Term{vue}),
	}
	first := Extract(projects, wordpress.RoleTechnology)
	second := Extract(projects, wordpress.RoleTechnology)
	require.Equal(t, first, second)
	require.Equal(t, "rust", first[0].Slug)
	require.Equal(t, 2, first[1].Count)
	require.Equal(t, "vue", first[1].Slug)
}

func TestExtractEmpty(t *testing.T) {
	require.Empty(t, Extract([]wordpress.Post(nil), wordpress.RoleCategory))
	require.NotNil(t, Extract([]wordpress.Post(nil), wordpress.RoleCategory))
	require.Empty(t, Extract([]wordpress.Project{{}}, wordpress.RoleTag))
}
