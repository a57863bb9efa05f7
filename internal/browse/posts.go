package browse

import (
	"context"
	"log/slog"
	"sync"

	"git.home.luguber.info/inful/sitepress/internal/logfields"
	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// DefaultPerPage is the listing page size for both posts and projects.
const DefaultPerPage = 9

// FailedMessage is shown in place of a listing that could not be loaded.
const FailedMessage = "failed to load, try again"

// PostSource is the subset of the content client a PostBrowser needs.
type PostSource interface {
	ListPosts(ctx context.Context, q wordpress.PostQuery) (*wordpress.Page[wordpress.Post], error)
	ListCategories(ctx context.Context, perPage int) ([]wordpress.Term, error)
}

// View is what a listing renders. When Failed is set the other fields keep
// the filter and page that were requested, and Err holds the cause.
type View struct {
	Posts      []wordpress.Post `json:"items"`
	Categories []wordpress.Term `json:"categories,omitempty"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
	Page       int              `json:"page"`
	Filter     Filter           `json:"filter"`
	Mode       Mode             `json:"mode"`
	Failed     bool             `json:"failed,omitempty"`
	Message    string           `json:"message,omitempty"`
	Err        error            `json:"-"`
}

// PostBrowser drives the blog listing: the State is translated into a
// server-side filtered query. Categories are loaded once and reused.
type PostBrowser struct {
	src     PostSource
	perPage int
	logger  *slog.Logger

	mu         sync.Mutex
	state      *State
	categories []wordpress.Term
	totalPages int
}

// PostBrowserOption configures a PostBrowser.
type PostBrowserOption func(*PostBrowser)

func WithPerPage(n int) PostBrowserOption {
	return func(b *PostBrowser) {
		if n > 0 && n <= wordpress.MaxPerPage {
			b.perPage = n
		}
	}
}

func WithLogger(l *slog.Logger) PostBrowserOption {
	return func(b *PostBrowser) {
		if l != nil {
			b.logger = l
		}
	}
}

// WithState starts the browser from an existing state.
func WithState(s *State) PostBrowserOption {
	return func(b *PostBrowser) {
		if s != nil {
			b.state = s
		}
	}
}

// WithCategories seeds the category cache so Load does not fetch it. A nil
// slice leaves the cache empty.
func WithCategories(terms []wordpress.Term) PostBrowserOption {
	return func(b *PostBrowser) {
		if terms != nil {
			b.categories = terms
		}
	}
}

func NewPostBrowser(src PostSource, opts ...PostBrowserOption) *PostBrowser {
	b := &PostBrowser{
		src:     src,
		perPage: DefaultPerPage,
		logger:  slog.Default(),
		state:   NewState(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Update applies fn to the state under the browser's lock, e.g.
// b.Update(func(s *State) { s.SetCategory(3) }).
func (b *PostBrowser) Update(fn func(*State)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b.state)
}

// SetPage moves to page, clamped by the page count of the last load.
func (b *PostBrowser) SetPage(page int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.SetPage(page, b.totalPages)
}

// Query returns the post query the current state maps to.
func (b *PostBrowser) Query() wordpress.PostQuery {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.queryLocked()
}

func (b *PostBrowser) queryLocked() wordpress.PostQuery {
	f := b.state.Filter()
	return wordpress.PostQuery{
		Page:       b.state.Page(),
		PerPage:    b.perPage,
		CategoryID: f.CategoryID,
		TagID:      f.TagID,
		Search:     f.Search,
	}
}

// Load fetches the listing for the current state. It never returns an error:
// failures come back as a View with Failed set.
func (b *PostBrowser) Load(ctx context.Context) View {
	b.mu.Lock()
	q := b.queryLocked()
	view := View{Page: q.Page, Filter: b.state.Filter(), Mode: b.state.Mode()}
	needCategories := b.categories == nil
	b.mu.Unlock()

	page, err := b.src.ListPosts(ctx, q)
	if err != nil {
		return b.failed(ctx, view, err)
	}

	categories := b.cachedCategories()
	if needCategories {
		categories, err = b.src.ListCategories(ctx, 0)
		if err != nil {
			return b.failed(ctx, view, err)
		}
	}

	b.mu.Lock()
	if needCategories {
		b.categories = categories
	}
	b.totalPages = page.TotalPages
	b.mu.Unlock()

	view.Posts = page.Items
	view.Total = page.Total
	view.TotalPages = page.TotalPages
	view.Categories = categories
	return view
}

// Retry repeats the last query once. There is no automatic retry.
func (b *PostBrowser) Retry(ctx context.Context) View {
	return b.Load(ctx)
}

func (b *PostBrowser) cachedCategories() []wordpress.Term {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.categories
}

func (b *PostBrowser) failed(ctx context.Context, view View, err error) View {
	b.logger.WarnContext(ctx, "Blog listing failed", logfields.Resource("posts"), logfields.Error(err))
	view.Failed = true
	view.Message = FailedMessage
	view.Err = err
	view.Categories = b.cachedCategories()
	return view
}

// Related returns up to n posts sharing the post's first category, excluding
// the post itself. A post without categories gets the newest posts.
func (b *PostBrowser) Related(ctx context.Context, post wordpress.Post, n int) ([]wordpress.Post, error) {
	if n <= 0 {
		n = defaultRelated
	}
	q := wordpress.PostQuery{PerPage: min(n, wordpress.MaxPerPage), Exclude: []int{post.ID}}
	if cats := post.Terms(wordpress.RoleCategory); len(cats) > 0 {
		q.CategoryID = cats[0].ID
	}
	page, err := b.src.ListPosts(ctx, q)
	if err != nil {
		return nil, err
	}
	return page.Items, nil
}
