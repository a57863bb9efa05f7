package wordpress

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/errors"
	"git.home.luguber.info/inful/sitepress/internal/fetch"
	"git.home.luguber.info/inful/sitepress/internal/logfields"
)

const (
	resourcePosts      = "posts"
	resourceCategories = "categories"
	resourceTags       = "tags"
	resourceProjects   = "project"
)

// Client reads content from a WordPress REST API. It is safe for concurrent use.
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
	logger  *slog.Logger
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) ClientOption {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewClient creates a client for the API rooted at baseURL
// (e.g. https://cms.example.com/wp-json/wp/v2). A nil fetcher gets defaults.
func NewClient(baseURL string, f *fetch.Fetcher, opts ...ClientOption) (*Client, error) {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.ValidationError("wordpress api url must be an absolute http(s) URL").
			WithCause(err).
			WithContext("url", baseURL).
			Build()
	}
	if f == nil {
		f = fetch.New()
	}
	c := &Client{baseURL: baseURL, fetcher: f, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the API root the client was built with.
func (c *Client) BaseURL() string { return c.baseURL }

func (c *Client) endpoint(resource string, q url.Values) string {
	u := c.baseURL + "/" + resource
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// ListPosts returns one page of posts with embedded media, terms and author.
func (c *Client) ListPosts(ctx context.Context, q PostQuery) (*Page[Post], error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	return listPage[Post](ctx, c, resourcePosts, q.values(), q.Page, q.PerPage)
}

// GetPost looks a post up by slug or by numeric id. A post that does not
// exist yields (nil, nil).
func (c *Client) GetPost(ctx context.Context, identifier string, bySlug bool) (*Post, error) {
	if bySlug {
		page, err := c.ListPosts(ctx, PostQuery{Slug: identifier, PerPage: 1})
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			return nil, nil
		}
		return &page.Items[0], nil
	}
	return getByID[Post](ctx, c, resourcePosts, identifier)
}

// ListCategories returns up to perPage categories (0 means 100).
func (c *Client) ListCategories(ctx context.Context, perPage int) ([]Term, error) {
	return c.listTerms(ctx, resourceCategories, perPage)
}

// ListTags returns up to perPage tags (0 means 100).
func (c *Client) ListTags(ctx context.Context, perPage int) ([]Term, error) {
	return c.listTerms(ctx, resourceTags, perPage)
}

// ListProjects returns one page of projects.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) (*Page[Project], error) {
	q, err := q.normalize()
	if err != nil {
		return nil, err
	}
	return listPage[Project](ctx, c, resourceProjects, q.values(), q.Page, q.PerPage)
}

// GetProject looks a project up by slug or by numeric id. A project that
// does not exist yields (nil, nil).
func (c *Client) GetProject(ctx context.Context, identifier string, bySlug bool) (*Project, error) {
	if bySlug {
		page, err := c.ListProjects(ctx, ProjectQuery{Slug: identifier, PerPage: 1})
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			return nil, nil
		}
		return &page.Items[0], nil
	}
	return getByID[Project](ctx, c, resourceProjects, identifier)
}

// AllProjects walks every page of the project collection in order.
func (c *Client) AllProjects(ctx context.Context, perPage int) ([]Project, error) {
	if perPage == 0 {
		perPage = MaxPerPage
	}
	var all []Project
	for page := 1; ; page++ {
		res, err := c.ListProjects(ctx, ProjectQuery{Page: page, PerPage: perPage})
		if err != nil {
			return nil, err
		}
		all = append(all, res.Items...)
		if !res.HasNext() {
			return all, nil
		}
	}
}

func (c *Client) listTerms(ctx context.Context, resource string, perPage int) ([]Term, error) {
	perPage, err := normalizeTermPerPage(perPage)
	if err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(perPage))

	resp, err := c.fetcher.Do(ctx, c.endpoint(resource, q), fetch.WithLabel(resource))
	if err != nil {
		return nil, unavailable(resource, err)
	}
	if err := fetch.CheckStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, unavailable(resource, err)
	}
	var terms []Term
	if err := decode(resource, resp, &terms); err != nil {
		return nil, err
	}
	return terms, nil
}

func listPage[T any](ctx context.Context, c *Client, resource string, q url.Values, page, perPage int) (*Page[T], error) {
	u := c.endpoint(resource, q)
	c.logger.DebugContext(ctx, "Fetching page",
		logfields.Resource(resource), logfields.Page(page), logfields.PerPage(perPage))

	resp, err := c.fetcher.Do(ctx, u, fetch.WithLabel(resource))
	if err != nil {
		return nil, unavailable(resource, err)
	}
	if err := fetch.CheckStatus(resp); err != nil {
		_ = resp.Body.Close()
		return nil, unavailable(resource, err)
	}

	header := resp.Header
	var items []T
	if err := decode(resource, resp, &items); err != nil {
		return nil, err
	}
	total, totalPages, err := paginationFromHeaders(header, perPage, len(items))
	if err != nil {
		c.logger.WarnContext(ctx, "Rejected paginated response", logfields.URL(u), logfields.Error(err))
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Total: total, TotalPages: totalPages, Page: page, PerPage: perPage}, nil
}

func getByID[T any](ctx context.Context, c *Client, resource, identifier string) (*T, error) {
	id, err := strconv.Atoi(strings.TrimSpace(identifier))
	if err != nil || id <= 0 {
		return nil, errors.ValidationError("identifier must be a positive integer id").
			WithContext("resource", resource).
			WithContext("identifier", identifier).
			Build()
	}
	q := url.Values{}
	q.Set("_embed", "1")

	resp, err := c.fetcher.Do(ctx, c.endpoint(resource+"/"+strconv.Itoa(id), q), fetch.WithLabel(resource))
	if err != nil {
		return nil, unavailable(resource, err)
	}
	if err := fetch.CheckStatus(resp); err != nil {
		_ = resp.Body.Close()
		if errors.HasCategory(err, errors.CategoryNotFound) {
			return nil, nil
		}
		return nil, unavailable(resource, err)
	}
	var item T
	if err := decode(resource, resp, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// decode reads a JSON body. A body cut short by the deadline or the
// connection is a transport failure; only unparsable JSON stays Malformed.
func decode(resource string, resp *http.Response, v any) error {
	err := fetch.DecodeJSON(resp, v)
	if errors.HasCategory(err, errors.CategoryTimeout) || errors.HasCategory(err, errors.CategoryNetwork) {
		return unavailable(resource, err)
	}
	return err
}

// unavailable wraps a transport or status failure. The cause keeps its own
// classification (timeout, network, http) for callers that care.
func unavailable(resource string, cause error) error {
	return errors.APIUnavailableError("wordpress api unavailable").
		WithCause(cause).
		WithContext("resource", resource).
		Build()
}
