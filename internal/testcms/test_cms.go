// Package testcms provides an in-process fake of the WordPress REST API for tests.
package testcms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"git.home.luguber.info/inful/sitepress/internal/wordpress"
)

// APIPath is where the fake mounts wp/v2.
const APIPath = "/wp-json/wp/v2"

// TestCMS serves posts, projects, categories and tags from memory.
type TestCMS struct {
	server *httptest.Server

	mu         sync.Mutex
	posts      []wordpress.Post
	projects   []wordpress.Project
	categories []wordpress.Term
	tags       []wordpress.Term
	failures   map[string]int
	delay      time.Duration
	requests   []string
}

// New starts a fake CMS that is closed when the test ends.
func New(t testing.TB) *TestCMS {
	t.Helper()
	c := &TestCMS{failures: make(map[string]int)}
	c.server = httptest.NewServer(http.HandlerFunc(c.handle))
	t.Cleanup(c.server.Close)
	return c
}

// APIURL is the base URL to hand to wordpress.NewClient.
func (c *TestCMS) APIURL() string { return c.server.URL + APIPath }

// Close stops the server early, simulating an outage.
func (c *TestCMS) Close() { c.server.Close() }

func (c *TestCMS) AddPosts(posts ...wordpress.Post) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.posts = append(c.posts, posts...)
}

func (c *TestCMS) AddProjects(projects ...wordpress.Project) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.projects = append(c.projects, projects...)
}

func (c *TestCMS) SetCategories(terms ...wordpress.Term) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.categories = terms
}

func (c *TestCMS) SetTags(terms ...wordpress.Term) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tags = terms
}

// Fail makes every request for resource ("posts", "project", ...) answer
// with status. Use "*" for all resources and 0 to clear.
func (c *TestCMS) Fail(resource string, status int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if status == 0 {
		delete(c.failures, resource)
		return
	}
	c.failures[resource] = status
}

// Delay holds every response for d.
func (c *TestCMS) Delay(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.delay = d
}

// Requests returns the request URIs seen so far, in arrival order.
func (c *TestCMS) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.requests)
}

// RequestCount counts requests whose path targets resource.
func (c *TestCMS) RequestCount(resource string) int {
	n := 0
	for _, r := range c.Requests() {
		if res, _ := splitPath(strings.SplitN(r, "?", 2)[0]); res == resource {
			n++
		}
	}
	return n
}

func (c *TestCMS) handle(w http.ResponseWriter, r *http.Request) {
	c.mu.Lock()
	c.requests = append(c.requests, r.URL.RequestURI())
	delay := c.delay
	resource, id := splitPath(r.URL.Path)
	status, failing := c.failures[resource]
	if !failing {
		status, failing = c.failures["*"]
	}
	c.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-r.Context().Done():
			return
		}
	}
	if failing {
		writeError(w, status, "rest_unavailable", "unavailable")
		return
	}

	switch resource {
	case "posts":
		c.servePosts(w, r, id)
	case "project":
		c.serveProjects(w, r, id)
	case "categories":
		c.serveTerms(w, r, c.snapshotTerms(true))
	case "tags":
		c.serveTerms(w, r, c.snapshotTerms(false))
	default:
		writeError(w, http.StatusNotFound, "rest_no_route", "No route was found matching the URL and request method.")
	}
}

func (c *TestCMS) snapshotTerms(categories bool) []wordpress.Term {
	c.mu.Lock()
	defer c.mu.Unlock()
	if categories {
		return slices.Clone(c.categories)
	}
	return slices.Clone(c.tags)
}

func (c *TestCMS) servePosts(w http.ResponseWriter, r *http.Request, id int) {
	c.mu.Lock()
	posts := slices.Clone(c.posts)
	c.mu.Unlock()

	if id > 0 {
		for _, p := range posts {
			if p.ID == id {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeError(w, http.StatusNotFound, "rest_post_invalid_id", "Invalid post ID.")
		return
	}

	q := r.URL.Query()
	filtered := posts[:0:0]
	for _, p := range posts {
		if !matchID(q.Get("categories"), p.Categories, wordpress.TermsOf(p, wordpress.RoleCategory)) ||
			!matchID(q.Get("tags"), p.Tags, wordpress.TermsOf(p, wordpress.RoleTag)) ||
			!matchSlug(q.Get("slug"), p.Slug) ||
			!matchSearch(q.Get("search"), p.Title.Rendered, p.Content.Rendered) ||
			excluded(q.Get("exclude"), p.ID) {
			continue
		}
		filtered = append(filtered, p)
	}
	sortByDate(filtered, func(p wordpress.Post) time.Time { return p.Date.Time }, q.Get("order") != "asc")
	writePage(w, q, filtered)
}

func (c *TestCMS) serveProjects(w http.ResponseWriter, r *http.Request, id int) {
	c.mu.Lock()
	projects := slices.Clone(c.projects)
	c.mu.Unlock()

	if id > 0 {
		for _, p := range projects {
			if p.ID == id {
				writeJSON(w, http.StatusOK, p)
				return
			}
		}
		writeError(w, http.StatusNotFound, "rest_post_invalid_id", "Invalid post ID.")
		return
	}

	q := r.URL.Query()
	featured := q.Get("acf_filter[featured_status]")
	filtered := projects[:0:0]
	for _, p := range projects {
		if featured != "" && strconv.FormatBool(p.Featured()) != featured {
			continue
		}
		if !matchID(q.Get("categories"), nil, wordpress.TermsOf(p, wordpress.RoleCategory)) ||
			!matchSlug(q.Get("slug"), p.Slug) ||
			!matchSearch(q.Get("search"), p.Title.Rendered, p.Content.Rendered) ||
			excluded(q.Get("exclude"), p.ID) {
			continue
		}
		filtered = append(filtered, p)
	}
	sortByDate(filtered, func(p wordpress.Project) time.Time { return p.Date.Time }, q.Get("order") != "asc")
	writePage(w, q, filtered)
}

func (c *TestCMS) serveTerms(w http.ResponseWriter, r *http.Request, terms []wordpress.Term) {
	perPage := intParam(r.URL.Query().Get("per_page"), 10)
	if len(terms) > perPage {
		terms = terms[:perPage]
	}
	if terms == nil {
		terms = []wordpress.Term{}
	}
	writeJSON(w, http.StatusOK, terms)
}

func writePage[T any](w http.ResponseWriter, q map[string][]string, items []T) {
	get := func(k string) string {
		if v := q[k]; len(v) > 0 {
			return v[0]
		}
		return ""
	}
	page := intParam(get("page"), 1)
	perPage := intParam(get("per_page"), 10)
	total := len(items)
	totalPages := wordpress.TotalPagesFor(total, perPage)

	if page > 1 && page > totalPages {
		writeError(w, http.StatusBadRequest, "rest_post_invalid_page_number",
			"The page number requested is larger than the number of pages available.")
		return
	}
	start := min((page-1)*perPage, total)
	end := min(start+perPage, total)

	w.Header().Set("X-WP-Total", strconv.Itoa(total))
	w.Header().Set("X-WP-TotalPages", strconv.Itoa(totalPages))
	writeJSON(w, http.StatusOK, items[start:end])
}

func splitPath(p string) (resource string, id int) {
	rest := strings.Trim(strings.TrimPrefix(p, APIPath), "/")
	resource, idPart, _ := strings.Cut(rest, "/")
	if idPart != "" {
		id, _ = strconv.Atoi(idPart)
	}
	return resource, id
}

func matchID(want string, ids []int, terms []wordpress.Term) bool {
	if want == "" {
		return true
	}
	id, err := strconv.Atoi(want)
	if err != nil {
		return false
	}
	if slices.Contains(ids, id) {
		return true
	}
	return slices.ContainsFunc(terms, func(t wordpress.Term) bool { return t.ID == id })
}

func matchSlug(want, slug string) bool {
	return want == "" || want == slug
}

func matchSearch(want string, fields ...string) bool {
	if want == "" {
		return true
	}
	want = strings.ToLower(want)
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), want) {
			return true
		}
	}
	return false
}

func excluded(list string, id int) bool {
	for _, part := range strings.Split(list, ",") {
		if n, err := strconv.Atoi(part); err == nil && n == id {
			return true
		}
	}
	return false
}

func sortByDate[T any](items []T, date func(T) time.Time, desc bool) {
	slices.SortStableFunc(items, func(a, b T) int {
		if desc {
			return date(b).Compare(date(a))
		}
		return date(a).Compare(date(b))
	})
}

func intParam(s string, def int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return def
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":    code,
		"message": message,
		"data":    map[string]int{"status": status},
	})
}
