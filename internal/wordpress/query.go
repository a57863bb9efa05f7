package wordpress

import (
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

const (
	DefaultPerPage     = 10
	MaxPerPage         = 100
	DefaultTermPerPage = 100
)

// PostQuery selects posts. Zero values mean "unset".
type PostQuery struct {
	Page       int
	PerPage    int
	CategoryID int
	TagID      int
	Search     string
	Slug       string
	Exclude    []int
}

// ProjectQuery selects projects. Zero values mean "unset".
type ProjectQuery struct {
	Page       int
	PerPage    int
	Featured   *bool
	CategoryID int
	Search     string
	Slug       string
	Exclude    []int
	Order      string // asc or desc, default desc
	OrderBy    string // default date
}

var validOrderBy = map[string]struct{}{
	"date": {}, "modified": {}, "title": {}, "slug": {}, "id": {}, "menu_order": {},
}

func (q PostQuery) normalize() (PostQuery, error) {
	page, perPage, err := normalizePaging(q.Page, q.PerPage)
	if err != nil {
		return q, err
	}
	q.Page, q.PerPage = page, perPage
	q.Search = normalizeSearch(q.Search)
	q.Slug = strings.TrimSpace(q.Slug)
	return q, nil
}

func (q PostQuery) values() url.Values {
	v := url.Values{}
	v.Set("_embed", "1")
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	if q.CategoryID > 0 {
		v.Set("categories", strconv.Itoa(q.CategoryID))
	}
	if q.TagID > 0 {
		v.Set("tags", strconv.Itoa(q.TagID))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if ex := joinIDs(q.Exclude); ex != "" {
		v.Set("exclude", ex)
	}
	return v
}

func (q ProjectQuery) normalize() (ProjectQuery, error) {
	page, perPage, err := normalizePaging(q.Page, q.PerPage)
	if err != nil {
		return q, err
	}
	q.Page, q.PerPage = page, perPage
	q.Search = normalizeSearch(q.Search)
	q.Slug = strings.TrimSpace(q.Slug)

	q.Order = strings.ToLower(strings.TrimSpace(q.Order))
	switch q.Order {
	case "":
		q.Order = "desc"
	case "asc", "desc":
	default:
		return q, errors.ValidationError("order must be asc or desc").
			WithContext("order", q.Order).
			Build()
	}

	q.OrderBy = strings.ToLower(strings.TrimSpace(q.OrderBy))
	if q.OrderBy == "" {
		q.OrderBy = "date"
	}
	if _, ok := validOrderBy[q.OrderBy]; !ok {
		return q, errors.ValidationError("unsupported orderby").
			WithContext("orderby", q.OrderBy).
			Build()
	}
	return q, nil
}

func (q ProjectQuery) values() url.Values {
	v := url.Values{}
	v.Set("_embed", "1")
	v.Set("page", strconv.Itoa(q.Page))
	v.Set("per_page", strconv.Itoa(q.PerPage))
	v.Set("order", q.Order)
	v.Set("orderby", q.OrderBy)
	if q.Featured != nil {
		v.Set("acf_filter[featured_status]", strconv.FormatBool(*q.Featured))
	}
	if q.CategoryID > 0 {
		v.Set("categories", strconv.Itoa(q.CategoryID))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Slug != "" {
		v.Set("slug", q.Slug)
	}
	if ex := joinIDs(q.Exclude); ex != "" {
		v.Set("exclude", ex)
	}
	return v
}

func normalizePaging(page, perPage int) (int, int, error) {
	if page == 0 {
		page = 1
	}
	if perPage == 0 {
		perPage = DefaultPerPage
	}
	if page < 1 {
		return 0, 0, errors.ValidationError("page must be at least 1").
			WithContext("page", page).
			Build()
	}
	if perPage < 1 || perPage > MaxPerPage {
		return 0, 0, errors.ValidationError("per_page must be between 1 and 100").
			WithContext("per_page", perPage).
			Build()
	}
	return page, perPage, nil
}

func normalizeTermPerPage(perPage int) (int, error) {
	if perPage == 0 {
		return DefaultTermPerPage, nil
	}
	if perPage < 1 || perPage > MaxPerPage {
		return 0, errors.ValidationError("per_page must be between 1 and 100").
			WithContext("per_page", perPage).
			Build()
	}
	return perPage, nil
}

// normalizeSearch trims and NFC-normalizes so composed and decomposed
// input match the same stored text.
func normalizeSearch(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func joinIDs(ids []int) string {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if id > 0 {
			parts = append(parts, strconv.Itoa(id))
		}
	}
	return strings.Join(parts, ",")
}

// Bool returns a pointer to b, for ProjectQuery.Featured.
func Bool(b bool) *bool { return &b }
