package wordpress

import (
	"net/http"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/sitepress/internal/errors"
)

const (
	headerTotal      = "X-WP-Total"
	headerTotalPages = "X-WP-TotalPages"
)

// Page is one page of a paginated list. Totals come from response headers.
type Page[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
}

// HasNext reports whether a page follows this one.
func (p *Page[T]) HasNext() bool {
	return p.Page < p.TotalPages
}

// TotalPagesFor returns ceil(total/perPage).
func TotalPagesFor(total, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 0
	}
	return (total + perPage - 1) / perPage
}

// paginationFromHeaders parses and cross-checks the pagination headers.
// WordPress answers an empty collection with a total page count of 0; some
// caching proxies rewrite that to 1, so both are accepted and normalized.
func paginationFromHeaders(h http.Header, perPage, items int) (total, totalPages int, err error) {
	total, err = headerInt(h, headerTotal)
	if err != nil {
		return 0, 0, err
	}
	totalPages, err = headerInt(h, headerTotalPages)
	if err != nil {
		return 0, 0, err
	}

	want := TotalPagesFor(total, perPage)
	switch {
	case total == 0 && totalPages <= 1:
		totalPages = 0
	case totalPages != want:
		return 0, 0, errors.MalformedError("pagination headers are inconsistent").
			WithContext("total", total).
			WithContext("total_pages", totalPages).
			WithContext("per_page", perPage).
			Build()
	}

	if items > perPage {
		return 0, 0, errors.MalformedError("response holds more items than requested").
			WithContext("items", items).
			WithContext("per_page", perPage).
			Build()
	}
	return total, totalPages, nil
}

func headerInt(h http.Header, name string) (int, error) {
	raw := strings.TrimSpace(h.Get(name))
	if raw == "" {
		return 0, errors.MalformedError("missing pagination header").
			WithContext("header", name).
			Build()
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.MalformedError("non-numeric pagination header").
			WithCause(err).
			WithContext("header", name).
			WithContext("value", raw).
			Build()
	}
	return n, nil
}
