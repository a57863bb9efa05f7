package browse

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Mode is the coarse filter state.
type Mode int

const (
	Idle Mode = iota
	Filtered
)

func (m Mode) String() string {
	if m == Filtered {
		return "filtered"
	}
	return "idle"
}

// MarshalText renders the mode as "idle" or "filtered".
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Filter is the set of active filter dimensions. For projects TagID holds
// the technology term id.
type Filter struct {
	CategoryID int    `json:"category,omitempty"`
	TagID      int    `json:"tag,omitempty"`
	Search     string `json:"search,omitempty"`
}

// IsZero reports whether no dimension is set.
func (f Filter) IsZero() bool {
	return f.CategoryID == 0 && f.TagID == 0 && f.Search == ""
}

// State is the filter state machine. Any change to a filter dimension puts
// the page back to 1, so a stale page number is never sent with new criteria.
// State is not safe for concurrent use.
type State struct {
	filter Filter
	page   int
}

// NewState returns an Idle state on page 1.
func NewState() *State {
	return &State{page: 1}
}

// StateFor builds a state from externally supplied values, e.g. request
// parameters. Page values below 1 become 1.
func StateFor(f Filter, page int) *State {
	f.Search = normalizeSearch(f.Search)
	return &State{filter: f, page: max(page, 1)}
}

func (s *State) Filter() Filter { return s.filter }
func (s *State) Page() int      { return s.page }

func (s *State) Mode() Mode {
	if s.filter.IsZero() {
		return Idle
	}
	return Filtered
}

// SetCategory selects a category, or clears it when id is already active.
// Zero clears.
func (s *State) SetCategory(id int) {
	if id == s.filter.CategoryID {
		id = 0
	}
	s.change(func(f *Filter) { f.CategoryID = id })
}

// SetTag selects a tag (or technology), toggling like SetCategory.
func (s *State) SetTag(id int) {
	if id == s.filter.TagID {
		id = 0
	}
	s.change(func(f *Filter) { f.TagID = id })
}

// SetSearch replaces the search text. Submitting the same text again
// keeps the current page.
func (s *State) SetSearch(q string) {
	q = normalizeSearch(q)
	if q == s.filter.Search {
		return
	}
	s.change(func(f *Filter) { f.Search = q })
}

// ClearSearch removes the search text; it is a no-op when none is set.
func (s *State) ClearSearch() {
	if s.filter.Search == "" {
		return
	}
	s.change(func(f *Filter) { f.Search = "" })
}

// Clear returns to Idle on page 1.
func (s *State) Clear() {
	s.filter = Filter{}
	s.page = 1
}

// SetPage moves to page, clamped to [1, totalPages]. A totalPages below 1
// is treated as a single page.
func (s *State) SetPage(page, totalPages int) {
	s.page = min(max(page, 1), max(totalPages, 1))
}

func (s *State) change(apply func(*Filter)) {
	apply(&s.filter)
	s.page = 1
}

func normalizeSearch(q string) string {
	return norm.NFC.String(strings.TrimSpace(q))
}
