package browse

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateTransitions(t *testing.T) {
	s := NewState()
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, 1, s.Page())

	s.SetPage(3, 5)
	s.SetCategory(4)
	require.Equal(t, Filtered, s.Mode())
	require.Equal(t, 1, s.Page(), "category change resets page")

	s.SetPage(2, 5)
	s.SetCategory(4)
	require.Zero(t, s.Filter().CategoryID, "selecting the active category clears it")
	require.Equal(t, 1, s.Page())
	require.Equal(t, Idle, s.Mode())

	s.SetPage(4, 5)
	s.SetTag(9)
	require.Equal(t, 9, s.Filter().TagID)
	require.Equal(t, 1, s.Page(), "tag change resets page")

	s.SetPage(2, 5)
	s.SetSearch("  golang ")
	require.Equal(t, "golang", s.Filter().Search)
	require.Equal(t, 1, s.Page(), "search change resets page")

	s.SetPage(2, 5)
	s.SetSearch("golang")
	require.Equal(t, 2, s.Page(), "resubmitting the same search keeps the page")

	s.ClearSearch()
	require.Empty(t, s.Filter().Search)
	require.Equal(t, 1, s.Page())

	s.SetPage(3, 5)
	s.ClearSearch()
	require.Equal(t, 3, s.Page(), "clearing an empty search is a no-op")

	s.Clear()
	require.Equal(t, Idle, s.Mode())
	require.Equal(t, 1, s.Page())
}

func TestEveryFilterChangeResetsPage(t *testing.T) {
	changes := map[string]func(*State){
		"category":     func(s *State) { s.SetCategory(1) },
		"tag":          func(s *State) { s.SetTag(2) },
		"search":       func(s *State) { s.SetSearch("x") },
		"clear filter": func(s *State) { s.SetCategory(0) },
	}
	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			s := StateFor(Filter{CategoryID: 7, Search: "old"}, 6)
			require.Equal(t, 6, s.Page())
			change(s)
			require.Equal(t, 1, s.Page())
		})
	}
}

func TestSetPageClamps(t *testing.T) {
	s := NewState()
	s.SetPage(10, 3)
	require.Equal(t, 3, s.Page())
	s.SetPage(-2, 3)
	require.Equal(t, 1, s.Page())
	s.SetPage(5, 0)
	require.Equal(t, 1, s.Page())
}

func TestStateForNormalizes(t *testing.T) {
	s := StateFor(Filter{Search: "  café "}, 0)
	require.Equal(t, "café", s.Filter().Search)
	require.Equal(t, 1, s.Page())
	require.Equal(t, "filtered", s.Mode().String())
}
