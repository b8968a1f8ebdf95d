package cli

import (
	"complete/internal/data/search"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeText(t *testing.T, m pickerModel, text string) pickerModel {
	t.Helper()
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	state, ok := updated.(pickerModel)
	require.True(t, ok, "expected pickerModel, got %T", updated)
	return state
}

func press(t *testing.T, m pickerModel, key tea.KeyType) (pickerModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(tea.KeyMsg{Type: key})
	return updated.(pickerModel), cmd
}

func TestHighlight(t *testing.T) {
	brackets := lipgloss.NewStyle().Transform(func(s string) string { return "[" + s + "]" })

	assert.Equal(t, "a/[s]co[p]ed_[pt]r.h", highlight("a/scoped_ptr.h", []search.Range{{2, 2}, {5, 5}, {9, 10}}, brackets))
	assert.Equal(t, "plain", highlight("plain", nil, brackets))
	// Out of range and overlapping spans are skipped.
	assert.Equal(t, "[a]bc", highlight("abc", []search.Range{{0, 0}, {0, 1}, {2, 9}}, brackets))
}

func TestPicker_TypingRanksFiles(t *testing.T) {
	idx := search.NewIndex([]string{"base/memory/scoped_ptr.h", "net/socket.cc", "base/strings/string_piece.h"})
	m := newPickerModel(idx, 10)
	assert.Empty(t, m.matches)

	m = typeText(t, m, "sp")
	require.Len(t, m.matches, 2)
	// The p of string_piece starts a word, the p of scoped_ptr does not.
	assert.Equal(t, "base/strings/string_piece.h", m.matches[0].Path)
	assert.Equal(t, "base/memory/scoped_ptr.h", m.matches[1].Path)
	assert.Equal(t, 0, m.cursor)
	assert.Contains(t, m.View(), "of 3 files")
}

func TestPicker_NavigateAndSelect(t *testing.T) {
	idx := search.NewIndex([]string{"a/one.cc", "b/one.h"})
	m := typeText(t, newPickerModel(idx, 10), "one")
	require.Len(t, m.matches, 2)

	m, _ = press(t, m, tea.KeyUp)
	assert.Equal(t, 0, m.cursor)
	m, _ = press(t, m, tea.KeyDown)
	m, _ = press(t, m, tea.KeyDown)
	assert.Equal(t, 1, m.cursor, "cursor stops at the last match")

	m, cmd := press(t, m, tea.KeyEnter)
	require.NotNil(t, cmd)
	assert.Equal(t, m.matches[1].Path, m.selected)
}

func TestPicker_EscapeSelectsNothing(t *testing.T) {
	m := typeText(t, newPickerModel(search.NewIndex([]string{"a.cc"}), 10), "a")
	m, cmd := press(t, m, tea.KeyEsc)
	require.NotNil(t, cmd)
	assert.Empty(t, m.selected)
}
