package cli

import (
	"complete/internal/data/search"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

// highlight renders path with every range in style. Ranges outside the
// path are ignored.
func highlight(path string, ranges []search.Range, style lipgloss.Style) string {
	if len(ranges) == 0 {
		return path
	}
	var b strings.Builder
	pos := 0
	for _, r := range ranges {
		begin, end := r[0], r[1]
		if begin < pos || end < begin || end >= len(path) {
			continue
		}
		b.WriteString(path[pos:begin])
		b.WriteString(style.Render(path[begin : end+1]))
		pos = end + 1
	}
	b.WriteString(path[pos:])
	return b.String()
}

type pickerModel struct {
	index    *search.Index
	limit    int
	input    textinput.Model
	matches  []search.Match
	cursor   int
	selected string
	height   int
}

func newPickerModel(index *search.Index, limit int) pickerModel {
	ti := textinput.New()
	ti.Placeholder = "type part of a filename"
	ti.Prompt = "> "
	ti.Focus()
	return pickerModel{index: index, limit: limit, input: ti}
}

func (m pickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.cursor < len(m.matches) {
				m.selected = m.matches[m.cursor].Path
			}
			return m, tea.Quit
		case tea.KeyUp, tea.KeyCtrlP:
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case tea.KeyDown, tea.KeyCtrlN:
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}
	case tea.WindowSizeMsg:
		_, v := docStyle.GetFrameSize()
		m.height = msg.Height - v - 4
		return m, nil
	}

	prev := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if m.input.Value() != prev {
		m.refresh()
	}
	return m, cmd
}

func (m *pickerModel) refresh() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.matches = nil
	} else {
		m.matches = m.index.Search(query, m.limit)
	}
	m.cursor = 0
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("complete"))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	shown := m.matches
	if m.height > 0 && len(shown) > m.height {
		shown = shown[:m.height]
	}
	for i, match := range shown {
		line := highlight(match.Path, match.Ranges, matchStyle)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(statusStyle.Render(fmt.Sprintf("%d of %d files | enter to select, esc to quit", len(m.matches), m.index.Len())))
	return docStyle.Render(b.String())
}

// runPicker blocks until the user picks a file or quits. An empty string
// means nothing was picked.
func runPicker(index *search.Index, limit int, opts ...tea.ProgramOption) (string, error) {
	p := tea.NewProgram(newPickerModel(index, limit), opts...)
	final, err := p.Run()
	if err != nil {
		return "", err
	}
	m, ok := final.(pickerModel)
	if !ok {
		return "", nil
	}
	return m.selected, nil
}
