package inspect

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobalert/internal/model"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// TermItem is one entry of the term picker.
type TermItem struct {
	Term    model.SearchTerm
	Devices []string
}

func (t TermItem) label() string {
	devices := "default device"
	if len(t.Devices) > 0 {
		devices = strings.Join(t.Devices, ", ")
	}
	return fmt.Sprintf("%s (%s)", t.Term.DisplayName(), devices)
}

type pickerModel struct {
	items  []TermItem
	cursor int
	chosen int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}
		case "enter":
			if len(m.items) > 0 {
				m.chosen = m.cursor
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render("Inspect: select a search term"))
	b.WriteByte('\n')

	if len(m.items) == 0 {
		b.WriteString(pickerItemStyle.Render("(no search terms; add one with `jobalert terms add`)") + "\n")
	}
	for i, item := range m.items {
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> "+item.label()) + "\n")
		} else {
			b.WriteString(pickerItemStyle.Render(item.label()) + "\n")
		}
	}

	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunTermPicker shows an interactive term selector.
// Returns the index of the chosen term, or -1 if the user quit.
func RunTermPicker(items []TermItem) (int, error) {
	m := pickerModel{
		items:  items,
		chosen: -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return -1, err
	}

	final := result.(pickerModel)
	if final.chosen < 0 {
		return -1, nil
	}
	return final.chosen, nil
}
