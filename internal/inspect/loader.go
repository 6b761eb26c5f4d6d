package inspect

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// errCancelled is returned when the user aborts a preview while it loads.
var errCancelled = errors.New("cancelled")

type previewDoneMsg struct {
	preview Preview
	err     error
}

type loaderModel struct {
	label   string
	buildFn func(ctx context.Context) (Preview, error)
	timeout time.Duration
	spinner spinner.Model
	result  Preview
	err     error
	done    bool
}

func newLoaderModel(label string, timeout time.Duration, buildFn func(ctx context.Context) (Preview, error)) loaderModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("33"))
	return loaderModel{
		label:   label,
		buildFn: buildFn,
		timeout: timeout,
		spinner: s,
	}
}

func (m loaderModel) Init() tea.Cmd {
	return tea.Batch(m.doBuild(), m.spinner.Tick)
}

func (m loaderModel) doBuild() tea.Cmd {
	buildFn, timeout := m.buildFn, m.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		pv, err := buildFn(ctx)
		return previewDoneMsg{preview: pv, err: err}
	}
}

func (m loaderModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case previewDoneMsg:
		m.result = msg.preview
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.done = true
			m.err = errCancelled
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m loaderModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("%s Scraping %s...\n", m.spinner.View(), m.label)
}

// RunLoader shows a spinner while the preview is built. It renders inline (no alt screen).
func RunLoader(label string, timeout time.Duration, buildFn func(ctx context.Context) (Preview, error)) (Preview, error) {
	p := tea.NewProgram(newLoaderModel(label, timeout, buildFn))
	result, err := p.Run()
	if err != nil {
		return Preview{}, err
	}
	final := result.(loaderModel)
	return final.result, final.err
}
