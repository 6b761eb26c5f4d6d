package inspect

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobalert/internal/dedup"
	"github.com/amishk599/jobalert/internal/model"
)

// Lines per posting in the list view (title + subtitle + blank separator).
const postingItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
	viewMessage
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("39"))

	inactiveHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	postingTitleStyle = lipgloss.NewStyle().
				Bold(true)

	postingSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	newBadgeStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(12)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)
)

type inspectModel struct {
	preview       Preview
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=matched, 1=new
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detail         model.Posting
	detailViewport viewport.Model

	wantQuit bool
}

func newInspectModel(pv Preview) inspectModel {
	return inspectModel{preview: pv}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view != viewList {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderOverlay())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view != viewList {
			return m.updateOverlay(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m inspectModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "b":
		m.wantQuit = false
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		postings := m.activePostings()
		if len(postings) == 0 {
			return m, nil
		}
		m.detail = postings[m.activeCursor()]
		return m.openOverlay(viewDetail), nil
	case "m":
		return m.openOverlay(viewMessage), nil
	}

	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m inspectModel) updateOverlay(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.wantQuit = true
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		return m, nil
	case "o":
		if m.view == viewDetail && m.detail.URL != "" {
			openURL(m.detail.URL)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m inspectModel) openOverlay(v viewState) inspectModel {
	m.view = v
	m.detailViewport = viewport.New(max(m.width-4, 20), max(m.height-4, 5))
	m.detailViewport.SetContent(m.renderOverlay())
	return m
}

func (m *inspectModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.preview.Matched)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.preview.New)-1, 0))
	}
}

func (m *inspectModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.activePane == 1 {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	top := cursor * postingItemHeight
	bottom := top + postingItemHeight - 1

	if top < vp.YOffset {
		vp.SetYOffset(top)
	} else if bottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(bottom - vp.Height + 1)
	}
}

func (m *inspectModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)

	// Header (1 line) + border top/bottom (2) + status bar (1).
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}

	m.recalcContent()
}

func (m *inspectModel) recalcContent() {
	m.leftViewport.SetContent(renderPostings(m.preview.Matched, m.leftCursor, m.activePane == 0, m.preview.IsNew))
	m.rightViewport.SetContent(renderPostings(m.preview.New, m.rightCursor, m.activePane == 1, nil))
}

func (m inspectModel) activePostings() []model.Posting {
	if m.activePane == 0 {
		return m.preview.Matched
	}
	return m.preview.New
}

func (m inspectModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m inspectModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view != viewList {
		return m.viewOverlay()
	}
	return m.viewList()
}

func (m inspectModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Postings (%d)", len(m.preview.Matched))
	rightHeader := fmt.Sprintf(" New Postings (%d)", len(m.preview.New))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == 1 {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)

	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	statusBar := statusBarStyle.Width(m.width).Render(m.statusText())
	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m inspectModel) statusText() string {
	pv := m.preview
	seen := fmt.Sprintf("%d seen", pv.Seen)
	if pv.FirstRun {
		seen = "first run"
	}
	return fmt.Sprintf(" %s | %d fetched | %d matched | %d new | %s    ←/→/Tab switch  ↑/↓ cursor  Enter detail  m message  Esc back  q quit",
		pv.Term.DisplayName(), pv.Fetched, len(pv.Matched), len(pv.New), seen)
}

func (m inspectModel) viewOverlay() string {
	title := "Posting Details"
	status := " o open URL  esc/backspace back  ↑/↓ scroll  q quit"
	if m.view == viewMessage {
		title = "Notification Preview"
		status = " esc/backspace back  ↑/↓ scroll  q quit"
	}

	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())
	statusBar := statusBarStyle.Width(m.width).Render(status)
	return detailTitleStyle.Render(title) + "\n" + content + "\n" + statusBar
}

func (m inspectModel) renderOverlay() string {
	if m.view == viewMessage {
		return renderMessage(m.preview, max(m.width-8, 20))
	}
	return renderDetail(m.detail, m.preview.IsNew(m.detail))
}

func renderDetail(p model.Posting, isNew bool) string {
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", p.Title)
	addField("Company", p.Company)
	addField("Location", p.Location)
	addField("Source", p.Source)
	addField("Identity", dedup.Identity(p))

	b.WriteByte('\n')
	addField("URL", p.URL)

	b.WriteByte('\n')
	if isNew {
		b.WriteString(newBadgeStyle.Render("  new: included in the next alert") + "\n")
	} else {
		b.WriteString(hintStyle.Render("  already seen: will not be alerted") + "\n")
	}
	return b.String()
}

func renderMessage(pv Preview, width int) string {
	if pv.Body == "" {
		return hintStyle.Render("  nothing new: no alert would be sent")
	}

	var b strings.Builder
	b.WriteString(postingTitleStyle.Render(pv.Title))
	b.WriteString("\n\n")
	for _, block := range strings.Split(pv.Body, "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			b.WriteString(wordWrap(line, width))
			b.WriteByte('\n')
		}
		b.WriteByte('\n')
	}
	if pv.FirstRun {
		b.WriteString(hintStyle.Render("  first run for this term; a quiet first run would only record these"))
		b.WriteByte('\n')
	}
	return b.String()
}

// renderPostings draws a list; isNew, when non-nil, marks postings that
// would be alerted.
func renderPostings(postings []model.Posting, cursor int, isActive bool, isNew func(model.Posting) bool) string {
	if len(postings) == 0 {
		return "  (no postings)"
	}

	var b strings.Builder
	for i, p := range postings {
		titleSt, subtitleSt, prefix := postingTitleStyle, postingSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedTitleStyle, selectedSubtitleStyle, "> "
		}

		b.WriteString(prefix)
		b.WriteString(titleSt.Render(p.Title))
		if isNew != nil && isNew(p) {
			b.WriteString(" " + newBadgeStyle.Render("NEW"))
		}
		b.WriteByte('\n')

		subtitle := p.Company
		if p.Location != "" {
			subtitle += " · " + p.Location
		}
		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(subtitle))
		b.WriteByte('\n')

		if i < len(postings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunInspectTUI launches the split-pane browser over a preview.
// Returns wantQuit=true if the user pressed q/ctrl+c, false if they pressed esc to return to the picker.
func RunInspectTUI(pv Preview) (bool, error) {
	p := tea.NewProgram(newInspectModel(pv), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return false, err
	}
	final := result.(inspectModel)
	return final.wantQuit, nil
}
