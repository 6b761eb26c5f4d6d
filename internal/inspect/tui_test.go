package inspect

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/jobalert/internal/model"
)

func samplePreview() Preview {
	return Preview{
		Term:    "product_manager",
		Fetched: 3,
		Matched: []model.Posting{acmePM, acmeSenior, globexPM},
		New:     []model.Posting{globexPM},
		Seen:    2,
		Title:   "New Job Alert (Product Manager)",
		Body:    "Globex\nProduct Manager\nhttps://globex.example/1",
	}
}

func sizedModel(t *testing.T, pv Preview) inspectModel {
	t.Helper()
	next, _ := newInspectModel(pv).Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, ok := next.(inspectModel)
	require.True(t, ok)
	require.True(t, m.ready)
	return m
}

func press(t *testing.T, m inspectModel, key string) inspectModel {
	t.Helper()
	var msg tea.KeyMsg
	switch key {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		msg = tea.KeyMsg{Type: tea.KeyTab}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	next, _ := m.Update(msg)
	return next.(inspectModel)
}

func TestRenderPostings_Empty(t *testing.T) {
	assert.Equal(t, "  (no postings)", renderPostings(nil, 0, true, nil))
}

func TestRenderPostings_MarksNewAndCursor(t *testing.T) {
	pv := samplePreview()
	out := renderPostings(pv.Matched, 1, true, pv.IsNew)

	lines := strings.Split(out, "\n")
	require.Len(t, lines, 3*postingItemHeight-1)
	assert.True(t, strings.HasPrefix(lines[3], "> "), "cursor row should be marked: %q", lines[3])
	assert.True(t, strings.HasPrefix(lines[0], "  "))
	assert.Contains(t, lines[6], "NEW")
	assert.NotContains(t, lines[0], "NEW")
	assert.Contains(t, lines[7], "Globex")
}

func TestRenderDetail(t *testing.T) {
	p := model.Posting{Company: "Acme", Title: "Product Manager", URL: "https://acme.example/1", Location: "London", Source: "linkedin"}

	out := renderDetail(p, true)
	assert.Contains(t, out, "acme--product manager")
	assert.Contains(t, out, "https://acme.example/1")
	assert.Contains(t, out, "included in the next alert")

	assert.Contains(t, renderDetail(p, false), "already seen")
}

func TestRenderMessage(t *testing.T) {
	out := renderMessage(samplePreview(), 80)
	assert.Contains(t, out, "New Job Alert (Product Manager)")
	assert.Contains(t, out, "Globex\nProduct Manager\nhttps://globex.example/1")

	assert.Contains(t, renderMessage(Preview{}, 80), "no alert would be sent")
}

func TestInspectModel_Navigation(t *testing.T) {
	m := sizedModel(t, samplePreview())

	m = press(t, m, "j")
	m = press(t, m, "j")
	m = press(t, m, "j")
	assert.Equal(t, 2, m.leftCursor, "cursor is clamped to the last posting")

	m = press(t, m, "tab")
	assert.Equal(t, 1, m.activePane)
	m = press(t, m, "j")
	assert.Equal(t, 0, m.rightCursor, "single new posting keeps the cursor at 0")

	m = press(t, m, "enter")
	assert.Equal(t, viewDetail, m.view)
	assert.Equal(t, globexPM, m.detail)

	m = press(t, m, "esc")
	assert.Equal(t, viewList, m.view)

	m = press(t, m, "m")
	assert.Equal(t, viewMessage, m.view)
	assert.Contains(t, m.View(), "Notification Preview")
}

func TestInspectModel_QuitAndBack(t *testing.T) {
	m := sizedModel(t, samplePreview())

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.True(t, next.(inspectModel).wantQuit)
	assert.NotNil(t, cmd)

	next, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, next.(inspectModel).wantQuit)
	assert.NotNil(t, cmd)
}

func TestInspectModel_EnterOnEmptyPane(t *testing.T) {
	pv := samplePreview()
	pv.New = nil
	m := sizedModel(t, pv)

	m = press(t, m, "tab")
	m = press(t, m, "enter")
	assert.Equal(t, viewList, m.view)
}

func TestStatusText(t *testing.T) {
	m := sizedModel(t, samplePreview())
	assert.Contains(t, m.statusText(), "Product Manager | 3 fetched | 3 matched | 1 new | 2 seen")

	pv := samplePreview()
	pv.FirstRun = true
	assert.Contains(t, newInspectModel(pv).statusText(), "first run")
}

func TestWordWrap(t *testing.T) {
	assert.Equal(t, "", wordWrap("   ", 10))
	assert.Equal(t, "one two\nthree", wordWrap("one two three", 8))
	assert.Equal(t, "https://example.com/a/very/long/url", wordWrap("https://example.com/a/very/long/url", 10))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0, clamp(-1, 0, 5))
	assert.Equal(t, 5, clamp(9, 0, 5))
	assert.Equal(t, 3, clamp(3, 0, 5))
}
