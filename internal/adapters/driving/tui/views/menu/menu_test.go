package menu

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestNewView_Defaults(t *testing.T) {
	view := NewView(nil, nil, nil)

	require.NotNil(t, view)
	assert.NotNil(t, view.styles)
	assert.NotNil(t, view.keymap)
	assert.Len(t, view.Items(), 5)
	assert.Equal(t, 0, view.Selected())
	assert.Nil(t, view.Init())
}

func TestView_Update_WindowSize(t *testing.T) {
	view := NewView(nil, nil, nil)

	_, cmd := view.Update(tea.WindowSizeMsg{Width: 100, Height: 50})

	assert.Nil(t, cmd)
	assert.True(t, view.ready)
	assert.Equal(t, 100, view.width)
}

func TestView_Update_NavigationWraps(t *testing.T) {
	view := NewView(nil, nil, nil)

	view.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 4, view.Selected(), "up from the first item wraps to the last")

	view.Update(runes("j"))
	assert.Equal(t, 0, view.Selected(), "down from the last item wraps to the first")

	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	view.Update(runes("j"))
	view.Update(runes("k"))
	assert.Equal(t, 1, view.Selected())
}

func viewChange(t *testing.T, cmd tea.Cmd) messages.ViewType {
	t.Helper()
	require.NotNil(t, cmd)
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	return changed.View
}

func TestView_Update_Select(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.KeyMsg
		want messages.ViewType
	}{
		{name: "enter on first", keys: []tea.KeyMsg{{Type: tea.KeyEnter}}, want: messages.ViewAsk},
		{name: "enter after moving", keys: []tea.KeyMsg{{Type: tea.KeyDown}, {Type: tea.KeyEnter}}, want: messages.ViewHistory},
		{name: "digit shortcut", keys: []tea.KeyMsg{runes("3")}, want: messages.ViewStats},
		{name: "digit four", keys: []tea.KeyMsg{runes("4")}, want: messages.ViewHelp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view := NewView(nil, nil, nil)
			var cmd tea.Cmd
			for _, k := range tt.keys {
				_, cmd = view.Update(k)
			}
			assert.Equal(t, tt.want, viewChange(t, cmd))
		})
	}
}

func TestView_Update_Quit(t *testing.T) {
	for _, k := range []tea.KeyMsg{runes("q"), runes("5"), {Type: tea.KeyCtrlC}} {
		t.Run(k.String(), func(t *testing.T) {
			_, cmd := NewView(nil, nil, nil).Update(k)
			require.NotNil(t, cmd)
			assert.IsType(t, tea.QuitMsg{}, cmd())
		})
	}
}

func TestView_Update_DigitOutOfRange(t *testing.T) {
	view := NewView(nil, nil, []Item{{Label: "Ask", View: messages.ViewAsk}})

	_, cmd := view.Update(runes("7"))

	assert.Nil(t, cmd)
	assert.Equal(t, 0, view.Selected())
}

func TestView_Update_NoItems(t *testing.T) {
	view := NewView(nil, nil, []Item{})

	_, cmd := view.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)

	_, cmd = view.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Nil(t, cmd)
	assert.Equal(t, 0, view.Selected())
}

func TestView_View(t *testing.T) {
	view := NewView(nil, nil, nil)
	assert.Contains(t, view.View(), "Initialising")

	view.SetDimensions(80, 24)
	view.Update(tea.KeyMsg{Type: tea.KeyDown})
	out := view.View()

	assert.Contains(t, out, "Sercha RAG")
	assert.Contains(t, out, "1. Ask")
	assert.Contains(t, out, "> ")
	assert.Contains(t, out, "2. History")
	assert.Contains(t, out, "browse past questions")
	assert.Contains(t, out, "[1-9/Enter] Select")
}
