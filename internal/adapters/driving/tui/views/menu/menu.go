// Package menu is the start screen of the TUI.
package menu

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

// Item is one menu entry. An entry with Quit set exits instead of
// switching view.
type Item struct {
	Label       string
	Description string
	View        messages.ViewType
	Quit        bool
}

func DefaultItems() []Item {
	return []Item{
		{Label: "Ask", Description: "ask questions about your documents", View: messages.ViewAsk},
		{Label: "History", Description: "browse past questions and answers", View: messages.ViewHistory},
		{Label: "Stats", Description: "query and index statistics", View: messages.ViewStats},
		{Label: "Help", Description: "keybindings", View: messages.ViewHelp},
		{Label: "Quit", Quit: true},
	}
}

// View lists the items. The cursor wraps at both ends and the digits
// 1-9 choose an item directly.
type View struct {
	styles   *styles.Styles
	keymap   *keymap.KeyMap
	items    []Item
	selected int
	width    int
	height   int
	ready    bool
}

// NewView creates the menu. Nil arguments select the defaults.
func NewView(s *styles.Styles, km *keymap.KeyMap, items []Item) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	if items == nil {
		items = DefaultItems()
	}
	return &View{styles: s, keymap: km, items: items, width: 80, height: 24}
}

func (v *View) Init() tea.Cmd { return nil }

func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case tea.KeyMsg:
		return v, v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(keyStr string) tea.Cmd {
	n := len(v.items)
	if n == 0 {
		if keymap.Matches(keyStr, v.keymap.Quit) {
			return tea.Quit
		}
		return nil
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.Up):
		v.selected = (v.selected - 1 + n) % n
	case keymap.Matches(keyStr, v.keymap.Down):
		v.selected = (v.selected + 1) % n
	case keymap.Matches(keyStr, v.keymap.Select):
		return v.choose(v.selected)
	case keymap.Matches(keyStr, v.keymap.Quit):
		return tea.Quit
	case len(keyStr) == 1 && keyStr[0] >= '1' && keyStr[0] <= '9':
		if i := int(keyStr[0] - '1'); i < n {
			v.selected = i
			return v.choose(i)
		}
	}
	return nil
}

func (v *View) choose(i int) tea.Cmd {
	item := v.items[i]
	if item.Quit {
		return tea.Quit
	}
	return func() tea.Msg { return messages.ViewChanged{View: item.View} }
}

func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Sercha RAG"))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Muted.Render("Question answering over your documents"))
	b.WriteString("\n\n")

	for i, item := range v.items {
		label := fmt.Sprintf("%d. %s", i+1, item.Label)
		if i == v.selected {
			b.WriteString("> " + v.styles.Subtitle.Render(label))
		} else {
			b.WriteString("  " + v.styles.Normal.Render(label))
		}
		if item.Description != "" {
			b.WriteString(v.styles.Muted.Render("  " + item.Description))
		}
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(v.styles.Help.Render("[j/k] Navigate  [1-9/Enter] Select  [q] Quit"))
	return b.String()
}

func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

func (v *View) Selected() int { return v.selected }

func (v *View) Items() []Item { return v.items }
