// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// SourceList displays the chunks an answer was grounded on.
type SourceList struct {
	sources  []domain.SourceReference
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewSourceList creates a new source list component.
func NewSourceList(s *styles.Styles) *SourceList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &SourceList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the source list.
func (l *SourceList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (l *SourceList) Update(msg tea.Msg) (*SourceList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			l.MoveUp()
		case "down", "j":
			l.MoveDown()
		}
	}
	return l, nil
}

// View renders the source list.
func (l *SourceList) View() string {
	if len(l.sources) == 0 {
		return l.styles.Muted.Render("No sources")
	}

	lines := make([]string, 0, len(l.sources)*2+2)
	lines = append(lines, l.styles.Subtitle.Render(fmt.Sprintf("Sources (%d)", len(l.sources))), "")

	// Each source takes two lines.
	visible := (l.height - 2) / 2
	if visible < 1 {
		visible = 1
	}
	start := 0
	if l.selected >= visible {
		start = l.selected - visible + 1
	}
	end := start + visible
	if end > len(l.sources) {
		end = len(l.sources)
	}

	for i := start; i < end; i++ {
		lines = append(lines, l.renderSource(i, &l.sources[i]))
	}
	return strings.Join(lines, "\n")
}

func (l *SourceList) renderSource(index int, src *domain.SourceReference) string {
	indicator := "  "
	if index == l.selected {
		indicator = "> "
	}

	title := src.Title
	if title == "" {
		title = src.DocumentID
	}
	header := fmt.Sprintf("%s%d. %s [chunk %d]", indicator, index+1, title, src.ChunkIndex)
	if index == l.selected {
		header = l.styles.Selected.Render(header)
	} else {
		header = l.styles.Normal.Render(header)
	}
	score := l.styles.Muted.Render(fmt.Sprintf(" %.3f", src.Score))

	maxPreview := l.width - 6
	if maxPreview < 20 {
		maxPreview = 20
	}
	preview := l.styles.Muted.Render("    " + Preview(src.Content, maxPreview))

	return header + score + "\n" + preview
}

// Preview flattens whitespace and truncates text to maxRunes.
func Preview(text string, maxRunes int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= maxRunes {
		return flat
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// SetSources replaces the list contents and resets the selection.
func (l *SourceList) SetSources(sources []domain.SourceReference) {
	l.sources = sources
	l.selected = 0
}

// Sources returns the current sources.
func (l *SourceList) Sources() []domain.SourceReference {
	return l.sources
}

// Selected returns the selected index.
func (l *SourceList) Selected() int {
	return l.selected
}

// SelectedSource returns the selected source, or nil when empty.
func (l *SourceList) SelectedSource() *domain.SourceReference {
	if len(l.sources) == 0 {
		return nil
	}
	return &l.sources[l.selected]
}

// MoveUp moves the selection up.
func (l *SourceList) MoveUp() {
	if l.selected > 0 {
		l.selected--
	}
}

// MoveDown moves the selection down.
func (l *SourceList) MoveDown() {
	if l.selected < len(l.sources)-1 {
		l.selected++
	}
}

// SetSize sets the list dimensions.
func (l *SourceList) SetSize(width, height int) {
	l.width = width
	l.height = height
}
