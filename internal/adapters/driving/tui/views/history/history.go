// Package history provides the query history browser for the TUI.
package history

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

const pageSize = 10

// View lists history records a page at a time, newest first.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	statusbar *status.Bar

	history driving.HistoryService
	ctx     context.Context

	page     *domain.HistoryPage
	pageNum  int
	selected int
	detail   bool
	loading  bool
	err      error

	width  int
	height int
	ready  bool
}

// NewView creates a new history view.
func NewView(s *styles.Styles, km *keymap.KeyMap, history driving.HistoryService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:    s,
		keymap:    km,
		statusbar: status.NewBar(s, km.HistoryHelp()...),
		history:   history,
		ctx:       context.Background(),
		width:     80,
		height:    24,
	}
}

// WithContext sets the context used for history calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the current page.
func (v *View) Init() tea.Cmd {
	return v.load()
}

// Reset returns to the first page.
func (v *View) Reset() {
	v.pageNum = 0
	v.selected = 0
	v.detail = false
	v.err = nil
	v.statusbar.Clear()
}

func (v *View) load() tea.Cmd {
	if v.history == nil {
		return nil
	}
	v.loading = true
	ctx, history, req := v.ctx, v.history, domain.PageRequest{Page: v.pageNum, Size: pageSize}
	return func() tea.Msg {
		page, err := history.List(ctx, domain.HistoryFilter{}, req)
		return messages.HistoryLoaded{Page: page, Err: err}
	}
}

func (v *View) deleteSelected() tea.Cmd {
	rec := v.SelectedRecord()
	if rec == nil {
		return nil
	}
	ctx, history, id := v.ctx, v.history, rec.ID
	return func() tea.Msg {
		return messages.HistoryDeleted{ID: id, Err: history.Delete(ctx, id)}
	}
}

// Update handles messages for the history view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case messages.HistoryLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.page = msg.Page
		if v.selected >= len(v.page.Records) {
			v.selected = max(len(v.page.Records)-1, 0)
		}
		v.statusbar.SetState(status.StateReady)
		v.statusbar.SetMessage(fmt.Sprintf("%d record(s)", v.page.Total))
		return v, nil

	case messages.HistoryDeleted:
		if msg.Err != nil {
			v.statusbar.SetState(status.StateError)
			v.statusbar.SetMessage(msg.Err.Error())
			return v, nil
		}
		v.detail = false
		return v, v.load()

	case tea.KeyMsg:
		return v.handleKey(msg.String())
	}
	return v, nil
}

func (v *View) handleKey(keyStr string) (*View, tea.Cmd) {
	km := v.keymap

	if keymap.Matches(keyStr, km.Back) {
		if v.detail {
			v.detail = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	switch {
	case keymap.Matches(keyStr, km.Up):
		if v.selected > 0 {
			v.selected--
		}
	case keymap.Matches(keyStr, km.Down):
		if v.page != nil && v.selected < len(v.page.Records)-1 {
			v.selected++
		}
	case keymap.Matches(keyStr, km.Select):
		v.detail = v.SelectedRecord() != nil && !v.detail
	case keymap.Matches(keyStr, km.NextPage):
		if v.page != nil && v.pageNum < v.page.TotalPages()-1 {
			v.pageNum++
			v.selected = 0
			return v, v.load()
		}
	case keymap.Matches(keyStr, km.PrevPage):
		if v.pageNum > 0 {
			v.pageNum--
			v.selected = 0
			return v, v.load()
		}
	case keymap.Matches(keyStr, km.Delete):
		return v, v.deleteSelected()
	case keymap.Matches(keyStr, km.Refresh):
		return v, v.load()
	}
	return v, nil
}

// View renders the history view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("History"))
	b.WriteString("\n\n")

	switch {
	case v.history == nil:
		b.WriteString(v.styles.Muted.Render("History is not available."))
	case v.loading && v.page == nil:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.page == nil || len(v.page.Records) == 0:
		b.WriteString(v.styles.Muted.Render("No history yet. Ask a question first."))
	case v.detail:
		b.WriteString(v.renderDetail(v.SelectedRecord()))
	default:
		b.WriteString(v.renderList())
	}

	b.WriteString("\n\n")
	b.WriteString(v.statusbar.View())
	return b.String()
}

func (v *View) renderList() string {
	lines := make([]string, 0, len(v.page.Records)+2)
	width := max(v.width-40, 20)

	for i := range v.page.Records {
		rec := &v.page.Records[i]
		cursor := "  "
		question := list.Preview(rec.Question, width)
		if i == v.selected {
			cursor = "> "
			question = v.styles.Subtitle.Render(question)
		}
		meta := v.styles.Muted.Render(fmt.Sprintf("  %s  %dms",
			rec.CreatedAt.Local().Format("Jan 02 15:04"), rec.ResponseTimeMs))
		lines = append(lines, cursor+v.styles.Mode(rec.Mode)+" "+question+meta)
	}

	lines = append(lines, "", v.styles.Muted.Render(
		fmt.Sprintf("Page %d of %d", v.page.Page+1, max(v.page.TotalPages(), 1))))
	return strings.Join(lines, "\n")
}

func (v *View) renderDetail(rec *domain.HistoryRecord) string {
	wrap := lipgloss.NewStyle().Width(max(v.width-4, 20))

	var b strings.Builder
	b.WriteString(v.styles.Question.Render(wrap.Render(rec.Question)))
	b.WriteString("\n\n")
	b.WriteString(v.styles.Answer.Render(wrap.Render(rec.Answer)))
	b.WriteString("\n\n")
	meta := fmt.Sprintf("#%d | %s | %dms | %d source(s) | session %s | %s",
		rec.ID, rec.Mode, rec.ResponseTimeMs, rec.SourceCount, rec.SessionID,
		rec.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	if rec.Fallback {
		meta += " | fallback"
	}
	b.WriteString(v.styles.Muted.Render(meta))
	return b.String()
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.statusbar.SetWidth(width)
}

// SelectedRecord returns the highlighted record, or nil.
func (v *View) SelectedRecord() *domain.HistoryRecord {
	if v.page == nil || v.selected >= len(v.page.Records) {
		return nil
	}
	return &v.page.Records[v.selected]
}

// PageNumber returns the zero-based page being shown.
func (v *View) PageNumber() int {
	return v.pageNum
}

// ShowingDetail reports whether a single record is expanded.
func (v *View) ShowingDetail() bool {
	return v.detail
}

// Err returns the last load error.
func (v *View) Err() error {
	return v.err
}
