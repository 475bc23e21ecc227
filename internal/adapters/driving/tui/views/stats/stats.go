// Package stats provides the statistics view for the TUI.
package stats

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// View shows query history statistics, index statistics and the
// active generation settings side by side.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap

	history  driving.HistoryService
	ingest   driving.IngestService
	settings driving.SettingsService
	ctx      context.Context

	data    *messages.StatsLoaded
	loading bool

	width  int
	height int
	ready  bool
}

// NewView creates a new stats view. Any of the services may be nil.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	history driving.HistoryService,
	ingest driving.IngestService,
	settings driving.SettingsService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:   s,
		keymap:   km,
		history:  history,
		ingest:   ingest,
		settings: settings,
		ctx:      context.Background(),
		width:    80,
		height:   24,
	}
}

// WithContext sets the context used for loading.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init loads the statistics.
func (v *View) Init() tea.Cmd {
	return v.load()
}

func (v *View) load() tea.Cmd {
	v.loading = true
	ctx, history, ingest := v.ctx, v.history, v.ingest
	return func() tea.Msg {
		var msg messages.StatsLoaded
		if history != nil {
			hs, err := history.Stats(ctx)
			if err != nil {
				return messages.StatsLoaded{Err: err}
			}
			msg.History = hs
		}
		if ingest != nil {
			idx := ingest.Stats()
			msg.Index = &idx
			report, err := ingest.CheckQuality(ctx)
			if err != nil {
				return messages.StatsLoaded{Err: err}
			}
			msg.Quality = report
		}
		return msg
	}
}

// Update handles messages for the stats view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
	case messages.StatsLoaded:
		v.loading = false
		v.data = &msg
	case tea.KeyMsg:
		switch {
		case keymap.Matches(msg.String(), v.keymap.Back):
			return v, func() tea.Msg {
				return messages.ViewChanged{View: messages.ViewMenu}
			}
		case keymap.Matches(msg.String(), v.keymap.Refresh):
			return v, v.load()
		}
	}
	return v, nil
}

// View renders the stats view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Statistics"))
	b.WriteString("\n\n")

	switch {
	case v.data == nil:
		b.WriteString(v.styles.Muted.Render("Loading..."))
	case v.data.Err != nil:
		b.WriteString(v.styles.Error.Render("Error: " + v.data.Err.Error()))
	default:
		panels := []string{v.renderHistory(), v.renderIndex(), v.renderSettings()}
		box := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(v.styles.Theme().Border).
			Padding(0, 1).
			MarginRight(1)
		rendered := make([]string, 0, len(panels))
		for _, p := range panels {
			if p != "" {
				rendered = append(rendered, box.Render(p))
			}
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, rendered...))
	}

	b.WriteString("\n\n")
	b.WriteString(v.styles.Help.Render("[r] Refresh  [esc] Back"))
	return b.String()
}

func (v *View) renderHistory() string {
	h := v.data.History
	if h == nil {
		return ""
	}
	rows := [][2]string{
		{"Total queries", fmt.Sprintf("%d", h.TotalQueries)},
		{"RAG", fmt.Sprintf("%d (%.1f%%)", h.RAGQueries, h.RAGPercentage)},
		{"NLP", fmt.Sprintf("%d (%.1f%%)", h.NLPQueries, h.NLPPercentage)},
		{"Fallbacks", fmt.Sprintf("%d", h.FallbackQueries)},
		{"Avg response", fmt.Sprintf("%.0fms", h.AverageResponseMs)},
	}
	return v.panel("Queries", rows)
}

func (v *View) renderIndex() string {
	idx := v.data.Index
	if idx == nil {
		return ""
	}
	rows := [][2]string{
		{"Indexed chunks", fmt.Sprintf("%d", idx.DocumentCount)},
		{"Vocabulary", fmt.Sprintf("%d", idx.VocabularySize)},
		{"Total terms", fmt.Sprintf("%d", idx.TotalTerms)},
		{"Avg terms", fmt.Sprintf("%.1f", idx.AverageTermsPerDocument)},
	}
	if q := v.data.Quality; q != nil {
		rows = append(rows, [2]string{"Documents", fmt.Sprintf("%d", q.Documents)})
		health := v.styles.Success.Render("consistent")
		if !q.Healthy() {
			health = v.styles.Warning.Render(fmt.Sprintf("%d missing, %d orphaned",
				len(q.MissingFromIndex), len(q.Orphaned)))
		}
		rows = append(rows, [2]string{"Health", health})
	}
	return v.panel("Index", rows)
}

func (v *View) renderSettings() string {
	if v.settings == nil {
		return ""
	}
	s, err := v.settings.Get()
	if err != nil {
		return v.panel("Settings", [][2]string{{"Error", err.Error()}})
	}
	provider := "(not configured)"
	if s.Generation.Provider != "" {
		provider = s.Generation.Provider.Description()
	}
	rows := [][2]string{
		{"Provider", provider},
		{"Model", valueOr(s.Generation.Model, "(default)")},
		{"Top K", fmt.Sprintf("%d", s.Retrieval.TopK)},
		{"Chunking", fmt.Sprintf("%d / %d", s.Chunking.Size, s.Chunking.Overlap)},
	}
	return v.panel("Settings", rows)
}

func (v *View) panel(title string, rows [][2]string) string {
	var b strings.Builder
	b.WriteString(v.styles.Subtitle.Render(title))
	for _, r := range rows {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("%-15s", r[0])))
		b.WriteString(v.styles.Normal.Render(r[1]))
	}
	return b.String()
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Data returns the last loaded statistics.
func (v *View) Data() *messages.StatsLoaded {
	return v.data
}

// Loading reports whether a load is in flight.
func (v *View) Loading() bool {
	return v.loading
}
