// Package ask provides the question and answer view for the TUI.
package ask

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/list"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
	"github.com/custodia-labs/sercha-rag/internal/core/ports/driving"
)

// Rows taken by the title, input, hint and status bar.
const chromeHeight = 8

var modeCycle = []domain.QueryMode{domain.QueryModeAuto, domain.QueryModeRAG, domain.QueryModeNLP}

// Turn is one question and its outcome in the transcript.
type Turn struct {
	Question string
	Result   *domain.QueryResult
	Err      error
}

// Pending reports whether the turn is still waiting for an answer.
func (t *Turn) Pending() bool {
	return t.Result == nil && t.Err == nil
}

// View is the chat-style ask view: a scrolling transcript above a
// question input. All questions in one view share a session ID.
type View struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	input      *input.QuestionInput
	sources    *list.SourceList
	statusbar  *status.Bar
	transcript viewport.Model
	spinner    spinner.Model

	query  driving.QueryService
	router driving.RouterService
	ctx    context.Context

	mode        domain.QueryMode
	sessionID   string
	turns       []Turn
	thinking    bool
	showSources bool

	width  int
	height int
	ready  bool
}

// NewView creates a new ask view. The router is optional and only
// used to preview how AUTO questions will be routed.
func NewView(
	s *styles.Styles,
	km *keymap.KeyMap,
	query driving.QueryService,
	router driving.RouterService,
) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Subtitle

	v := &View{
		styles:     s,
		keymap:     km,
		input:      input.NewQuestionInput(s),
		sources:    list.NewSourceList(s),
		statusbar:  status.NewBar(s, km.AskHelp()...),
		transcript: viewport.New(80, 24-chromeHeight),
		spinner:    sp,
		query:      query,
		router:     router,
		ctx:        context.Background(),
		mode:       domain.QueryModeAuto,
		sessionID:  uuid.NewString(),
		width:      80,
		height:     24,
	}
	v.updateLabel()
	return v
}

// WithContext sets the context used for queries.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return tea.Batch(v.input.Focus(), v.input.Init())
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKey(msg)

	case messages.AnswerReceived:
		v.handleAnswer(msg)
		return v, nil

	case spinner.TickMsg:
		if !v.thinking {
			return v, nil
		}
		var cmd tea.Cmd
		v.spinner, cmd = v.spinner.Update(msg)
		v.refresh()
		return v, cmd

	case messages.ErrorOccurred:
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		return v, nil
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

func (v *View) handleKey(msg tea.KeyMsg) (*View, tea.Cmd) {
	keyStr := msg.String()

	if keymap.Matches(keyStr, v.keymap.Back) {
		if v.showSources {
			v.showSources = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if keymap.Matches(keyStr, v.keymap.ToggleSources) {
		v.showSources = !v.showSources && len(v.sources.Sources()) > 0
		return v, nil
	}

	if v.showSources {
		v.sources, _ = v.sources.Update(msg)
		return v, nil
	}

	switch {
	case keymap.Matches(keyStr, v.keymap.CycleMode):
		v.CycleMode()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.Submit):
		return v, v.submit()

	case keymap.Matches(keyStr, v.keymap.RecallPrev):
		v.input.Previous()
		return v, nil

	case keymap.Matches(keyStr, v.keymap.RecallNext):
		v.input.Next()
		return v, nil

	case key.Matches(msg, scrollKeys...):
		var cmd tea.Cmd
		v.transcript, cmd = v.transcript.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

var scrollKeys = []key.Binding{
	key.NewBinding(key.WithKeys("pgup", "pgdown", "up", "down")),
}

// submit sends the current input as a question.
func (v *View) submit() tea.Cmd {
	question := strings.TrimSpace(v.input.Value())
	if question == "" || v.thinking {
		return nil
	}

	v.input.Remember(question)
	v.input.Reset()
	v.thinking = true
	v.turns = append(v.turns, Turn{Question: question})
	v.statusbar.SetState(status.StateThinking)
	v.refresh()

	return tea.Batch(v.spinner.Tick, v.ask(question))
}

// ask returns a command that runs the query off the UI goroutine.
func (v *View) ask(question string) tea.Cmd {
	req := domain.QueryRequest{
		Question:  question,
		Mode:      v.mode,
		SessionID: v.sessionID,
	}
	ctx, query := v.ctx, v.query
	return func() tea.Msg {
		result, err := query.Query(ctx, req)
		return messages.AnswerReceived{Question: question, Result: result, Err: err}
	}
}

func (v *View) handleAnswer(msg messages.AnswerReceived) {
	v.thinking = false

	// Fill the newest pending turn for this question.
	for i := len(v.turns) - 1; i >= 0; i-- {
		if v.turns[i].Pending() && v.turns[i].Question == msg.Question {
			v.turns[i].Result = msg.Result
			v.turns[i].Err = msg.Err
			break
		}
	}

	if msg.Err != nil {
		v.statusbar.SetState(status.StateError)
		v.statusbar.SetMessage(msg.Err.Error())
		v.sources.SetSources(nil)
	} else if msg.Result != nil {
		v.statusbar.SetState(status.StateAnswered)
		v.statusbar.SetMessage(summary(msg.Result))
		v.sources.SetSources(msg.Result.Sources)
	}
	v.refresh()
}

func summary(r *domain.QueryResult) string {
	parts := []string{string(r.Mode), fmt.Sprintf("%dms", r.ResponseTimeMs)}
	if n := len(r.Sources); n > 0 {
		parts = append(parts, fmt.Sprintf("%d source(s)", n))
	}
	if r.FromCache {
		parts = append(parts, "cached")
	}
	return strings.Join(parts, " | ")
}

// SetMode selects the mode for the next question. Invalid modes are ignored.
func (v *View) SetMode(m domain.QueryMode) {
	if m.IsValid() {
		v.mode = m
		v.updateLabel()
	}
}

// CycleMode advances AUTO -> RAG -> NLP -> AUTO.
func (v *View) CycleMode() {
	for i, m := range modeCycle {
		if m == v.mode {
			v.mode = modeCycle[(i+1)%len(modeCycle)]
			break
		}
	}
	v.updateLabel()
}

func (v *View) updateLabel() {
	v.input.SetLabel(fmt.Sprintf("Ask [%s]", v.mode))
	v.input.SetWidth(v.width)
}

// refresh re-renders the transcript and scrolls to the newest turn.
func (v *View) refresh() {
	v.transcript.SetContent(v.renderTranscript())
	v.transcript.GotoBottom()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question to get started. Tab switches between AUTO, RAG and NLP.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-6, 20))
	blocks := make([]string, 0, len(v.turns))
	for i := range v.turns {
		t := &v.turns[i]
		var b strings.Builder
		b.WriteString(v.styles.Question.Render("You: " + t.Question))
		b.WriteString("\n")

		switch {
		case t.Pending():
			b.WriteString("  " + v.spinner.View() + " " + v.styles.Muted.Render("Thinking..."))
		case t.Err != nil:
			b.WriteString("  " + v.styles.Error.Render("Error: "+t.Err.Error()))
		default:
			b.WriteString(v.styles.Mode(t.Result.Mode))
			b.WriteString("\n")
			b.WriteString(v.styles.Answer.Render(wrap.Render(t.Result.Answer)))
			for _, note := range notes(t.Result) {
				b.WriteString("\n  " + v.styles.Warning.Render(note))
			}
			if n := len(t.Result.Sources); n > 0 {
				b.WriteString("\n  " + v.styles.Muted.Render(fmt.Sprintf("%d source(s), ctrl+s to view", n)))
			}
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

func notes(r *domain.QueryResult) []string {
	var out []string
	if r.Fallback {
		out = append(out, "The generation backend is unavailable; this is a fallback answer.")
	}
	if r.Degraded {
		out = append(out, "No relevant documents were found; answered without context.")
	}
	return out
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	var b strings.Builder
	b.WriteString(v.styles.Title.Render("Ask"))
	b.WriteString(v.styles.Muted.Render("  session " + v.sessionID[:8]))
	b.WriteString("\n\n")

	if v.showSources {
		b.WriteString(v.sources.View())
	} else {
		b.WriteString(v.styles.Transcript.Render(v.transcript.View()))
	}
	b.WriteString("\n")
	b.WriteString(v.input.View())
	b.WriteString("\n")
	b.WriteString(v.routePreview())
	b.WriteString("\n")
	b.WriteString(v.statusbar.View())

	return b.String()
}

// routePreview shows how the router would classify the typed question.
func (v *View) routePreview() string {
	question := strings.TrimSpace(v.input.Value())
	if v.router == nil || v.mode != domain.QueryModeAuto || question == "" {
		return ""
	}
	d := v.router.Classify(question)
	return v.styles.Muted.Render(fmt.Sprintf("  routes to %s (confidence %.2f)", d.Mode, d.Confidence))
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.input.SetWidth(width)
	v.statusbar.SetWidth(width)
	v.sources.SetSize(width, height-chromeHeight)
	v.transcript.Width = max(width-2, 10)
	v.transcript.Height = max(height-chromeHeight, 3)
	v.refresh()
}

// Mode returns the selected query mode.
func (v *View) Mode() domain.QueryMode {
	return v.mode
}

// SessionID returns the session shared by questions in this view.
func (v *View) SessionID() string {
	return v.sessionID
}

// Turns returns the transcript.
func (v *View) Turns() []Turn {
	return v.turns
}

// Thinking reports whether a question is in flight.
func (v *View) Thinking() bool {
	return v.thinking
}

// ShowingSources reports whether the source list replaces the transcript.
func (v *View) ShowingSources() bool {
	return v.showSources
}
