// Package input holds the question prompt of the ask view.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
)

const (
	maxQuestionLength = 1024
	maxRecall         = 50
	minFieldWidth     = 20
)

// QuestionInput is a single-line prompt with a label showing the query
// mode and a recall list of questions already asked this session.
type QuestionInput struct {
	field  textinput.Model
	styles *styles.Styles
	label  string
	width  int

	asked []string
	// cursor indexes asked while recalling; len(asked) means the live draft.
	cursor int
	draft  string
}

func NewQuestionInput(s *styles.Styles) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	field := textinput.New()
	field.Placeholder = "Ask a question..."
	field.CharLimit = maxQuestionLength
	field.Width = 50
	field.Focus()

	return &QuestionInput{field: field, styles: s, label: "Ask", width: 50}
}

func (q *QuestionInput) Init() tea.Cmd { return textinput.Blink }

func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.field, cmd = q.field.Update(msg)
	return q, cmd
}

func (q *QuestionInput) View() string {
	//nolint:misspell // lipgloss.Center is the library's spelling
	return lipgloss.JoinHorizontal(lipgloss.Center,
		q.styles.Title.Render(q.label+": "),
		q.styles.InputField.Render(q.field.View()),
	)
}

// Remember appends a submitted question to the recall list, skipping an
// immediate repeat, and leaves recall mode.
func (q *QuestionInput) Remember(question string) {
	if question != "" && (len(q.asked) == 0 || q.asked[len(q.asked)-1] != question) {
		q.asked = append(q.asked, question)
		if len(q.asked) > maxRecall {
			q.asked = q.asked[len(q.asked)-maxRecall:]
		}
	}
	q.cursor = len(q.asked)
	q.draft = ""
}

// Previous replaces the value with the previous remembered question. The
// text being typed is kept and comes back once Next passes the newest.
func (q *QuestionInput) Previous() {
	if q.cursor == 0 {
		return
	}
	if q.cursor == len(q.asked) {
		q.draft = q.field.Value()
	}
	q.cursor--
	q.setRecalled(q.asked[q.cursor])
}

func (q *QuestionInput) Next() {
	if q.cursor >= len(q.asked) {
		return
	}
	q.cursor++
	if q.cursor == len(q.asked) {
		q.setRecalled(q.draft)
		return
	}
	q.setRecalled(q.asked[q.cursor])
}

func (q *QuestionInput) setRecalled(s string) {
	q.field.SetValue(s)
	q.field.CursorEnd()
}

// Asked returns the remembered questions, oldest first.
func (q *QuestionInput) Asked() []string { return q.asked }

// SetLabel changes the prompt label, e.g. to show the selected mode.
func (q *QuestionInput) SetLabel(label string) { q.label = label }

func (q *QuestionInput) Label() string { return q.label }

func (q *QuestionInput) Value() string { return q.field.Value() }

func (q *QuestionInput) SetValue(value string) { q.field.SetValue(value) }

func (q *QuestionInput) Focus() tea.Cmd { return q.field.Focus() }

func (q *QuestionInput) Blur() { q.field.Blur() }

func (q *QuestionInput) Focused() bool { return q.field.Focused() }

// SetWidth sizes the field to fit beside the label and border.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	q.field.Width = max(width-len(q.label)-8, minFieldWidth)
}

func (q *QuestionInput) Width() int { return q.width }

func (q *QuestionInput) Reset() { q.field.Reset() }
