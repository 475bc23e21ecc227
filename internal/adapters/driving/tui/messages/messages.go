// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the question and answer view.
	ViewAsk
	// ViewHistory browses past queries.
	ViewHistory
	// ViewStats shows history and index statistics.
	ViewStats
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewHistory:
		return "history"
	case ViewStats:
		return "stats"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AnswerReceived carries the outcome of a query.
type AnswerReceived struct {
	Question string
	Result   *domain.QueryResult
	Err      error
}

// HistoryLoaded carries one page of history.
type HistoryLoaded struct {
	Page *domain.HistoryPage
	Err  error
}

// HistoryDeleted signals a history record was deleted.
type HistoryDeleted struct {
	ID  int64
	Err error
}

// StatsLoaded carries history and index statistics.
// Either may be nil when the backing service is unavailable.
type StatsLoaded struct {
	History *domain.HistoryStats
	Index   *domain.IndexStats
	Quality *domain.QualityReport
	Err     error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
