package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/ask"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/history"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/menu"
	"github.com/custodia-labs/sercha-rag/internal/adapters/driving/tui/views/stats"
	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	ports  *Ports
	ctx    context.Context
	styles *styles.Styles
	keymap *keymap.KeyMap
	help   help.Model

	menuView    *menu.View
	askView     *ask.View
	historyView *history.View
	statsView   *stats.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	width  int
	height int
	ready  bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:       ports,
		ctx:         context.Background(),
		styles:      s,
		keymap:      km,
		help:        help.New(),
		menuView:    menu.NewView(s, km, menuItems(ports)),
		askView:     ask.NewView(s, km, ports.Query, ports.Router),
		historyView: history.NewView(s, km, ports.History),
		statsView:   stats.NewView(s, km, ports.History, ports.Ingest, ports.Settings),
		currentView: messages.ViewMenu,
	}, nil
}

// menuItems hides entries whose backing services are absent.
func menuItems(ports *Ports) []menu.Item {
	items := make([]menu.Item, 0, len(menu.DefaultItems()))
	for _, item := range menu.DefaultItems() {
		switch item.View {
		case messages.ViewHistory:
			if ports.History == nil {
				continue
			}
		case messages.ViewStats:
			if ports.History == nil && ports.Ingest == nil && ports.Settings == nil {
				continue
			}
		case messages.ViewMenu, messages.ViewAsk, messages.ViewHelp:
		}
		items = append(items, item)
	}
	return items
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.askView.WithContext(ctx)
	a.historyView.WithContext(ctx)
	a.statsView.WithContext(ctx)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	cmds := []tea.Cmd{tea.EnterAltScreen, tea.SetWindowTitle("sercha-rag")}
	if a.currentView == messages.ViewAsk {
		cmds = append(cmds, a.askView.Init())
	}
	return tea.Batch(cmds...)
}

// StartAsking opens the ask view directly in the given mode instead of
// the menu.
func (a *App) StartAsking(mode domain.QueryMode) *App {
	a.askView.SetMode(mode)
	a.currentView = messages.ViewAsk
	return a
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetDimensions(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewHelp {
			if keymap.Matches(msg.String(), a.keymap.Back) || keymap.Matches(msg.String(), a.keymap.Help) {
				a.currentView = messages.ViewMenu
			}
			return a, nil
		}
		// "?" opens help from anywhere except while typing a question.
		if a.currentView != messages.ViewAsk && keymap.Matches(msg.String(), a.keymap.Help) {
			a.currentView = messages.ViewHelp
			return a, nil
		}

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewAsk:
			return a, a.askView.Init()
		case messages.ViewHistory:
			a.historyView.Reset()
			return a, a.historyView.Init()
		case messages.ViewStats:
			return a, a.statsView.Init()
		case messages.ViewMenu, messages.ViewHelp:
		}
		return a, nil

	// Async results go to the view that requested them even if the user
	// has navigated away in the meantime.
	case messages.AnswerReceived:
		a.err = msg.Err
		a.askView, cmd = a.askView.Update(msg)
		return a, cmd

	case messages.HistoryLoaded, messages.HistoryDeleted:
		a.historyView, cmd = a.historyView.Update(msg)
		return a, cmd

	case messages.StatsLoaded:
		a.err = msg.Err
		a.statsView, cmd = a.statsView.Update(msg)
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err

	case messages.Quit:
		return a, tea.Quit
	}

	return a, a.forward(msg)
}

// forward passes msg to the active view.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch a.currentView {
	case messages.ViewMenu:
		a.menuView, cmd = a.menuView.Update(msg)
	case messages.ViewAsk:
		a.askView, cmd = a.askView.Update(msg)
	case messages.ViewHistory:
		a.historyView, cmd = a.historyView.Update(msg)
	case messages.ViewStats:
		a.statsView, cmd = a.statsView.Update(msg)
	case messages.ViewHelp:
	}
	return cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewHistory:
		return a.historyView.View()
	case messages.ViewStats:
		return a.statsView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	case messages.ViewMenu:
	}
	return a.menuView.View()
}

func (a *App) viewHelp() string {
	return a.styles.Title.Render("Help") + "\n\n" +
		a.help.FullHelpView(a.keymap.FullHelp()) + "\n\n" +
		a.styles.Help.Render("[esc] back to menu")
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(a.ctx))
	_, err := p.Run()
	return err
}

// CurrentView returns the current view type.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has received its dimensions.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.help.Width = width
	a.menuView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
	a.historyView.SetDimensions(width, height)
	a.statsView.SetDimensions(width, height)
}
