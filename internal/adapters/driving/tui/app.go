package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/keymap"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/messages"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/views/ask"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/views/doccontent"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/views/docdetails"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/views/documents"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/views/menu"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// App is the status board application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	// styles holds the TUI styles.
	styles *styles.Styles

	// menuView is the main navigation menu.
	menuView *menu.View

	// documentsView lists documents with their processing status.
	documentsView *documents.View

	// docDetailsView shows a processing status report.
	docDetailsView *docdetails.View

	// docContentView shows the chunks of a document.
	docContentView *doccontent.View

	// askView retrieves course material context for a question.
	askView *ask.View

	// module scopes the board to one course module, if set.
	module string

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()

	return &App{
		ports:          ports,
		ctx:            context.Background(),
		styles:         s,
		menuView:       menu.NewView(s),
		documentsView:  documents.NewView(s, ports.Document, ports.Status, ports.Ingest),
		docDetailsView: docdetails.NewView(s),
		docContentView: doccontent.NewView(s, ports.Document),
		askView:        ask.NewView(s, keymap.DefaultKeyMap(), ports.Retrieval),
		currentView:    messages.ViewMenu,
	}, nil
}

// WithContext sets the context for the app and its views.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	a.documentsView.WithContext(ctx)
	a.docContentView.WithContext(ctx)
	a.askView.WithContext(ctx)
	return a
}

// WithModule scopes the board to a course module.
func (a *App) WithModule(module string) *App {
	a.module = module
	a.documentsView.SetFilter(domain.DocumentFilter{ModuleID: module})
	a.menuView.SetModule(module)
	a.askView.SetModule(module)
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("aipilot - Course Material"),
	)
}

// Update implements tea.Model.
//
//nolint:gocognit,gocyclo,funlen // central message handler requires complexity
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

		switch a.currentView {
		case messages.ViewMenu:
			a.menuView, cmd = a.menuView.Update(msg)
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewDocDetails:
			a.docDetailsView, cmd = a.docDetailsView.Update(msg)
		case messages.ViewDocContent:
			a.docContentView, cmd = a.docContentView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
			a.err = a.askView.Err()
		case messages.ViewHelp:
			if msg.Type == tea.KeyEsc {
				a.currentView = messages.ViewMenu
			}
		}
		return a, cmd

	case messages.ViewChanged:
		a.currentView = msg.View
		switch msg.View {
		case messages.ViewDocuments:
			return a, a.documentsView.Init()
		case messages.ViewAsk:
			a.askView.Reset()
			return a, a.askView.Init()
		case messages.ViewMenu, messages.ViewHelp,
			messages.ViewDocDetails, messages.ViewDocContent:
		}
		return a, nil

	case messages.DocumentsLoaded, messages.DocumentDeleted, messages.DocumentReprocessed:
		a.documentsView, cmd = a.documentsView.Update(msg)
		a.err = a.documentsView.Err()
		return a, cmd

	case messages.DocumentSelected:
		a.currentView = messages.ViewDocContent
		return a, a.docContentView.SetDocument(&msg.Document)

	case messages.ChunksLoaded:
		a.docContentView, cmd = a.docContentView.Update(msg)
		return a, cmd

	case messages.StatusLoaded:
		if msg.Err != nil {
			a.err = msg.Err
			a.docDetailsView.SetError(msg.Err)
		} else {
			a.docDetailsView.SetReport(msg.Report)
		}
		a.currentView = messages.ViewDocDetails
		return a, nil

	case messages.AskRequested:
		if msg.ModuleID != "" {
			a.askView.SetModule(msg.ModuleID)
		}
		a.currentView = messages.ViewAsk
		a.askView.Reset()
		return a, a.askView.Init()

	case messages.ContextRetrieved:
		a.askView, cmd = a.askView.Update(msg)
		a.err = a.askView.Err()
		return a, cmd

	case messages.ErrorOccurred:
		a.err = msg.Err
		switch a.currentView {
		case messages.ViewDocuments:
			a.documentsView, cmd = a.documentsView.Update(msg)
		case messages.ViewAsk:
			a.askView, cmd = a.askView.Update(msg)
		case messages.ViewMenu, messages.ViewHelp,
			messages.ViewDocDetails, messages.ViewDocContent:
		}
		return a, cmd

	case messages.Quit:
		return a, tea.Quit
	}

	// Forward other messages, such as cursor blinks, to the active view.
	if a.currentView == messages.ViewAsk {
		a.askView, cmd = a.askView.Update(msg)
	}
	return a, cmd
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	switch a.currentView {
	case messages.ViewDocuments:
		return a.documentsView.View()
	case messages.ViewDocDetails:
		return a.docDetailsView.View()
	case messages.ViewDocContent:
		return a.docContentView.View()
	case messages.ViewAsk:
		return a.askView.View()
	case messages.ViewHelp:
		return a.viewHelp()
	default:
		return a.menuView.View()
	}
}

// viewHelp renders the help view.
func (a *App) viewHelp() string {
	return `Help

Navigation:
  esc         Back
  ctrl+c      Quit

Menu:
  j/k, ↑/↓    Navigate options
  enter       Select option
  q           Quit

Documents:
  enter       Open actions (chunks, status, ask, reprocess, delete)
  r           Reload

Ask:
  (type)      Enter a question
  enter       Retrieve context, then expand the selected chunk
  n           New question

[esc] back to menu`
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

// Module returns the module the board is scoped to.
func (a *App) Module() string {
	return a.module
}

// Err returns the last error that occurred.
func (a *App) Err() error {
	return a.err
}

// Ready returns whether the app has been initialised.
func (a *App) Ready() bool {
	return a.ready
}

// SetDimensions sets the terminal dimensions on the app and every view.
func (a *App) SetDimensions(width, height int) {
	a.width = width
	a.height = height
	a.ready = true
	a.menuView.SetDimensions(width, height)
	a.documentsView.SetDimensions(width, height)
	a.docDetailsView.SetDimensions(width, height)
	a.docContentView.SetDimensions(width, height)
	a.askView.SetDimensions(width, height)
}
