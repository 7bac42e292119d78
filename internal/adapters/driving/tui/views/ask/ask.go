// Package ask provides the retrieval view for the TUI: a question goes in,
// the supporting course material comes out.
package ask

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/components/input"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/components/list"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/components/status"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/keymap"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/messages"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
)

// View represents the ask view with input, chunk list, and status bar.
type View struct {
	styles    *styles.Styles
	keymap    *keymap.KeyMap
	input     *input.QuestionInput
	list      *list.ChunkList
	statusbar *status.Bar

	retrievalService driving.RetrievalService
	ctx              context.Context

	module     string
	result     *domain.ContextResult
	width      int
	height     int
	ready      bool
	err        error
	focusInput bool // true = typing a question, false = navigating chunks
	expanded   bool // true = selected chunk shown in full
}

// NewView creates a new ask view.
func NewView(s *styles.Styles, km *keymap.KeyMap, retrievalService driving.RetrievalService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &View{
		styles:           s,
		keymap:           km,
		input:            input.NewQuestionInput(s, "Question", "Ask about the course material..."),
		list:             list.NewChunkList(s),
		statusbar:        status.NewBar(s, km),
		retrievalService: retrievalService,
		ctx:              context.Background(),
		width:            80,
		height:           24,
		focusInput:       true,
	}
}

// WithContext sets the context for the view.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetModule sets the module questions are scoped to.
func (v *View) SetModule(module string) {
	v.module = module
}

// Module returns the module questions are scoped to.
func (v *View) Module() string {
	return v.module
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the ask view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.SetDimensions(msg.Width, msg.Height)
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ContextRetrieved:
		v.handleContextRetrieved(msg)
		return v, nil

	case messages.ErrorOccurred:
		v.setError(msg.Err)
		return v, nil
	}

	var inputCmd tea.Cmd
	v.input, inputCmd = v.input.Update(msg)
	if inputCmd != nil {
		cmds = append(cmds, inputCmd)
	}

	return v, tea.Batch(cmds...)
}

// handleKeyMsg processes keyboard input.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	if msg.Type == tea.KeyEsc {
		if v.expanded {
			v.expanded = false
			return v, nil
		}
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	}

	if msg.Type == tea.KeyEnter && v.focusInput {
		question := strings.TrimSpace(v.input.Value())
		if question == "" {
			return v, nil
		}
		if v.module == "" {
			v.setError(ErrNoModule)
			return v, nil
		}
		v.err = nil
		v.statusbar.SetState(status.StateRetrieving)
		v.focusInput = false
		v.input.Blur()
		return v, v.retrieve(question)
	}

	// Input mode: all other keys go to the input
	if v.focusInput {
		v.input, _ = v.input.Update(msg)
		return v, nil
	}

	if msg.Type == tea.KeyEnter {
		v.expanded = v.list.SelectedChunk() != nil && !v.expanded
		return v, nil
	}

	switch msg.String() {
	case "up", "k":
		v.list.MoveUp()
	case "down", "j":
		v.list.MoveDown()
	case "n":
		v.Reset()
	}

	return v, nil
}

// retrieve runs a retrieval for question in the current module.
func (v *View) retrieve(question string) tea.Cmd {
	req := domain.ContextRequest{Question: question, ModuleID: v.module}
	return func() tea.Msg {
		if v.retrievalService == nil {
			return messages.ErrorOccurred{Err: ErrNoRetrievalService}
		}

		result, err := v.retrievalService.RetrieveContext(v.ctx, req)
		return messages.ContextRetrieved{Result: result, Err: err}
	}
}

// handleContextRetrieved shows a retrieval result.
func (v *View) handleContextRetrieved(msg messages.ContextRetrieved) {
	if msg.Err != nil {
		v.setError(msg.Err)
		return
	}

	result := msg.Result
	if result == nil {
		result = domain.EmptyContext()
	}
	v.err = nil
	v.result = result
	v.expanded = false
	v.list.SetChunks(result.Chunks)
	v.statusbar.SetState(status.StateContext)
	v.statusbar.SetChunkCount(len(result.Chunks))
}

func (v *View) setError(err error) {
	v.err = err
	v.statusbar.SetState(status.StateError)
	v.statusbar.SetMessage(err.Error())
}

// View renders the ask view.
func (v *View) View() string {
	if !v.ready {
		return "Initialising..."
	}

	sections := make([]string, 0, 12)

	header := v.styles.Title.Render("Ask")
	if v.module != "" {
		header += v.styles.Muted.Render("  module " + v.module)
	}
	sections = append(sections, header, "", v.input.View(), "")

	if v.err != nil {
		sections = append(sections, v.styles.Error.Render("Error: "+v.err.Error()), "")
	}

	if v.result != nil {
		if v.expanded {
			sections = append(sections, v.renderExpanded())
		} else {
			sections = append(sections, v.list.View())
		}
		if len(v.result.Sources) > 0 {
			sections = append(sections, "", v.styles.Muted.Render("Sources: "+strings.Join(v.result.Sources, ", ")))
		}
	}

	sections = append(sections, "", v.statusbar.View())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderExpanded renders the selected chunk in full.
func (v *View) renderExpanded() string {
	chunk := v.list.SelectedChunk()
	if chunk == nil {
		return ""
	}
	title := v.styles.Subtitle.Render(chunk.DocumentTitle)
	body := lipgloss.NewStyle().Width(max(v.width-4, 20)).Render(chunk.Text)
	return v.styles.Border.Padding(0, 1).Render(title + "\n\n" + body)
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true

	v.input.SetWidth(width)
	v.list.SetDimensions(width, height-10) // Reserve space for header, input, status
	v.statusbar.SetWidth(width)
}

// Question returns the current question text.
func (v *View) Question() string {
	return v.input.Value()
}

// SetQuestion sets the question text.
func (v *View) SetQuestion(q string) {
	v.input.SetValue(q)
}

// Result returns the last retrieval result.
func (v *View) Result() *domain.ContextResult {
	return v.result
}

// SelectedIndex returns the index of the selected chunk.
func (v *View) SelectedIndex() int {
	return v.list.Selected()
}

// Expanded reports whether the selected chunk is shown in full.
func (v *View) Expanded() bool {
	return v.expanded
}

// Err returns the current error, if any.
func (v *View) Err() error {
	return v.err
}

// Reset returns the view to question entry.
func (v *View) Reset() {
	v.focusInput = true
	v.expanded = false
	v.input.Focus()
	v.input.SetValue("")
	v.list.SetChunks(nil)
	v.result = nil
	v.err = nil
	v.statusbar.Clear()
}

// InputFocused returns whether the input has focus.
func (v *View) InputFocused() bool {
	return v.focusInput
}
