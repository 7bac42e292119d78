// Package input provides text input components for the TUI.
package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
)

// QuestionInput wraps a bubbles textinput with a label.
type QuestionInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	label     string
	width     int
}

// NewQuestionInput creates a labelled input. It starts focused.
func NewQuestionInput(s *styles.Styles, label, placeholder string) *QuestionInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = 50

	return &QuestionInput{
		textinput: ti,
		styles:    s,
		label:     label,
		width:     50,
	}
}

// Init initialises the input.
func (q *QuestionInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (q *QuestionInput) Update(msg tea.Msg) (*QuestionInput, tea.Cmd) {
	var cmd tea.Cmd
	q.textinput, cmd = q.textinput.Update(msg)
	return q, cmd
}

// View renders the label and input.
func (q *QuestionInput) View() string {
	label := q.styles.Title.Render(q.label + ": ")
	field := q.styles.InputField.Render(q.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

// Value returns the current input value.
func (q *QuestionInput) Value() string {
	return q.textinput.Value()
}

// SetValue sets the input value.
func (q *QuestionInput) SetValue(value string) {
	q.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (q *QuestionInput) Focus() tea.Cmd {
	return q.textinput.Focus()
}

// Blur removes focus from the input.
func (q *QuestionInput) Blur() {
	q.textinput.Blur()
}

// Focused returns whether the input is focused.
func (q *QuestionInput) Focused() bool {
	return q.textinput.Focused()
}

// SetWidth sets the width of the input.
func (q *QuestionInput) SetWidth(width int) {
	q.width = width
	// Account for label and padding
	inputWidth := width - len(q.label) - 8
	if inputWidth < 20 {
		inputWidth = 20
	}
	q.textinput.Width = inputWidth
}

// Width returns the current width.
func (q *QuestionInput) Width() int {
	return q.width
}

// Label returns the input label.
func (q *QuestionInput) Label() string {
	return q.label
}

// Reset clears the input.
func (q *QuestionInput) Reset() {
	q.textinput.Reset()
}
