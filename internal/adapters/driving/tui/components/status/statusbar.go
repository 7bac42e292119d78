// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/keymap"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady      State = "ready"
	StateRetrieving State = "retrieving"
	StateError      State = "error"
	StateContext    State = "context"
)

// Bar displays application status and keybinding hints.
type Bar struct {
	styles     *styles.Styles
	keymap     *keymap.KeyMap
	state      State
	message    string
	chunkCount int
	width      int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	return &Bar{
		styles: s,
		keymap: km,
		state:  StateReady,
		width:  80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (s *Bar) Update(_ tea.Msg) (*Bar, tea.Cmd) {
	// Bar is passive, updated via Set methods
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	padding := s.width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 1 {
		padding = 1
	}

	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the left side of the status bar.
func (s *Bar) renderLeft() string {
	switch s.state {
	case StateRetrieving:
		return s.styles.Progress.Render("Retrieving...")
	case StateError:
		if s.message != "" {
			return s.styles.Error.Render(fmt.Sprintf("Error: %s", s.message))
		}
		return s.styles.Error.Render("Error")
	case StateContext:
		if s.chunkCount == 0 {
			return s.styles.Warning.Render("No course material context available")
		}
		return s.styles.Normal.Render(fmt.Sprintf("%d chunks", s.chunkCount))
	}
	if s.message != "" {
		return s.styles.Normal.Render(s.message)
	}
	return s.styles.Muted.Render("Ready")
}

// renderRight renders keybinding hints.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	if s.state == StateContext && s.chunkCount > 0 {
		bindings = s.keymap.ChunksHelp()
	} else {
		bindings = s.keymap.ShortHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state.
func (s *Bar) SetState(state State) {
	s.state = state
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetChunkCount sets the number of retrieved chunks.
func (s *Bar) SetChunkCount(count int) {
	s.chunkCount = count
}

// ChunkCount returns the number of retrieved chunks.
func (s *Bar) ChunkCount() int {
	return s.chunkCount
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Clear resets the status bar to default state.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
	s.chunkCount = 0
}
