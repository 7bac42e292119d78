// Package doccontent provides the document chunks view component for the TUI.
package doccontent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/messages"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/ports/driving"
)

// chunkHeaderPrefix marks chunk header lines in the wrapped output.
const chunkHeaderPrefix = "--- chunk "

// View shows a document's chunks as scrollable text.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	ctx             context.Context

	document     *domain.Document
	chunks       []domain.Chunk
	lines        []string
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
	loading      bool
}

// NewView creates a new document chunks view.
func NewView(s *styles.Styles, documentService driving.DocumentService) *View {
	return &View{
		styles:          s,
		documentService: documentService,
		ctx:             context.Background(),
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetDocument sets the document and loads its chunks.
func (v *View) SetDocument(doc *domain.Document) tea.Cmd {
	v.document = doc
	v.chunks = nil
	v.lines = nil
	v.scrollOffset = 0
	v.err = nil
	v.loading = true
	return v.loadChunks()
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// loadChunks returns a command that loads the document's chunks.
func (v *View) loadChunks() tea.Cmd {
	doc := v.document
	return func() tea.Msg {
		if doc == nil || v.documentService == nil {
			return messages.ChunksLoaded{Err: errors.New("document service not available")}
		}

		chunks, err := v.documentService.Chunks(v.ctx, doc.ID)
		return messages.ChunksLoaded{
			DocumentID: doc.ID,
			Chunks:     chunks,
			Err:        err,
		}
	}
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		v.wrapChunks()
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.ChunksLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.chunks = msg.Chunks
		v.wrapChunks()
		v.err = nil
		return v, nil

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.scrollOffset > 0 {
			v.scrollOffset--
		}
	case "down", "j":
		if v.scrollOffset < v.maxScrollOffset() {
			v.scrollOffset++
		}
	case "pgup", "ctrl+u":
		v.scrollOffset = max(v.scrollOffset-v.visibleLines(), 0)
	case "pgdown", "ctrl+d":
		v.scrollOffset = min(v.scrollOffset+v.visibleLines(), v.maxScrollOffset())
	case "home", "g":
		v.scrollOffset = 0
	case "end", "G":
		v.scrollOffset = v.maxScrollOffset()
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// wrapChunks lays the chunks out as lines that fit the view width.
func (v *View) wrapChunks() {
	if len(v.chunks) == 0 {
		v.lines = nil
		return
	}

	contentWidth := max(v.width-4, 20)

	v.lines = make([]string, 0, len(v.chunks)*4)
	for i := range v.chunks {
		c := &v.chunks[i]
		v.lines = append(v.lines, fmt.Sprintf("%s%d [%d:%d] %d chars ---", chunkHeaderPrefix, c.Index, c.Start, c.End, c.Size))
		for _, line := range strings.Split(c.Text, "\n") {
			for len(line) > contentWidth {
				v.lines = append(v.lines, line[:contentWidth])
				line = line[contentWidth:]
			}
			v.lines = append(v.lines, line)
		}
	}
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	return max(v.height-6, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.lines)-v.visibleLines(), 0)
}

// View renders the chunks view.
func (v *View) View() string {
	var b strings.Builder

	title := "Chunks"
	if v.document != nil {
		name := v.document.Title
		if name == "" {
			name = v.document.ID
		}
		title = fmt.Sprintf("%s (%d chunks)", name, len(v.chunks))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading chunks..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if len(v.lines) == 0 {
		b.WriteString(v.styles.Muted.Render("(No chunks yet)"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(v.lines) && i < v.scrollOffset+visibleLines; i++ {
		if strings.HasPrefix(v.lines[i], chunkHeaderPrefix) {
			b.WriteString(v.styles.Subtitle.Render(v.lines[i]))
		} else {
			b.WriteString(v.styles.Normal.Render(v.lines[i]))
		}
		b.WriteString("\n")
	}

	if len(v.lines) > visibleLines {
		b.WriteString("\n")
		percentage := 0
		if v.maxScrollOffset() > 0 {
			percentage = v.scrollOffset * 100 / v.maxScrollOffset()
		}
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d%%] Line %d-%d of %d",
			percentage,
			v.scrollOffset+1,
			min(v.scrollOffset+visibleLines, len(v.lines)),
			len(v.lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓/PgUp/PgDn] scroll  [g/G] top/bottom  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
	v.wrapChunks()
}

// Document returns the current document.
func (v *View) Document() *domain.Document {
	return v.document
}

// Chunks returns the loaded chunks.
func (v *View) Chunks() []domain.Chunk {
	return v.chunks
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
