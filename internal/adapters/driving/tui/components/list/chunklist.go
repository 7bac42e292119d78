// Package list provides list display components for the TUI.
package list

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// ChunkList displays retrieved chunks in a navigable list.
type ChunkList struct {
	chunks   []domain.RetrievedChunk
	selected int
	styles   *styles.Styles
	width    int
	height   int
}

// NewChunkList creates a new chunk list component.
func NewChunkList(s *styles.Styles) *ChunkList {
	if s == nil {
		s = styles.DefaultStyles()
	}

	return &ChunkList{
		styles: s,
		width:  80,
		height: 10,
	}
}

// Init initialises the list.
func (r *ChunkList) Init() tea.Cmd {
	return nil
}

// Update handles list navigation messages.
func (r *ChunkList) Update(msg tea.Msg) (*ChunkList, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "up", "k":
			r.MoveUp()
		case "down", "j":
			r.MoveDown()
		}
	}
	return r, nil
}

// View renders the list.
func (r *ChunkList) View() string {
	if len(r.chunks) == 0 {
		return r.styles.Muted.Render("No course material matched")
	}

	lines := make([]string, 0, len(r.chunks)+2)

	header := r.styles.Subtitle.Render(fmt.Sprintf("Context (%d chunks)", len(r.chunks)))
	lines = append(lines, header, "")

	// Each chunk takes two lines plus a spacer.
	visibleCount := (r.height - 4) / 3
	if visibleCount < 1 {
		visibleCount = 1
	}

	start := 0
	if r.selected >= visibleCount {
		start = r.selected - visibleCount + 1
	}
	end := min(start+visibleCount, len(r.chunks))

	for i := start; i < end; i++ {
		lines = append(lines, r.renderChunk(i, &r.chunks[i]))
	}

	return strings.Join(lines, "\n")
}

// renderChunk formats one chunk with its provenance and a text preview.
func (r *ChunkList) renderChunk(index int, chunk *domain.RetrievedChunk) string {
	indicator := "  "
	if index == r.selected {
		indicator = "> "
	}

	title := chunk.DocumentTitle
	if title == "" {
		title = chunk.DocumentID
	}
	title = fmt.Sprintf("%s #%d", title, chunk.ChunkIndex)

	maxTitleLen := r.width - 20
	if maxTitleLen < 10 {
		maxTitleLen = 10
	}
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	score := fmt.Sprintf("%.2f", chunk.Similarity)

	var titleLine string
	if index == r.selected {
		titleLine = r.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, maxTitleLen, title, score))
	} else {
		titleLine = r.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, maxTitleLen, title)) +
			r.styles.Muted.Render(score)
	}

	preview := strings.Join(strings.Fields(chunk.Text), " ")
	maxPreviewLen := r.width - 6
	if maxPreviewLen < 20 {
		maxPreviewLen = 20
	}
	if len(preview) > maxPreviewLen {
		preview = preview[:maxPreviewLen-3] + "..."
	}

	return titleLine + "\n" + r.styles.Muted.Render("    "+preview)
}

// SetChunks replaces the list contents.
func (r *ChunkList) SetChunks(chunks []domain.RetrievedChunk) {
	r.chunks = chunks
	r.selected = 0
}

// Chunks returns the current chunks.
func (r *ChunkList) Chunks() []domain.RetrievedChunk {
	return r.chunks
}

// Selected returns the index of the selected chunk.
func (r *ChunkList) Selected() int {
	return r.selected
}

// SelectedChunk returns the selected chunk, or nil if none.
func (r *ChunkList) SelectedChunk() *domain.RetrievedChunk {
	if len(r.chunks) == 0 || r.selected < 0 || r.selected >= len(r.chunks) {
		return nil
	}
	return &r.chunks[r.selected]
}

// MoveUp moves selection up.
func (r *ChunkList) MoveUp() {
	if r.selected > 0 {
		r.selected--
	}
}

// MoveDown moves selection down.
func (r *ChunkList) MoveDown() {
	if r.selected < len(r.chunks)-1 {
		r.selected++
	}
}

// SetDimensions sets the component dimensions.
func (r *ChunkList) SetDimensions(width, height int) {
	r.width = width
	r.height = height
}

// Count returns the number of chunks.
func (r *ChunkList) Count() int {
	return len(r.chunks)
}
