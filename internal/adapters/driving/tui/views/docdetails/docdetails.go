// Package docdetails provides the document status view component for the TUI.
package docdetails

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/messages"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// View shows a document's status report.
type View struct {
	styles *styles.Styles

	report       *domain.StatusReport
	scrollOffset int
	width        int
	height       int
	ready        bool
	err          error
}

// NewView creates a new document status view.
func NewView(s *styles.Styles) *View {
	return &View{
		styles: s,
	}
}

// SetReport sets the report to display.
func (v *View) SetReport(report *domain.StatusReport) {
	v.report = report
	v.scrollOffset = 0
	v.err = nil
}

// SetError sets an error to display.
func (v *View) SetError(err error) {
	v.err = err
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return nil
}

// Update handles messages for the view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

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
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	}

	return v, nil
}

// visibleLines returns the number of lines that can be displayed.
func (v *View) visibleLines() int {
	// Reserve lines for title, separator, help, and padding
	return max(v.height-6, 1)
}

// maxScrollOffset returns the maximum scroll offset.
func (v *View) maxScrollOffset() int {
	return max(len(v.buildContent())-v.visibleLines(), 0)
}

// buildContent builds the content lines for display.
func (v *View) buildContent() []string {
	if v.report == nil {
		return nil
	}

	lines := []string{
		v.formatField("ID", v.report.DocumentID),
		v.formatField("Status", string(v.report.Status)),
		v.formatField("Ready", fmt.Sprintf("%t", v.report.IsReady)),
		v.formatField("Error", fmt.Sprintf("%t", v.report.HasError)),
	}
	if !v.report.UploadedAt.IsZero() {
		lines = append(lines, v.formatField("Uploaded", v.report.UploadedAt.Format("2006-01-02 15:04:05")))
	}

	if len(v.report.Metadata) > 0 {
		lines = append(lines, "", "Metadata:")

		keys := make([]string, 0, len(v.report.Metadata))
		for k := range v.report.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			value := fmt.Sprintf("%v", v.report.Metadata[key])
			if len(value) > 60 {
				value = value[:57] + "..."
			}
			lines = append(lines, fmt.Sprintf("  %s: %s", key, value))
		}
	}

	return lines
}

// formatField formats a field for display.
func (v *View) formatField(label, value string) string {
	return fmt.Sprintf("%-12s %s", label+":", value)
}

// View renders the status view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render("Processing Status"))
	b.WriteString("\n")
	b.WriteString(strings.Repeat("─", max(min(v.width-4, 60), 0)))
	b.WriteString("\n\n")

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.report == nil {
		b.WriteString(v.styles.Muted.Render("No status available"))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	lines := v.buildContent()
	visibleLines := v.visibleLines()
	for i := v.scrollOffset; i < len(lines) && i < v.scrollOffset+visibleLines; i++ {
		b.WriteString(v.renderLine(lines[i]))
		b.WriteString("\n")
	}

	if len(lines) > visibleLines {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [Line %d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleLines, len(lines)),
			len(lines))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderLine styles one content line.
func (v *View) renderLine(line string) string {
	switch {
	case line == "Metadata:":
		return v.styles.Subtitle.Render(line)
	case strings.HasPrefix(line, "  "):
		key, value, _ := strings.Cut(line, ":")
		if strings.HasSuffix(key, "error") {
			return v.styles.Muted.Render(key+":") + v.styles.Error.Render(value)
		}
		return v.styles.Muted.Render(key+":") + v.styles.Normal.Render(value)
	case strings.HasPrefix(line, "Status:"):
		return v.styles.Subtitle.Render("Status:") +
			v.styles.Status(v.report.Status).Render(strings.TrimPrefix(line, "Status:"))
	default:
		label, value, ok := strings.Cut(line, ":")
		if !ok {
			return v.styles.Normal.Render(line)
		}
		return v.styles.Subtitle.Render(label+":") + v.styles.Normal.Render(value)
	}
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] scroll  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Report returns the current report.
func (v *View) Report() *domain.StatusReport {
	return v.report
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
