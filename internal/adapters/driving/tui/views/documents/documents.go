// Package documents provides the documents list view component for the TUI.
package documents

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

// ErrNoDocumentService is returned when the view has no document service.
var ErrNoDocumentService = errors.New("document service not available")

// ActionOption represents a document action.
type ActionOption int

const (
	ActionShowChunks ActionOption = iota
	ActionShowStatus
	ActionAsk
	ActionReprocess
	ActionDelete
	ActionCancel
)

// View is the documents list view.
type View struct {
	styles          *styles.Styles
	documentService driving.DocumentService
	statusService   driving.StatusService
	ingestService   driving.IngestService
	ctx             context.Context

	filter       domain.DocumentFilter
	documents    []domain.Document
	selected     int
	width        int
	height       int
	ready        bool
	err          error
	notice       string
	loading      bool
	showingMenu  bool
	menuSelected ActionOption
	scrollOffset int
}

// NewView creates a new documents view. status and ingest may be nil.
func NewView(
	s *styles.Styles,
	documentService driving.DocumentService,
	statusService driving.StatusService,
	ingestService driving.IngestService,
) *View {
	return &View{
		styles:          s,
		documentService: documentService,
		statusService:   statusService,
		ingestService:   ingestService,
		ctx:             context.Background(),
		documents:       []domain.Document{},
	}
}

// WithContext sets the context used for service calls.
func (v *View) WithContext(ctx context.Context) *View {
	v.ctx = ctx
	return v
}

// SetFilter sets the list filter. It takes effect on the next load.
func (v *View) SetFilter(filter domain.DocumentFilter) {
	v.filter = filter
}

// Init loads the documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.showingMenu = false
	return v.loadDocuments()
}

// loadDocuments returns a command that lists documents.
func (v *View) loadDocuments() tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentsLoaded{Err: ErrNoDocumentService}
		}

		docs, err := v.documentService.List(v.ctx, v.filter)
		return messages.DocumentsLoaded{Documents: docs, Err: err}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.ready = true
		return v, nil

	case tea.KeyMsg:
		if v.showingMenu {
			return v.handleMenuKeyMsg(msg)
		}
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.documents = msg.Documents
		v.err = nil
		if v.selected >= len(v.documents) {
			v.selected = max(len(v.documents)-1, 0)
		}
		v.adjustScroll()
		return v, nil

	case messages.DocumentDeleted:
		if msg.Err != nil {
			v.err = msg.Err
			return v, nil
		}
		v.notice = fmt.Sprintf("Deleted %s", msg.DocumentID)
		return v, v.loadDocuments()

	case messages.DocumentReprocessed:
		if msg.Document != nil {
			v.notice = fmt.Sprintf("%s is %s", msg.DocumentID, msg.Document.Status)
		}
		if msg.Err != nil {
			v.err = msg.Err
		}
		return v, v.loadDocuments()

	case messages.ErrorOccurred:
		v.err = msg.Err
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in list mode.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case "down", "j":
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case "enter":
		if len(v.documents) > 0 {
			v.showingMenu = true
			v.menuSelected = ActionShowChunks
		}
	case "esc":
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewMenu}
		}
	case "r":
		v.loading = true
		v.err = nil
		v.notice = ""
		return v, v.loadDocuments()
	}

	return v, nil
}

// handleMenuKeyMsg handles key presses in action menu mode.
func (v *View) handleMenuKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if v.menuSelected > ActionShowChunks {
			v.menuSelected--
		}
	case "down", "j":
		if v.menuSelected < ActionCancel {
			v.menuSelected++
		}
	case "enter":
		return v.handleMenuSelect()
	case "esc":
		v.showingMenu = false
	}

	return v, nil
}

// handleMenuSelect runs the selected action on the selected document.
func (v *View) handleMenuSelect() (*View, tea.Cmd) {
	v.showingMenu = false
	if v.selected >= len(v.documents) {
		return v, nil
	}

	doc := v.documents[v.selected]
	v.err = nil
	v.notice = ""

	switch v.menuSelected {
	case ActionShowChunks:
		return v, func() tea.Msg {
			return messages.DocumentSelected{Document: doc}
		}
	case ActionShowStatus:
		return v, v.loadStatus(&doc)
	case ActionAsk:
		return v, func() tea.Msg {
			return messages.AskRequested{ModuleID: doc.ModuleID}
		}
	case ActionReprocess:
		v.notice = fmt.Sprintf("Reprocessing %s...", doc.ID)
		return v, v.reprocessDocument(doc.ID)
	case ActionDelete:
		return v, v.deleteDocument(doc.ID)
	case ActionCancel:
	}

	return v, nil
}

// loadStatus returns a command that loads a status report. Without a
// status service the report is built from the listed document.
func (v *View) loadStatus(doc *domain.Document) tea.Cmd {
	return func() tea.Msg {
		if v.statusService == nil {
			return messages.StatusLoaded{DocumentID: doc.ID, Report: domain.NewStatusReport(doc)}
		}
		report, err := v.statusService.Get(v.ctx, doc.ID)
		return messages.StatusLoaded{DocumentID: doc.ID, Report: report, Err: err}
	}
}

// reprocessDocument returns a command that runs the pipeline again.
func (v *View) reprocessDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.ingestService == nil {
			return messages.ErrorOccurred{Err: errors.New("ingest service not available")}
		}
		doc, err := v.ingestService.Reprocess(v.ctx, docID)
		return messages.DocumentReprocessed{DocumentID: docID, Document: doc, Err: err}
	}
}

// deleteDocument returns a command that deletes the document.
func (v *View) deleteDocument(docID string) tea.Cmd {
	return func() tea.Msg {
		if v.documentService == nil {
			return messages.DocumentDeleted{DocumentID: docID, Err: ErrNoDocumentService}
		}
		err := v.documentService.Delete(v.ctx, docID)
		return messages.DocumentDeleted{DocumentID: docID, Err: err}
	}
}

// adjustScroll adjusts the scroll offset to keep the selected item visible.
func (v *View) adjustScroll() {
	visibleItems := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visibleItems {
		v.scrollOffset = v.selected - visibleItems + 1
	}
}

// visibleItemCount returns the number of items that can be displayed.
func (v *View) visibleItemCount() int {
	// Reserve lines for title, notice, help, and padding
	return max(v.height-9, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	title := fmt.Sprintf("Documents (%d)", len(v.documents))
	if v.filter.ModuleID != "" {
		title = fmt.Sprintf("Documents - %s (%d)", v.filter.ModuleID, len(v.documents))
	}
	b.WriteString(v.styles.Title.Render(title))
	b.WriteString("\n\n")

	if v.loading {
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		b.WriteString("\n\n")
	}
	if v.notice != "" {
		b.WriteString(v.styles.Muted.Render(v.notice))
		b.WriteString("\n\n")
	}

	if len(v.documents) == 0 {
		b.WriteString(v.styles.Muted.Render("No documents uploaded yet."))
		b.WriteString("\n\n")
		b.WriteString(v.renderHelp())
		return b.String()
	}

	if v.showingMenu {
		b.WriteString(v.renderActionMenu())
		return b.String()
	}

	visibleItems := v.visibleItemCount()
	for i := v.scrollOffset; i < len(v.documents) && i < v.scrollOffset+visibleItems; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visibleItems {
		b.WriteString("\n")
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1,
			min(v.scrollOffset+visibleItems, len(v.documents)),
			len(v.documents))))
	}

	b.WriteString("\n\n")
	b.WriteString(v.renderHelp())

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	if index == v.selected {
		indicator = "> "
	}

	title := doc.Title
	if title == "" {
		title = doc.FileName
	}
	if doc.IsTestBank {
		title += " [bank]"
	}

	maxTitleLen := max(v.width/2-4, 10)
	if len(title) > maxTitleLen {
		title = title[:maxTitleLen-3] + "..."
	}

	status := fmt.Sprintf("%-10s", doc.Status)

	if index == v.selected {
		return v.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s  %s", indicator, maxTitleLen, title, status, doc.ModuleID))
	}

	return v.styles.Normal.Render(indicator) +
		v.styles.Normal.Render(fmt.Sprintf("%-*s  ", maxTitleLen, title)) +
		v.styles.Status(doc.Status).Render(status) +
		v.styles.Muted.Render("  "+doc.ModuleID)
}

// renderActionMenu renders the action menu overlay.
func (v *View) renderActionMenu() string {
	var b strings.Builder

	if v.selected < len(v.documents) {
		doc := v.documents[v.selected]
		title := doc.Title
		if title == "" {
			title = doc.ID
		}
		b.WriteString(v.styles.Subtitle.Render(fmt.Sprintf("Actions for: %s", title)))
		b.WriteString("\n\n")
	}

	options := []struct {
		action ActionOption
		label  string
	}{
		{ActionShowChunks, "Show Chunks"},
		{ActionShowStatus, "Show Status"},
		{ActionAsk, "Ask This Module"},
		{ActionReprocess, "Reprocess"},
		{ActionDelete, "Delete"},
		{ActionCancel, "Cancel"},
	}

	for _, opt := range options {
		if v.menuSelected == opt.action {
			b.WriteString(v.styles.Selected.Render("> " + opt.label))
		} else {
			b.WriteString(v.styles.Normal.Render("  " + opt.label))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(v.styles.Help.Render("[↑/↓] navigate  [enter] select  [esc] cancel"))

	return b.String()
}

// renderHelp renders the help footer.
func (v *View) renderHelp() string {
	return v.styles.Help.Render("[↑/↓] navigate  [enter] actions  [r] reload  [esc] back")
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.ready = true
}

// Documents returns the current list of documents.
func (v *View) Documents() []domain.Document {
	return v.documents
}

// SelectedIndex returns the currently selected document index.
func (v *View) SelectedIndex() int {
	return v.selected
}

// SelectedDocument returns the currently selected document.
func (v *View) SelectedDocument() *domain.Document {
	if v.selected < len(v.documents) {
		return &v.documents[v.selected]
	}
	return nil
}

// IsShowingMenu returns true if the action menu is visible.
func (v *View) IsShowingMenu() bool {
	return v.showingMenu
}

// Notice returns the last informational message.
func (v *View) Notice() string {
	return v.notice
}

// Err returns the last error.
func (v *View) Err() error {
	return v.err
}
