package cli

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Manage uploaded documents",
	Long:  `List, view, delete, or reprocess uploaded course documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentChunksCmd = &cobra.Command{
	Use:   "chunks [doc-id]",
	Short: "Print a document's chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentChunks,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document",
	Long:  `Removes a document with its chunks, embeddings and stored file.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

var documentReprocessCmd = &cobra.Command{
	Use:   "reprocess [doc-id]",
	Short: "Run the pipeline again from the start",
	Long: `Resets an indexed or failed document to 'uploaded', drops its chunks and
embeddings, and processes it again.`,
	Args: cobra.ExactArgs(1),
	RunE: runDocumentReprocess,
}

// List filters.
var (
	listModule  string
	listTeacher string
	listStatus  string
)

func init() {
	documentListCmd.Flags().StringVarP(&listModule, "module", "m", "", "filter by module")
	documentListCmd.Flags().StringVarP(&listTeacher, "teacher", "t", "", "filter by teacher")
	documentListCmd.Flags().StringVarP(&listStatus, "status", "s", "", "filter by processing status")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentChunksCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	documentCmd.AddCommand(documentReprocessCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	filter := domain.DocumentFilter{ModuleID: listModule, TeacherID: listTeacher}
	if listStatus != "" {
		status := domain.ProcessingStatus(listStatus)
		if !status.IsValid() {
			return fmt.Errorf("unknown status %q", listStatus)
		}
		filter.Statuses = []domain.ProcessingStatus{status}
	}

	docs, err := documentService.List(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if wantJSON() {
		views := make([]documentJSON, 0, len(docs))
		for i := range docs {
			views = append(views, toDocumentJSON(&docs[i]))
		}
		return printJSON(cmd, views)
	}

	if len(docs) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range docs {
		cmd.Printf("  %s  %s\n", docs[i].ID, styledStatus(docs[i].Status))
		cmd.Printf("    Title:  %s\n", docs[i].Title)
		cmd.Printf("    Module: %s\n", docs[i].ModuleID)
		if docs[i].IsTestBank {
			cmd.Printf("    %s\n", dimStyle.Render("question bank"))
		}
		cmd.Println()
	}

	cmd.Printf("Total: %d documents\n", len(docs))
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, toDocumentJSON(doc))
	}

	cmd.Printf("Document: %s\n\n", doc.ID)
	cmd.Printf("  Title:     %s\n", doc.Title)
	cmd.Printf("  File:      %s (%s)\n", doc.FileName, doc.FileType)
	cmd.Printf("  Teacher:   %s\n", doc.TeacherID)
	cmd.Printf("  Module:    %s\n", doc.ModuleID)
	cmd.Printf("  Status:    %s\n", styledStatus(doc.Status))
	cmd.Printf("  Test bank: %t\n", doc.IsTestBank)
	cmd.Printf("  Uploaded:  %s\n", doc.UploadedAt.Format("2006-01-02 15:04:05"))
	cmd.Printf("  Updated:   %s\n", doc.UpdatedAt.Format("2006-01-02 15:04:05"))

	if len(doc.Metadata) > 0 {
		cmd.Println("\n  Metadata:")
		keys := make([]string, 0, len(doc.Metadata))
		for k := range doc.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			cmd.Printf("    %s: %v\n", k, doc.Metadata[k])
		}
	}

	return nil
}

func runDocumentChunks(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	chunks, err := documentService.Chunks(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get chunks: %w", err)
	}

	if wantJSON() {
		return printJSON(cmd, chunks)
	}

	if len(chunks) == 0 {
		cmd.Println("Document has no chunks.")
		return nil
	}
	for i := range chunks {
		cmd.Println(dimStyle.Render(fmt.Sprintf("--- chunk %d [%d:%d] %d chars ---",
			chunks[i].Index, chunks[i].Start, chunks[i].End, chunks[i].Size)))
		cmd.Println(chunks[i].Text)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errors.New("document service not configured")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	cmd.Printf("Document %s deleted.\n", args[0])
	return nil
}

func runDocumentReprocess(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errors.New("ingest service not configured")
	}

	cmd.Printf("Reprocessing document %s...\n", args[0])

	doc, err := ingestService.Reprocess(cmd.Context(), args[0])
	if doc == nil {
		return fmt.Errorf("failed to reprocess document: %w", err)
	}

	cmd.Printf("Document %s is %s.\n", doc.ID, styledStatus(doc.Status))
	if err != nil {
		return fmt.Errorf("reprocessing stopped: %w", err)
	}
	return nil
}

// documentJSON is the machine-readable form of a document.
type documentJSON struct {
	ID         string                    `json:"id"`
	Title      string                    `json:"title"`
	FileName   string                    `json:"file_name"`
	FileType   domain.FileType           `json:"file_type"`
	TeacherID  string                    `json:"teacher_id"`
	ModuleID   string                    `json:"module_id"`
	IsTestBank bool                      `json:"is_test_bank"`
	Status     domain.ProcessingStatus   `json:"status"`
	Metadata   domain.ProcessingMetadata `json:"metadata"`
	UploadedAt string                    `json:"uploaded_at"`
}

func toDocumentJSON(doc *domain.Document) documentJSON {
	return documentJSON{
		ID:         doc.ID,
		Title:      doc.Title,
		FileName:   doc.FileName,
		FileType:   doc.FileType,
		TeacherID:  doc.TeacherID,
		ModuleID:   doc.ModuleID,
		IsTestBank: doc.IsTestBank,
		Status:     doc.Status,
		Metadata:   doc.Metadata,
		UploadedAt: doc.UploadedAt.Format(time.RFC3339),
	}
}
