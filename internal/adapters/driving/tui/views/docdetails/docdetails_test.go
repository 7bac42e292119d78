package docdetails

import (
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/messages"
	"github.com/All-Pilot-Modules/ai-pilot/internal/adapters/driving/tui/styles"
	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

func failedReport() *domain.StatusReport {
	return &domain.StatusReport{
		DocumentID: "doc-1",
		Status:     domain.StatusFailed,
		HasError:   true,
		UploadedAt: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
		Metadata: domain.ProcessingMetadata{
			"error":      "no readable text",
			"error_type": "ExtractionFailed",
			"file_size":  2048,
		},
	}
}

func TestNewView(t *testing.T) {
	v := NewView(styles.DefaultStyles())

	require.NotNil(t, v)
	assert.Nil(t, v.Report())
	assert.Nil(t, v.Init())
}

func TestView_View_NoReport(t *testing.T) {
	v := NewView(styles.DefaultStyles())
	v.SetDimensions(80, 24)

	assert.Contains(t, v.View(), "No status available")
}

func TestView_View_Report(t *testing.T) {
	v := NewView(styles.DefaultStyles())
	v.SetDimensions(100, 40)
	v.SetReport(failedReport())

	out := v.View()
	assert.Contains(t, out, "Processing Status")
	assert.Contains(t, out, "doc-1")
	assert.Contains(t, out, "failed")
	assert.Contains(t, out, "2026-03-01 09:30:00")
	assert.Contains(t, out, "Metadata:")
	assert.Contains(t, out, "no readable text")
	assert.Contains(t, out, "ExtractionFailed")
}

func TestView_BuildContent_SortedMetadata(t *testing.T) {
	v := NewView(styles.DefaultStyles())
	v.SetReport(failedReport())

	lines := v.buildContent()
	require.GreaterOrEqual(t, len(lines), 8)
	tail := lines[len(lines)-3:]
	assert.Equal(t, "  error: no readable text", tail[0])
	assert.Equal(t, "  error_type: ExtractionFailed", tail[1])
	assert.Equal(t, "  file_size: 2048", tail[2])
}

func TestView_Error(t *testing.T) {
	v := NewView(styles.DefaultStyles())
	v.SetDimensions(80, 24)

	v.Update(messages.ErrorOccurred{Err: errors.New("not found")})
	assert.EqualError(t, v.Err(), "not found")
	assert.Contains(t, v.View(), "Error: not found")

	v.SetReport(failedReport())
	assert.NoError(t, v.Err())
}

func TestView_Scroll(t *testing.T) {
	v := NewView(styles.DefaultStyles())
	v.SetDimensions(80, 8)
	v.SetReport(failedReport())

	v.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 0, v.scrollOffset)

	for range 20 {
		v.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	assert.Equal(t, v.maxScrollOffset(), v.scrollOffset)
	assert.Positive(t, v.scrollOffset)
}

func TestView_EscGoesToDocuments(t *testing.T) {
	v := NewView(styles.DefaultStyles())

	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, messages.ViewChanged{View: messages.ViewDocuments}, cmd())
}
