package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestUpload_Fields tests Upload structure fields
func TestUpload_Fields(t *testing.T) {
	up := Upload{
		Title:       "Week 1",
		FileName:    "week1.pdf",
		FileType:    FileTypePDF,
		Content:     []byte("%PDF"),
		TeacherID:   "teacher-1",
		ModuleID:    "bio-101",
		StoragePath: "/uploads/week1.pdf",
		IsTestBank:  true,
	}

	assert.Equal(t, "Week 1", up.Title)
	assert.Equal(t, FileTypePDF, up.FileType)
	assert.Equal(t, FileTypePDF, FileTypeFromName(up.FileName))
	assert.Equal(t, []byte("%PDF"), up.Content)
	assert.True(t, up.IsTestBank)
}

// TestUpload_EmptyContent tests Upload with no bytes
func TestUpload_EmptyContent(t *testing.T) {
	up := Upload{FileName: "notes.txt"}

	assert.Nil(t, up.Content)
	assert.Empty(t, up.FileType)
	assert.False(t, up.IsTestBank)
}

func TestExtractionMethod_Values(t *testing.T) {
	assert.Equal(t, ExtractionMethod("standard"), ExtractionStandard)
	assert.Equal(t, ExtractionMethod("ai_assisted"), ExtractionAIAssisted)
}

func TestExtraction_Metadata(t *testing.T) {
	ext := Extraction{
		Text:     "Cells divide.",
		Metadata: map[string]any{"pages": 1},
		Method:   ExtractionStandard,
	}

	assert.Equal(t, 1, ext.Metadata["pages"])
	assert.Equal(t, ExtractionStandard, ext.Method)
	assert.False(t, ExtractOptions{}.Assisted)
}
