package pdf

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// buildPDF writes a minimal single-font PDF with one page per string.
func buildPDF(pages ...string) []byte {
	var objects []string
	pageCount := len(pages)
	fontObj := 3 + 2*pageCount

	kids := new(bytes.Buffer)
	for i := range pages {
		fmt.Fprintf(kids, "%d 0 R ", 3+2*i)
	}

	objects = append(objects,
		"<< /Type /Catalog /Pages 2 0 R >>",
		fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), pageCount),
	)
	for i, text := range pages {
		stream := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents %d 0 R /Resources << /Font << /F1 %d 0 R >> >> >>", 4+2*i, fontObj),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		)
	}
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	buf := new(bytes.Buffer)
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestSupportedTypes(t *testing.T) {
	e := New()
	assert.Equal(t, []domain.FileType{domain.FileTypePDF}, e.SupportedTypes())
	assert.Equal(t, 50, e.Priority())
}

func TestExtract_Pages(t *testing.T) {
	result, err := New().Extract(context.Background(), buildPDF("Newton first law", "Newton second law"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Metadata["pages"])
	pageTexts, ok := result.Metadata["page_texts"].([]string)
	require.True(t, ok)
	require.Len(t, pageTexts, 2)
	assert.Contains(t, pageTexts[0], "Newton first law")
	assert.Contains(t, pageTexts[1], "Newton second law")

	assert.Contains(t, result.Text, "--- Page 1 ---\n")
	assert.Contains(t, result.Text, "\n--- Page 2 ---\n")
	assert.Less(t, bytes.Index([]byte(result.Text), []byte("first")), bytes.Index([]byte(result.Text), []byte("second")))
	assert.Equal(t, domain.ExtractionStandard, result.Method)
}

func TestExtract_NotAPDF(t *testing.T) {
	result, err := New().Extract(context.Background(), []byte("this is not a pdf"))
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestExtract_Truncated(t *testing.T) {
	content := buildPDF("some text")
	result, err := New().Extract(context.Background(), content[:len(content)/2])
	assert.Error(t, err)
	assert.Nil(t, result)
}
