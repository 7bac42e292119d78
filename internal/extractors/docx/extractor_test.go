package docx

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/All-Pilot-Modules/ai-pilot/internal/core/domain"
)

// createTestDOCX creates a minimal valid DOCX file in memory.
func createTestDOCX(documentXML, coreXML string) []byte {
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)

	contentTypes, _ := w.Create("[Content_Types].xml")
	contentTypes.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="xml" ContentType="application/xml"/>
</Types>`))

	if documentXML != "" {
		doc, _ := w.Create("word/document.xml")
		doc.Write([]byte(documentXML))
	}

	if coreXML != "" {
		core, _ := w.Create("docProps/core.xml")
		core.Write([]byte(coreXML))
	}

	w.Close()
	return buf.Bytes()
}

func TestSupportedTypes(t *testing.T) {
	e := New()
	assert.ElementsMatch(t, []domain.FileType{domain.FileTypeDOCX, domain.FileTypeDOC}, e.SupportedTypes())
	assert.Equal(t, 50, e.Priority())
}

func TestExtract_Success(t *testing.T) {
	docXML := `<?xml version="1.0" encoding="UTF-8"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:r><w:t>Photosynthesis converts light into energy.</w:t></w:r></w:p>
<w:p><w:r><w:t>   </w:t></w:r></w:p>
<w:p><w:r><w:t xml:space="preserve">Chlorophyll </w:t></w:r><w:r><w:t>absorbs red light.</w:t></w:r></w:p>
</w:body>
</w:document>`

	coreXML := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Biology 101</dc:title>
</cp:coreProperties>`

	result, err := New().Extract(context.Background(), createTestDOCX(docXML, coreXML))
	require.NoError(t, err)

	assert.Equal(t, "Photosynthesis converts light into energy.\n\nChlorophyll absorbs red light.", result.Text)
	assert.Equal(t, 2, result.Metadata["paragraphs"])
	assert.Equal(t, "Biology 101", result.Metadata["title"])
	assert.Equal(t, domain.ExtractionStandard, result.Method)
}

func TestExtract_NoTitle(t *testing.T) {
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body><w:p><w:r><w:t>Content</w:t></w:r></w:p></w:body>
</w:document>`

	result, err := New().Extract(context.Background(), createTestDOCX(docXML, ""))
	require.NoError(t, err)
	assert.Equal(t, "Content", result.Text)
	assert.NotContains(t, result.Metadata, "title")
}

func TestExtract_EmptyDocument(t *testing.T) {
	docXML := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body/></w:document>`

	result, err := New().Extract(context.Background(), createTestDOCX(docXML, ""))
	require.NoError(t, err)
	assert.Empty(t, result.Text)
	assert.Equal(t, 0, result.Metadata["paragraphs"])
}

func TestExtract_InvalidZip(t *testing.T) {
	result, err := New().Extract(context.Background(), []byte("not a zip file"))
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestExtract_MissingDocumentPart(t *testing.T) {
	result, err := New().Extract(context.Background(), createTestDOCX("", ""))
	assert.Error(t, err)
	assert.Nil(t, result)
}
