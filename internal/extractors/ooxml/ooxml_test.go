package ooxml

import (
	"archive/zip"
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildArchive(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	w := zip.NewWriter(buf)
	for name, body := range parts {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestOpen_InvalidArchive(t *testing.T) {
	_, err := Open([]byte("not a zip"))
	assert.Error(t, err)
}

func TestPackage_Read(t *testing.T) {
	pkg, err := Open(buildArchive(t, map[string]string{"word/document.xml": "<doc/>"}))
	require.NoError(t, err)

	assert.True(t, pkg.Has("word/document.xml"))
	assert.False(t, pkg.Has("word/missing.xml"))

	data, err := pkg.Read("word/document.xml")
	require.NoError(t, err)
	assert.Equal(t, "<doc/>", string(data))

	_, err = pkg.Read("word/missing.xml")
	assert.ErrorIs(t, err, ErrPartNotFound)
}

func TestPackage_Title(t *testing.T) {
	core := `<?xml version="1.0" encoding="UTF-8"?>
<cp:coreProperties xmlns:cp="http://schemas.openxmlformats.org/package/2006/metadata/core-properties"
xmlns:dc="http://purl.org/dc/elements/1.1/">
<dc:title>Week 3 Notes</dc:title>
</cp:coreProperties>`

	pkg, err := Open(buildArchive(t, map[string]string{"docProps/core.xml": core}))
	require.NoError(t, err)
	assert.Equal(t, "Week 3 Notes", pkg.Title())

	empty, err := Open(buildArchive(t, map[string]string{"x.xml": "<x/>"}))
	require.NoError(t, err)
	assert.Empty(t, empty.Title())
}

func TestParagraphs(t *testing.T) {
	xmlDoc := `<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
<w:body>
<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/></w:tabs></w:pPr><w:r><w:t>Hello </w:t></w:r><w:r><w:t>World</w:t></w:r></w:p>
<w:p></w:p>
<w:p><w:r><w:t>A</w:t><w:tab/><w:t>B</w:t></w:r></w:p>
</w:body>
</w:document>`

	paragraphs, err := Paragraphs([]byte(xmlDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"Hello World", "", "A\tB"}, paragraphs)
}

func TestParagraphs_Malformed(t *testing.T) {
	_, err := Paragraphs([]byte("<w:p><w:t>unterminated"))
	assert.Error(t, err)
}
