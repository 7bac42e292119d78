// Package ooxml reads parts out of Office Open XML packages (docx, pptx).
package ooxml

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrPartNotFound is returned when a package has no part with the given name.
var ErrPartNotFound = errors.New("part not found")

// Package is an opened OOXML zip archive.
type Package struct {
	zr *zip.Reader
}

// Open opens content as a zip archive.
func Open(content []byte) (*Package, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	return &Package{zr: zr}, nil
}

// Has reports whether the package contains a part named name.
func (p *Package) Has(name string) bool {
	return p.find(name) != nil
}

// Read returns the bytes of the named part.
func (p *Package) Read(name string) ([]byte, error) {
	f := p.find(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrPartNotFound, name)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return data, nil
}

// Names returns the names of all parts in archive order.
func (p *Package) Names() []string {
	names := make([]string, 0, len(p.zr.File))
	for _, f := range p.zr.File {
		names = append(names, f.Name)
	}
	return names
}

func (p *Package) find(name string) *zip.File {
	for _, f := range p.zr.File {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// coreProperties is docProps/core.xml.
type coreProperties struct {
	Title string `xml:"title"`
}

// Title returns the dc:title from docProps/core.xml, or "" when absent.
func (p *Package) Title() string {
	data, err := p.Read("docProps/core.xml")
	if err != nil {
		return ""
	}
	var core coreProperties
	if err := xml.Unmarshal(data, &core); err != nil {
		return ""
	}
	return core.Title
}

// Paragraphs walks an XML part and returns the text of each paragraph
// element (local name "p"), concatenating its text runs (local name "t").
// Word and DrawingML share this shape under different namespaces.
func Paragraphs(data []byte) ([]string, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		paragraphs []string
		current    bytes.Buffer
		depth      int
		props      int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse xml: %w", err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "p":
				if depth == 0 {
					current.Reset()
				}
				depth++
			case "t":
				var text string
				if err := dec.DecodeElement(&text, &el); err != nil {
					return nil, fmt.Errorf("parse text run: %w", err)
				}
				current.WriteString(text)
			case "pPr":
				props++
			case "tab":
				if props == 0 {
					current.WriteByte('\t')
				}
			case "br":
				current.WriteByte('\n')
			}
		case xml.EndElement:
			if el.Name.Local == "pPr" && props > 0 {
				props--
			}
			if el.Name.Local == "p" && depth > 0 {
				depth--
				if depth == 0 {
					paragraphs = append(paragraphs, current.String())
				}
			}
		}
	}
	return paragraphs, nil
}
