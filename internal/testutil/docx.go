// Package testutil builds in-memory Word documents and template fixtures for
// package tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"strings"
	"testing"
)

const docHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` +
	`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docFooter = `</w:body></w:document>`

// Paragraph is one w:p made of runs. Each run becomes a separate w:r/w:t, so
// a tag can be split across runs the way Word does after editing.
type Paragraph []string

// P is shorthand for a paragraph.
func P(runs ...string) Paragraph {
	return Paragraph(runs)
}

// DocumentXML renders paragraphs as a WordprocessingML body.
func DocumentXML(paragraphs ...Paragraph) string {
	var sb strings.Builder
	sb.WriteString(docHeader)
	for _, p := range paragraphs {
		sb.WriteString("<w:p>")
		for _, run := range p {
			sb.WriteString(`<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">`)
			_ = xml.EscapeText(&sb, []byte(run))
			sb.WriteString("</w:t></w:r>")
		}
		sb.WriteString("</w:p>")
	}
	sb.WriteString(docFooter)
	return sb.String()
}

// Docx returns a minimal .docx archive whose body holds the paragraphs.
func Docx(tb testing.TB, paragraphs ...Paragraph) []byte {
	tb.Helper()
	return Archive(tb, map[string]string{"word/document.xml": DocumentXML(paragraphs...)})
}

// Archive zips the given parts. [Content_Types].xml is added when missing.
func Archive(tb testing.TB, parts map[string]string) []byte {
	tb.Helper()
	if _, ok := parts["[Content_Types].xml"]; !ok {
		parts["[Content_Types].xml"] = `<?xml version="1.0" encoding="UTF-8"?><Types/>`
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		w, err := zw.Create(name)
		if err != nil {
			tb.Fatalf("zip create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			tb.Fatalf("zip write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		tb.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}
