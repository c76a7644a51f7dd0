package schema

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
)

const wordNS = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"

const mainPart = "word/document.xml"

// Scan is the result of reading the tags of a document.
type Scan struct {
	// Placeholders are the scalar tag names, sorted and de-duplicated.
	Placeholders []string
	// Loops are the names opened with {#name}, sorted and de-duplicated.
	Loops []string
	// Issues are structural problems; a non-empty list makes the document
	// unusable for generation.
	Issues []Issue
}

// ExtractPlaceholders returns the placeholder names used in a .docx
// document. Loop markers ({#name}, {/name}) are not placeholders. Malformed
// tag structure is reported as a *DocumentError.
func ExtractPlaceholders(doc []byte) ([]string, error) {
	s, err := ScanDocument(doc)
	if err != nil {
		return nil, err
	}
	return s.Placeholders, nil
}

// ScanDocument reads every text part of a .docx archive and scans it for
// tags. The returned error is a *DocumentError when tags are malformed and
// wraps ErrDocumentUnreadable when the archive itself cannot be read.
func ScanDocument(doc []byte) (*Scan, error) {
	text, err := DocumentText(doc)
	if err != nil {
		return nil, err
	}
	s := ScanText(text)
	if len(s.Issues) > 0 {
		return nil, &DocumentError{Issues: s.Issues}
	}
	return s, nil
}

// DocumentText returns the text content of the main document body followed
// by headers, footers, footnotes and endnotes. Runs are concatenated within a
// paragraph so a tag split across formatting runs is recovered; paragraphs
// are separated by newlines.
func DocumentText(doc []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		return "", fmt.Errorf("open archive: %w: %w", ErrDocumentUnreadable, err)
	}

	var main *zip.File
	var extra []*zip.File
	for _, f := range zr.File {
		switch {
		case f.Name == mainPart:
			main = f
		case isSecondaryPart(f.Name):
			extra = append(extra, f)
		}
	}
	if main == nil {
		return "", fmt.Errorf("%s not found: %w", mainPart, ErrDocumentUnreadable)
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Name < extra[j].Name })

	var sb strings.Builder
	for _, f := range append([]*zip.File{main}, extra...) {
		if err := partText(f, &sb); err != nil {
			return "", fmt.Errorf("read %s: %w: %w", f.Name, ErrDocumentUnreadable, err)
		}
	}
	return sb.String(), nil
}

func isSecondaryPart(name string) bool {
	dir, base := path.Split(name)
	if dir != "word/" || path.Ext(base) != ".xml" {
		return false
	}
	for _, p := range []string{"header", "footer", "footnotes", "endnotes"} {
		if strings.HasPrefix(base, p) {
			return true
		}
	}
	return false
}

func isWord(n xml.Name) bool {
	return n.Space == wordNS || n.Space == "w"
}

func partText(f *zip.File, sb *strings.Builder) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	dec := xml.NewDecoder(rc)
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			if !isWord(el.Name) {
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			}
		case xml.EndElement:
			if !isWord(el.Name) {
				continue
			}
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(el)
			}
		}
	}
}

type openLoop struct {
	name   string
	offset int
}

// ScanText finds {tag} occurrences in text. Tags cannot nest and cannot span
// paragraphs. Tag contents are trimmed; {#name} opens a loop and {/name}
// closes it.
func ScanText(text string) *Scan {
	s := &Scan{}
	placeholders := map[string]struct{}{}
	loops := map[string]struct{}{}
	var stack []openLoop

	start := -1
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '{':
			if start >= 0 {
				s.Issues = append(s.Issues, Issue{Kind: IssueUnclosedTag, Tag: text[start:i], Offset: start})
			}
			start = i
		case '\n':
			if start >= 0 {
				s.Issues = append(s.Issues, Issue{Kind: IssueUnclosedTag, Tag: text[start:i], Offset: start})
				start = -1
			}
		case '}':
			if start < 0 {
				s.Issues = append(s.Issues, Issue{Kind: IssueUnopenedTag, Tag: "}", Offset: i})
				continue
			}
			tag := strings.TrimSpace(text[start+1 : i])
			offset := start
			start = -1
			switch {
			case tag == "":
			case tag[0] == '#':
				name := strings.TrimSpace(tag[1:])
				stack = append(stack, openLoop{name: name, offset: offset})
				loops[name] = struct{}{}
			case tag[0] == '/':
				name := strings.TrimSpace(tag[1:])
				if len(stack) == 0 {
					s.Issues = append(s.Issues, Issue{Kind: IssueUnopenedLoop, Tag: name, Offset: offset})
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				if top.name != name {
					s.Issues = append(s.Issues, Issue{Kind: IssueMismatchedLoop, Tag: name, Expected: top.name, Offset: offset})
				}
			default:
				placeholders[tag] = struct{}{}
			}
		}
	}
	if start >= 0 {
		s.Issues = append(s.Issues, Issue{Kind: IssueUnclosedTag, Tag: text[start:], Offset: start})
	}
	for _, l := range stack {
		s.Issues = append(s.Issues, Issue{Kind: IssueUnclosedLoop, Tag: l.name, Offset: l.offset})
	}

	s.Placeholders = sortedKeys(placeholders)
	s.Loops = sortedKeys(loops)
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
