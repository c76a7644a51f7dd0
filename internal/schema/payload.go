package schema

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/models"
)

// DocxMIME is the media type written into data-URL payload headers.
const DocxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// DecodePayload turns a WordFile.Data value into raw document bytes. An
// optional "data:<mime>;base64," header is stripped first. Padded and unpadded
// base64 are both accepted.
func DecodePayload(data string) ([]byte, error) {
	s := strings.TrimSpace(data)
	if strings.HasPrefix(s, "data:") {
		i := strings.IndexByte(s, ',')
		if i < 0 {
			return nil, fmt.Errorf("payload has a data-URL header without data: %w", ErrDocumentUnreadable)
		}
		s = s[i+1:]
	}
	if s == "" {
		return nil, ErrNoDocument
	}
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == ' ' || r == '\t' {
			return -1
		}
		return r
	}, s)

	b, err := base64.StdEncoding.DecodeString(s)
	if err == nil {
		return b, nil
	}
	if b, rawErr := base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "=")); rawErr == nil {
		return b, nil
	}
	return nil, fmt.Errorf("decode payload: %w: %w", ErrDocumentUnreadable, err)
}

// EncodePayload builds a WordFile with a data-URL encoded payload.
func EncodePayload(name string, doc []byte) *models.WordFile {
	return &models.WordFile{
		Name: name,
		Data: "data:" + DocxMIME + ";base64," + base64.StdEncoding.EncodeToString(doc),
	}
}

// TemplateDocument decodes the document attached to t.
func TemplateDocument(t *models.Template) ([]byte, error) {
	if t == nil || !t.HasDocument() {
		return nil, ErrNoDocument
	}
	return DecodePayload(t.WordFile.Data)
}
