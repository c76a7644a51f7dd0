// Package packs implements the portable JSON exchange formats: template
// packs, records packs and full backups.
//
// Every envelope carries a version string. The current writer emits
// FormatVersion; readers accept any version and keep it verbatim so a
// decoded envelope re-encodes unchanged.
package packs

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/models"
)

// Type tags the kind of an envelope. Backups carry no type.
type Type string

const (
	TypeTemplate Type = "template"
	TypeRecords  Type = "records"
	TypeBackup   Type = "backup"
)

// Conventional file extensions.
const (
	ExtTemplate = ".templatepack"
	ExtRecords  = ".recordspack"
	ExtBackup   = ".backup"
)

var (
	ErrInvalidPack      = errors.New("invalid pack")
	ErrPackTypeMismatch = errors.New("pack type mismatch")
)

// TemplatePack carries one template including its document payload.
type TemplatePack struct {
	Version    string           `json:"version"`
	Type       Type             `json:"type"`
	ExportedAt string           `json:"exportedAt"`
	Template   *models.Template `json:"template"`
}

// TemplateInfo identifies the template a records pack was exported from.
type TemplateInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PackedRecord is a record reduced to its portable fields.
type PackedRecord struct {
	ID         string                  `json:"id"`
	TemplateID string                  `json:"templateId"`
	Data       map[string]any          `json:"data"`
	Tables     map[string][]models.Row `json:"tables"`
	CreatedAt  string                  `json:"createdAt,omitempty"`
	UpdatedAt  string                  `json:"updatedAt,omitempty"`
}

// RecordsPack carries records of a single template.
type RecordsPack struct {
	Version      string         `json:"version"`
	Type         Type           `json:"type"`
	ExportedAt   string         `json:"exportedAt"`
	TemplateInfo TemplateInfo   `json:"templateInfo"`
	RecordCount  int            `json:"recordCount"`
	Records      []PackedRecord `json:"records"`
}

// Backup is a full snapshot of both collections.
type Backup struct {
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	AppName   string            `json:"appName,omitempty"`
	Templates []models.Template `json:"templates"`
	Records   []models.Record   `json:"records"`
}

func packRecord(r models.Record) PackedRecord {
	return PackedRecord{
		ID:         r.ID,
		TemplateID: r.TemplateID,
		Data:       r.Data,
		Tables:     r.Tables,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func (p PackedRecord) record() *models.Record {
	return &models.Record{
		ID:         p.ID,
		TemplateID: p.TemplateID,
		Data:       p.Data,
		Tables:     p.Tables,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

type header struct {
	Type      Type             `json:"type"`
	Templates *json.RawMessage `json:"templates"`
	Records   *json.RawMessage `json:"records"`
	Timestamp string           `json:"timestamp"`
}

// Detect reports which kind of envelope data holds.
func Detect(data []byte) (Type, error) {
	var h header
	if err := json.Unmarshal(data, &h); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}
	switch h.Type {
	case TypeTemplate, TypeRecords, TypeBackup:
		return h.Type, nil
	case "":
		if h.Templates != nil || h.Records != nil || h.Timestamp != "" {
			return TypeBackup, nil
		}
		return "", fmt.Errorf("%w: missing type", ErrInvalidPack)
	}
	return "", fmt.Errorf("%w: unknown type %q", ErrInvalidPack, h.Type)
}

func expect(data []byte, want Type) error {
	got, err := Detect(data)
	if err != nil {
		return err
	}
	if got != want {
		return fmt.Errorf("%w: expected %s pack, got %s", ErrPackTypeMismatch, want, got)
	}
	return nil
}

// DecodeTemplatePack parses a template pack.
func DecodeTemplatePack(data []byte) (*TemplatePack, error) {
	if err := expect(data, TypeTemplate); err != nil {
		return nil, err
	}
	p := &TemplatePack{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}
	if p.Template == nil {
		return nil, fmt.Errorf("%w: template pack has no template", ErrInvalidPack)
	}
	return p, nil
}

// DecodeRecordsPack parses a records pack.
func DecodeRecordsPack(data []byte) (*RecordsPack, error) {
	if err := expect(data, TypeRecords); err != nil {
		return nil, err
	}
	p := &RecordsPack{}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}
	return p, nil
}

// DecodeBackup parses a full backup.
func DecodeBackup(data []byte) (*Backup, error) {
	if err := expect(data, TypeBackup); err != nil {
		return nil, err
	}
	b := &Backup{}
	if err := json.Unmarshal(data, b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPack, err)
	}
	return b, nil
}

// Encode renders an envelope as indented JSON.
func Encode(v any) ([]byte, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode pack: %w", err)
	}
	return b, nil
}

// NewTemplatePack wraps t for export.
func NewTemplatePack(t *models.Template, exportedAt string) *TemplatePack {
	return &TemplatePack{
		Version:    common.FormatVersion,
		Type:       TypeTemplate,
		ExportedAt: exportedAt,
		Template:   t,
	}
}

// NewRecordsPack wraps the records of t for export.
func NewRecordsPack(t *models.Template, records []models.Record, exportedAt string) *RecordsPack {
	p := &RecordsPack{
		Version:      common.FormatVersion,
		Type:         TypeRecords,
		ExportedAt:   exportedAt,
		TemplateInfo: TemplateInfo{ID: t.ID, Name: t.Name},
		RecordCount:  len(records),
		Records:      make([]PackedRecord, 0, len(records)),
	}
	for _, r := range records {
		p.Records = append(p.Records, packRecord(r))
	}
	return p
}

// NewBackup builds a snapshot envelope.
func NewBackup(templates []models.Template, records []models.Record, timestamp string) *Backup {
	if templates == nil {
		templates = []models.Template{}
	}
	if records == nil {
		records = []models.Record{}
	}
	return &Backup{
		Version:   common.FormatVersion,
		Timestamp: timestamp,
		AppName:   common.AppName,
		Templates: templates,
		Records:   records,
	}
}
