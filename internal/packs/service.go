package packs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
	"github.com/dmitrijs2005/formdoc/internal/shared"
)

// Strategy decides what a template import does when the template already
// exists locally.
type Strategy string

const (
	StrategyOverwrite Strategy = "overwrite"
	StrategyRename    Strategy = "rename"
	StrategySkip      Strategy = "skip"
)

var ErrUnknownStrategy = errors.New("unknown conflict strategy")

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(s); st {
	case StrategyOverwrite, StrategyRename, StrategySkip:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Outcome is what happened to an imported template.
type Outcome string

const (
	OutcomeCreated     Outcome = "created"
	OutcomeOverwritten Outcome = "overwritten"
	OutcomeRenamed     Outcome = "renamed"
	OutcomeSkipped     Outcome = "skipped"
)

// ErrTemplateNotResolved is returned when a records pack references a
// template that exists neither by id nor by name.
var ErrTemplateNotResolved = fmt.Errorf("target template not found: %w", common.ErrorNotFound)

// Store is the persistence surface used by imports and exports. The storage
// Adapter satisfies it.
type Store interface {
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	GetAllTemplates(ctx context.Context) ([]models.Template, error)
	SaveTemplate(ctx context.Context, t *models.Template) (*models.Template, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	GetAllRecords(ctx context.Context) ([]models.Record, error)
	GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error)
	SaveRecord(ctx context.Context, r *models.Record) (*models.Record, error)
}

// TemplateImportResult reports a template pack import.
type TemplateImportResult struct {
	Outcome  Outcome
	Template *models.Template
}

// RecordsImportResult reports a records pack import.
type RecordsImportResult struct {
	Imported int
	Skipped  int
	Total    int
	Template *models.Template
}

// BackupImportResult reports how many entities a backup import wrote.
type BackupImportResult struct {
	Templates      int
	Records        int
	TemplatesTotal int
	RecordsTotal   int
	// Orphaned counts records left out because their template is neither in
	// the backup nor in the store.
	Orphaned int
}

type PackService interface {
	ExportTemplate(ctx context.Context, id string) ([]byte, error)
	ImportTemplate(ctx context.Context, data []byte, strategy Strategy) (*TemplateImportResult, error)
	ExportRecords(ctx context.Context, templateID string, ids ...string) ([]byte, error)
	ImportRecords(ctx context.Context, data []byte) (*RecordsImportResult, error)
	ExportBackup(ctx context.Context) ([]byte, error)
	ImportBackup(ctx context.Context, data []byte) (*BackupImportResult, error)
}

type packService struct {
	store Store
	log   logging.Logger
	now   func() time.Time
}

func NewPackService(store Store, log logging.Logger) PackService {
	if log == nil {
		log = logging.Nop()
	}
	return &packService{store: store, log: log, now: time.Now}
}

func (s *packService) timestamp() string {
	return shared.FormatTime(s.now())
}

func (s *packService) ExportTemplate(ctx context.Context, id string) ([]byte, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error exporting template: %w", err)
	}
	return Encode(NewTemplatePack(t, s.timestamp()))
}

// ImportTemplate validates the packed template and persists it according to
// strategy. An existing template is looked up by id first, then by name.
func (s *packService) ImportTemplate(ctx context.Context, data []byte, strategy Strategy) (*TemplateImportResult, error) {
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, err
	}
	p, err := DecodeTemplatePack(data)
	if err != nil {
		return nil, err
	}
	t := p.Template
	if err := schema.ValidateTemplate(t).Err(); err != nil {
		return nil, fmt.Errorf("error importing template %q: %w", t.Name, err)
	}

	existing, err := s.findTemplate(ctx, t.ID, t.Name)
	if err != nil {
		return nil, fmt.Errorf("error importing template %q: %w", t.Name, err)
	}

	outcome := OutcomeCreated
	switch {
	case existing == nil:
		t.ID = ""
		t.CreatedAt = ""
	case strategy == StrategySkip:
		s.log.Info(ctx, "template import skipped", "name", t.Name, "existing_id", existing.ID)
		return &TemplateImportResult{Outcome: OutcomeSkipped, Template: existing}, nil
	case strategy == StrategyOverwrite:
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		outcome = OutcomeOverwritten
	case strategy == StrategyRename:
		t.ID = ""
		t.CreatedAt = ""
		t.Name = t.Name + " (imported " + s.now().UTC().Format("20060102-150405") + ")"
		outcome = OutcomeRenamed
	}

	saved, err := s.store.SaveTemplate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("error importing template %q: %w", t.Name, err)
	}
	s.log.Info(ctx, "template imported", "id", saved.ID, "name", saved.Name, "outcome", outcome)
	return &TemplateImportResult{Outcome: outcome, Template: saved}, nil
}

// findTemplate returns the local template matching id, else the first one
// named name, else nil.
func (s *packService) findTemplate(ctx context.Context, id, name string) (*models.Template, error) {
	if id != "" {
		t, err := s.store.GetTemplate(ctx, id)
		if err == nil {
			return t, nil
		}
		if !errors.Is(err, common.ErrorNotFound) && !errors.Is(err, common.ErrInvalidID) {
			return nil, err
		}
	}
	if name == "" {
		return nil, nil
	}
	all, err := s.store.GetAllTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].Name == name {
			return &all[i], nil
		}
	}
	return nil, nil
}

// ExportRecords packs the records of a template; when ids are given only those
// records are included.
func (s *packService) ExportRecords(ctx context.Context, templateID string, ids ...string) ([]byte, error) {
	t, err := s.store.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("error exporting records: %w", err)
	}
	recs, err := s.store.GetRecordsByTemplateID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("error exporting records: %w", err)
	}
	if len(ids) > 0 {
		want := make(map[string]bool, len(ids))
		for _, id := range ids {
			want[id] = true
		}
		filtered := recs[:0]
		for _, r := range recs {
			if want[r.ID] {
				filtered = append(filtered, r)
			}
		}
		recs = filtered
	}
	return Encode(NewRecordsPack(t, recs, s.timestamp()))
}

// ImportRecords resolves the target template, then stores every record whose
// id is not present locally under a fresh id.
func (s *packService) ImportRecords(ctx context.Context, data []byte) (*RecordsImportResult, error) {
	p, err := DecodeRecordsPack(data)
	if err != nil {
		return nil, err
	}
	t, err := s.findTemplate(ctx, p.TemplateInfo.ID, p.TemplateInfo.Name)
	if err != nil {
		return nil, fmt.Errorf("error importing records: %w", err)
	}
	if t == nil {
		return nil, fmt.Errorf("error importing records for %q: %w", p.TemplateInfo.Name, ErrTemplateNotResolved)
	}

	res := &RecordsImportResult{Total: len(p.Records), Template: t}
	for _, pr := range p.Records {
		exists, err := s.recordExists(ctx, pr.ID)
		if err != nil {
			return res, fmt.Errorf("error importing records: %w", err)
		}
		if exists {
			res.Skipped++
			continue
		}
		r := pr.record()
		r.ID = shared.GenerateID()
		r.TemplateID = t.ID
		if _, err := s.store.SaveRecord(ctx, r); err != nil {
			return res, fmt.Errorf("error importing records: %w", err)
		}
		res.Imported++
	}
	s.log.Info(ctx, "records imported", "template_id", t.ID, "imported", res.Imported, "skipped", res.Skipped, "total", res.Total)
	return res, nil
}

func (s *packService) recordExists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := s.store.GetRecord(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrInvalidID):
		return false, nil
	}
	return false, err
}

func (s *packService) templateExists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	_, err := s.store.GetTemplate(ctx, id)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, common.ErrorNotFound), errors.Is(err, common.ErrInvalidID):
		return false, nil
	}
	return false, err
}

func (s *packService) ExportBackup(ctx context.Context) ([]byte, error) {
	templates, err := s.store.GetAllTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("error exporting backup: %w", err)
	}
	records, err := s.store.GetAllRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("error exporting backup: %w", err)
	}
	return Encode(NewBackup(templates, records, s.timestamp()))
}

// ImportBackup writes every template and record whose id is not present yet.
// Records whose template cannot be resolved are counted as Orphaned and not
// written. Re-importing the same backup writes nothing.
func (s *packService) ImportBackup(ctx context.Context, data []byte) (*BackupImportResult, error) {
	b, err := DecodeBackup(data)
	if err != nil {
		return nil, err
	}
	res := &BackupImportResult{TemplatesTotal: len(b.Templates), RecordsTotal: len(b.Records)}

	for i := range b.Templates {
		t := &b.Templates[i]
		exists, err := s.templateExists(ctx, t.ID)
		if err != nil {
			return res, fmt.Errorf("error importing backup: %w", err)
		}
		if exists {
			continue
		}
		if _, err := s.store.SaveTemplate(ctx, t); err != nil {
			return res, fmt.Errorf("error importing backup: %w", err)
		}
		res.Templates++
	}

	resolved := map[string]bool{}
	for i := range b.Records {
		r := &b.Records[i]
		ok, seen := resolved[r.TemplateID]
		if !seen {
			if ok, err = s.templateExists(ctx, r.TemplateID); err != nil {
				return res, fmt.Errorf("error importing backup: %w", err)
			}
			resolved[r.TemplateID] = ok
		}
		if !ok {
			res.Orphaned++
			continue
		}
		exists, err := s.recordExists(ctx, r.ID)
		if err != nil {
			return res, fmt.Errorf("error importing backup: %w", err)
		}
		if exists {
			continue
		}
		if _, err := s.store.SaveRecord(ctx, r); err != nil {
			return res, fmt.Errorf("error importing backup: %w", err)
		}
		res.Records++
	}

	s.log.Info(ctx, "backup imported", "templates", res.Templates, "records", res.Records,
		"templates_total", res.TemplatesTotal, "records_total", res.RecordsTotal, "orphaned", res.Orphaned)
	return res, nil
}
