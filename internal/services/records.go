package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formdoc/internal/docdata"
	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
)

// ErrCannotGenerate is returned by Prepare when the record's template has no
// document or no fields and tables to fill it with.
var ErrCannotGenerate = errors.New("template cannot generate documents")

type RecordService interface {
	Save(ctx context.Context, r *models.Record) (*models.Record, error)
	Get(ctx context.Context, id string) (*models.Record, error)
	ListByTemplate(ctx context.Context, templateID string) ([]models.Record, error)
	ListByDateRange(ctx context.Context, templateID, start, end string) ([]models.Record, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*models.Record, error)
	Prepare(ctx context.Context, id string) (map[string]any, error)
}

type recordService struct {
	store Store
	log   logging.Logger
}

func NewRecordService(store Store, log logging.Logger) RecordService {
	if log == nil {
		log = logging.Nop()
	}
	return &recordService{store: store, log: log}
}

// Save checks r against its template and persists it.
func (s *recordService) Save(ctx context.Context, r *models.Record) (*models.Record, error) {
	t, err := s.store.GetTemplate(ctx, r.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving template for record: %w", err)
	}
	if err := schema.ValidateRecord(t, r).Err(); err != nil {
		return nil, err
	}
	saved, err := s.store.SaveRecord(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("error saving record: %w", err)
	}
	return saved, nil
}

func (s *recordService) Get(ctx context.Context, id string) (*models.Record, error) {
	r, err := s.store.GetRecord(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving record: %w", err)
	}
	return r, nil
}

func (s *recordService) ListByTemplate(ctx context.Context, templateID string) ([]models.Record, error) {
	recs, err := s.store.GetRecordsByTemplateID(ctx, templateID)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	return recs, nil
}

// ListByDateRange returns records created between start and end
// ("YYYY-MM-DD", inclusive). Empty bounds are open.
func (s *recordService) ListByDateRange(ctx context.Context, templateID, start, end string) ([]models.Record, error) {
	recs, err := s.store.GetRecordsByDateRange(ctx, templateID, start, end)
	if err != nil {
		return nil, fmt.Errorf("error listing records: %w", err)
	}
	return recs, nil
}

func (s *recordService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteRecord(ctx, id); err != nil {
		return fmt.Errorf("error deleting record: %w", err)
	}
	return nil
}

func (s *recordService) Duplicate(ctx context.Context, id string) (*models.Record, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	saved, err := s.store.SaveRecord(ctx, r.Copy())
	if err != nil {
		return nil, fmt.Errorf("error duplicating record: %w", err)
	}
	return saved, nil
}

// Prepare returns the generator input for a stored record. The template must
// be able to generate documents.
func (s *recordService) Prepare(ctx context.Context, id string) (map[string]any, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	t, err := s.store.GetTemplate(ctx, r.TemplateID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving template for record: %w", err)
	}
	if !t.CanGenerate() {
		return nil, fmt.Errorf("preparing record %s for %q: %w", r.ID, t.Name, ErrCannotGenerate)
	}
	return docdata.PrepareRecord(t, r), nil
}
