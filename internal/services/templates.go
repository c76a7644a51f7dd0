package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/schema"
	"github.com/sahilm/fuzzy"
)

// CopySuffix is appended to the name of a duplicated template.
const CopySuffix = " (copy)"

type TemplateService interface {
	Save(ctx context.Context, t *models.Template) (*models.Template, error)
	Get(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context) ([]models.Template, error)
	Search(ctx context.Context, query string) ([]models.Template, error)
	Delete(ctx context.Context, id string) error
	Duplicate(ctx context.Context, id string) (*models.Template, error)
	Check(ctx context.Context, id string) (*schema.ConsistencyResult, error)
	AttachDocument(ctx context.Context, id, path string) (*models.Template, error)
}

type templateService struct {
	store Store
	log   logging.Logger
}

func NewTemplateService(store Store, log logging.Logger) TemplateService {
	if log == nil {
		log = logging.Nop()
	}
	return &templateService{store: store, log: log}
}

// Save validates t and persists it. Validation failures come back as a
// *schema.ValidationError carrying every message.
func (s *templateService) Save(ctx context.Context, t *models.Template) (*models.Template, error) {
	if err := schema.ValidateTemplate(t).Err(); err != nil {
		return nil, err
	}
	saved, err := s.store.SaveTemplate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("error saving template: %w", err)
	}
	return saved, nil
}

func (s *templateService) Get(ctx context.Context, id string) (*models.Template, error) {
	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error retrieving template: %w", err)
	}
	return t, nil
}

func (s *templateService) List(ctx context.Context) ([]models.Template, error) {
	all, err := s.store.GetAllTemplates(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing templates: %w", err)
	}
	return all, nil
}

// Search ranks templates by a fuzzy match of query against name and
// description. An empty query lists everything.
func (s *templateService) Search(ctx context.Context, query string) ([]models.Template, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return all, nil
	}

	searchStrings := make([]string, len(all))
	for i, t := range all {
		searchStrings[i] = t.Name + " " + t.Description
	}

	matches := fuzzy.Find(query, searchStrings)
	result := make([]models.Template, 0, len(matches))
	for _, m := range matches {
		result = append(result, all[m.Index])
	}
	return result, nil
}

// Delete removes the template and all of its records.
func (s *templateService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}
	s.log.Info(ctx, "template deleted", "id", id)
	return nil
}

func (s *templateService) Duplicate(ctx context.Context, id string) (*models.Template, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c := t.Copy()
	c.Name += CopySuffix
	saved, err := s.store.SaveTemplate(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("error duplicating template: %w", err)
	}
	return saved, nil
}

// Check reconciles the template's keys with its document's placeholders.
func (s *templateService) Check(ctx context.Context, id string) (*schema.ConsistencyResult, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	res, err := schema.CheckTemplateConsistency(t)
	if err != nil {
		return nil, fmt.Errorf("error checking template %q: %w", t.Name, err)
	}
	return res, nil
}

// AttachDocument reads a .docx file and stores it as the template's document.
// The archive must be readable; tag problems are left for Check to report.
func (s *templateService) AttachDocument(ctx context.Context, id, path string) (*models.Template, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	doc, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading document: %w", err)
	}
	if _, err := schema.DocumentText(doc); err != nil {
		return nil, fmt.Errorf("error attaching %s: %w", filepath.Base(path), err)
	}

	t.WordFile = schema.EncodePayload(filepath.Base(path), doc)
	saved, err := s.store.SaveTemplate(ctx, t)
	if err != nil {
		return nil, fmt.Errorf("error attaching document: %w", err)
	}
	s.log.Info(ctx, "document attached", "id", saved.ID, "file", saved.WordFile.Name, "bytes", len(doc))
	return saved, nil
}
