package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/shared"
)

// ErrWrongBackend is returned when SwitchToFileStorage receives a backend
// that is not file based.
var ErrWrongBackend = errors.New("backend is not file storage")

// Adapter is the single entry point for persistence used by services and the
// pack importer. It owns a reference to the active Backend.
type Adapter struct {
	mu      sync.RWMutex
	backend Backend
	log     logging.Logger
}

// NewAdapter returns an Adapter routing to backend.
func NewAdapter(backend Backend, log logging.Logger) *Adapter {
	if log == nil {
		log = logging.Nop()
	}
	return &Adapter{backend: backend, log: log}
}

// Backend returns the active backend.
func (a *Adapter) Backend() Backend {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.backend
}

// Kind returns the kind of the active backend.
func (a *Adapter) Kind() Kind {
	return a.Backend().Kind()
}

// SwitchToFileStorage makes fs the active backend. The switch is
// one-directional: there is no way back to the database other than building
// a new Adapter after the workspace grant fails.
func (a *Adapter) SwitchToFileStorage(ctx context.Context, fs Backend) error {
	if fs == nil || fs.Kind() != KindFilesystem {
		return ErrWrongBackend
	}
	a.mu.Lock()
	prev := a.backend.Kind()
	a.backend = fs
	a.mu.Unlock()

	a.log.Info(ctx, "storage backend switched", "from", prev, "to", fs.Kind())
	return nil
}

// SaveTemplate stamps t and persists it: an empty ID gets a fresh one, an empty
// CreatedAt gets the current time, and UpdatedAt is always refreshed. The
// stamped template is returned; t itself is modified, unless the backend
// write fails, in which case t is left as it was.
func (a *Adapter) SaveTemplate(ctx context.Context, t *models.Template) (*models.Template, error) {
	id, created, updated := t.ID, t.CreatedAt, t.UpdatedAt
	stamp(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err := a.Backend().SaveTemplate(ctx, t); err != nil {
		t.ID, t.CreatedAt, t.UpdatedAt = id, created, updated
		return nil, err
	}
	a.log.Debug(ctx, "template saved", "id", t.ID, "backend", a.Kind())
	return t, nil
}

// SaveRecord stamps r the same way SaveTemplate does and persists it.
func (a *Adapter) SaveRecord(ctx context.Context, r *models.Record) (*models.Record, error) {
	if r.TemplateID == "" {
		return nil, fmt.Errorf("save record failed: template id is empty: %w", ErrMissingTemplate)
	}
	id, created, updated := r.ID, r.CreatedAt, r.UpdatedAt
	stamp(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err := a.Backend().SaveRecord(ctx, r); err != nil {
		r.ID, r.CreatedAt, r.UpdatedAt = id, created, updated
		return nil, err
	}
	a.log.Debug(ctx, "record saved", "id", r.ID, "template_id", r.TemplateID, "backend", a.Kind())
	return r, nil
}

// ErrMissingTemplate is returned for records that do not reference a template.
var ErrMissingTemplate = errors.New("record has no template")

func stamp(id, createdAt, updatedAt *string) {
	if *id == "" {
		*id = shared.GenerateID()
	}
	ts := shared.Timestamp()
	if *createdAt == "" {
		*createdAt = ts
	}
	*updatedAt = ts
}

func (a *Adapter) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	return a.Backend().GetTemplate(ctx, id)
}

func (a *Adapter) GetAllTemplates(ctx context.Context) ([]models.Template, error) {
	return a.Backend().GetAllTemplates(ctx)
}

// DeleteTemplate removes a template and every record that references it. The
// records go first, so a failure never leaves records pointing at a missing
// template in backends that cannot do both atomically.
func (a *Adapter) DeleteTemplate(ctx context.Context, id string) error {
	b := a.Backend()
	if cd, ok := b.(CascadeDeleter); ok {
		return cd.DeleteTemplateCascade(ctx, id)
	}
	if err := b.DeleteRecordsByTemplateID(ctx, id); err != nil {
		return err
	}
	if err := b.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	a.log.Debug(ctx, "template deleted", "id", id, "backend", b.Kind())
	return nil
}

func (a *Adapter) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	return a.Backend().GetRecord(ctx, id)
}

func (a *Adapter) GetAllRecords(ctx context.Context) ([]models.Record, error) {
	return a.Backend().GetAllRecords(ctx)
}

func (a *Adapter) GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error) {
	return a.Backend().GetRecordsByTemplateID(ctx, templateID)
}

func (a *Adapter) DeleteRecord(ctx context.Context, id string) error {
	return a.Backend().DeleteRecord(ctx, id)
}

func (a *Adapter) DeleteRecordsByTemplateID(ctx context.Context, templateID string) error {
	return a.Backend().DeleteRecordsByTemplateID(ctx, templateID)
}

// GetRecordsByDateRange returns records created between start and end
// ("YYYY-MM-DD", both inclusive, UTC). An empty templateID searches every
// template; an empty bound is unconstrained.
func (a *Adapter) GetRecordsByDateRange(ctx context.Context, templateID, start, end string) ([]models.Record, error) {
	rng, err := ParseDateRange(start, end)
	if err != nil {
		return nil, err
	}

	var all []models.Record
	if templateID != "" {
		all, err = a.GetRecordsByTemplateID(ctx, templateID)
	} else {
		all, err = a.GetAllRecords(ctx)
	}
	if err != nil {
		return nil, err
	}
	return rng.Filter(all), nil
}
