// Package storage defines the persistence contract shared by the two local
// backends and the Adapter that routes every operation to the active one.
//
// # Backends
//
// A Backend stores templates and records. Two implementations exist:
//
//   - sqlitestore: a transactional SQLite database (KindDatabase)
//   - fsstore: one JSON file per entity under an authorized workspace
//     directory (KindFilesystem)
//
// Both return errors matching the sentinels in internal/common:
// ErrorNotFound for missing ids, ErrorSaveFailed for failed writes,
// ErrNoWorkspace / ErrPermissionDenied / ErrUnsupported for workspace access.
//
// # Adapter
//
// Higher layers never talk to a Backend directly. The Adapter assigns ids and
// timestamps on save, cascades template deletes to their records, and filters
// records by creation date. It holds exactly one active backend; switching to
// file storage is one-directional.
package storage

import (
	"context"

	"github.com/dmitrijs2005/formdoc/internal/models"
)

// Kind names a backend implementation.
type Kind string

const (
	KindDatabase   Kind = "database"
	KindFilesystem Kind = "filesystem"
)

// Backend is the CRUD contract implemented by every storage medium.
//
// Save methods create or replace the entity by id; the caller is responsible
// for id and timestamp assignment (see Adapter). Get methods return
// common.ErrorNotFound when the id does not exist. Delete methods are
// idempotent for missing child collections but report ErrorNotFound for a
// missing single entity.
type Backend interface {
	Kind() Kind

	SaveTemplate(ctx context.Context, t *models.Template) error
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	GetAllTemplates(ctx context.Context) ([]models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	SaveRecord(ctx context.Context, r *models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	GetAllRecords(ctx context.Context) ([]models.Record, error)
	GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	DeleteRecordsByTemplateID(ctx context.Context, templateID string) error
}

// CascadeDeleter is implemented by backends able to remove a template and its
// records atomically. The Adapter prefers it when available.
type CascadeDeleter interface {
	DeleteTemplateCascade(ctx context.Context, id string) error
}
