// Package services holds the use cases driven by the CLI: editing and
// checking templates and filling, listing and preparing records.
package services

import (
	"context"

	"github.com/dmitrijs2005/formdoc/internal/models"
)

// Store is the persistence surface the services need. *storage.Adapter
// implements it.
type Store interface {
	SaveTemplate(ctx context.Context, t *models.Template) (*models.Template, error)
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	GetAllTemplates(ctx context.Context) ([]models.Template, error)
	DeleteTemplate(ctx context.Context, id string) error

	SaveRecord(ctx context.Context, r *models.Record) (*models.Record, error)
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error)
	GetRecordsByDateRange(ctx context.Context, templateID, start, end string) ([]models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
}
