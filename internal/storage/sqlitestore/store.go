package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/dbx"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/storage"
)

// Store implements storage.Backend on top of SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ storage.Backend        = (*Store)(nil)
	_ storage.CascadeDeleter = (*Store)(nil)
)

// New returns a Store bound to an opened and migrated database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying handle, e.g. for the metadata repository.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Kind() storage.Kind {
	return storage.KindDatabase
}

func saveFailed(what, id string, err error) error {
	return fmt.Errorf("save %s %s failed: %w: %w", what, id, common.ErrorSaveFailed, err)
}

// SaveTemplate upserts a template by id.
func (s *Store) SaveTemplate(ctx context.Context, t *models.Template) error {
	if t.ID == "" {
		return fmt.Errorf("save template failed: %w", common.ErrInvalidID)
	}
	body, err := json.Marshal(t)
	if err != nil {
		return saveFailed("template", t.ID, err)
	}

	query := `INSERT INTO templates (id, name, created_at, updated_at, body)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET name = excluded.name,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				body = excluded.body`
	if _, err := s.db.ExecContext(ctx, query, t.ID, t.Name, t.CreatedAt, t.UpdatedAt, string(body)); err != nil {
		return saveFailed("template", t.ID, err)
	}
	return nil
}

// GetTemplate returns the template with the given id.
func (s *Store) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM templates WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get template %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get template %s failed: %w", id, err)
	}

	t := &models.Template{}
	if err := json.Unmarshal([]byte(body), t); err != nil {
		return nil, fmt.Errorf("decode template %s: %w", id, err)
	}
	return t, nil
}

// GetAllTemplates lists templates, most recently updated first.
func (s *Store) GetAllTemplates(ctx context.Context) ([]models.Template, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT body FROM templates ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}
	defer rows.Close()

	result := []models.Template{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list templates failed: %w", err)
		}
		var t models.Template
		if err := json.Unmarshal([]byte(body), &t); err != nil {
			return nil, fmt.Errorf("decode template: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}
	return result, nil
}

// DeleteTemplate removes a single template row. Records are untouched; use
// DeleteTemplateCascade to remove both.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	return deleteTemplate(ctx, s.db, id)
}

func deleteTemplate(ctx context.Context, q dbx.DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete template %s failed: %w", id, err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("delete template %s: %w", id, err)
	}
	return nil
}

// DeleteTemplateCascade removes the template and all its records in one
// transaction.
func (s *Store) DeleteTemplateCascade(ctx context.Context, id string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := deleteRecordsByTemplateID(ctx, tx, id); err != nil {
			return err
		}
		return deleteTemplate(ctx, tx, id)
	})
}

// SaveRecord upserts a record by id.
func (s *Store) SaveRecord(ctx context.Context, r *models.Record) error {
	if r.ID == "" {
		return fmt.Errorf("save record failed: %w", common.ErrInvalidID)
	}
	body, err := json.Marshal(r)
	if err != nil {
		return saveFailed("record", r.ID, err)
	}

	query := `INSERT INTO records (id, template_id, file_name, created_at, updated_at, body)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET template_id = excluded.template_id,
				file_name = excluded.file_name,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				body = excluded.body`
	_, err = s.db.ExecContext(ctx, query, r.ID, r.TemplateID, r.FileName, r.CreatedAt, r.UpdatedAt, string(body))
	if err != nil {
		return saveFailed("record", r.ID, err)
	}
	return nil
}

// hasTemplate restricts record reads to records whose template still exists.
// Records orphaned by an interrupted cascade or an import are never returned.
const hasTemplate = `EXISTS (SELECT 1 FROM templates t WHERE t.id = records.template_id)`

// GetRecord returns the record with the given id.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM records WHERE id = ? AND `+hasTemplate, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get record %s: %w", id, common.ErrorNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s failed: %w", id, err)
	}

	r := &models.Record{}
	if err := json.Unmarshal([]byte(body), r); err != nil {
		return nil, fmt.Errorf("decode record %s: %w", id, err)
	}
	return r, nil
}

// GetAllRecords lists records, newest first.
func (s *Store) GetAllRecords(ctx context.Context) ([]models.Record, error) {
	return s.queryRecords(ctx, `SELECT body FROM records WHERE `+hasTemplate+` ORDER BY created_at DESC, id`)
}

// GetRecordsByTemplateID lists the records of one template, newest first.
func (s *Store) GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error) {
	return s.queryRecords(ctx, `SELECT body FROM records WHERE template_id = ? AND `+hasTemplate+` ORDER BY created_at DESC, id`, templateID)
}

func (s *Store) queryRecords(ctx context.Context, query string, args ...any) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list records failed: %w", err)
	}
	defer rows.Close()

	result := []models.Record{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("list records failed: %w", err)
		}
		var r models.Record
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list records failed: %w", err)
	}
	return result, nil
}

// DeleteRecord removes a single record.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record %s failed: %w", id, err)
	}
	if err := dbx.RequireAffected(res); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

// DeleteRecordsByTemplateID removes every record of a template. Zero matches
// is not an error.
func (s *Store) DeleteRecordsByTemplateID(ctx context.Context, templateID string) error {
	return deleteRecordsByTemplateID(ctx, s.db, templateID)
}

func deleteRecordsByTemplateID(ctx context.Context, q dbx.DBTX, templateID string) error {
	if _, err := q.ExecContext(ctx, `DELETE FROM records WHERE template_id = ?`, templateID); err != nil {
		return fmt.Errorf("delete records of template %s failed: %w", templateID, err)
	}
	return nil
}
