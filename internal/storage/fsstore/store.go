// Package fsstore is the hierarchical file storage backend. Every entity is a
// pretty-printed JSON file inside an authorized workspace:
//
//	<workspace>/templates/<templateId>.json
//	<workspace>/records/<templateId>/<recordId>.json
//
// Writes are atomic per file, but there is no atomicity across files: a
// template delete and the removal of its record folder are independent
// operations. Readers therefore ignore records whose template file is gone.
package fsstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/filex"
	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/storage"
	"github.com/dmitrijs2005/formdoc/internal/workspace"
)

const (
	templatesDir = "templates"
	recordsDir   = "records"
	ext          = ".json"
)

// Store implements storage.Backend over a workspace directory.
type Store struct {
	ws  workspace.Handle
	log logging.Logger
}

var _ storage.Backend = (*Store)(nil)

// Open validates the handle and prepares the folder layout.
func Open(h workspace.Handle, log logging.Logger) (*Store, error) {
	if err := h.Reacquire(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Nop()
	}
	for _, d := range []string{templatesDir, recordsDir} {
		if _, err := filex.EnsureSubDir(h.Path, d); err != nil {
			return nil, fmt.Errorf("prepare workspace: %w: %w", common.ErrPermissionDenied, err)
		}
	}
	return &Store{ws: h, log: log.With("backend", storage.KindFilesystem)}, nil
}

func (s *Store) Kind() storage.Kind {
	return storage.KindFilesystem
}

// Root returns the workspace directory.
func (s *Store) Root() string {
	return s.ws.Path
}

func checkID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return fmt.Errorf("%q: %w", id, common.ErrInvalidID)
	}
	return nil
}

func (s *Store) templatePath(id string) string {
	return s.ws.Join(templatesDir, id+ext)
}

func (s *Store) recordDir(templateID string) string {
	return s.ws.Join(recordsDir, templateID)
}

func (s *Store) recordPath(templateID, id string) string {
	return filepath.Join(s.recordDir(templateID), id+ext)
}

// SaveTemplate writes templates/<id>.json.
func (s *Store) SaveTemplate(ctx context.Context, t *models.Template) error {
	if err := checkID(t.ID); err != nil {
		return fmt.Errorf("save template failed: %w", err)
	}
	if err := filex.WriteJSON(s.templatePath(t.ID), t); err != nil {
		return fmt.Errorf("save template %s failed: %w: %w", t.ID, common.ErrorSaveFailed, err)
	}
	return nil
}

// GetTemplate reads templates/<id>.json.
func (s *Store) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("get template: %w", err)
	}
	t := &models.Template{}
	if err := filex.ReadJSON(s.templatePath(id), t); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("get template %s: %w", id, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("get template %s failed: %w", id, err)
	}
	return t, nil
}

// GetAllTemplates enumerates the templates folder, most recently updated
// first. Unreadable files are logged and skipped.
func (s *Store) GetAllTemplates(ctx context.Context) ([]models.Template, error) {
	names, err := listJSON(s.ws.Join(templatesDir))
	if err != nil {
		return nil, fmt.Errorf("list templates failed: %w", err)
	}

	result := []models.Template{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var t models.Template
		if err := filex.ReadJSON(s.ws.Join(templatesDir, name), &t); err != nil {
			s.log.Warn(ctx, "skipping unreadable template file", "file", name, "error", err)
			continue
		}
		result = append(result, t)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].UpdatedAt > result[j].UpdatedAt
	})
	return result, nil
}

// DeleteTemplate removes the template file only.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	if err := os.Remove(s.templatePath(id)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete template %s: %w", id, common.ErrorNotFound)
		}
		return fmt.Errorf("delete template %s failed: %w", id, err)
	}
	return nil
}

// SaveRecord writes records/<templateId>/<id>.json, creating the template
// folder on demand. A record that moved to another template is removed from
// its old folder.
func (s *Store) SaveRecord(ctx context.Context, r *models.Record) error {
	if err := checkID(r.ID); err != nil {
		return fmt.Errorf("save record failed: %w", err)
	}
	if err := checkID(r.TemplateID); err != nil {
		return fmt.Errorf("save record %s failed: template %w", r.ID, err)
	}
	dir, err := filex.EnsureSubDir(s.ws.Join(recordsDir), r.TemplateID)
	if err != nil {
		return fmt.Errorf("save record %s failed: %w: %w", r.ID, common.ErrorSaveFailed, err)
	}
	if err := filex.WriteJSON(filepath.Join(dir, r.ID+ext), r); err != nil {
		return fmt.Errorf("save record %s failed: %w: %w", r.ID, common.ErrorSaveFailed, err)
	}

	s.removeStale(ctx, r.TemplateID, r.ID)
	return nil
}

// removeStale deletes copies of record id held under other template folders.
func (s *Store) removeStale(ctx context.Context, keep, id string) {
	folders, err := os.ReadDir(s.ws.Join(recordsDir))
	if err != nil {
		return
	}
	for _, f := range folders {
		if !f.IsDir() || f.Name() == keep {
			continue
		}
		p := s.recordPath(f.Name(), id)
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn(ctx, "stale record copy left behind", "file", p, "error", err)
		}
	}
}

// findRecordPath locates a record file by id across template folders.
func (s *Store) findRecordPath(id string) (string, bool) {
	folders, err := os.ReadDir(s.ws.Join(recordsDir))
	if err != nil {
		return "", false
	}
	for _, f := range folders {
		if !f.IsDir() {
			continue
		}
		p := s.recordPath(f.Name(), id)
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// GetRecord scans the template folders for <id>.json. A record whose
// template is gone is reported as not found.
func (s *Store) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	if err := checkID(id); err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	p, ok := s.findRecordPath(id)
	if !ok {
		return nil, fmt.Errorf("get record %s: %w", id, common.ErrorNotFound)
	}
	r := &models.Record{}
	if err := filex.ReadJSON(p, r); err != nil {
		return nil, fmt.Errorf("get record %s failed: %w", id, err)
	}
	if _, err := os.Stat(s.templatePath(r.TemplateID)); err != nil {
		s.log.Debug(ctx, "ignoring orphaned record", "id", id, "template_id", r.TemplateID)
		return nil, fmt.Errorf("get record %s: %w", id, common.ErrorNotFound)
	}
	return r, nil
}

// GetAllRecords enumerates every template folder whose template still exists.
// Records orphaned by an interrupted cascade delete are ignored.
func (s *Store) GetAllRecords(ctx context.Context) ([]models.Record, error) {
	folders, err := os.ReadDir(s.ws.Join(recordsDir))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []models.Record{}, nil
		}
		return nil, fmt.Errorf("list records failed: %w", err)
	}

	result := []models.Record{}
	for _, f := range folders {
		if !f.IsDir() {
			continue
		}
		if _, err := os.Stat(s.templatePath(f.Name())); err != nil {
			s.log.Debug(ctx, "ignoring orphaned records folder", "template_id", f.Name())
			continue
		}
		recs, err := s.readRecordDir(ctx, f.Name())
		if err != nil {
			return nil, err
		}
		result = append(result, recs...)
	}
	sortRecords(result)
	return result, nil
}

// GetRecordsByTemplateID lists one template folder; a missing folder or a
// deleted template yields an empty result.
func (s *Store) GetRecordsByTemplateID(ctx context.Context, templateID string) ([]models.Record, error) {
	if err := checkID(templateID); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if _, err := os.Stat(s.templatePath(templateID)); err != nil {
		return []models.Record{}, nil
	}
	recs, err := s.readRecordDir(ctx, templateID)
	if err != nil {
		return nil, err
	}
	sortRecords(recs)
	return recs, nil
}

func (s *Store) readRecordDir(ctx context.Context, templateID string) ([]models.Record, error) {
	dir := s.recordDir(templateID)
	names, err := listJSON(dir)
	if err != nil {
		return nil, fmt.Errorf("list records of template %s failed: %w", templateID, err)
	}
	result := make([]models.Record, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var r models.Record
		if err := filex.ReadJSON(filepath.Join(dir, name), &r); err != nil {
			s.log.Warn(ctx, "skipping unreadable record file", "template_id", templateID, "file", name, "error", err)
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

// DeleteRecord removes a record file wherever it lives.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	if err := checkID(id); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	p, ok := s.findRecordPath(id)
	if !ok {
		return fmt.Errorf("delete record %s: %w", id, common.ErrorNotFound)
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("delete record %s failed: %w", id, err)
	}
	return nil
}

// DeleteRecordsByTemplateID removes the template's record folder.
func (s *Store) DeleteRecordsByTemplateID(ctx context.Context, templateID string) error {
	if err := checkID(templateID); err != nil {
		return fmt.Errorf("delete records: %w", err)
	}
	if err := os.RemoveAll(s.recordDir(templateID)); err != nil {
		return fmt.Errorf("delete records of template %s failed: %w", templateID, err)
	}
	return nil
}

// listJSON returns the sorted *.json file names in dir. A missing dir is empty.
func listJSON(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ext) {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

func sortRecords(recs []models.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].CreatedAt > recs[j].CreatedAt
	})
}
