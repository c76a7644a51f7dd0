// Package app wires configuration, storage, services and the remote archive
// into one value the CLI drives.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/config"
	"github.com/dmitrijs2005/formdoc/internal/filex"
	"github.com/dmitrijs2005/formdoc/internal/logging"
	"github.com/dmitrijs2005/formdoc/internal/packs"
	"github.com/dmitrijs2005/formdoc/internal/remote"
	"github.com/dmitrijs2005/formdoc/internal/repositories/metadata"
	"github.com/dmitrijs2005/formdoc/internal/services"
	"github.com/dmitrijs2005/formdoc/internal/storage"
	"github.com/dmitrijs2005/formdoc/internal/storage/fsstore"
	"github.com/dmitrijs2005/formdoc/internal/storage/sqlitestore"
	"github.com/dmitrijs2005/formdoc/internal/workspace"
)

type App struct {
	Config *config.Config
	Log    logging.Logger

	DB        *sql.DB
	Store     *storage.Adapter
	Workspace *workspace.Store

	Templates services.TemplateService
	Records   services.RecordService
	Packs     packs.PackService
	Archive   *remote.Archive

	dsn string
}

// Bootstrap opens the database, picks a storage backend for cfg.StorageMode
// and builds the services on top of it.
func Bootstrap(ctx context.Context, cfg *config.Config, log logging.Logger) (*App, error) {
	if log == nil {
		log = logging.Nop()
	}

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := filex.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}
	db, err := sqlitestore.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	a := &App{
		Config:    cfg,
		Log:       log,
		DB:        db,
		Workspace: workspace.NewStore(metadata.NewSQLiteRepository(db)),
		dsn:       cfg.DatabasePath,
	}

	backend, err := a.selectBackend(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = storage.NewAdapter(backend, log)
	a.Templates = services.NewTemplateService(a.Store, log)
	a.Records = services.NewRecordService(a.Store, log)
	a.Packs = packs.NewPackService(a.Store, log)

	a.Archive, err = remote.New(ctx, remote.Config{
		Bucket:    cfg.S3Bucket,
		Region:    cfg.S3Region,
		Endpoint:  cfg.S3Endpoint,
		AccessKey: cfg.S3AccessKey,
		SecretKey: cfg.S3SecretKey,
		Timeout:   cfg.RemoteTimeout,
	}, log)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	log.Info(ctx, "storage ready", "backend", a.Store.Kind(), "mode", cfg.StorageMode)
	return a, nil
}

// selectBackend returns the file store when a workspace is configured or was
// granted earlier and is still writable. In auto mode any workspace problem
// falls back to the database; in filesystem mode it is an error.
func (a *App) selectBackend(ctx context.Context) (storage.Backend, error) {
	mode := a.Config.StorageMode
	if mode == config.ModeDatabase {
		return sqlitestore.New(a.DB), nil
	}

	fs, err := a.openWorkspace(ctx)
	if err == nil {
		return fs, nil
	}
	if mode == config.ModeFilesystem {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	if errors.Is(err, common.ErrNoWorkspace) {
		a.Log.Debug(ctx, "no workspace granted, using database")
	} else {
		a.Log.Warn(ctx, "workspace unavailable, using database", "error", err)
	}
	return sqlitestore.New(a.DB), nil
}

func (a *App) openWorkspace(ctx context.Context) (*fsstore.Store, error) {
	if !workspace.Supported() {
		return nil, common.ErrUnsupported
	}

	var (
		h   workspace.Handle
		err error
	)
	if dir := a.Config.WorkspaceDir; dir != "" {
		h, err = a.Workspace.GrantAndSave(ctx, dir)
	} else {
		h, err = a.Workspace.Restore(ctx)
	}
	if err != nil {
		return nil, err
	}
	return fsstore.Open(h, a.Log)
}

// UseWorkspace grants path, remembers it, and moves the session onto a file
// store rooted there. Data already in the previous backend stays where it is.
func (a *App) UseWorkspace(ctx context.Context, path string) (workspace.Handle, error) {
	h, err := a.Workspace.GrantAndSave(ctx, path)
	if err != nil {
		return workspace.Handle{}, err
	}
	fs, err := fsstore.Open(h, a.Log)
	if err != nil {
		return workspace.Handle{}, err
	}
	if err := a.Store.SwitchToFileStorage(ctx, fs); err != nil {
		return workspace.Handle{}, err
	}
	return h, nil
}

// Close releases the database connection.
func (a *App) Close() error {
	return sqlitestore.Close(a.dsn)
}
