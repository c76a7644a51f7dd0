package sqlitestore

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/formdoc/internal/migrations"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

var (
	openMu sync.Mutex
	opened = map[string]*sql.DB{}

	// goose keeps its base FS and dialect in package globals.
	gooseMu sync.Mutex
)

// RunMigrations applies the embedded goose migrations to db.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Open returns the process-wide connection for dsn, opening and migrating it
// on first use. Repeated calls with the same dsn return the cached handle.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	openMu.Lock()
	defer openMu.Unlock()

	if db, ok := opened[dsn]; ok {
		return db, nil
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers anyway; one connection also keeps
	// ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	opened[dsn] = db
	return db, nil
}

// Close closes and forgets the cached connection for dsn.
func Close(dsn string) error {
	openMu.Lock()
	defer openMu.Unlock()

	db, ok := opened[dsn]
	if !ok {
		return nil
	}
	delete(opened, dsn)
	return db.Close()
}
