package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openStore(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:dbx_tests?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`
		DROP TABLE IF EXISTS records;
		DROP TABLE IF EXISTS templates;
		CREATE TABLE templates (id TEXT PRIMARY KEY);
		CREATE TABLE records (id TEXT PRIMARY KEY, template_id TEXT NOT NULL);
		INSERT INTO templates(id) VALUES ('t1');
		INSERT INTO records(id, template_id) VALUES ('r1', 't1'), ('r2', 't1');`)
	require.NoError(t, err)
	return db
}

func count(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func cascade(ctx context.Context, tx DBTX, id string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE template_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return RequireAffected(res)
}

func TestWithTx_CascadeCommits(t *testing.T) {
	db := openStore(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return cascade(ctx, tx, "t1")
	})
	require.NoError(t, err)
	require.Zero(t, count(t, db, "records"))
	require.Zero(t, count(t, db, "templates"))
}

func TestWithTx_MissingTemplateRollsBackRecordDelete(t *testing.T) {
	db := openStore(t)
	_, err := db.Exec(`INSERT INTO records(id, template_id) VALUES ('orphan', 'gone')`)
	require.NoError(t, err)

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return cascade(ctx, tx, "gone")
	})
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.Equal(t, 3, count(t, db, "records"), "orphan record survives the failed cascade")
}

func TestWithTx_PanicRollsBack(t *testing.T) {
	db := openStore(t)

	defer func() {
		require.NotNil(t, recover(), "panic propagates")
		require.Equal(t, 2, count(t, db, "records"))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM records`)
		require.NoError(t, err)
		panic("interrupted")
	})
}

func TestWithTx_BeginAndCommitErrors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("database is locked"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error {
		t.Fatal("fn must not run")
		return nil
	})
	require.ErrorContains(t, err, "begin tx: database is locked")

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))
	err = WithTx(context.Background(), db, nil, func(context.Context, DBTX) error { return nil })
	require.ErrorContains(t, err, "disk I/O error")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireAffected(t *testing.T) {
	require.NoError(t, RequireAffected(sqlmock.NewResult(0, 1)))
	require.ErrorIs(t, RequireAffected(sqlmock.NewResult(0, 0)), common.ErrorNotFound)
	require.ErrorContains(t, RequireAffected(sqlmock.NewErrorResult(errors.New("driver"))), "rows affected")
}
