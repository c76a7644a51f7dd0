package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/config"
	"github.com/dmitrijs2005/formdoc/internal/models"
	"github.com/dmitrijs2005/formdoc/internal/storage"
	"github.com/dmitrijs2005/formdoc/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, mode string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.DatabasePath = filepath.Join(t.TempDir(), "data", "formdoc.db")
	cfg.StorageMode = mode
	return cfg
}

func bootstrap(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := Bootstrap(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestBootstrap_DatabaseMode(t *testing.T) {
	cfg := testConfig(t, config.ModeDatabase)
	cfg.WorkspaceDir = t.TempDir()
	a := bootstrap(t, cfg)

	assert.Equal(t, storage.KindDatabase, a.Store.Kind())
	assert.False(t, a.Archive.Enabled())
	_, err := os.Stat(cfg.DatabasePath)
	require.NoError(t, err, "database file created with its parent directory")
}

func TestBootstrap_AutoWithoutWorkspaceUsesDatabase(t *testing.T) {
	a := bootstrap(t, testConfig(t, config.ModeAuto))
	assert.Equal(t, storage.KindDatabase, a.Store.Kind())

	ok, err := a.Workspace.HasWorkspace(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBootstrap_AutoRestoresGrantedWorkspace(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.ModeAuto)
	dir := t.TempDir()

	first, err := Bootstrap(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = first.UseWorkspace(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, storage.KindFilesystem, first.Store.Kind())
	saved, err := first.Templates.Save(ctx, testutil.InvoiceTemplate(t, "Invoice"))
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second := bootstrap(t, cfg)
	require.Equal(t, storage.KindFilesystem, second.Store.Kind(), "cached handle is reused")
	got, err := second.Templates.Get(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Invoice", got.Name)
	assert.FileExists(t, filepath.Join(dir, "templates", saved.ID+".json"))
}

func TestBootstrap_AutoFallsBackWhenWorkspaceRevoked(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, config.ModeAuto)
	dir := filepath.Join(t.TempDir(), "ws")

	first, err := Bootstrap(ctx, cfg, nil)
	require.NoError(t, err)
	_, err = first.UseWorkspace(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	require.NoError(t, os.RemoveAll(dir))

	second := bootstrap(t, cfg)
	assert.Equal(t, storage.KindDatabase, second.Store.Kind())
}

func TestBootstrap_FilesystemMode(t *testing.T) {
	cfg := testConfig(t, config.ModeFilesystem)
	_, err := Bootstrap(context.Background(), cfg, nil)
	require.ErrorIs(t, err, common.ErrNoWorkspace)

	cfg = testConfig(t, config.ModeFilesystem)
	cfg.WorkspaceDir = t.TempDir()
	a := bootstrap(t, cfg)
	assert.Equal(t, storage.KindFilesystem, a.Store.Kind())
}

func TestUseWorkspace_KeepsDatabaseData(t *testing.T) {
	ctx := context.Background()
	a := bootstrap(t, testConfig(t, config.ModeAuto))

	tpl, err := a.Templates.Save(ctx, testutil.InvoiceTemplate(t, "Invoice"))
	require.NoError(t, err)
	_, err = a.Records.Save(ctx, &models.Record{TemplateID: tpl.ID, Data: map[string]any{"customer": "ACME"}})
	require.NoError(t, err)

	_, err = a.UseWorkspace(ctx, t.TempDir())
	require.NoError(t, err)

	all, err := a.Templates.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "the new workspace starts empty")
}
