package workspace

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	m map[string][]byte
}

func newMemRepo() *memRepo { return &memRepo{m: map[string][]byte{}} }

func (r *memRepo) Get(_ context.Context, key string) ([]byte, error) { return r.m[key], nil }
func (r *memRepo) Set(_ context.Context, key string, v []byte) error {
	r.m[key] = v
	return nil
}
func (r *memRepo) Delete(_ context.Context, key string) error {
	delete(r.m, key)
	return nil
}
func (r *memRepo) List(context.Context) (map[string][]byte, error) { return r.m, nil }
func (r *memRepo) Clear(context.Context) error {
	r.m = map[string][]byte{}
	return nil
}

func TestGrant_CreatesDirectoryAndStampsHandle(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ws")

	h, err := Grant(dir)
	require.NoError(t, err)
	require.Equal(t, dir, h.Path)
	require.NotEmpty(t, h.GrantedAt)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, fi.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "probe file must be removed")
}

func TestGrant_EmptyPath(t *testing.T) {
	_, err := Grant("")
	require.ErrorIs(t, err, common.ErrNoWorkspace)
}

func TestGrant_PathIsFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o600))

	_, err := Grant(p)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestReacquire_DistinguishesNotGrantedFromRevoked(t *testing.T) {
	require.ErrorIs(t, Handle{}.Reacquire(), common.ErrNoWorkspace)

	dir := t.TempDir()
	h, err := Grant(dir)
	require.NoError(t, err)
	require.NoError(t, h.Reacquire())

	require.NoError(t, os.RemoveAll(dir))
	err = h.Reacquire()
	require.ErrorIs(t, err, common.ErrPermissionDenied)
	require.NotErrorIs(t, err, common.ErrNoWorkspace)
}

func TestReacquire_ReadOnlyDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced here")
	}
	dir := t.TempDir()
	h, err := Grant(dir)
	require.NoError(t, err)

	require.NoError(t, os.Chmod(dir, 0o500))
	t.Cleanup(func() { _ = os.Chmod(dir, 0o700) })

	require.ErrorIs(t, h.Reacquire(), common.ErrPermissionDenied)
}

func TestUnsupportedEnvironment(t *testing.T) {
	orig := goos
	goos = "js"
	t.Cleanup(func() { goos = orig })

	require.False(t, Supported())
	_, err := Grant(t.TempDir())
	require.ErrorIs(t, err, common.ErrUnsupported)
	require.ErrorIs(t, Handle{Path: "/x"}.Reacquire(), common.ErrUnsupported)
}

func TestStore_SaveLoadRestoreClear(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemRepo())

	ok, err := s.HasWorkspace(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = s.Load(ctx)
	require.ErrorIs(t, err, common.ErrNoWorkspace)

	h, err := s.GrantAndSave(ctx, t.TempDir())
	require.NoError(t, err)

	ok, err = s.HasWorkspace(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Restore(ctx)
	require.NoError(t, err)
	require.Equal(t, h, got)

	require.NoError(t, s.Clear(ctx))
	_, err = s.Restore(ctx)
	require.ErrorIs(t, err, common.ErrNoWorkspace)
}

func TestStore_RestoreRevokedWorkspace(t *testing.T) {
	ctx := context.Background()
	s := NewStore(newMemRepo())

	dir := filepath.Join(t.TempDir(), "ws")
	_, err := s.GrantAndSave(ctx, dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))

	_, err = s.Restore(ctx)
	require.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestStore_SaveZeroHandle(t *testing.T) {
	s := NewStore(newMemRepo())
	require.ErrorIs(t, s.Save(context.Background(), Handle{}), common.ErrNoWorkspace)
}

func TestHandle_Join(t *testing.T) {
	h := Handle{Path: "/ws"}
	require.Equal(t, filepath.Join("/ws", "records", "t1"), h.Join("records", "t1"))
}
