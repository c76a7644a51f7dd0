// Package workspace models the user-authorized directory that backs the file
// store. A Handle is granted once, persisted in the auxiliary metadata store,
// and re-validated for write access at the start of every session.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/filex"
	"github.com/dmitrijs2005/formdoc/internal/shared"
)

// Handle is an authorized reference to a workspace directory.
type Handle struct {
	Path      string `json:"path"`
	GrantedAt string `json:"grantedAt"`
}

// goos is a test seam for capability detection.
var goos = runtime.GOOS

// Supported reports whether the platform offers a writable local filesystem.
func Supported() bool {
	switch goos {
	case "js", "wasip1":
		return false
	}
	return true
}

// Grant authorizes path as the workspace, creating it when missing. The
// directory must be writable.
func Grant(path string) (Handle, error) {
	if !Supported() {
		return Handle{}, common.ErrUnsupported
	}
	if path == "" {
		return Handle{}, fmt.Errorf("grant workspace: empty path: %w", common.ErrNoWorkspace)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Handle{}, fmt.Errorf("grant workspace %s: %w", path, err)
	}
	if err := filex.EnsureDir(abs); err != nil {
		return Handle{}, fmt.Errorf("grant workspace %s: %w: %w", abs, common.ErrPermissionDenied, err)
	}
	h := Handle{Path: abs, GrantedAt: shared.Timestamp()}
	if err := h.Reacquire(); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// IsZero reports whether the handle was never granted.
func (h Handle) IsZero() bool {
	return h.Path == ""
}

// Reacquire re-validates a previously granted handle: the directory must still
// exist and accept writes. It fails with common.ErrNoWorkspace for a zero
// handle and common.ErrPermissionDenied otherwise.
func (h Handle) Reacquire() error {
	if !Supported() {
		return common.ErrUnsupported
	}
	if h.IsZero() {
		return common.ErrNoWorkspace
	}
	fi, err := os.Stat(h.Path)
	if err != nil {
		return fmt.Errorf("workspace %s: %w: %w", h.Path, common.ErrPermissionDenied, err)
	}
	if !fi.IsDir() {
		return fmt.Errorf("workspace %s is not a directory: %w", h.Path, common.ErrPermissionDenied)
	}
	if err := probeWrite(h.Path); err != nil {
		return fmt.Errorf("workspace %s is not writable: %w: %w", h.Path, common.ErrPermissionDenied, err)
	}
	return nil
}

// Join returns a path inside the workspace.
func (h Handle) Join(elem ...string) string {
	return filepath.Join(append([]string{h.Path}, elem...)...)
}

func probeWrite(dir string) error {
	f, err := os.CreateTemp(dir, ".formdoc-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	return errors.Join(f.Close(), os.Remove(name))
}
