package workspace

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/formdoc/internal/common"
	"github.com/dmitrijs2005/formdoc/internal/repositories/metadata"
)

const handleKey = "workspace.handle"

// Store caches the granted handle in the metadata repository so it survives
// across sessions.
type Store struct {
	repo metadata.Repository
}

func NewStore(repo metadata.Repository) *Store {
	return &Store{repo: repo}
}

func (s *Store) Save(ctx context.Context, h Handle) error {
	if h.IsZero() {
		return common.ErrNoWorkspace
	}
	if err := metadata.SetJSON(ctx, s.repo, handleKey, h); err != nil {
		return fmt.Errorf("persist workspace handle: %w", err)
	}
	return nil
}

// Load returns the cached handle without validating it, or
// common.ErrNoWorkspace when none was ever granted.
func (s *Store) Load(ctx context.Context) (Handle, error) {
	var h Handle
	ok, err := metadata.GetJSON(ctx, s.repo, handleKey, &h)
	if err != nil {
		return Handle{}, fmt.Errorf("load workspace handle: %w", err)
	}
	if !ok || h.IsZero() {
		return Handle{}, common.ErrNoWorkspace
	}
	return h, nil
}

// Restore loads the cached handle and re-validates write permission.
func (s *Store) Restore(ctx context.Context) (Handle, error) {
	h, err := s.Load(ctx)
	if err != nil {
		return Handle{}, err
	}
	if err := h.Reacquire(); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// GrantAndSave grants path and caches the resulting handle.
func (s *Store) GrantAndSave(ctx context.Context, path string) (Handle, error) {
	h, err := Grant(path)
	if err != nil {
		return Handle{}, err
	}
	if err := s.Save(ctx, h); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, handleKey)
}

// HasWorkspace is an opportunistic existence check: a missing grant is a
// plain false, not an error.
func (s *Store) HasWorkspace(ctx context.Context) (bool, error) {
	_, err := s.Load(ctx)
	if errors.Is(err, common.ErrNoWorkspace) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
