package store

import (
	"context"
	"fmt"
	"time"
)

// WorkspaceRecord is the persisted form of the selected root directory.
type WorkspaceRecord struct {
	Kind       string    `json:"kind"`
	Root       string    `json:"root"`
	Name       string    `json:"name"`
	SelectedAt time.Time `json:"selected_at"`
}

// GetWorkspaceRoot returns the stored workspace record or ErrNotFound.
func (s *Store) GetWorkspaceRoot(ctx context.Context) (*WorkspaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec WorkspaceRecord
	if err := s.get([]byte(keyWorkspaceRoot), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveWorkspaceRoot replaces the stored workspace record.
func (s *Store) SaveWorkspaceRoot(ctx context.Context, rec *WorkspaceRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if rec == nil || rec.Root == "" {
		return fmt.Errorf("workspace record requires a root")
	}
	return s.set([]byte(keyWorkspaceRoot), rec)
}

// DeleteWorkspaceRoot removes the stored workspace record. Deleting a missing record is not an error.
func (s *Store) DeleteWorkspaceRoot(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.delete([]byte(keyWorkspaceRoot))
}

// HasWorkspaceRoot reports whether a workspace record is stored.
func (s *Store) HasWorkspaceRoot(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return s.exists([]byte(keyWorkspaceRoot))
}
