// Package handles keeps the selected workspace root across sessions.
//
// The in-memory handle is authoritative for the running session. The backend
// is read at most once per session unless Invalidate is called, and every
// backend failure degrades to "no stored workspace": losing the cached
// handle only means the user picks the folder again.
package handles

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	apperrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

// Backend persists the single workspace record.
type Backend interface {
	GetWorkspaceRoot(ctx context.Context) (*store.WorkspaceRecord, error)
	SaveWorkspaceRoot(ctx context.Context, rec *store.WorkspaceRecord) error
	DeleteWorkspaceRoot(ctx context.Context) error
}

// Store owns the workspace root capability.
type Store struct {
	backend Backend
	logger  *slog.Logger

	mu      sync.Mutex
	current *capability.Root
	loaded  bool // backend consulted this session
	revoked bool

	reopen func(capability.Descriptor) (*capability.Root, error)
	now    func() time.Time
}

// New creates a handle store over backend. backend may be nil for a
// session that never persists.
func New(backend Backend, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		backend: backend,
		logger:  logger.With("component", "handles"),
		reopen:  capability.Reopen,
		now:     time.Now,
	}
}

// SetWorkspace makes root the workspace handle, replacing any previous one.
// Roots that cannot be reopened later (memory roots) are kept for this session only.
func (s *Store) SetWorkspace(ctx context.Context, root *capability.Root) error {
	if root == nil {
		return apperrors.Validation("workspace root is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = root
	s.loaded = true
	s.revoked = false

	desc := root.Descriptor()
	if s.backend == nil || !desc.Persistable() {
		s.logger.Debug("workspace kept for this session only", "workspace", desc.ID())
		return nil
	}

	rec := &store.WorkspaceRecord{
		Kind:       string(desc.Kind),
		Root:       desc.Root,
		Name:       desc.Name,
		SelectedAt: s.now().UTC(),
	}
	if err := s.backend.SaveWorkspaceRoot(ctx, rec); err != nil {
		s.logger.Warn("failed to persist workspace handle", "workspace", desc.ID(), "error", err)
		return nil
	}

	s.logger.Info("workspace selected", "workspace", desc.ID())
	return nil
}

// GetStoredHandle returns the workspace handle, loading it from the backend
// on first use. ok is false if none was ever set, access was revoked, or the
// stored folder can no longer be opened.
func (s *Store) GetStoredHandle(ctx context.Context) (root *capability.Root, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.revoked {
		return nil, false
	}
	if s.current != nil || s.loaded {
		return s.current, s.current != nil
	}

	s.loaded = true
	if s.backend == nil {
		return nil, false
	}

	rec, err := s.backend.GetWorkspaceRoot(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to load workspace handle", "error", err)
		}
		return nil, false
	}

	desc := capability.Descriptor{Kind: capability.Kind(rec.Kind), Root: rec.Root, Name: rec.Name}
	root, err = s.reopen(desc)
	if err != nil {
		s.logger.Warn("stored workspace is unavailable", "workspace", desc.ID(), "error", err)
		return nil, false
	}

	s.current = root
	s.logger.Info("workspace restored", "workspace", desc.ID(), "selected_at", rec.SelectedAt)
	return root, true
}

// Invalidate drops the in-memory handle so the next GetStoredHandle re-reads the backend.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.loaded = false
	s.revoked = false
}

// Revoke drops the handle for the rest of the session after a dependent
// operation observed a permission failure. The stored record is kept.
func (s *Store) Revoke() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		s.logger.Warn("workspace access revoked", "workspace", s.current.Descriptor().ID())
	}
	s.current = nil
	s.loaded = true
	s.revoked = true
}

// Clear forgets the workspace and deletes the stored record.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current = nil
	s.loaded = true
	s.revoked = false

	if s.backend == nil {
		return nil
	}
	if err := s.backend.DeleteWorkspaceRoot(ctx); err != nil {
		s.logger.Warn("failed to clear workspace handle", "error", err)
		return apperrors.Wrap(err, apperrors.CodePersistence, "failed to clear stored workspace")
	}
	return nil
}
