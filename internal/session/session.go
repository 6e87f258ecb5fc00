// Package session assembles one workspace session: the handle store, the
// scanner, the watch loop and the workspace service that drives them.
//
// Sessions share no state, so several can run side by side in one process.
package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/handles"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
)

// Options configures a session.
type Options struct {
	Scanner scanner.Options
	Watch   watcher.Options
	// Metrics receives watch loop metrics. Nil disables them.
	Metrics watcher.Recorder
}

// Session owns every component of one workspace session.
type Session struct {
	Handles   *handles.Store
	Scanner   *scanner.Scanner
	Loop      *watcher.Loop
	Workspace *service.WorkspaceService

	logger    *slog.Logger
	closeOnce sync.Once
}

// New builds a session over backend. A nil backend keeps the selected
// workspace for this session only.
func New(backend handles.Backend, logger *slog.Logger, opts Options) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	h := handles.New(backend, logger)
	sc := scanner.New(logger, opts.Scanner)
	loop := watcher.New(sc, logger, opts.Watch, opts.Metrics)

	return &Session{
		Handles:   h,
		Scanner:   sc,
		Loop:      loop,
		Workspace: service.NewWorkspaceService(h, sc, loop, logger),
		logger:    logger.With("component", "session"),
	}
}

// Open restores the stored workspace and starts watching it. It reports
// whether a workspace was restored. A restored workspace whose initial scan
// fails stays selected and the error is returned.
func (s *Session) Open(ctx context.Context) (bool, error) {
	restored, err := s.Workspace.Resume(ctx)
	if err != nil {
		s.logger.Warn("restored workspace could not be watched", "error", err)
		return restored, err
	}
	if !restored {
		s.logger.Info("no stored workspace")
	}
	return restored, nil
}

// Select opens dir as the workspace and starts watching it.
func (s *Session) Select(ctx context.Context, dir string) (*service.WorkspaceInfo, error) {
	return s.Workspace.SelectWorkspace(ctx, dir)
}

// SelectRoot makes an existing capability the workspace.
func (s *Session) SelectRoot(ctx context.Context, root *capability.Root) (*service.WorkspaceInfo, error) {
	return s.Workspace.SelectRoot(ctx, root)
}

// Subscribe registers fn for every detected change and returns its id.
func (s *Session) Subscribe(fn watcher.Listener) string {
	return s.Loop.AddListener(fn)
}

// Unsubscribe removes a listener added with Subscribe.
func (s *Session) Unsubscribe(id string) bool {
	return s.Loop.RemoveListener(id)
}

// Close stops watching. The backend is owned by the caller and stays open.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.Loop.Stop()
		s.logger.Debug("session closed")
	})
	return nil
}
