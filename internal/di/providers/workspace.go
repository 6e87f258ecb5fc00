package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/inkwellapp/inkwell-server/internal/config"
	"github.com/inkwellapp/inkwell-server/internal/logger"
	"github.com/inkwellapp/inkwell-server/internal/metrics"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
)

// SessionHandle wraps the workspace session with shutdown capability.
type SessionHandle struct {
	*session.Session
	listenerID string
}

// Shutdown implements do.Shutdownable.
func (h *SessionHandle) Shutdown() error {
	h.Unsubscribe(h.listenerID)
	return h.Close()
}

// ProvideSession provides the workspace session. Detected changes are
// forwarded to the SSE stream. The stored workspace is restored, or the
// configured workspace path is selected in its place.
func ProvideSession(i do.Injector) (*SessionHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)

	sess := session.New(storeHandle.Store, log.Logger, session.Options{
		Scanner: scanner.Options{
			Rules:       scanner.DefaultRules(),
			MaxParallel: cfg.Workspace.MaxParallel,
		},
		Watch: watcher.Options{
			Interval:    cfg.Workspace.PollInterval,
			Nudge:       cfg.Workspace.Nudge,
			SettleDelay: cfg.Workspace.SettleDelay,
		},
		Metrics: metrics.Watch{},
	})
	listenerID := sess.Subscribe(sseHandle.EmitChange)

	ctx := context.Background()

	if cfg.Workspace.RootPath != "" {
		info, err := sess.Select(ctx, cfg.Workspace.RootPath)
		if err != nil {
			sess.Unsubscribe(listenerID)
			_ = sess.Close()
			return nil, err
		}
		sseHandle.Emit(sse.NewWorkspaceSelectedEvent(info.ID, info.Name))
	} else {
		restored, err := sess.Open(ctx)
		if err != nil {
			// The workspace stays selected; the display layer can retry or pick another.
			log.Warn("Failed to resume stored workspace", "error", err)
		}
		if restored {
			if info, err := sess.Workspace.CurrentWorkspace(ctx); err == nil {
				sseHandle.Emit(sse.NewWorkspaceSelectedEvent(info.ID, info.Name))
			}
		}
	}

	return &SessionHandle{Session: sess, listenerID: listenerID}, nil
}
