// Package watcher detects external changes to a workspace by periodically
// re-scanning it and diffing consecutive snapshots.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/id"
	"github.com/inkwellapp/inkwell-server/internal/scanner"
)

// ErrNotWatching is returned by ForceCheck while the loop is idle.
var ErrNotWatching = errors.New("watch loop is idle")

// Listener receives each detected change.
// Listeners run on the scanning goroutine and must not call Start or ForceCheck.
type Listener func(domain.FileChange)

// Snapshotter captures flat snapshots of a workspace.
type Snapshotter interface {
	Snapshot(ctx context.Context, root *capability.Dir) (domain.Snapshot, error)
	Rules() scanner.Rules
}

// Recorder receives scan metrics.
type Recorder interface {
	ScanCompleted(result string, d time.Duration)
	ChangesDetected(changes []domain.FileChange)
}

type nopRecorder struct{}

func (nopRecorder) ScanCompleted(string, time.Duration) {}
func (nopRecorder) ChangesDetected([]domain.FileChange) {}

// Scan results reported to the Recorder.
const (
	ResultOK        = "ok"
	ResultError     = "error"
	ResultDiscarded = "discarded"
)

type listenerEntry struct {
	id string
	fn Listener
}

// Loop is the watch loop for one workspace at a time.
type Loop struct {
	scanner Snapshotter
	differ  *scanner.Differ
	logger  *slog.Logger
	opts    Options
	metrics Recorder

	// scanMu serializes cycles so two scans never diff against the same snapshot.
	scanMu sync.Mutex

	mu       sync.Mutex
	watching bool
	gen      uint64
	root     *capability.Root
	prev     domain.Snapshot
	cancel   context.CancelFunc
	nudge    *nudger

	lmu       sync.RWMutex
	listeners []listenerEntry
}

// New creates an idle watch loop. metrics may be nil.
func New(s Snapshotter, logger *slog.Logger, opts Options, metrics Recorder) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	opts.setDefaults()
	logger = logger.With("component", "watcher")

	return &Loop{
		scanner: s,
		differ:  scanner.NewDiffer(logger),
		logger:  logger,
		opts:    opts,
		metrics: metrics,
	}
}

// Start captures an initial snapshot of root and begins periodic checks.
// Starting again on the same root is a no-op; a different root replaces the
// current one.
func (l *Loop) Start(ctx context.Context, root *capability.Root) error {
	if root == nil {
		return fmt.Errorf("watch: root is required")
	}

	l.mu.Lock()
	if l.watching && l.root.Same(root) {
		l.mu.Unlock()
		return nil
	}
	l.stopLocked()

	l.gen++
	gen := l.gen
	loopCtx, cancel := context.WithCancel(context.Background())
	l.watching = true
	l.root = root
	l.cancel = cancel
	l.mu.Unlock()

	l.scanMu.Lock()
	snap, err := l.scanner.Snapshot(ctx, root.Dir)
	l.scanMu.Unlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.gen != gen {
		// Stopped or restarted while the initial scan ran.
		cancel()
		return nil
	}
	if err != nil {
		l.stopLocked()
		return fmt.Errorf("watch %s: initial scan: %w", root.Descriptor().ID(), err)
	}

	l.prev = snap
	go l.run(loopCtx, gen)

	if l.opts.Nudge && root.LocalPath() != "" {
		n, err := newNudger(l.logger, l.scanner.Rules(), root.LocalPath(), l.opts.SettleDelay, func() {
			_, _ = l.cycle(loopCtx, gen, "nudge")
		})
		if err != nil {
			l.logger.Warn("change nudges unavailable, polling only", "error", err)
		} else {
			l.nudge = n
		}
	}

	l.logger.Info("watching workspace",
		"workspace", root.Descriptor().ID(),
		"files", len(snap),
		"interval", l.opts.Interval,
		"nudge", l.nudge != nil,
	)
	return nil
}

// Stop cancels periodic checks and forgets the snapshot and root. A scan in
// flight finishes but its result is discarded. Stop is idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopLocked()
}

func (l *Loop) stopLocked() {
	if !l.watching {
		return
	}

	l.gen++
	l.watching = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	if l.nudge != nil {
		l.nudge.Close()
		l.nudge = nil
	}
	l.logger.Info("stopped watching", "workspace", l.root.Descriptor().ID())
	l.root = nil
	l.prev = nil
}

// IsWatching reports whether the loop is running.
func (l *Loop) IsWatching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.watching
}

// Root returns the workspace being watched, or nil.
func (l *Loop) Root() *capability.Root {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.root
}

// ForceCheck runs one cycle now without touching the timer and returns the
// changes it published. If a cycle is running, ForceCheck waits for it and
// then runs its own.
func (l *Loop) ForceCheck(ctx context.Context) ([]domain.FileChange, error) {
	l.mu.Lock()
	watching, gen := l.watching, l.gen
	l.mu.Unlock()

	if !watching {
		return nil, ErrNotWatching
	}
	return l.cycle(ctx, gen, "force")
}

// AddListener registers fn and returns an id for RemoveListener.
func (l *Loop) AddListener(fn Listener) string {
	lid := id.MustGenerate(id.PrefixListener)

	l.lmu.Lock()
	defer l.lmu.Unlock()
	l.listeners = append(l.listeners, listenerEntry{id: lid, fn: fn})
	return lid
}

// RemoveListener unregisters a listener. It reports whether lid was registered.
func (l *Loop) RemoveListener(lid string) bool {
	l.lmu.Lock()
	defer l.lmu.Unlock()

	for i, e := range l.listeners {
		if e.id == lid {
			l.listeners = append(l.listeners[:i:i], l.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (l *Loop) run(ctx context.Context, gen uint64) {
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = l.cycle(ctx, gen, "tick")
		}
	}
}

// cycle captures a snapshot, diffs it against the previous one, publishes the
// changes and stores the new snapshot. A cycle whose generation is no longer
// current publishes and stores nothing.
func (l *Loop) cycle(ctx context.Context, gen uint64, trigger string) ([]domain.FileChange, error) {
	l.scanMu.Lock()
	defer l.scanMu.Unlock()

	l.mu.Lock()
	if !l.watching || l.gen != gen {
		l.mu.Unlock()
		return nil, nil
	}
	root, prev := l.root, l.prev
	l.mu.Unlock()

	log := l.logger.With("cycle", id.Cycle(), "trigger", trigger)
	start := time.Now()

	snap, err := l.scanner.Snapshot(ctx, root.Dir)
	if err != nil {
		if l.current(gen) {
			l.metrics.ScanCompleted(ResultError, time.Since(start))
			log.Warn("scan failed", "error", err)
			return nil, err
		}
		l.metrics.ScanCompleted(ResultDiscarded, time.Since(start))
		return nil, nil
	}

	changes := l.differ.Compute(prev, snap)

	if !l.current(gen) {
		l.metrics.ScanCompleted(ResultDiscarded, time.Since(start))
		log.Debug("discarding scan from a stopped loop")
		return nil, nil
	}

	l.publish(log, changes)

	l.mu.Lock()
	if l.watching && l.gen == gen {
		l.prev = snap
	}
	l.mu.Unlock()

	l.metrics.ScanCompleted(ResultOK, time.Since(start))
	l.metrics.ChangesDetected(changes)
	if len(changes) > 0 {
		log.Debug("changes published", "count", len(changes), "duration", time.Since(start))
	}
	return changes, nil
}

func (l *Loop) current(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.watching && l.gen == gen
}

func (l *Loop) publish(log *slog.Logger, changes []domain.FileChange) {
	if len(changes) == 0 {
		return
	}

	l.lmu.RLock()
	listeners := append([]listenerEntry(nil), l.listeners...)
	l.lmu.RUnlock()

	for _, change := range changes {
		for _, e := range listeners {
			l.deliver(log, e, change)
		}
	}
}

// deliver calls one listener, containing any panic so other listeners still run.
func (l *Loop) deliver(log *slog.Logger, e listenerEntry, change domain.FileChange) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("listener panicked", "listener", e.id, "path", change.Path, "panic", r)
		}
	}()
	e.fn(change)
}
