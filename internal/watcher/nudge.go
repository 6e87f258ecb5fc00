package watcher

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/inkwellapp/inkwell-server/internal/scanner"
)

// nudger turns bursts of fsnotify events into a single early check.
type nudger struct {
	logger  *slog.Logger
	rules   scanner.Rules
	watcher *fsnotify.Watcher
	delay   time.Duration
	fire    func()

	mu    sync.Mutex
	timer *time.Timer

	done chan struct{}
	wg   sync.WaitGroup
}

func newNudger(logger *slog.Logger, rules scanner.Rules, root string, delay time.Duration, fire func()) (*nudger, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	n := &nudger{
		logger:  logger,
		rules:   rules,
		watcher: w,
		delay:   delay,
		fire:    fire,
		done:    make(chan struct{}),
	}
	n.watchDir(root)

	n.wg.Add(1)
	go n.processEvents()
	return n, nil
}

// watchDir adds watches for dir and every non-excluded folder below it.
func (n *nudger) watchDir(dir string) {
	_ = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			n.logger.Debug("failed to access path", "path", p, "error", err)
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if p != dir && n.rules.Excluded(d.Name()) {
			return filepath.SkipDir
		}
		if err := n.watcher.Add(p); err != nil {
			n.logger.Debug("failed to add watch", "path", p, "error", err)
		}
		return nil
	})
}

func (n *nudger) processEvents() {
	defer n.wg.Done()

	for {
		select {
		case <-n.done:
			return
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			n.handle(event)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Debug("fsnotify error", "error", err)
		}
	}
}

func (n *nudger) handle(event fsnotify.Event) {
	if event.Op == fsnotify.Chmod {
		return
	}
	if n.rules.Excluded(filepath.Base(event.Name)) {
		return
	}

	// New folders need their own watches.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			n.watchDir(event.Name)
		}
	}

	n.schedule()
}

// schedule (re)starts the settle timer.
func (n *nudger) schedule() {
	n.mu.Lock()
	defer n.mu.Unlock()

	select {
	case <-n.done:
		return
	default:
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.delay, n.fire)
}

// Close stops the watcher. A check already fired may still be running.
func (n *nudger) Close() {
	n.mu.Lock()
	close(n.done)
	if n.timer != nil {
		n.timer.Stop()
	}
	n.mu.Unlock()

	_ = n.watcher.Close()
	n.wg.Wait()
}
