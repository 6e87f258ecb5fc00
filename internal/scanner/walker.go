package scanner

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/text/cases"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Walker enumerates a folder capability into tree nodes.
type Walker struct {
	logger *slog.Logger
	rules  Rules

	// sem bounds the number of extra goroutines across the whole walk.
	// When no slot is free a subtree is walked inline, so nested folders
	// can never wait on each other.
	sem *semaphore.Weighted
}

// NewWalker creates a new walker. maxParallel <= 1 walks sequentially.
func NewWalker(logger *slog.Logger, rules Rules, maxParallel int) *Walker {
	w := &Walker{logger: logger, rules: rules}
	if maxParallel > 1 {
		w.sem = semaphore.NewWeighted(int64(maxParallel - 1))
	}
	return w
}

// Walk returns the sorted children of dir. A failure to enumerate dir itself
// is returned; failures below it are logged and the entry is left out.
func (w *Walker) Walk(ctx context.Context, dir *capability.Dir) ([]*domain.TreeNode, error) {
	return w.walkDir(ctx, dir)
}

func (w *Walker) walkDir(ctx context.Context, dir *capability.Dir) ([]*domain.TreeNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := dir.Entries()
	if err != nil {
		return nil, err
	}

	// One slot per entry keeps results independent of goroutine timing.
	slots := make([]*domain.TreeNode, len(entries))
	g, gctx := errgroup.WithContext(ctx)

	for i, entry := range entries {
		if w.rules.Excluded(entry.Name) {
			continue
		}

		if !entry.IsDir {
			ext, ok := w.rules.Extension(entry.Name)
			if !ok {
				continue
			}
			slots[i] = domain.NewFileNode(entry.Name, joinPath(dir.Path(), entry.Name), ext, entry.Size, entry.ModTime)
			continue
		}

		walkChild := func() error {
			node, err := w.walkFolder(gctx, dir, entry.Name)
			if err != nil {
				return err
			}
			slots[i] = node
			return nil
		}

		if w.sem != nil && w.sem.TryAcquire(1) {
			g.Go(func() error {
				defer w.sem.Release(1)
				return walkChild()
			})
			continue
		}
		if err := walkChild(); err != nil {
			_ = g.Wait()
			return nil, err
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	nodes := make([]*domain.TreeNode, 0, len(slots))
	for _, n := range slots {
		if n != nil {
			nodes = append(nodes, n)
		}
	}
	sortNodes(nodes)
	return nodes, nil
}

// walkFolder builds the node for the child folder name. Only cancellation is
// returned as an error; any other failure omits the folder.
func (w *Walker) walkFolder(ctx context.Context, parent *capability.Dir, name string) (*domain.TreeNode, error) {
	child, err := parent.Dir(name, false)
	if err != nil {
		w.logger.Warn("skipping folder", "path", joinPath(parent.Path(), name), "error", err)
		return nil, nil
	}

	children, err := w.walkDir(ctx, child)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		w.logger.Warn("skipping folder", "path", child.Path(), "error", err)
		return nil, nil
	}

	return domain.NewFolderNode(name, child.Path(), children), nil
}

// sortNodes orders folders before files, then by case-folded name with the
// raw name as a final tie-break so the order is total.
func sortNodes(nodes []*domain.TreeNode) {
	fold := cases.Fold()
	keys := make(map[*domain.TreeNode]string, len(nodes))
	for _, n := range nodes {
		keys[n] = fold.String(n.Name)
	}

	slices.SortFunc(nodes, func(a, b *domain.TreeNode) int {
		if a.IsFolder() != b.IsFolder() {
			if a.IsFolder() {
				return -1
			}
			return 1
		}
		if c := cmp.Compare(keys[a], keys[b]); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
