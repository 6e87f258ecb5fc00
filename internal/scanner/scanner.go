// Package scanner builds workspace trees and flat snapshots, and diffs snapshots into file changes.
package scanner

import (
	"context"
	"log/slog"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Options configures a Scanner.
type Options struct {
	Rules Rules
	// MaxParallel bounds concurrent sibling traversal. 0 or 1 walks sequentially.
	MaxParallel int
}

// Scanner walks a workspace capability.
type Scanner struct {
	logger *slog.Logger
	rules  Rules
	walker *Walker
}

// New creates a scanner. A zero Options uses the default rules and walks sequentially.
func New(logger *slog.Logger, opts Options) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Rules.extensions == nil {
		opts.Rules = DefaultRules()
	}
	logger = logger.With("component", "scanner")
	return &Scanner{
		logger: logger,
		rules:  opts.Rules,
		walker: NewWalker(logger, opts.Rules, opts.MaxParallel),
	}
}

// Rules returns the inclusion rules this scanner applies.
func (s *Scanner) Rules() Rules {
	return s.rules
}

// BuildTree returns the full, sorted tree below root. Every call builds a new tree.
func (s *Scanner) BuildTree(ctx context.Context, root *capability.Dir) ([]*domain.TreeNode, error) {
	start := time.Now()

	nodes, err := s.walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("tree built", "root", root.Name(), "top_level", len(nodes), "duration", time.Since(start))
	return nodes, nil
}

// Snapshot returns the flat path to metadata map for every included file below root.
func (s *Scanner) Snapshot(ctx context.Context, root *capability.Dir) (domain.Snapshot, error) {
	nodes, err := s.walker.Walk(ctx, root)
	if err != nil {
		return nil, err
	}
	return Flatten(nodes), nil
}

// Flatten converts a tree into a snapshot of its file nodes.
func Flatten(nodes []*domain.TreeNode) domain.Snapshot {
	snap := make(domain.Snapshot)
	domain.Walk(nodes, func(n *domain.TreeNode) {
		if n.IsFolder() {
			return
		}
		meta := domain.FileMeta{}
		if n.Size != nil {
			meta.Size = *n.Size
		}
		if n.LastModified != nil {
			meta.LastModified = *n.LastModified
		}
		snap[n.Path] = meta
	})
	return snap
}
