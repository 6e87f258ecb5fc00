package scanner

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

// Diff compares two snapshots of the same workspace. Every change carries now
// as its timestamp. Renames appear as a deleted and a created change.
// The result is sorted by path with deletions last; callers must not rely on it.
func Diff(previous, current domain.Snapshot, now time.Time) []domain.FileChange {
	var changes []domain.FileChange

	for p, cur := range current {
		prev, ok := previous[p]
		switch {
		case !ok:
			changes = append(changes, domain.FileChange{Type: domain.ChangeCreated, Path: p, Timestamp: now})
		case !prev.Equal(cur):
			changes = append(changes, domain.FileChange{Type: domain.ChangeModified, Path: p, Timestamp: now})
		}
	}

	var deleted []domain.FileChange
	for p := range previous {
		if _, ok := current[p]; !ok {
			deleted = append(deleted, domain.FileChange{Type: domain.ChangeDeleted, Path: p, Timestamp: now})
		}
	}

	byPath := func(a, b domain.FileChange) int { return strings.Compare(a.Path, b.Path) }
	slices.SortFunc(changes, byPath)
	slices.SortFunc(deleted, byPath)
	return append(changes, deleted...)
}

// Differ wraps Diff with logging and a clock.
type Differ struct {
	logger *slog.Logger
	now    func() time.Time
}

// NewDiffer creates a new differ.
func NewDiffer(logger *slog.Logger) *Differ {
	if logger == nil {
		logger = slog.Default()
	}
	return &Differ{logger: logger, now: time.Now}
}

// Compute diffs previous against current and logs a summary when anything changed.
func (d *Differ) Compute(previous, current domain.Snapshot) []domain.FileChange {
	changes := Diff(previous, current, d.now())
	if len(changes) == 0 {
		return changes
	}

	counts := make(map[domain.ChangeType]int, 3)
	for _, c := range changes {
		counts[c.Type]++
	}
	d.logger.Debug("diff computed",
		"created", counts[domain.ChangeCreated],
		"modified", counts[domain.ChangeModified],
		"deleted", counts[domain.ChangeDeleted],
	)
	return changes
}
