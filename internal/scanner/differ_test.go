package scanner

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
)

var (
	t0  = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	now = t0.Add(time.Hour)
)

func sampleSnapshot(n int) domain.Snapshot {
	snap := make(domain.Snapshot, n)
	for i := range n {
		snap[fmt.Sprintf("notes/%03d.md", i)] = domain.FileMeta{Size: int64(i), LastModified: t0.Add(time.Duration(i) * time.Second)}
	}
	return snap
}

func clone(s domain.Snapshot) domain.Snapshot {
	out := make(domain.Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

func TestDiff_Identical(t *testing.T) {
	for _, n := range []int{0, 1, 50} {
		a := sampleSnapshot(n)
		assert.Empty(t, Diff(a, a, now), "n=%d", n)
		assert.Empty(t, Diff(a, clone(a), now), "n=%d", n)
	}
}

func TestDiff_OneCreated(t *testing.T) {
	a := sampleSnapshot(10)
	b := clone(a)
	b["reports/q1.md"] = domain.FileMeta{Size: 4, LastModified: now}

	changes := Diff(a, b, now)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.FileChange{Type: domain.ChangeCreated, Path: "reports/q1.md", Timestamp: now}, changes[0])
}

func TestDiff_OneDeleted(t *testing.T) {
	a := sampleSnapshot(10)
	b := clone(a)
	delete(b, "notes/003.md")

	changes := Diff(a, b, now)
	require.Len(t, changes, 1)
	assert.Equal(t, domain.ChangeDeleted, changes[0].Type)
	assert.Equal(t, "notes/003.md", changes[0].Path)
}

func TestDiff_Modified(t *testing.T) {
	a := sampleSnapshot(5)

	sized := clone(a)
	sized["notes/001.md"] = domain.FileMeta{Size: 99, LastModified: a["notes/001.md"].LastModified}

	touched := clone(a)
	touched["notes/002.md"] = domain.FileMeta{Size: a["notes/002.md"].Size, LastModified: now}

	for name, b := range map[string]domain.Snapshot{"size": sized, "mtime": touched} {
		t.Run(name, func(t *testing.T) {
			changes := Diff(a, b, now)
			require.Len(t, changes, 1)
			assert.Equal(t, domain.ChangeModified, changes[0].Type)
		})
	}
}

func TestDiff_RenameIsDeleteAndCreate(t *testing.T) {
	a := domain.Snapshot{"draft.md": {Size: 3, LastModified: t0}}
	b := domain.Snapshot{"final.md": {Size: 3, LastModified: t0}}

	changes := Diff(a, b, now)
	require.Len(t, changes, 2)

	types := map[domain.ChangeType]string{}
	for _, c := range changes {
		types[c.Type] = c.Path
	}
	assert.Equal(t, map[domain.ChangeType]string{
		domain.ChangeCreated: "final.md",
		domain.ChangeDeleted: "draft.md",
	}, types)
}

func TestDiff_FromEmpty(t *testing.T) {
	b := sampleSnapshot(3)
	changes := Diff(nil, b, now)
	require.Len(t, changes, 3)
	for _, c := range changes {
		assert.Equal(t, domain.ChangeCreated, c.Type)
	}

	changes = Diff(b, domain.Snapshot{}, now)
	require.Len(t, changes, 3)
	for _, c := range changes {
		assert.Equal(t, domain.ChangeDeleted, c.Type)
	}
}

func TestDiff_DoesNotMutateInputs(t *testing.T) {
	a := sampleSnapshot(4)
	b := clone(a)
	delete(b, "notes/000.md")
	b["new.md"] = domain.FileMeta{Size: 1}
	aCopy, bCopy := clone(a), clone(b)

	_ = Diff(a, b, now)
	assert.Equal(t, aCopy, a)
	assert.Equal(t, bCopy, b)
}

func TestDiffer_Compute(t *testing.T) {
	d := NewDiffer(quietLogger())
	d.now = func() time.Time { return now }

	changes := d.Compute(domain.Snapshot{}, domain.Snapshot{"a.md": {Size: 1}})
	require.Len(t, changes, 1)
	assert.Equal(t, now, changes[0].Timestamp)
}
