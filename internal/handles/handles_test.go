package handles

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/capability"
	apperrors "github.com/inkwellapp/inkwell-server/internal/errors"
	"github.com/inkwellapp/inkwell-server/internal/store"
)

func newBackend(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New("", nil, store.WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func openRoot(t *testing.T) *capability.Root {
	t.Helper()
	root, err := capability.OpenDir(t.TempDir())
	require.NoError(t, err)
	return root
}

// failingBackend fails every call.
type failingBackend struct {
	calls int
}

var errUnavailable = errors.New("disk unavailable")

func (f *failingBackend) GetWorkspaceRoot(context.Context) (*store.WorkspaceRecord, error) {
	f.calls++
	return nil, errUnavailable
}

func (f *failingBackend) SaveWorkspaceRoot(context.Context, *store.WorkspaceRecord) error {
	f.calls++
	return errUnavailable
}

func (f *failingBackend) DeleteWorkspaceRoot(context.Context) error {
	f.calls++
	return errUnavailable
}

func TestGetStoredHandle_NeverSet(t *testing.T) {
	h := New(newBackend(t), nil)

	root, ok := h.GetStoredHandle(context.Background())
	assert.False(t, ok)
	assert.Nil(t, root)
}

func TestSetWorkspace_SurvivesNewSession(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	root := openRoot(t)

	require.NoError(t, New(backend, nil).SetWorkspace(ctx, root))

	// A fresh store over the same backend models an application reload.
	reloaded := New(backend, nil)
	got, ok := reloaded.GetStoredHandle(ctx)
	require.True(t, ok)
	assert.True(t, root.Same(got))
}

func TestSetWorkspace_Replaces(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	h := New(backend, nil)

	first, second := openRoot(t), openRoot(t)
	require.NoError(t, h.SetWorkspace(ctx, first))
	require.NoError(t, h.SetWorkspace(ctx, second))

	got, ok := New(backend, nil).GetStoredHandle(ctx)
	require.True(t, ok)
	assert.True(t, second.Same(got))
}

func TestSetWorkspace_MemoryRootNotPersisted(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	h := New(backend, nil)

	mem := capability.NewMemory("scratch")
	require.NoError(t, h.SetWorkspace(ctx, mem))

	got, ok := h.GetStoredHandle(ctx)
	require.True(t, ok)
	assert.Same(t, mem, got)

	_, err := backend.GetWorkspaceRoot(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSetWorkspace_Nil(t *testing.T) {
	err := New(nil, nil).SetWorkspace(context.Background(), nil)
	assert.True(t, apperrors.Is(err, apperrors.ErrValidation))
}

func TestGetStoredHandle_ReadsBackendOnce(t *testing.T) {
	backend := &failingBackend{}
	h := New(backend, nil)

	_, ok := h.GetStoredHandle(context.Background())
	assert.False(t, ok)
	_, ok = h.GetStoredHandle(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 1, backend.calls)

	h.Invalidate()
	_, ok = h.GetStoredHandle(context.Background())
	assert.False(t, ok)
	assert.Equal(t, 2, backend.calls)
}

func TestPersistenceFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	h := New(&failingBackend{}, nil)
	root := openRoot(t)

	require.NoError(t, h.SetWorkspace(ctx, root), "save failure is logged, not returned")

	got, ok := h.GetStoredHandle(ctx)
	require.True(t, ok, "the session keeps the handle it was given")
	assert.Same(t, root, got)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	h := New(backend, nil)
	root := openRoot(t)
	require.NoError(t, h.SetWorkspace(ctx, root))

	h.Revoke()
	_, ok := h.GetStoredHandle(ctx)
	assert.False(t, ok)

	// The record is kept so the next session can try again.
	_, ok = New(backend, nil).GetStoredHandle(ctx)
	assert.True(t, ok)

	require.NoError(t, h.SetWorkspace(ctx, root))
	_, ok = h.GetStoredHandle(ctx)
	assert.True(t, ok)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)
	h := New(backend, nil)
	require.NoError(t, h.SetWorkspace(ctx, openRoot(t)))

	require.NoError(t, h.Clear(ctx))
	_, ok := h.GetStoredHandle(ctx)
	assert.False(t, ok)

	_, ok = New(backend, nil).GetStoredHandle(ctx)
	assert.False(t, ok)
}

func TestClear_BackendFailure(t *testing.T) {
	err := New(&failingBackend{}, nil).Clear(context.Background())
	assert.True(t, apperrors.Is(err, apperrors.ErrPersistence))
	assert.ErrorIs(t, err, errUnavailable)
}

func TestGetStoredHandle_FolderGone(t *testing.T) {
	ctx := context.Background()
	backend := newBackend(t)

	dir := filepath.Join(t.TempDir(), "ws")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	root, err := capability.OpenDir(dir)
	require.NoError(t, err)
	require.NoError(t, New(backend, nil).SetWorkspace(ctx, root))

	require.NoError(t, os.RemoveAll(dir))

	_, ok := New(backend, nil).GetStoredHandle(ctx)
	assert.False(t, ok)
}
