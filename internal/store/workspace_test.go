package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", nil, WithInMemory())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestWorkspaceRoot_RoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	_, err := s.GetWorkspaceRoot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)

	has, err := s.HasWorkspaceRoot(ctx)
	require.NoError(t, err)
	assert.False(t, has)

	rec := &WorkspaceRecord{
		Kind:       "os",
		Root:       "/home/writer/notes",
		Name:       "notes",
		SelectedAt: time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, s.SaveWorkspaceRoot(ctx, rec))

	got, err := s.GetWorkspaceRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, rec.Root, got.Root)
	assert.Equal(t, rec.Name, got.Name)
	assert.True(t, rec.SelectedAt.Equal(got.SelectedAt))

	has, err = s.HasWorkspaceRoot(ctx)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestWorkspaceRoot_ReplaceNotMerge(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SaveWorkspaceRoot(ctx, &WorkspaceRecord{Kind: "os", Root: "/a", Name: "a"}))
	require.NoError(t, s.SaveWorkspaceRoot(ctx, &WorkspaceRecord{Kind: "os", Root: "/b"}))

	got, err := s.GetWorkspaceRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/b", got.Root)
	assert.Empty(t, got.Name)
}

func TestWorkspaceRoot_Delete(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.DeleteWorkspaceRoot(ctx))

	require.NoError(t, s.SaveWorkspaceRoot(ctx, &WorkspaceRecord{Kind: "os", Root: "/a"}))
	require.NoError(t, s.DeleteWorkspaceRoot(ctx))

	_, err := s.GetWorkspaceRoot(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWorkspaceRoot_Validation(t *testing.T) {
	s := setupTestStore(t)
	assert.Error(t, s.SaveWorkspaceRoot(context.Background(), &WorkspaceRecord{}))
	assert.Error(t, s.SaveWorkspaceRoot(context.Background(), nil))
}

func TestWorkspaceRoot_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetWorkspaceRoot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWorkspaceRoot_SurvivesReopen(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "db")
	ctx := context.Background()

	s, err := New(dir, nil)
	require.NoError(t, err)
	require.NoError(t, s.SaveWorkspaceRoot(ctx, &WorkspaceRecord{Kind: "os", Root: "/persisted"}))
	require.NoError(t, s.Close())

	s, err = New(dir, nil)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetWorkspaceRoot(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/persisted", got.Root)
}
