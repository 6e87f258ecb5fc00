package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/domain"
	"github.com/inkwellapp/inkwell-server/internal/service"
	"github.com/inkwellapp/inkwell-server/internal/sse"
)

// selectTempWorkspace selects a fresh temp directory and returns its path.
func (ts *testServer) selectTempWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	resp := ts.api.Put("/api/v1/workspace", map[string]any{"path": dir})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	return dir
}

func filesURL(p string) string {
	return "/api/v1/workspace/files?path=" + url.QueryEscape(p)
}

func TestWorkspace_NoWorkspaceSelected(t *testing.T) {
	ts := setupTestServer(t, Options{})

	tests := []struct {
		name string
		call func() *httptest.ResponseRecorder
	}{
		{"get workspace", func() *httptest.ResponseRecorder { return ts.api.Get("/api/v1/workspace") }},
		{"tree", func() *httptest.ResponseRecorder { return ts.api.Get("/api/v1/workspace/tree") }},
		{"read", func() *httptest.ResponseRecorder { return ts.api.Get(filesURL("a.md")) }},
		{"save", func() *httptest.ResponseRecorder {
			return ts.api.Put("/api/v1/workspace/files", map[string]any{"file_path": "a.md", "content": "x"})
		}},
		{"create file", func() *httptest.ResponseRecorder {
			return ts.api.Post("/api/v1/workspace/files", map[string]any{"file_name": "a.md"})
		}},
		{"create folder", func() *httptest.ResponseRecorder {
			return ts.api.Post("/api/v1/workspace/folders", map[string]any{"folder_name": "drafts"})
		}},
		{"delete", func() *httptest.ResponseRecorder { return ts.api.Delete("/api/v1/workspace/items?path=a.md") }},
		{"force check", func() *httptest.ResponseRecorder { return ts.api.Post("/api/v1/workspace/watch/check") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := tt.call()
			assert.Equal(t, http.StatusConflict, resp.Code)

			env := decodeEnvelope(t, resp)
			assert.False(t, env.Success)
			assert.Equal(t, "NO_WORKSPACE", env.Code)
			assert.Equal(t, envelopeVersion, env.Version)
		})
	}
}

func TestWorkspace_SelectAndClear(t *testing.T) {
	ts := setupTestServer(t, Options{})
	dir := t.TempDir()

	resp := ts.api.Put("/api/v1/workspace", map[string]any{"path": dir})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	info := decodeData[service.WorkspaceInfo](t, resp)
	abs, err := filepath.Abs(dir)
	require.NoError(t, err)
	assert.Equal(t, "os:"+abs, info.ID)
	assert.Equal(t, filepath.Base(dir), info.Name)
	assert.True(t, info.Watching)

	current := decodeData[service.WorkspaceInfo](t, ts.api.Get("/api/v1/workspace"))
	assert.Equal(t, info.ID, current.ID)

	resp = ts.api.Delete("/api/v1/workspace")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.False(t, ts.session.Loop.IsWatching())

	resp = ts.api.Get("/api/v1/workspace")
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestWorkspace_SelectMissingDirectory(t *testing.T) {
	ts := setupTestServer(t, Options{})

	resp := ts.api.Put("/api/v1/workspace", map[string]any{"path": filepath.Join(t.TempDir(), "missing")})
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "PATH_NOT_FOUND", decodeEnvelope(t, resp).Code)
}

func TestWorkspace_SelectEmitsEvent(t *testing.T) {
	ts := setupTestServer(t, Options{})

	client, err := ts.sse.Connect()
	require.NoError(t, err)
	defer ts.sse.Disconnect(client.ID)

	ts.selectTempWorkspace(t)

	select {
	case evt := <-client.EventChan:
		assert.Equal(t, sse.EventWorkspaceSelected, evt.Type)
		data, ok := evt.Data.(sse.WorkspaceEventData)
		require.True(t, ok)
		assert.Contains(t, data.ID, "os:")
	case <-time.After(2 * time.Second):
		t.Fatal("no workspace.selected event")
	}
}

func TestWorkspace_FileLifecycle(t *testing.T) {
	ts := setupTestServer(t, Options{})
	dir := ts.selectTempWorkspace(t)

	// Create with placeholder content.
	resp := ts.api.Post("/api/v1/workspace/files", map[string]any{
		"folder_path": "chapters",
		"file_name":   "one.md",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	created := decodeData[domain.Document](t, resp)
	assert.Equal(t, "chapters/one.md", created.FilePath)
	assert.Equal(t, "chapters/one.md", created.ID)
	assert.Equal(t, "one", created.Title)
	assert.Equal(t, "# one\n\n", created.Content)

	onDisk, err := os.ReadFile(filepath.Join(dir, "chapters", "one.md"))
	require.NoError(t, err)
	assert.Equal(t, "# one\n\n", string(onDisk))

	// Save replaces the content.
	resp = ts.api.Put("/api/v1/workspace/files", map[string]any{
		"file_path": "chapters/one.md",
		"content":   "It was a dark night.",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	saved := decodeData[domain.Document](t, resp)
	assert.Equal(t, int64(len("It was a dark night.")), saved.Size)

	// Read returns what was saved.
	resp = ts.api.Get(filesURL("chapters/one.md"))
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	read := decodeData[domain.Document](t, resp)
	assert.Equal(t, "It was a dark night.", read.Content)
	assert.Equal(t, "one", read.Title)

	// The tree shows the folder and the file.
	resp = ts.api.Get("/api/v1/workspace/tree")
	require.Equal(t, http.StatusOK, resp.Code)
	tree := decodeData[[]*domain.TreeNode](t, resp)
	require.Len(t, tree, 1)
	assert.Equal(t, domain.NodeKindFolder, tree[0].Kind)
	require.Len(t, tree[0].Children, 1)
	assert.Equal(t, "chapters/one.md", tree[0].Children[0].Path)
	assert.Equal(t, ".md", tree[0].Children[0].Extension)

	// Delete the folder with its file.
	resp = ts.api.Delete("/api/v1/workspace/items?path=chapters")
	assert.Equal(t, http.StatusNoContent, resp.Code)
	_, err = os.Stat(filepath.Join(dir, "chapters"))
	assert.True(t, os.IsNotExist(err))

	tree = decodeData[[]*domain.TreeNode](t, ts.api.Get("/api/v1/workspace/tree"))
	assert.Empty(t, tree)
}

func TestWorkspace_SaveWithTitle(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.selectTempWorkspace(t)

	resp := ts.api.Put("/api/v1/workspace/files", map[string]any{
		"file_path": "draft.md",
		"content":   "body",
		"title":     "Working Title",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	doc := decodeData[domain.Document](t, resp)
	assert.Equal(t, "Working Title", doc.Title)
	assert.False(t, doc.UpdatedAt.IsZero())
}

func TestWorkspace_CreateFileErrors(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.selectTempWorkspace(t)

	resp := ts.api.Post("/api/v1/workspace/files", map[string]any{"file_name": "a.md", "content": "first"})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	t.Run("existing file", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/workspace/files", map[string]any{"file_name": "a.md", "content": "second"})
		assert.Equal(t, http.StatusConflict, resp.Code)
		assert.Equal(t, "ALREADY_EXISTS", decodeEnvelope(t, resp).Code)

		read := decodeData[domain.Document](t, ts.api.Get(filesURL("a.md")))
		assert.Equal(t, "first", read.Content)
	})

	t.Run("name with separator", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/workspace/files", map[string]any{"file_name": "x/y.md"})
		assert.Equal(t, http.StatusBadRequest, resp.Code)

		env := decodeEnvelope(t, resp)
		assert.Equal(t, "VALIDATION", env.Code)
		var details map[string]string
		require.NoError(t, json.Unmarshal(env.Details, &details))
		assert.Contains(t, details, "file_name")
	})

	t.Run("missing name", func(t *testing.T) {
		resp := ts.api.Post("/api/v1/workspace/files", map[string]any{"folder_path": "x"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
		assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
	})
}

func TestWorkspace_ReadErrors(t *testing.T) {
	ts := setupTestServer(t, Options{})
	ts.selectTempWorkspace(t)

	resp := ts.api.Get(filesURL("missing.md"))
	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, "PATH_NOT_FOUND", decodeEnvelope(t, resp).Code)

	resp = ts.api.Get("/api/v1/workspace/files")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	assert.Equal(t, "VALIDATION", decodeEnvelope(t, resp).Code)
}

func TestWorkspace_CreateFolder(t *testing.T) {
	ts := setupTestServer(t, Options{})
	dir := ts.selectTempWorkspace(t)

	for range 2 {
		resp := ts.api.Post("/api/v1/workspace/folders", map[string]any{
			"parent_path": "book",
			"folder_name": "part one",
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
		out := decodeData[CreateFolderResponse](t, resp)
		assert.Equal(t, "book/part one", out.Path)
	}

	info, err := os.Stat(filepath.Join(dir, "book", "part one"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestWorkspace_ForceCheckReportsChanges(t *testing.T) {
	ts := setupTestServer(t, Options{})
	dir := ts.selectTempWorkspace(t)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("hello"), 0o644))

	resp := ts.api.Post("/api/v1/workspace/watch/check")
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	out := decodeData[ForceCheckResponse](t, resp)
	require.Len(t, out.Changes, 1)
	assert.Equal(t, domain.ChangeCreated, out.Changes[0].Type)
	assert.Equal(t, "notes.md", out.Changes[0].Path)

	// Nothing changed since.
	out = decodeData[ForceCheckResponse](t, ts.api.Post("/api/v1/workspace/watch/check"))
	assert.Empty(t, out.Changes)
	assert.NotNil(t, out.Changes)
}

func TestWorkspace_ForceCheckRateLimited(t *testing.T) {
	ts := setupTestServer(t, Options{ForceCheckBurst: 2, ForceCheckInterval: time.Hour})
	ts.selectTempWorkspace(t)

	for range 2 {
		resp := ts.api.Post("/api/v1/workspace/watch/check")
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	}

	resp := ts.api.Post("/api/v1/workspace/watch/check")
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)

	env := decodeEnvelope(t, resp)
	assert.False(t, env.Success)
	assert.Equal(t, codeRateLimited, env.Code)
}
