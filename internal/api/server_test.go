package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/require"

	"github.com/inkwellapp/inkwell-server/internal/session"
	"github.com/inkwellapp/inkwell-server/internal/sse"
	"github.com/inkwellapp/inkwell-server/internal/store"
	"github.com/inkwellapp/inkwell-server/internal/watcher"
)

type testServer struct {
	server  *Server
	api     humatest.TestAPI
	session *session.Session
	sse     *sse.Manager
	store   *store.Store
}

// setupTestServer creates a server over a session-only workspace, an
// in-memory handle database and a running SSE manager.
func setupTestServer(t *testing.T, opts Options) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st, err := store.New("", logger, store.WithInMemory())
	require.NoError(t, err)

	sess := session.New(nil, logger, session.Options{
		Watch: watcher.Options{Interval: time.Hour},
	})

	sseManager := sse.NewManager(logger)
	go sseManager.Start(context.Background())

	srv := NewServer(st, &Services{Workspace: sess.Workspace}, sseManager, logger, opts)

	t.Cleanup(func() {
		srv.Close()
		_ = sess.Close()
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = sseManager.Shutdown(ctx)
		_ = st.Close()
	})

	return &testServer{
		server:  srv,
		api:     humatest.Wrap(t, srv.API()),
		session: sess,
		sse:     sseManager,
		store:   st,
	}
}

// testEnvelope mirrors Envelope with the payload left undecoded.
type testEnvelope struct {
	Version int             `json:"v"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
	Details json.RawMessage `json:"details"`
}

func decodeEnvelope(t *testing.T, resp *httptest.ResponseRecorder) testEnvelope {
	t.Helper()
	var env testEnvelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env), resp.Body.String())
	return env
}

// decodeData unwraps a success envelope into T.
func decodeData[T any](t *testing.T, resp *httptest.ResponseRecorder) T {
	t.Helper()
	env := decodeEnvelope(t, resp)
	require.True(t, env.Success, resp.Body.String())

	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}
