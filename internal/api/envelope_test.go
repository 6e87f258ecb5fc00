package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// marshalEnvelope runs v through EnvelopeTransformer and decodes the JSON result.
func marshalEnvelope(t *testing.T, status string, v any) map[string]any {
	t.Helper()

	result, err := EnvelopeTransformer(nil, status, v)
	require.NoError(t, err)

	data, err := json.Marshal(result)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestEnvelope_Success(t *testing.T) {
	out := marshalEnvelope(t, "200", map[string]string{"path": "notes/a.md"})

	assert.Equal(t, float64(envelopeVersion), out["v"])
	assert.Equal(t, true, out["success"])
	assert.Equal(t, map[string]any{"path": "notes/a.md"}, out["data"])
	assert.NotContains(t, out, "error")
	assert.NotContains(t, out, "code")
}

func TestEnvelope_SuccessWithoutData(t *testing.T) {
	out := marshalEnvelope(t, "200", nil)

	assert.Equal(t, true, out["success"])
	assert.NotContains(t, out, "data")
}

func TestEnvelope_EmptyListIsKept(t *testing.T) {
	out := marshalEnvelope(t, "200", []string{})

	assert.Equal(t, []any{}, out["data"])
}

func TestEnvelope_Error(t *testing.T) {
	out := marshalEnvelope(t, "409", &APIError{
		Code:    "ALREADY_EXISTS",
		Message: "file already exists: a.md",
		Details: map[string]string{"path": "a.md"},
	})

	assert.Equal(t, float64(envelopeVersion), out["v"])
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "file already exists: a.md", out["error"])
	assert.Equal(t, "ALREADY_EXISTS", out["code"])
	assert.Equal(t, map[string]any{"path": "a.md"}, out["details"])
	assert.NotContains(t, out, "data")
}

func TestEnvelope_PassThrough(t *testing.T) {
	env := &Envelope{Version: envelopeVersion, Success: true, Data: "x"}
	result, err := EnvelopeTransformer(nil, "200", env)
	require.NoError(t, err)
	assert.Same(t, env, result)
}

// The version field name is part of the client contract.
func TestEnvelope_VersionFieldName(t *testing.T) {
	out := marshalEnvelope(t, "200", nil)

	assert.Contains(t, out, "v")
	assert.NotContains(t, out, "version")
	assert.NotContains(t, out, "Version")
}
