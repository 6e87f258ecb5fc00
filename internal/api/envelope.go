package api

import (
	"github.com/danielgtaylor/huma/v2"
)

// envelopeVersion is bumped on breaking changes to the response shape.
const envelopeVersion = 1

// Envelope is the JSON shape of every API response.
type Envelope struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps response bodies in an Envelope.
func EnvelopeTransformer(_ huma.Context, _ string, v any) (any, error) {
	switch body := v.(type) {
	case *APIError:
		return &Envelope{
			Version: envelopeVersion,
			Error:   body.Message,
			Code:    body.Code,
			Details: body.Details,
		}, nil
	case *Envelope:
		return body, nil
	default:
		return &Envelope{Version: envelopeVersion, Success: true, Data: v}, nil
	}
}
