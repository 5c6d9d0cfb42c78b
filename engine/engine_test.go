package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/procedure"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Natural Language Tests --------------------

func TestHandle_NaturalLanguage(t *testing.T) {
	e := New()

	resp := e.Handle(context.Background(), payload.NewNaturalLanguageRequest("hi"))
	assert.Equal(t, payload.KindText, resp.Kind)
	assert.Equal(t, "you said: hi", resp.Text)
	assert.Equal(t, "core", resp.Metadata["source"])
	assert.False(t, resp.Timestamp.IsZero())
}

// -------------------- Procedure Branch Tests --------------------

func TestHandle_MissingExecutor(t *testing.T) {
	e := New()

	req := payload.NewProcedureRequest(map[string]any{"text": "hi"}).
		WithMetadata("procedure", "echo")
	resp := e.Handle(context.Background(), req)

	assert.Equal(t, payload.ErrorMissingExecutor, resp.ErrorCode())
	assert.Equal(t, "core", resp.Metadata["source"])
}

func TestHandle_MissingProcedureName(t *testing.T) {
	e := New(WithExecutor(procedure.NewDefaultExecutor()))

	resp := e.Handle(context.Background(), payload.NewProcedureRequest(map[string]any{"text": "hi"}))
	assert.Equal(t, payload.ErrorMissingProcedureName, resp.ErrorCode())
}

func TestHandle_ProcedureSuccess(t *testing.T) {
	e := New(WithExecutor(procedure.NewDefaultExecutor()))

	req := payload.NewProcedureRequest(map[string]any{"text": "ping"}).
		WithMetadata("procedure", "echo")
	resp := e.Handle(context.Background(), req)

	require.Empty(t, resp.ErrorCode())
	assert.Equal(t, "ping", resp.Values["text"])
	assert.Equal(t, "echo", resp.Metadata["command_name"])
	assert.Equal(t, "core", resp.Metadata["source"])
}

func TestHandle_ProcedureNotFound(t *testing.T) {
	e := New(WithExecutor(procedure.NewDefaultExecutor()))

	req := payload.NewProcedureRequest(nil).WithMetadata("procedure", "no_such")
	resp := e.Handle(context.Background(), req)

	assert.Equal(t, payload.ErrorProcedureNotFound, resp.ErrorCode())
}

func TestHandle_ProcedureException(t *testing.T) {
	ex := procedure.NewExecutor()
	require.NoError(t, ex.RegisterFunc("boom", "", func(_ context.Context, _, _ map[string]any) (payload.Response, error) {
		return payload.Response{}, errors.New("kaput")
	}))

	e := New(WithExecutor(ex))

	req := payload.NewProcedureRequest(nil).WithMetadata("procedure", "boom")
	resp := e.Handle(context.Background(), req)

	assert.Equal(t, payload.ErrorProcedureException, resp.ErrorCode())
	assert.Contains(t, resp.Values["text"], "kaput")
}

// -------------------- Metadata Merge Tests --------------------

func TestHandle_SourceDoesNotClobber(t *testing.T) {
	e := New()

	req := payload.NewNaturalLanguageRequest("hi").WithMetadata("trace", "abc")
	resp := e.Handle(context.Background(), req)

	// Request metadata stays with the request; only source is stamped.
	assert.Equal(t, "core", resp.Metadata["source"])
	_, hasTrace := resp.Metadata["trace"]
	assert.False(t, hasTrace)
}
