package routemesh

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/procedure"
	"github.com/hupe1980/routemesh/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsk_NaturalLanguage(t *testing.T) {
	m := New()
	defer m.Shutdown()

	resp, err := m.Ask(context.Background(), payload.NewNaturalLanguageRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "you said: hi", resp.Text)
	assert.Equal(t, "core", resp.Metadata["source"])
}

func TestAsk_EchoProcedure(t *testing.T) {
	m := New()
	defer m.Shutdown()

	req := payload.NewProcedureRequest(map[string]any{"text": "ping"}).
		WithMetadata("procedure", "echo")
	resp, err := m.Ask(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "ping", resp.Values["text"])
	assert.Equal(t, "echo", resp.Metadata["command_name"])
}

func TestRegisterProcedure(t *testing.T) {
	m := New()
	defer m.Shutdown()

	require.NoError(t, m.RegisterProcedure(procedure.NewFunctionProcedure(
		"ping", "", nil,
		func(_ context.Context, _, _ map[string]any) (payload.Response, error) {
			return payload.NewTextResponse("pong"), nil
		},
	)))

	req := payload.NewProcedureRequest(nil).WithMetadata("procedure", "ping")
	resp, err := m.Ask(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text)
}

func TestDispatch_FanOut(t *testing.T) {
	m := New()
	defer m.Shutdown()

	var count int32
	id := m.RegisterConsumer(router.NonBlocking(func(_ payload.Response) error {
		atomic.AddInt32(&count, 1)
		return nil
	}))

	require.NoError(t, m.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))

	m.UnregisterConsumer(id)
	require.NoError(t, m.Dispatch(context.Background(), payload.NewNaturalLanguageRequest("hi")))
	assert.Equal(t, int32(1), atomic.LoadInt32(&count))
}
