package stylize

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/provider"
	"github.com/hupe1980/routemesh/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Fallback Tests --------------------

func TestFallbackStylize(t *testing.T) {
	assert.Equal(t, "hello! ✨", fallbackStylize("hello"))
	assert.Equal(t, "done! ✨", fallbackStylize("done!"))
	assert.Equal(t, "好了！ ✨", fallbackStylize("好了！"))
	assert.Equal(t, "(empty)! ✨", fallbackStylize("  "))
}

func TestProcess_NoCompleter(t *testing.T) {
	s := New()

	in := payload.NewTextResponse("hello").WithMetadata("source", "core")
	out := s.Process(context.Background(), in)

	assert.Equal(t, payload.KindText, out.Kind)
	assert.Equal(t, "hello! ✨", out.Text)
	assert.Equal(t, "core", out.Metadata["source"])

	style, ok := out.Metadata["style"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "fallback", style["mode"])

	// Input untouched
	assert.Equal(t, "hello", in.Text)
}

// -------------------- Completer Tests --------------------

func TestProcess_WithCompleter(t *testing.T) {
	s := New(WithCompleter(provider.Static("hello~ nya!")))

	out := s.Process(context.Background(), payload.NewTextResponse("hello"))
	assert.Equal(t, "hello~ nya!", out.Text)

	style := out.Metadata["style"].(map[string]any)
	assert.Equal(t, "llm", style["mode"])
}

func TestProcess_CompleterFailureFallsBack(t *testing.T) {
	failing := provider.Completer(func(_ context.Context, _ string, _ ...func(o *provider.Options)) (string, error) {
		return "", errors.New("provider down")
	})

	s := New(WithCompleter(failing))

	out := s.Process(context.Background(), payload.NewTextResponse("hello"))
	assert.Equal(t, "hello! ✨", out.Text)

	style := out.Metadata["style"].(map[string]any)
	assert.Equal(t, "fallback-error", style["mode"])
}

func TestProcess_StructuredInput(t *testing.T) {
	s := New()

	in := payload.NewStructuredResponse(map[string]any{"text": "from dict"})
	out := s.Process(context.Background(), in)

	assert.Equal(t, payload.KindText, out.Kind)
	assert.Equal(t, "from dict! ✨", out.Text)
}

func TestProcess_KeepsTimestamp(t *testing.T) {
	s := New()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	out := s.Process(context.Background(), payload.NewTextResponse("hi").WithTimestamp(ts))
	assert.Equal(t, ts, out.Timestamp)
}

// -------------------- Middleware Tests --------------------

func TestMiddleware(t *testing.T) {
	tr := Middleware(transport.InProcess(engine.New()), New())

	out, err := tr(context.Background(), payload.NewNaturalLanguageRequest("hi").ToMap())
	require.NoError(t, err)

	resp := payload.ResponseFromMap(out)
	assert.Equal(t, "you said: hi! ✨", resp.Text)
	assert.Equal(t, "core", resp.Metadata["source"])
}

func TestMiddleware_TransportErrorPropagates(t *testing.T) {
	failing := transport.Transport(func(_ context.Context, _ map[string]any) (map[string]any, error) {
		return nil, errors.New("wire down")
	})

	tr := Middleware(failing, New())

	_, err := tr(context.Background(), map[string]any{})
	assert.Error(t, err)
}
