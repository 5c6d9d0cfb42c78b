package transport

import (
	"context"
	"testing"
	"time"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/payload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcess(t *testing.T) {
	tr := InProcess(engine.New())

	out, err := tr(context.Background(), payload.NewNaturalLanguageRequest("hi").ToMap())
	require.NoError(t, err)

	resp := payload.ResponseFromMap(out)
	assert.Equal(t, "you said: hi", resp.Text)
	assert.Equal(t, "core", resp.Metadata["source"])
}

func TestSimulated(t *testing.T) {
	tr := Simulated(10 * time.Millisecond)

	start := time.Now()
	out, err := tr(context.Background(), payload.NewNaturalLanguageRequest("ping").ToMap())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	resp := payload.ResponseFromMap(out)
	assert.Equal(t, "echo: ping", resp.Text)
	assert.Equal(t, "simulated", resp.Metadata["source"])
}

func TestSimulated_CancelledContext(t *testing.T) {
	tr := Simulated(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := tr(ctx, payload.NewNaturalLanguageRequest("never").ToMap())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
