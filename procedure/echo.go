package procedure

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/routemesh/payload"
)

// maxEchoDelay caps the requested delay so a single call cannot stall a
// caller indefinitely.
const maxEchoDelay = 5 * time.Second

func init() {
	MustRegisterProcedure(NewEchoProcedure())
}

// NewEchoProcedure creates the built-in echo procedure. It returns the
// provided text after an optional delay, which is useful for wiring checks
// and latency experiments.
func NewEchoProcedure() Procedure {
	return NewFunctionProcedure(
		"echo",
		"Echoes the given text back after an optional delay.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"text": map[string]any{
					"type":        "string",
					"description": "Text to echo back.",
				},
				"time_delay": map[string]any{
					"type":        "number",
					"description": "Seconds to wait before responding, capped at 5.",
				},
			},
		},
		echo,
	)
}

func echo(ctx context.Context, params, metadata map[string]any) (payload.Response, error) {
	text := ""
	if v, ok := params["text"].(string); ok {
		text = v
	}

	delay := time.Duration(0)
	switch v := params["time_delay"].(type) {
	case float64:
		delay = time.Duration(v * float64(time.Second))
	case int:
		delay = time.Duration(v) * time.Second
	}

	if delay < 0 {
		delay = 0
	}
	if delay > maxEchoDelay {
		delay = maxEchoDelay
	}

	start := time.Now()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return payload.Response{}, NewProcedureError("echo", fmt.Sprintf("cancelled while waiting: %v", ctx.Err()), "EXECUTION_ERROR")
		}
	}

	resp := payload.NewStructuredResponse(map[string]any{
		"text":      text,
		"echo":      true,
		"time_used": time.Since(start).Seconds(),
	})

	return resp.MergeMetadata(metadata), nil
}
