// Package transport bridges the router to a request handling backend. A
// Transport is a plain function over wire-form maps so backends, decorators
// and test doubles compose without shared types.
package transport

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/payload"
)

// Transport carries a serialized request to a backend and returns the
// serialized response. Implementations must be safe for concurrent use.
type Transport func(ctx context.Context, request map[string]any) (map[string]any, error)

// InProcess returns a Transport that invokes the given engine directly.
// The engine never fails at the transport level, so the returned error is
// always nil.
func InProcess(e *engine.Engine) Transport {
	return func(ctx context.Context, request map[string]any) (map[string]any, error) {
		req := payload.RequestFromMap(request)
		return e.Handle(ctx, req).ToMap(), nil
	}
}

// Simulated returns a Transport that echoes the request back as a text
// response after the given artificial delay. It is the stand-in backend for
// wiring tests and examples where no engine is configured.
func Simulated(delay time.Duration) Transport {
	return func(ctx context.Context, request map[string]any) (map[string]any, error) {
		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req := payload.RequestFromMap(request)

		resp := payload.NewTextResponse("echo: " + req.Text).
			WithMetadata("source", "simulated").
			WithTimestamp(time.Now())

		return resp.ToMap(), nil
	}
}
