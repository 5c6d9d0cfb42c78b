// Package routemesh provides a high-level façade over the request engine,
// the procedure executor and the consumer router. Most applications
// interact with this package by:
//  1. Creating a RouteMesh via New() (optionally overriding transport,
//     executor or logger)
//  2. Registering consumers and extra procedures
//  3. Dispatching requests (Dispatch / Ask)
//
// The façade delegates fan-out to router.Router and request handling to
// engine.Engine while keeping setup ergonomics concise. All defaults are
// safe for local development and testing.
package routemesh

import (
	"context"

	"github.com/hupe1980/routemesh/engine"
	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/procedure"
	"github.com/hupe1980/routemesh/router"
	"github.com/hupe1980/routemesh/transport"
)

// Options configures the RouteMesh instance.
type Options struct {
	// Executor runs procedure requests. Defaults to the default executor
	// (built-in procedures included) if nil.
	Executor *procedure.Executor

	// Transport carries requests to the backend. Defaults to an in-process
	// transport over an engine built from Executor if nil.
	Transport transport.Transport

	// WorkerPoolSize bounds concurrently running blocking consumers.
	WorkerPoolSize int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// RouteMesh is the high-level façade aggregating the router, engine and
// executor.
type RouteMesh struct {
	executor *procedure.Executor
	router   *router.Router
}

// New creates a new RouteMesh instance with optional overrides. Any unset
// piece is initialized with its in-process default.
func New(optFns ...func(o *Options)) *RouteMesh {
	opts := Options{
		WorkerPoolSize: router.DefaultWorkerPoolSize,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Executor == nil {
		opts.Executor = procedure.NewDefaultExecutor(func(o *procedure.Options) {
			o.Logger = opts.Logger
		})
	}

	if opts.Transport == nil {
		e := engine.New(
			engine.WithExecutor(opts.Executor),
			engine.WithLogger(opts.Logger),
		)
		opts.Transport = transport.InProcess(e)
	}

	r := router.New(
		router.WithTransport(opts.Transport),
		router.WithWorkerPoolSize(opts.WorkerPoolSize),
		router.WithLogger(opts.Logger),
	)

	return &RouteMesh{
		executor: opts.Executor,
		router:   r,
	}
}

// RegisterProcedure adds a procedure to the underlying executor.
func (m *RouteMesh) RegisterProcedure(p procedure.Procedure) error {
	return m.executor.Register(p)
}

// RegisterConsumer adds a consumer and returns its registration id.
func (m *RouteMesh) RegisterConsumer(c router.Consumer) string {
	return m.router.Register(c)
}

// UnregisterConsumer removes a consumer. Unknown ids are a no-op.
func (m *RouteMesh) UnregisterConsumer(id string) {
	m.router.Unregister(id)
}

// Dispatch sends a request through the transport and fans the response out
// to every registered consumer.
func (m *RouteMesh) Dispatch(ctx context.Context, req payload.Request) error {
	return m.router.Dispatch(ctx, req)
}

// Ask is a synchronous helper: it registers a one-shot consumer, dispatches
// the request and returns the response seen by that consumer.
func (m *RouteMesh) Ask(ctx context.Context, req payload.Request) (payload.Response, error) {
	var (
		got payload.Response
		ch  = make(chan struct{}, 1)
	)

	id := m.router.Register(router.NonBlocking(func(resp payload.Response) error {
		got = resp
		select {
		case ch <- struct{}{}:
		default:
		}
		return nil
	}))
	defer m.router.Unregister(id)

	if err := m.router.Dispatch(ctx, req); err != nil {
		return payload.Response{}, err
	}

	// Dispatch waits for all consumers, so the signal is already buffered.
	<-ch

	return got, nil
}

// Shutdown clears the consumer registry.
func (m *RouteMesh) Shutdown() {
	m.router.Shutdown()
}
