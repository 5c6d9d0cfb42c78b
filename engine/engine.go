// Package engine implements the stateless request handling core. An Engine
// dispatches natural language requests to a trivial echo path and procedure
// requests to a configured procedure executor, normalizing every failure
// into a well-formed response so callers always receive something
// renderable.
package engine

import (
	"context"
	"time"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/procedure"
)

// sourceName tags every response emitted by this engine.
const sourceName = "core"

// Options configures an Engine instance using the functional options
// pattern.
type Options struct {
	// Executor runs procedure requests. When nil, procedure requests are
	// answered with a missing_programmatic_executor response; natural
	// language requests still work.
	Executor *procedure.Executor

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// WithExecutor sets the procedure executor.
func WithExecutor(ex *procedure.Executor) func(o *Options) {
	return func(o *Options) {
		o.Executor = ex
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Engine is the request handling core. It holds no per-request state, so a
// single instance is safe for concurrent use.
type Engine struct {
	executor *procedure.Executor
	logger   logging.Logger
}

// New creates an Engine.
func New(optFns ...func(o *Options)) *Engine {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Engine{
		executor: opts.Executor,
		logger:   opts.Logger,
	}
}

// Handle processes a single request and always returns a response. Failures
// surface as structured error responses, never as panics or nil results.
// Every response carries metadata.source = "core" and a fresh timestamp.
func (e *Engine) Handle(ctx context.Context, req payload.Request) payload.Response {
	var resp payload.Response

	switch req.Kind {
	case payload.KindProcedure:
		resp = e.handleProcedure(ctx, req)
	default:
		resp = e.handleNaturalLanguage(req)
	}

	return resp.
		WithMetadata("source", sourceName).
		WithTimestamp(time.Now())
}

func (e *Engine) handleNaturalLanguage(req payload.Request) payload.Response {
	e.logger.Debug("engine.handle.nl", "text_len", len(req.Text))
	return payload.NewTextResponse("you said: " + req.Text)
}

func (e *Engine) handleProcedure(ctx context.Context, req payload.Request) payload.Response {
	if e.executor == nil {
		e.logger.Warn("engine.handle.no_executor")
		return payload.NewErrorResponse(
			payload.ErrorMissingExecutor,
			"no programmatic executor configured",
		)
	}

	name, _ := req.Metadata["procedure"].(string)
	if name == "" {
		e.logger.Warn("engine.handle.no_procedure_name")
		return payload.NewErrorResponse(
			payload.ErrorMissingProcedureName,
			"procedure request without a procedure metadata key",
		)
	}

	resp, err := e.executor.Execute(ctx, name, req.Params, req.Metadata)
	if err != nil {
		e.logger.Error("engine.handle.procedure_failed", "procedure", name, "error", err.Error())
		return payload.NewErrorResponse(
			payload.ErrorProcedureException,
			err.Error(),
		)
	}

	return resp
}
