package procedure

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
)

var (
	// ErrEmptyName rejects registration under an empty procedure name.
	ErrEmptyName = errors.New("procedure: name must not be empty")

	// ErrNilProcedure rejects registration of a nil handler.
	ErrNilProcedure = errors.New("procedure: handler must not be nil")
)

// Options configures an Executor instance.
type Options struct {
	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// Executor owns the name to procedure mapping and executes procedures by
// name.
//
// Registration is last-write-wins: registering a name replaces any prior
// handler under that name, so no two handlers are ever invoked for a single
// name in one dispatch. The map is guarded for correctness under concurrent
// registration, although in practice mutation happens at startup and the
// map is read-only during dispatch.
//
// Execute's contract is "run or propagate": a handler failure is returned
// to the caller untouched, while a routing miss is an ordinary structured
// response so callers never special-case exceptions for missing names.
type Executor struct {
	mu         sync.RWMutex
	procedures map[string]Procedure
	logger     logging.Logger
}

// NewExecutor creates an empty Executor.
func NewExecutor(optFns ...func(o *Options)) *Executor {
	opts := Options{
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Executor{
		procedures: make(map[string]Procedure),
		logger:     opts.Logger,
	}
}

// NewDefaultExecutor creates an Executor preloaded with every procedure in
// the package-wide default table (the built-in echo procedure plus anything
// contributed via RegisterProcedure). Registration order is irrelevant
// since names are unique.
func NewDefaultExecutor(optFns ...func(o *Options)) *Executor {
	e := NewExecutor(optFns...)
	for _, p := range RegisteredProcedures() {
		// Table entries were validated on insertion.
		_ = e.Register(p)
	}
	return e
}

// Register adds a procedure to the executor's registry under its name.
// Registering an existing name overwrites the prior handler.
func (e *Executor) Register(p Procedure) error {
	if p == nil {
		return ErrNilProcedure
	}
	if p.Name() == "" {
		return ErrEmptyName
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.procedures[p.Name()] = p

	return nil
}

// RegisterFunc registers a bare function under name with no parameter
// schema. It is a convenience wrapper around NewFunctionProcedure.
func (e *Executor) RegisterFunc(name, description string, fn Func) error {
	if fn == nil {
		return ErrNilProcedure
	}
	return e.Register(NewFunctionProcedure(name, description, nil, fn))
}

// Unregister removes the procedure registered under name. Removing an
// absent name is a no-op.
func (e *Executor) Unregister(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.procedures, name)
}

// Lookup returns the procedure registered under name.
func (e *Executor) Lookup(name string) (Procedure, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	p, ok := e.procedures[name]
	return p, ok
}

// Names returns the currently registered procedure names.
func (e *Executor) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.procedures))
	for name := range e.procedures {
		names = append(names, name)
	}

	return names
}

// Execute runs the named procedure with params and metadata.
//
// A missing name yields a structured procedure_not_found response and a
// nil error. On success the executor merges {command_name: name} into the
// response metadata as an audit trail. A handler error propagates to the
// caller unchanged; the engine converts it into a well-formed response.
func (e *Executor) Execute(ctx context.Context, name string, params, metadata map[string]any) (payload.Response, error) {
	p, ok := e.Lookup(name)
	if !ok {
		e.logger.Warn("procedure.execute.miss", "procedure", name)
		return payload.NewErrorResponse(
			payload.ErrorProcedureNotFound,
			fmt.Sprintf("%s not found", name),
		), nil
	}

	start := time.Now()

	resp, err := p.Run(ctx, params, metadata)
	if err != nil {
		e.logger.Error("procedure.execute.error", "procedure", name, "error", err.Error())
		return payload.Response{}, err
	}

	e.logger.Info("procedure.execute.success", "procedure", name, "duration_ms", time.Since(start).Milliseconds())

	return resp.WithMetadata("command_name", name), nil
}
