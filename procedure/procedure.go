// Package procedure implements the named procedure subsystem that lets the
// dispatch pipeline invoke structured capabilities (computations, fetches,
// side effects) with schema validated parameters and consistent error
// handling. Procedures are registered by unique name and executed by the
// Executor, which turns routing misses into ordinary response values.
package procedure

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/payload"
)

// Func is the plain function shape of a procedure: structured parameters
// plus request metadata in, a Response out. Implementations must not return
// an error for expected bad input; they return a structured error-shaped
// Response instead and reserve the error for truly exceptional conditions.
type Func func(ctx context.Context, params map[string]any, metadata map[string]any) (payload.Response, error)

// Procedure defines the interface for named, structured handlers.
//
// Implementations should:
//   - Provide unique, descriptive names (snake_case recommended)
//   - Declare a parameter schema when validation is wanted
//   - Be safe for concurrent use
type Procedure interface {
	// Name returns the unique identifier for this procedure.
	Name() string

	// Description returns a human-readable summary of what the procedure does.
	Description() string

	// Parameters returns a JSON-schema-like map describing the expected
	// parameters, or nil when the procedure accepts anything.
	Parameters() map[string]any

	// Run executes the procedure. Errors propagate to the caller; the
	// engine is the layer that normalizes them into responses.
	Run(ctx context.Context, params map[string]any, metadata map[string]any) (payload.Response, error)
}

// ProcedureError represents failures raised during procedure execution.
type ProcedureError struct {
	Procedure string `json:"procedure"`         // Name of the procedure that failed
	Message   string `json:"message"`           // Error message
	Code      string `json:"code"`              // Error code for categorization
	Details   any    `json:"details,omitempty"` // Additional error details
}

func (e *ProcedureError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("procedure error [%s] in %s: %s", e.Code, e.Procedure, e.Message)
	}
	return fmt.Sprintf("procedure error in %s: %s", e.Procedure, e.Message)
}

// NewProcedureError creates a new ProcedureError with the specified details.
func NewProcedureError(procedure, message, code string) *ProcedureError {
	return &ProcedureError{
		Procedure: procedure,
		Message:   message,
		Code:      code,
	}
}
