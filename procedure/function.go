package procedure

import (
	"context"

	"github.com/hupe1980/routemesh/payload"
)

// FunctionProcedure is a generic adapter that exposes a plain Go function
// as a Procedure.
//
// Responsibilities:
//   - Holds a lightweight JSON-schema-like parameter specification
//   - Validates supplied parameters against that schema before execution
//   - Normalizes error handling so callers receive *ProcedureError with
//     consistent codes:
//     VALIDATION_ERROR  -> schema / parameter mismatch
//     EXECUTION_ERROR   -> underlying function returned an error (non-ProcedureError)
//     (custom codes preserved if the function returns *ProcedureError directly)
//
// A FunctionProcedure has no internal mutable state after construction and
// is safe for concurrent use by multiple goroutines.
type FunctionProcedure struct {
	// Procedure identifier (snake_case recommended)
	name string
	// Human-readable description of the capability
	description string
	// JSON-schema-like map describing accepted parameters; nil accepts anything
	parameters map[string]any
	// User supplied implementation
	fn Func
}

// NewFunctionProcedure constructs a FunctionProcedure from explicit schema
// and function.
//
// Example:
//
//	upper := NewFunctionProcedure(
//	  "upper",
//	  "Uppercase the given text",
//	  map[string]any{
//	    "type": "object",
//	    "properties": map[string]any{
//	      "text": map[string]any{"type": "string"},
//	    },
//	    "required": []string{"text"},
//	  },
//	  func(_ context.Context, params, _ map[string]any) (payload.Response, error) {
//	    return payload.NewTextResponse(strings.ToUpper(params["text"].(string))), nil
//	  },
//	)
func NewFunctionProcedure(name, description string, parameters map[string]any, fn Func) *FunctionProcedure {
	return &FunctionProcedure{
		name:        name,
		description: description,
		parameters:  parameters,
		fn:          fn,
	}
}

// Name returns the unique procedure name used for registry routing.
func (p *FunctionProcedure) Name() string { return p.name }

// Description returns the short natural language description.
func (p *FunctionProcedure) Description() string { return p.description }

// Parameters returns the (minimal) schema describing expected parameters.
func (p *FunctionProcedure) Parameters() map[string]any { return p.parameters }

// Run validates the provided params against the declared schema then
// invokes the underlying function. Validation or execution failures are
// wrapped (or passed through) as *ProcedureError for uniform downstream
// handling.
func (p *FunctionProcedure) Run(ctx context.Context, params, metadata map[string]any) (payload.Response, error) {
	if err := ValidateParams(params, p.parameters); err != nil {
		return payload.Response{}, &ProcedureError{
			Procedure: p.name,
			Message:   "parameter validation failed: " + err.Error(),
			Code:      "VALIDATION_ERROR",
			Details:   err,
		}
	}

	resp, err := p.fn(ctx, params, metadata)
	if err != nil {
		if procErr, ok := err.(*ProcedureError); ok {
			return payload.Response{}, procErr
		}
		return payload.Response{}, &ProcedureError{
			Procedure: p.name,
			Message:   err.Error(),
			Code:      "EXECUTION_ERROR",
		}
	}

	return resp, nil
}
