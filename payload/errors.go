package payload

// Error codes carried in the "error" field of structured error responses.
// Routing misses and execution failures are ordinary response values, not
// thrown failures, so consumers always receive something renderable.
const (
	// ErrorMissingExecutor reports a procedure request hitting an engine
	// with no configured executor.
	ErrorMissingExecutor = "missing_programmatic_executor"

	// ErrorMissingProcedureName reports a procedure request whose metadata
	// lacked the routing name.
	ErrorMissingProcedureName = "missing_procedure_name"

	// ErrorProcedureNotFound reports a name absent from the registry.
	ErrorProcedureNotFound = "procedure_not_found"

	// ErrorProcedureException reports a handler failure captured by the
	// engine.
	ErrorProcedureException = "procedure_exception"
)

// NewErrorResponse builds the structured error shape shared by every error
// path: a map with the machine-readable code under "error" and a
// human-readable summary under "text".
func NewErrorResponse(code, text string) Response {
	return NewStructuredResponse(map[string]any{
		"text":  text,
		"error": code,
	})
}

// ErrorCode returns the error code of a structured error response, or ""
// for responses that do not carry one.
func (r Response) ErrorCode() string {
	if r.Kind != KindStructured {
		return ""
	}
	code, _ := r.Values["error"].(string)
	return code
}
