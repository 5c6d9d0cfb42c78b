// Package payload defines the two value types carried across every boundary
// of the dispatch pipeline: Request (natural language text or a named
// procedure invocation) and Response (free text or a structured map). Both
// serialize into a flat key-value map for the router/engine seam and decode
// back with deliberate tolerance for legacy and malformed senders.
package payload

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// RequestKind tags the shape of a Request.
type RequestKind string

const (
	// KindNaturalLanguage marks free-form text input.
	KindNaturalLanguage RequestKind = "nl"

	// KindProcedure marks a structured invocation of a named procedure.
	KindProcedure RequestKind = "procedure"
)

// legacyKindProcedure is the historical wire spelling. Accepted on decode,
// never emitted.
const legacyKindProcedure = "precedure"

// ResponseKind tags the shape of a Response.
type ResponseKind string

const (
	// KindText marks a plain text response.
	KindText ResponseKind = "text"

	// KindStructured marks a map-valued response.
	KindStructured ResponseKind = "structured"
)

// legacyKindStructured is the historical wire spelling for structured
// responses. Accepted on decode, never emitted.
const legacyKindStructured = "dict"

var (
	// ErrKindValueMismatch reports a payload whose declared kind disagrees
	// with its carried value. Constructing such an instance is a programmer
	// error and fails fast; decode paths coerce instead.
	ErrKindValueMismatch = errors.New("payload: kind and value disagree")

	// ErrUnknownKind reports an unrecognized kind tag.
	ErrUnknownKind = errors.New("payload: unknown kind")
)

// Request is the structured input to the dispatch pipeline.
//
// Exactly one of Text (KindNaturalLanguage) and Params (KindProcedure) is
// meaningful; the constructors make a disagreeing instance unconstructible
// and Validate guards instances built literally or decoded from the wire.
// Metadata carries routing hints such as the procedure name under the
// "procedure" key.
type Request struct {
	Kind      RequestKind
	Text      string         // set when Kind == KindNaturalLanguage
	Params    map[string]any // set when Kind == KindProcedure
	Timestamp time.Time      // zero value means absent
	Metadata  map[string]any
}

// NewNaturalLanguageRequest builds a text request.
func NewNaturalLanguageRequest(text string) Request {
	return Request{
		Kind:     KindNaturalLanguage,
		Text:     text,
		Metadata: map[string]any{},
	}
}

// NewProcedureRequest builds a procedure request carrying the given
// parameter map. The procedure name travels in metadata, not in params;
// use WithMetadata("procedure", name) or let the caller inject it.
func NewProcedureRequest(params map[string]any) Request {
	if params == nil {
		params = map[string]any{}
	}
	return Request{
		Kind:     KindProcedure,
		Params:   params,
		Metadata: map[string]any{},
	}
}

// WithTimestamp returns a copy of the request stamped with t.
func (r Request) WithTimestamp(t time.Time) Request {
	r.Timestamp = t
	return r
}

// WithMetadata returns a copy of the request with key set in a fresh
// metadata map; the receiver's map is never mutated.
func (r Request) WithMetadata(key string, value any) Request {
	md := make(map[string]any, len(r.Metadata)+1)
	for k, v := range r.Metadata {
		md[k] = v
	}
	md[key] = value
	r.Metadata = md
	return r
}

// Validate checks the kind/value agreement invariant.
func (r Request) Validate() error {
	switch r.Kind {
	case KindNaturalLanguage:
		if r.Params != nil {
			return fmt.Errorf("%w: natural language request carries params", ErrKindValueMismatch)
		}
	case KindProcedure:
		if r.Params == nil {
			return fmt.Errorf("%w: procedure request carries no params", ErrKindValueMismatch)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	return nil
}

// ToMap serializes the request into its flat wire form:
//
//	{
//	  "type": "nl" | "procedure",
//	  "input": "..." or { ... },
//	  "timestamp": RFC 3339 string or nil,
//	  "metadata": { ... },
//	}
func (r Request) ToMap() map[string]any {
	var input any
	if r.Kind == KindProcedure {
		input = copyMap(r.Params)
	} else {
		input = r.Text
	}
	return map[string]any{
		"type":      string(r.Kind),
		"input":     input,
		"timestamp": formatTimestamp(r.Timestamp),
		"metadata":  copyMap(r.Metadata),
	}
}

// RequestFromMap decodes a request from its wire form. Decoding is best
// effort and never fails:
//
//   - a missing "type" defaults to natural language; the legacy
//     "precedure" spelling is accepted
//   - a natural language request missing "input" falls back to the legacy
//     "text" and "backing" keys
//   - a malformed timestamp is dropped, not fatal
//   - a procedure request whose input is not a map uses the whole envelope
//     (minus the "type" key) as its parameter map
func RequestFromMap(m map[string]any) Request {
	kind := KindNaturalLanguage
	if tv, ok := m["type"].(string); ok && tv != "" && tv != string(KindNaturalLanguage) {
		// Anything that is not "nl" routes as a procedure, matching the
		// permissive historical decoder.
		kind = KindProcedure
	}

	rawInput, hasInput := m["input"]
	if kind == KindNaturalLanguage && (!hasInput || rawInput == nil) {
		if v, ok := m["text"]; ok && v != nil {
			rawInput = v
		} else if v, ok := m["backing"]; ok && v != nil {
			rawInput = v
		}
	}

	req := Request{
		Kind:      kind,
		Timestamp: parseTimestamp(m["timestamp"]),
		Metadata:  metadataFrom(m["metadata"]),
	}

	if kind == KindNaturalLanguage {
		switch v := rawInput.(type) {
		case nil:
			req.Text = ""
		case string:
			req.Text = v
		default:
			req.Text = fmt.Sprint(v)
		}
		return req
	}

	if params, ok := rawInput.(map[string]any); ok {
		req.Params = copyMap(params)
		return req
	}

	// Malformed sender: treat the envelope itself as the parameter map.
	params := copyMap(m)
	delete(params, "type")
	req.Params = params
	return req
}

// Response is the structured output of the dispatch pipeline.
//
// Exactly one of Text (KindText) and Values (KindStructured) is meaningful.
// A Response is a value type: transformation stages reconstruct a new value
// instead of mutating in place, so concurrent readers never observe a
// half-updated payload.
type Response struct {
	Kind      ResponseKind
	Text      string         // set when Kind == KindText
	Values    map[string]any // set when Kind == KindStructured
	Timestamp time.Time      // zero value means absent
	Metadata  map[string]any
}

// NewTextResponse builds a plain text response.
func NewTextResponse(text string) Response {
	return Response{
		Kind:     KindText,
		Text:     text,
		Metadata: map[string]any{},
	}
}

// NewStructuredResponse builds a map-valued response.
func NewStructuredResponse(values map[string]any) Response {
	if values == nil {
		values = map[string]any{}
	}
	return Response{
		Kind:     KindStructured,
		Values:   values,
		Metadata: map[string]any{},
	}
}

// WithTimestamp returns a copy of the response stamped with t.
func (r Response) WithTimestamp(t time.Time) Response {
	r.Timestamp = t
	return r
}

// WithMetadata returns a copy of the response with key set in a fresh
// metadata map.
func (r Response) WithMetadata(key string, value any) Response {
	return r.MergeMetadata(map[string]any{key: value})
}

// MergeMetadata returns a copy of the response whose metadata is the
// additive merge of the existing map and md. Existing keys survive unless
// md names them; neither input map is mutated.
func (r Response) MergeMetadata(md map[string]any) Response {
	merged := make(map[string]any, len(r.Metadata)+len(md))
	for k, v := range r.Metadata {
		merged[k] = v
	}
	for k, v := range md {
		merged[k] = v
	}
	r.Metadata = merged
	return r
}

// Validate checks the kind/value agreement invariant.
func (r Response) Validate() error {
	switch r.Kind {
	case KindText:
		if r.Values != nil {
			return fmt.Errorf("%w: text response carries values", ErrKindValueMismatch)
		}
	case KindStructured:
		if r.Values == nil {
			return fmt.Errorf("%w: structured response carries no values", ErrKindValueMismatch)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	return nil
}

// DisplayText extracts the best renderable text from the response. Every
// response yields something displayable: text responses return their text,
// structured responses prefer the conventional text/message/content keys,
// then concatenate string fields, then stringify the whole map.
func (r Response) DisplayText() string {
	if r.Kind != KindStructured {
		return r.Text
	}
	for _, key := range []string{"text", "message", "content"} {
		if v, ok := r.Values[key].(string); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var parts []string
	for _, k := range keys {
		if v, ok := r.Values[k].(string); ok && strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n")
	}
	return fmt.Sprintf("%v", r.Values)
}

// ToMap serializes the response into its flat wire form:
//
//	{
//	  "type": "text" | "structured",
//	  "output": "..." or { ... },
//	  "timestamp": RFC 3339 string or nil,
//	  "metadata": { ... },
//	}
func (r Response) ToMap() map[string]any {
	var output any
	if r.Kind == KindStructured {
		output = copyMap(r.Values)
	} else {
		output = r.Text
	}
	return map[string]any{
		"type":      string(r.Kind),
		"output":    output,
		"timestamp": formatTimestamp(r.Timestamp),
		"metadata":  copyMap(r.Metadata),
	}
}

// ResponseFromMap decodes a response from its wire form, guaranteeing a
// renderable result even from a malformed envelope: when the primary value
// is missing entirely, the whole map is stringified as the text. The legacy
// "dict" type tag is accepted for structured responses.
func ResponseFromMap(m map[string]any) Response {
	resp := Response{
		Timestamp: parseTimestamp(m["timestamp"]),
		Metadata:  metadataFrom(m["metadata"]),
	}

	output, hasOutput := m["output"]
	if !hasOutput || output == nil {
		if v, ok := m["text"]; ok && v != nil {
			output, hasOutput = v, true
		}
	}

	kindTag, _ := m["type"].(string)
	structured := kindTag == string(KindStructured) || kindTag == legacyKindStructured
	if kindTag == "" {
		_, structured = output.(map[string]any)
	}

	if structured {
		if values, ok := output.(map[string]any); ok {
			resp.Kind = KindStructured
			resp.Values = copyMap(values)
			return resp
		}
		// Declared structured but the value is not a map: degrade to text.
	}

	resp.Kind = KindText
	switch {
	case !hasOutput:
		resp.Text = fmt.Sprintf("%v", m)
	default:
		if s, ok := output.(string); ok {
			resp.Text = s
		} else {
			resp.Text = fmt.Sprint(output)
		}
	}
	return resp
}

func formatTimestamp(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339Nano)
}

func parseTimestamp(v any) time.Time {
	switch ts := v.(type) {
	case nil:
		return time.Time{}
	case time.Time:
		return ts
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			// Tolerated: a bad timestamp never fails the whole parse.
			return time.Time{}
		}
		return parsed
	default:
		return time.Time{}
	}
}

func metadataFrom(v any) map[string]any {
	if md, ok := v.(map[string]any); ok {
		return copyMap(md)
	}
	return map[string]any{}
}

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
