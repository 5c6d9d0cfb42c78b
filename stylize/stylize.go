// Package stylize rewrites response text into a decorated tone before it
// reaches consumers. A Stylizer runs a completer over the extracted text
// and rebuilds a fresh text response; without a completer, or when the
// completer fails, a deterministic local decoration keeps the pipeline
// alive.
package stylize

import (
	"context"
	"fmt"
	"strings"

	"github.com/hupe1980/routemesh/logging"
	"github.com/hupe1980/routemesh/payload"
	"github.com/hupe1980/routemesh/provider"
	"github.com/hupe1980/routemesh/transport"
)

// DefaultSystemPrompt asks for light stylistic decoration without changing
// the meaning of the text.
const DefaultSystemPrompt = "You are an assistant with a playful, expressive voice. " +
	"Lightly restyle the given text while preserving its meaning and readability. " +
	"Keep it short enough for a terminal display."

// emptyPlaceholder substitutes for responses with no extractable text.
const emptyPlaceholder = "(empty)"

// mode values recorded in the response metadata.
const (
	modeCompleter     = "llm"
	modeFallback      = "fallback"
	modeFallbackError = "fallback-error"
)

// Options configures a Stylizer.
type Options struct {
	// Completer rewrites the text. When nil, the local fallback is used.
	Completer provider.Completer

	// SystemPrompt steers the completer. Defaults to DefaultSystemPrompt.
	SystemPrompt string

	// Logger provides structured logging. Defaults to NoOp if nil.
	Logger logging.Logger
}

// WithCompleter sets the completer.
func WithCompleter(c provider.Completer) func(o *Options) {
	return func(o *Options) {
		o.Completer = c
	}
}

// WithSystemPrompt overrides the default system prompt.
func WithSystemPrompt(prompt string) func(o *Options) {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// WithLogger sets the logger.
func WithLogger(logger logging.Logger) func(o *Options) {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Stylizer rewrites response text. Process never mutates its input; it
// always returns a newly built response.
type Stylizer struct {
	completer    provider.Completer
	systemPrompt string
	logger       logging.Logger
}

// New creates a Stylizer.
func New(optFns ...func(o *Options)) *Stylizer {
	opts := Options{
		SystemPrompt: DefaultSystemPrompt,
		Logger:       logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Stylizer{
		completer:    opts.Completer,
		systemPrompt: opts.SystemPrompt,
		logger:       opts.Logger,
	}
}

// Process rewrites the response's text and returns a new text response
// carrying the input's timestamp plus style bookkeeping metadata. Completer
// failures fall back to the local decoration and are recorded in the
// metadata, never returned.
func (s *Stylizer) Process(ctx context.Context, resp payload.Response) payload.Response {
	text := resp.DisplayText()

	styled := ""
	mode := modeFallback

	if s.completer != nil {
		prompt := fmt.Sprintf("Restyle the following text. Output only the restyled text, no explanation.\n---\n%s\n---", text)

		out, err := s.completer(ctx, prompt, provider.WithSystemPrompt(s.systemPrompt))
		switch {
		case err != nil:
			s.logger.Warn("stylize.completer_failed", "error", err.Error())
			styled = fallbackStylize(text)
			mode = modeFallbackError
		case strings.TrimSpace(out) == "":
			styled = fallbackStylize(text)
			mode = modeFallbackError
		default:
			styled = strings.TrimSpace(out)
			mode = modeCompleter
		}
	} else {
		styled = fallbackStylize(text)
	}

	out := payload.NewTextResponse(styled).
		WithTimestamp(resp.Timestamp).
		MergeMetadata(resp.Metadata).
		WithMetadata("style", map[string]any{"mode": mode})

	return out
}

// Middleware wraps a transport so every response is stylized on the way
// back. Styling failures fall back to the local decoration inside Process,
// so only a transport error fails the dispatch.
func Middleware(next transport.Transport, s *Stylizer) transport.Transport {
	return func(ctx context.Context, request map[string]any) (map[string]any, error) {
		out, err := next(ctx, request)
		if err != nil {
			return nil, err
		}

		styled := s.Process(ctx, payload.ResponseFromMap(out))

		return styled.ToMap(), nil
	}
}

// fallbackStylize decorates text without a completer: a terminal bang when
// one is missing, then a sparkle.
func fallbackStylize(text string) string {
	base := strings.TrimSpace(text)
	if base == "" {
		base = emptyPlaceholder
	}

	if !strings.HasSuffix(base, "!") && !strings.HasSuffix(base, "！") {
		base += "!"
	}

	return base + " ✨"
}
