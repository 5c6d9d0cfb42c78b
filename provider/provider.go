// Package provider defines the text completion seam used by styling and
// summarization. A Completer is a plain prompt-in/text-out function so
// callers never touch a provider wire format; concrete adapters live in the
// openai and anthropic subpackages.
package provider

import "context"

// Options configures a single completion call.
type Options struct {
	// SystemPrompt steers the completion. Empty means no system prompt.
	SystemPrompt string
}

// WithSystemPrompt sets the system prompt for a call.
func WithSystemPrompt(prompt string) func(o *Options) {
	return func(o *Options) {
		o.SystemPrompt = prompt
	}
}

// Completer turns a prompt into a completion. Implementations must be safe
// for concurrent use.
type Completer func(ctx context.Context, prompt string, optFns ...func(o *Options)) (string, error)

// Static returns a Completer that always answers with text. Useful for
// tests and examples that must not talk to a real provider.
func Static(text string) Completer {
	return func(_ context.Context, _ string, _ ...func(o *Options)) (string, error) {
		return text, nil
	}
}
