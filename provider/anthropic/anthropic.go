// Package anthropic adapts the Anthropic Messages API to the
// provider.Completer seam.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/hupe1980/routemesh/provider"
)

// Options configure the Anthropic completer (model id, temperature, max
// tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	Model       anthropic.Model
	Temperature float64
	MaxTokens   int64
	APIKey      string
}

// New creates a Completer using the official client.
func New(optFns ...func(o *Options)) provider.Completer {
	opts := applyOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}

	client := anthropic.NewClient(clientOpts...)

	return newCompleter(&client, opts)
}

// NewFromClient creates a Completer from an existing client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) provider.Completer {
	return newCompleter(client, applyOptions(optFns))
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:       anthropic.ModelClaude3_5Sonnet20241022,
		Temperature: 0.7,
		MaxTokens:   1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

func newCompleter(client *anthropic.Client, opts Options) provider.Completer {
	return func(ctx context.Context, prompt string, optFns ...func(o *provider.Options)) (string, error) {
		callOpts := provider.Options{}
		for _, fn := range optFns {
			fn(&callOpts)
		}

		params := anthropic.MessageNewParams{
			Model:       opts.Model,
			MaxTokens:   opts.MaxTokens,
			Temperature: anthropic.Float(opts.Temperature),
			Messages: []anthropic.MessageParam{
				anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
			},
		}

		if callOpts.SystemPrompt != "" {
			params.System = []anthropic.TextBlockParam{
				{Text: callOpts.SystemPrompt},
			}
		}

		resp, err := client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api error: %w", err)
		}

		var sb strings.Builder
		for _, block := range resp.Content {
			if block.Type == "text" {
				sb.WriteString(block.AsText().Text)
			}
		}

		return sb.String(), nil
	}
}
