// Package openai adapts the OpenAI Chat Completions API to the
// provider.Completer seam.
package openai

import (
	"context"
	"fmt"

	"github.com/hupe1980/routemesh/provider"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Options configure the OpenAI completer. Fields mirror a minimal subset of
// Chat Completion parameters; extend via functional options without
// breaking callers.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	BaseURL             string
}

// New creates a Completer using the official client.
func New(optFns ...func(o *Options)) provider.Completer {
	opts := applyOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	client := openai.NewClient(clientOpts...)

	return newCompleter(&client, opts)
}

// NewFromClient creates a Completer from an existing client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) provider.Completer {
	return newCompleter(client, applyOptions(optFns))
}

func applyOptions(optFns []func(o *Options)) Options {
	opts := Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 1024,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return opts
}

func newCompleter(client *openai.Client, opts Options) provider.Completer {
	return func(ctx context.Context, prompt string, optFns ...func(o *provider.Options)) (string, error) {
		callOpts := provider.Options{}
		for _, fn := range optFns {
			fn(&callOpts)
		}

		var messages []openai.ChatCompletionMessageParamUnion
		if callOpts.SystemPrompt != "" {
			messages = append(messages, openai.SystemMessage(callOpts.SystemPrompt))
		}
		messages = append(messages, openai.UserMessage(prompt))

		resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
			Model:               opts.Model,
			Messages:            messages,
			Temperature:         openai.Float(opts.Temperature),
			MaxCompletionTokens: openai.Int(opts.MaxCompletionTokens),
		})
		if err != nil {
			return "", fmt.Errorf("openai api error: %w", err)
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("openai api error: empty choices")
		}

		return resp.Choices[0].Message.Content, nil
	}
}
