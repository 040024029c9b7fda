// Package llm hides the text-generation providers behind a single narrow
// interface: a prompt and a few generation options in, text out.
package llm

import (
	"context"
	"errors"

	"github.com/sashabaranov/go-openai/jsonschema"
)

var (
	// ErrStructuredOutputUnsupported is returned, before any network call,
	// when a provider cannot honour Options.Schema.
	ErrStructuredOutputUnsupported = errors.New("structured output is not supported by this provider")

	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("model returned an empty response")

	// ErrNotConfigured is returned when no API key was supplied.
	ErrNotConfigured = errors.New("language model is not configured")
)

// Options are the per-call generation parameters.
type Options struct {
	Temperature     float32
	MaxOutputTokens int

	// Schema, when set, asks the provider to constrain its output to JSON
	// matching the definition.
	Schema     *jsonschema.Definition
	SchemaName string
}

// Model generates text for a prompt.
type Model interface {
	Generate(ctx context.Context, prompt string, opts Options) (string, error)
}

// ModelFunc adapts a plain function to the Model interface.
type ModelFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f ModelFunc) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}
