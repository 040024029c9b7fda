package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// OpenAI calls any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	client     *openai.Client
	model      string
	structured bool
}

// NewOpenAI builds a client for apiEndpoint. structured reports whether the
// endpoint accepts json_schema response formats; many compatible servers do
// not.
func NewOpenAI(apiKey, model, apiEndpoint string, structured bool) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	cfg := openai.DefaultConfig(apiKey)
	if apiEndpoint != "" {
		cfg.BaseURL = apiEndpoint
	}
	return &OpenAI{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		structured: structured,
	}, nil
}

func (o *OpenAI) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxOutputTokens,
	}
	if opts.Schema != nil {
		format, err := o.responseFormat(opts.Schema, opts.SchemaName)
		if err != nil {
			return "", err
		}
		req.ResponseFormat = format
	}

	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai returned no choices")
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

// responseFormat maps a schema onto the json_schema response format. The
// API only accepts object roots, so array schemas are reported as
// unsupported and left to prompt-level instructions.
func (o *OpenAI) responseFormat(schema *jsonschema.Definition, name string) (*openai.ChatCompletionResponseFormat, error) {
	if !o.structured || schema.Type != jsonschema.Object {
		return nil, ErrStructuredOutputUnsupported
	}
	if name == "" {
		name = "response"
	}
	return &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   name,
			Schema: schema,
			Strict: true,
		},
	}, nil
}
