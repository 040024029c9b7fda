package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-flash-latest"

// Gemini calls the Gemini API through the google genai SDK.
type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = defaultGeminiModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

func (g *Gemini) Generate(ctx context.Context, prompt string, opts Options) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if opts.Temperature > 0 {
		cfg.Temperature = genai.Ptr(opts.Temperature)
	}
	if opts.MaxOutputTokens > 0 {
		cfg.MaxOutputTokens = int32(opts.MaxOutputTokens)
	}
	if opts.Schema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toGenaiSchema(*opts.Schema)
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// toGenaiSchema converts the JSON-schema subset used by the study
// generators into Gemini's OpenAPI-flavoured schema.
func toGenaiSchema(def jsonschema.Definition) *genai.Schema {
	out := &genai.Schema{
		Type:        genai.Type(strings.ToUpper(string(def.Type))),
		Description: def.Description,
		Enum:        def.Enum,
		Required:    def.Required,
	}
	if def.Items != nil {
		out.Items = toGenaiSchema(*def.Items)
	}
	if len(def.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(def.Properties))
		for name, prop := range def.Properties {
			out.Properties[name] = toGenaiSchema(prop)
		}
		// keep the declared field order in the generated JSON
		out.PropertyOrdering = def.Required
	}
	return out
}
