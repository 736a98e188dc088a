package hf

import (
	"context"
	"fmt"
)

const (
	// DefaultGenerationModel is a medical-domain causal language model.
	DefaultGenerationModel = "epfl-llm/meditron-7b"

	// DefaultMaxNewTokens is the default number of tokens to generate.
	DefaultMaxNewTokens = 200

	// DefaultTemperature is the default sampling temperature.
	DefaultTemperature = 0.7
)

// Generator answers prompts with a causal language model through the
// text-generation task of the inference API.
type Generator struct {
	client            *Client
	model             string
	maxNewTokens      int
	temperature       float64
	topP              float64
	repetitionPenalty float64
	doSample          bool
}

// GeneratorOption is a Generator option.
type GeneratorOption func(*Generator)

// GenerationModel sets the model id.
func GenerationModel(model string) GeneratorOption {
	return func(g *Generator) {
		g.model = model
	}
}

// MaxNewTokens sets the maximum number of generated tokens.
func MaxNewTokens(n int) GeneratorOption {
	return func(g *Generator) {
		g.maxNewTokens = n
	}
}

// Temperature sets the sampling temperature.
func Temperature(t float64) GeneratorOption {
	return func(g *Generator) {
		g.temperature = t
	}
}

// TopP sets nucleus sampling. Zero leaves it to the server.
func TopP(p float64) GeneratorOption {
	return func(g *Generator) {
		g.topP = p
	}
}

// RepetitionPenalty sets the repetition penalty. Zero leaves it to the server.
func RepetitionPenalty(p float64) GeneratorOption {
	return func(g *Generator) {
		g.repetitionPenalty = p
	}
}

// Sample enables or disables sampling. Sampling is enabled by default;
// without it the model decodes greedily and the temperature is ignored.
func Sample(sample bool) GeneratorOption {
	return func(g *Generator) {
		g.doSample = sample
	}
}

// NewGenerator returns a Generator that uses client.
func NewGenerator(client *Client, opts ...GeneratorOption) *Generator {
	g := &Generator{
		client:       client,
		model:        DefaultGenerationModel,
		maxNewTokens: DefaultMaxNewTokens,
		temperature:  DefaultTemperature,
		doSample:     true,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the model id.
func (g *Generator) Model() string {
	return g.model
}

// Chat generates the continuation of prompt. The prompt itself is not part of
// the returned text.
func (g *Generator) Chat(ctx context.Context, prompt string) (string, error) {
	params := map[string]any{
		"max_new_tokens":   g.maxNewTokens,
		"do_sample":        g.doSample,
		"return_full_text": false,
	}
	if g.doSample {
		params["temperature"] = g.temperature
	}
	if g.topP > 0 {
		params["top_p"] = g.topP
	}
	if g.repetitionPenalty > 0 {
		params["repetition_penalty"] = g.repetitionPenalty
	}

	var resp []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := g.client.infer(ctx, g.model, map[string]any{
		"inputs":     prompt,
		"parameters": params,
	}, &resp); err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp) == 0 {
		return "", fmt.Errorf("generate: %w", ErrEmptyResponse)
	}

	return resp[0].GeneratedText, nil
}
