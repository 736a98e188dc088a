package hf

import (
	"context"
	"fmt"
	"strings"

	"github.com/modernice/hakim"
)

const (
	// DefaultTranslationModel is a multilingual NLLB-200 model. See
	// [SupportsLanguage] for the languages it covers.
	DefaultTranslationModel = "facebook/nllb-200-distilled-600M"

	// DefaultMaxLength is the default maximum length (in tokens) of a translation.
	DefaultMaxLength = 512
)

// Translator translates text with a sequence-to-sequence translation model.
// Languages are passed as FLORES-200 codes, which select the forced
// beginning-of-sequence token of the target language.
type Translator struct {
	client    *Client
	model     string
	maxLength int
}

// TranslatorOption is a Translator option.
type TranslatorOption func(*Translator)

// TranslationModel sets the model id.
func TranslationModel(model string) TranslatorOption {
	return func(t *Translator) {
		t.model = model
	}
}

// MaxLength sets the maximum length of a translation in tokens.
func MaxLength(n int) TranslatorOption {
	return func(t *Translator) {
		t.maxLength = n
	}
}

// NewTranslator returns a Translator that uses client.
func NewTranslator(client *Client, opts ...TranslatorOption) *Translator {
	t := &Translator{
		client:    client,
		model:     DefaultTranslationModel,
		maxLength: DefaultMaxLength,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Model returns the model id.
func (t *Translator) Model() string {
	return t.model
}

// Translate translates text from source to target.
// Languages unknown to NLLB-200 fail with [hakim.ErrUnsupportedLanguage]
// without a request.
func (t *Translator) Translate(ctx context.Context, text string, source, target hakim.Language) (string, error) {
	for _, lang := range [...]hakim.Language{source, target} {
		if !SupportsLanguage(lang) {
			return "", fmt.Errorf("translate %s -> %s: %w: %s", source, target, hakim.ErrUnsupportedLanguage, lang.FLORES())
		}
	}

	params := map[string]any{
		"src_lang": source.FLORES(),
		"tgt_lang": target.FLORES(),
	}
	if t.maxLength > 0 {
		params["max_length"] = t.maxLength
	}

	var resp []struct {
		TranslationText string `json:"translation_text"`
	}
	if err := t.client.infer(ctx, t.model, map[string]any{
		"inputs":     text,
		"parameters": params,
	}, &resp); err != nil {
		return "", fmt.Errorf("translate %s -> %s: %w", source, target, err)
	}

	if len(resp) == 0 || strings.TrimSpace(resp[0].TranslationText) == "" {
		return "", fmt.Errorf("translate %s -> %s: %w", source, target, ErrEmptyResponse)
	}

	return resp[0].TranslationText, nil
}
