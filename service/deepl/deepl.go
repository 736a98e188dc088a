// Package deepl provides a [hakim.Translator] backed by DeepL.
package deepl

//go:generate mockgen -source=deepl.go -destination=./mocks/deepl.go

import (
	"context"
	"fmt"
	"strings"

	"github.com/bounoable/deepl"
	"github.com/modernice/hakim"
)

// New returns a DeepL translator.
//
// Use WithClientOptions() to configure the *deepl.Client:
//
//	New("auth-key", WithClientOptions(deepl.BaseURL("https://api-free.deepl.com/v2")))
//
// Use WithTranslateOptions() to append deepl.TranslateOptions to every request:
//
//	New("auth-key", WithTranslateOptions(deepl.Formality(deepl.MoreFormal)))
func New(authKey string, opts ...Option) *Translator {
	client := deepl.New(authKey)
	t := NewWithClient(client, opts...)
	for _, opt := range t.clientOpts {
		opt(client)
	}
	return t
}

// NewWithClient does the same as New(), but accepts an existing Client.
// WithClientOptions() has no effect in this case.
func NewWithClient(client Client, opts ...Option) *Translator {
	t := &Translator{client: client}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Option is a Translator option.
type Option func(*Translator)

// WithClientOptions configures the created *deepl.Client.
func WithClientOptions(opts ...deepl.ClientOption) Option {
	return func(t *Translator) {
		t.clientOpts = append(t.clientOpts, opts...)
	}
}

// WithTranslateOptions adds translation options to every request.
func WithTranslateOptions(opts ...deepl.TranslateOption) Option {
	return func(t *Translator) {
		t.translateOpts = append(t.translateOpts, opts...)
	}
}

// Client is an interface for *deepl.Client.
type Client interface {
	Translate(
		ctx context.Context,
		text string,
		targetLang deepl.Language,
		opts ...deepl.TranslateOption,
	) (string, deepl.Language, error)
}

// Translator translates through the DeepL API. DeepL identifies languages by
// their ISO 639-1 code, so languages without one cannot be translated.
type Translator struct {
	client        Client
	clientOpts    []deepl.ClientOption
	translateOpts []deepl.TranslateOption
}

// Client returns the underlying Client.
func (t *Translator) Client() Client {
	return t.client
}

// Translate translates text from source to target.
func (t *Translator) Translate(ctx context.Context, text string, source, target hakim.Language) (string, error) {
	sourceLang, err := sourceCode(source)
	if err != nil {
		return "", err
	}

	targetLang, err := targetCode(target)
	if err != nil {
		return "", err
	}

	opts := append([]deepl.TranslateOption{
		deepl.SourceLang(sourceLang),
		deepl.PreserveFormatting(true),
		deepl.SplitSentences(deepl.SplitNoNewlines),
	}, t.translateOpts...)

	translated, _, err := t.client.Translate(ctx, text, targetLang, opts...)
	if err != nil {
		return translated, fmt.Errorf("deepl translate: %w", err)
	}

	return translated, nil
}

func sourceCode(lang hakim.Language) (deepl.Language, error) {
	if lang.Alpha2 == "" {
		return "", fmt.Errorf("deepl: %w: %s", hakim.ErrUnsupportedLanguage, lang.Name)
	}
	return deepl.Language(strings.ToUpper(lang.Alpha2)), nil
}

// English is only accepted as a regional variant when used as the target.
func targetCode(lang hakim.Language) (deepl.Language, error) {
	if lang.Is(hakim.English) {
		return deepl.Language("EN-US"), nil
	}
	return sourceCode(lang)
}
