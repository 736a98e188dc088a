package hakim

//go:generate mockgen -source=translator.go -destination=./mocks/translator.go

import "context"

// Translator is a machine translation backend (e.g. an NLLB model behind the
// Hugging Face Inference API, DeepL or Google Cloud Translate).
type Translator interface {
	Translate(ctx context.Context, text string, source, target Language) (string, error)
}

// TranslatorFunc allows ordinary functions to be used as a [Translator].
type TranslatorFunc func(ctx context.Context, text string, source, target Language) (string, error)

// Translate calls fn(ctx, text, source, target).
func (fn TranslatorFunc) Translate(ctx context.Context, text string, source, target Language) (string, error) {
	return fn(ctx, text, source, target)
}
