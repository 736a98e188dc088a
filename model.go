package hakim

//go:generate mockgen -source=model.go -destination=./mocks/model.go

import (
	"context"
	"errors"
	"fmt"
)

// Model is a causal language model that answers an English prompt.
type Model interface {
	// Chat sends prompt to the model and returns the generated text.
	Chat(context.Context, string) (string, error)
}

// ModelFunc allows ordinary functions to be used as a [Model].
type ModelFunc func(context.Context, string) (string, error)

// Chat calls chat(ctx, prompt).
func (chat ModelFunc) Chat(ctx context.Context, prompt string) (string, error) {
	return chat(ctx, prompt)
}

// Fallback returns a [Model] that asks each of the given models in order and
// returns the first successful answer. If every model fails, the returned
// error joins all failures. A cancelled context stops the chain.
func Fallback(models ...Model) Model {
	return ModelFunc(func(ctx context.Context, prompt string) (string, error) {
		if len(models) == 0 {
			return "", errors.New("fallback: no models")
		}

		var errs []error
		for i, m := range models {
			answer, err := m.Chat(ctx, prompt)
			if err == nil {
				return answer, nil
			}
			errs = append(errs, fmt.Errorf("model #%d: %w", i, err))

			if ctx.Err() != nil {
				break
			}
		}

		return "", errors.Join(errs...)
	})
}
