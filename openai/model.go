// Package openai provides a [hakim.Model] backed by an OpenAI-compatible chat
// completion API.
package openai

import (
	"fmt"

	"github.com/tiktoken-go/tokenizer"
)

// tokens reserved for the chat message framing (roles, separators)
const messageOverhead = 16

// PromptTokens returns the number of tokens of prompt for the given model.
// Models unknown to the tokenizer (e.g. open models behind an OpenAI-compatible
// server) are counted with the cl100k_base encoding, which is close enough for
// budgeting.
func PromptTokens(model, prompt string) (int, error) {
	codec, err := tokenizer.ForModel(tokenizer.Model(model))
	if err != nil {
		if codec, err = tokenizer.Get(tokenizer.Cl100kBase); err != nil {
			return 0, fmt.Errorf("get tokenizer: %w", err)
		}
	}

	ids, _, err := codec.Encode(prompt)
	if err != nil {
		return 0, fmt.Errorf("encode prompt: %w", err)
	}

	return len(ids), nil
}
