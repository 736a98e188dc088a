package hakim

import (
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
)

const noContext = "No additional context provided."

// PromptFunc builds the model prompt from the English question and optional
// English context.
type PromptFunc func(question, context string) string

// MedicalPrompt is the default [PromptFunc]. It frames the question for a
// medical completion model that continues after the "### Medical Response:"
// marker.
func MedicalPrompt(question, context string) string {
	if strings.TrimSpace(context) == "" {
		context = noContext
	}

	return heredoc.Docf(`
		### Medical Context:
		%s

		### Patient Query:
		%s

		### Medical Response:`,
		strings.TrimSpace(context),
		strings.TrimSpace(question),
	)
}

// RawPrompt sends the question to the model as-is and ignores the context.
func RawPrompt(question, _ string) string {
	return question
}

// cleanAnswer removes the prompt from generated text if the model echoed it
// and trims surrounding whitespace.
func cleanAnswer(prompt, generated string) string {
	answer := strings.TrimSpace(generated)
	trimmedPrompt := strings.TrimSpace(prompt)

	if trimmedPrompt != "" && strings.HasPrefix(answer, trimmedPrompt) {
		answer = answer[len(trimmedPrompt):]
	}

	return strings.TrimSpace(answer)
}
