package hakim_test

import (
	"testing"

	"github.com/modernice/hakim"
	"github.com/stretchr/testify/assert"
)

func TestMedicalPrompt(t *testing.T) {
	want := "### Medical Context:\n" +
		"No additional context provided.\n" +
		"\n" +
		"### Patient Query:\n" +
		"I have a headache.\n" +
		"\n" +
		"### Medical Response:"

	assert.Equal(t, want, hakim.MedicalPrompt(" I have a headache. ", ""))
}

func TestMedicalPrompt_context(t *testing.T) {
	want := "### Medical Context:\n" +
		"allergy: penicillin\ncondition: asthma\n" +
		"\n" +
		"### Patient Query:\n" +
		"Can I take amoxicillin?\n" +
		"\n" +
		"### Medical Response:"

	assert.Equal(t, want, hakim.MedicalPrompt("Can I take amoxicillin?", "allergy: penicillin\ncondition: asthma\n"))
}

func TestRawPrompt(t *testing.T) {
	assert.Equal(t, "Fever?", hakim.RawPrompt("Fever?", "ignored"))
}
