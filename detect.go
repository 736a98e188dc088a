package hakim

import (
	"regexp"
	"unicode"
)

var oromoPronounRE = regexp.MustCompile(`(?i)\b(ani|ati|inni|ishee|nuyi|isin|isaan)\b`)

// DetectLanguage guesses the language of text. Text containing Ethiopic script
// is reported as Amharic, text containing common Oromo pronouns as Oromo, and
// anything else as English.
func DetectLanguage(text string) Language {
	for _, r := range text {
		if unicode.Is(unicode.Ethiopic, r) {
			return Amharic
		}
	}

	if oromoPronounRE.MatchString(text) {
		return Oromo
	}

	return English
}
