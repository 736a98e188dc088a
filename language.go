package hakim

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrUnsupportedLanguage is returned when a language code cannot be mapped
	// to one of the supported [Languages].
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

var (
	// English is the pivot language. The language model only ever sees English.
	English = Language{Code: "eng", Name: "English", Script: "Latn", Alpha2: "en"}

	// Amharic is the default source language of a [Question].
	Amharic = Language{Code: "amh", Name: "Amharic", Script: "Ethi", Alpha2: "am"}

	// Oromo is West Central Oromo, the Oromo variant covered by NLLB.
	Oromo = Language{Code: "gaz", Name: "Oromo", Script: "Latn", Alpha2: "om"}

	Tigrinya = Language{Code: "tir", Name: "Tigrinya", Script: "Ethi", Alpha2: "ti"}
	Somali   = Language{Code: "som", Name: "Somali", Script: "Latn", Alpha2: "so"}
	Swahili  = Language{Code: "swh", Name: "Swahili", Script: "Latn", Alpha2: "sw"}
	Hausa    = Language{Code: "hau", Name: "Hausa", Script: "Latn", Alpha2: "ha"}
	Arabic   = Language{Code: "arb", Name: "Arabic", Script: "Arab", Alpha2: "ar"}
	French   = Language{Code: "fra", Name: "French", Script: "Latn", Alpha2: "fr"}
)

var languages = []Language{English, Amharic, Oromo, Tigrinya, Somali, Swahili, Hausa, Arabic, French}

// extra aliases that cannot be derived from a Language itself
var aliases = map[string]Language{
	"orm":       Oromo,
	"afaan":     Oromo,
	"swa":       Swahili,
	"kiswahili": Swahili,
	"ara":       Arabic,
	"fre":       French,
}

// Language is a language supported by the pipeline.
type Language struct {
	// Code is the ISO 639-3 code, e.g. "amh".
	Code string

	// Name is the English name of the language.
	Name string

	// Script is the ISO 15924 script code, e.g. "Ethi" or "Latn".
	Script string

	// Alpha2 is the ISO 639-1 code, or empty if the language has none.
	Alpha2 string
}

// FLORES returns the FLORES-200 code of the language (e.g. "amh_Ethi"), which
// NLLB translation models use as the forced beginning-of-sequence token to
// select the target language.
func (l Language) FLORES() string {
	return l.Code + "_" + l.Script
}

// IsZero reports whether l is the zero Language.
func (l Language) IsZero() bool {
	return l.Code == ""
}

// Is reports whether l and other denote the same language.
func (l Language) Is(other Language) bool {
	return l.Code == other.Code
}

func (l Language) String() string {
	return l.Code
}

// Languages returns the supported languages, sorted by code.
func Languages() []Language {
	out := make([]Language, len(languages))
	copy(out, languages)
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// ParseLanguage resolves code to a supported [Language]. It accepts ISO 639-3
// codes ("amh"), ISO 639-1 codes ("am"), FLORES-200 codes ("amh_Ethi") and
// English language names ("Amharic"), case-insensitively.
func ParseLanguage(code string) (Language, error) {
	key := strings.ToLower(strings.TrimSpace(code))
	if key == "" {
		return Language{}, fmt.Errorf("%w: empty language code", ErrUnsupportedLanguage)
	}

	if lang, ok := aliases[key]; ok {
		return lang, nil
	}

	for _, lang := range languages {
		switch key {
		case lang.Code, lang.Alpha2, strings.ToLower(lang.FLORES()), strings.ToLower(lang.Name):
			return lang, nil
		}
	}

	return Language{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// MustParseLanguage does the same as [ParseLanguage] but panics on error.
func MustParseLanguage(code string) Language {
	lang, err := ParseLanguage(code)
	if err != nil {
		panic(err)
	}
	return lang
}
