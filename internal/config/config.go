// Package config wires the backends of a hakim process from flags and
// environment variables.
package config

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/modernice/hakim"
	"github.com/modernice/hakim/hf"
	"github.com/modernice/hakim/openai"
	"github.com/modernice/hakim/service/deepl"
	"github.com/modernice/hakim/service/gcloud"
)

// Translation backends.
const (
	HuggingFace = "huggingface"
	DeepL       = "deepl"
	GCloud      = "gcloud"
)

// Config configures the answer pipeline. The struct tags are read by kong.
type Config struct {
	Translator string `name:"translator" enum:"huggingface,deepl,gcloud" default:"huggingface" env:"HAKIM_TRANSLATOR" help:"Translation backend (huggingface, deepl, gcloud)"`

	HFToken          string        `name:"hf-token" env:"HF_TOKEN" help:"Hugging Face access token"`
	HFBaseURL        string        `name:"hf-base-url" env:"HAKIM_HF_BASE_URL" default:"https://api-inference.huggingface.co" help:"Base URL of the inference API"`
	HFTimeout        time.Duration `name:"hf-timeout" env:"HAKIM_HF_TIMEOUT" default:"2m" help:"Timeout of a single inference request"`
	WaitForModel     bool          `name:"wait-for-model" env:"HAKIM_WAIT_FOR_MODEL" help:"Wait for cold models instead of failing"`
	TranslationModel string        `name:"translation-model" env:"HAKIM_TRANSLATION_MODEL" default:"facebook/nllb-200-distilled-600M" help:"Translation model"`
	GenerationModel  string        `name:"generation-model" env:"HAKIM_GENERATION_MODEL" default:"epfl-llm/meditron-7b" help:"Medical language model"`
	MaxNewTokens     int           `name:"max-new-tokens" env:"HAKIM_MAX_NEW_TOKENS" default:"200" help:"Maximum number of generated tokens"`
	Temperature      float64       `name:"temperature" env:"HAKIM_TEMPERATURE" default:"0.7" help:"Sampling temperature"`

	OpenAIKey     string `name:"openai-key" env:"OPENAI_KEY" help:"OpenAI API key, enables the fallback model"`
	OpenAIModel   string `name:"openai-model" env:"OPENAI_MODEL" default:"gpt-4" help:"OpenAI model"`
	OpenAIBaseURL string `name:"openai-base-url" env:"OPENAI_BASE_URL" help:"Base URL of an OpenAI-compatible server"`

	DeepLKey          string `name:"deepl-key" env:"DEEPL_AUTH_KEY" help:"DeepL authentication key"`
	GCloudProject     string `name:"gcloud-project" env:"HAKIM_GCLOUD_PROJECT" help:"Google Cloud project"`
	GCloudCredentials string `name:"gcloud-credentials" env:"HAKIM_GCLOUD_CREDENTIALS" type:"path" help:"Google Cloud service account file"`

	DefaultLang     string   `name:"default-lang" env:"HAKIM_DEFAULT_LANG" default:"amh" help:"Language of questions without src_lang"`
	Parallel        int      `name:"parallel" short:"p" env:"HAKIM_PARALLEL" default:"1" help:"Max concurrent translation requests per text"`
	MaxSegmentRunes int      `name:"max-segment" env:"HAKIM_MAX_SEGMENT" default:"1000" help:"Max characters per translation request"`
	Preserve        []string `name:"preserve" env:"HAKIM_PRESERVE" help:"Regular expressions of text that must not be translated"`

	Verbose bool `name:"verbose" short:"v" env:"HAKIM_VERBOSE" help:"Verbose output"`
}

// Pipeline builds the answer pipeline. opts are applied after the configured
// options.
func (cfg Config) Pipeline(ctx context.Context, opts ...hakim.Option) (*hakim.Pipeline, error) {
	translator, err := cfg.NewTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("translator: %w", err)
	}

	lang, err := hakim.ParseLanguage(cfg.DefaultLang)
	if err != nil {
		return nil, fmt.Errorf("default language: %w", err)
	}

	preserve := make([]*regexp.Regexp, len(cfg.Preserve))
	for i, expr := range cfg.Preserve {
		if preserve[i], err = regexp.Compile(expr); err != nil {
			return nil, fmt.Errorf("compile preserve expression %q: %w", expr, err)
		}
	}

	opts = append([]hakim.Option{
		hakim.DefaultLanguage(lang),
		hakim.Parallel(cfg.Parallel),
		hakim.MaxSegmentRunes(cfg.MaxSegmentRunes),
		hakim.Preserve(preserve...),
		hakim.Verbose(cfg.Verbose),
	}, opts...)

	return hakim.New(translator, cfg.NewModel(), opts...), nil
}

// NewTranslator returns the configured translation backend.
func (cfg Config) NewTranslator(ctx context.Context) (hakim.Translator, error) {
	switch cfg.Translator {
	case "", HuggingFace:
		return hf.NewTranslator(cfg.hfClient(), hf.TranslationModel(cfg.TranslationModel)), nil
	case DeepL:
		if cfg.DeepLKey == "" {
			return nil, errors.New("missing DeepL authentication key")
		}
		return deepl.New(cfg.DeepLKey), nil
	case GCloud:
		if cfg.GCloudProject == "" && cfg.GCloudCredentials != "" {
			return gcloud.NewFromCredentialsFile(ctx, cfg.GCloudCredentials)
		}
		if cfg.GCloudProject == "" {
			return nil, errors.New("missing Google Cloud project")
		}
		var opts []gcloud.Option
		if cfg.GCloudCredentials != "" {
			opts = append(opts, gcloud.CredentialsFile(cfg.GCloudCredentials))
		}
		return gcloud.New(cfg.GCloudProject, opts...), nil
	default:
		return nil, fmt.Errorf("unknown translator %q", cfg.Translator)
	}
}

// NewModel returns the medical language model. If an OpenAI key is
// configured, the OpenAI model answers when the medical model fails.
func (cfg Config) NewModel() hakim.Model {
	var model hakim.Model = hf.NewGenerator(
		cfg.hfClient(),
		hf.GenerationModel(cfg.GenerationModel),
		hf.MaxNewTokens(cfg.MaxNewTokens),
		hf.Temperature(cfg.Temperature),
	)

	if cfg.OpenAIKey == "" {
		return model
	}

	fallback := openai.New(
		cfg.OpenAIKey,
		openai.Model(cfg.OpenAIModel),
		openai.BaseURL(cfg.OpenAIBaseURL),
		openai.Verbose(cfg.Verbose),
	)

	return hakim.Fallback(model, fallback)
}

func (cfg Config) hfClient() *hf.Client {
	opts := []hf.Option{
		hf.WaitForModel(cfg.WaitForModel),
		hf.Verbose(cfg.Verbose),
	}
	if cfg.HFBaseURL != "" {
		opts = append(opts, hf.BaseURL(cfg.HFBaseURL))
	}
	if cfg.HFTimeout > 0 {
		opts = append(opts, hf.Timeout(cfg.HFTimeout))
	}
	return hf.New(cfg.HFToken, opts...)
}
