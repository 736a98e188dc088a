package config_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/modernice/hakim"
	"github.com/modernice/hakim/hf"
	"github.com/modernice/hakim/internal/config"
	"github.com/modernice/hakim/service/deepl"
	"github.com/modernice/hakim/service/gcloud"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, args ...string) config.Config {
	t.Helper()

	var cfg config.Config
	parser, err := kong.New(&cfg, kong.Exit(func(int) { t.Fatal("kong exited") }))
	require.NoError(t, err)

	_, err = parser.Parse(args)
	require.NoError(t, err)

	return cfg
}

func TestConfig_defaults(t *testing.T) {
	cfg := parse(t)

	assert.Equal(t, config.HuggingFace, cfg.Translator)
	assert.Equal(t, hf.DefaultBaseURL, cfg.HFBaseURL)
	assert.Equal(t, 2*time.Minute, cfg.HFTimeout)
	assert.Equal(t, hf.DefaultTranslationModel, cfg.TranslationModel)
	assert.Equal(t, hf.DefaultGenerationModel, cfg.GenerationModel)
	assert.Equal(t, hf.DefaultMaxNewTokens, cfg.MaxNewTokens)
	assert.Equal(t, hf.DefaultTemperature, cfg.Temperature)
	assert.Equal(t, "amh", cfg.DefaultLang)
	assert.Equal(t, 1, cfg.Parallel)
	assert.Equal(t, hakim.DefaultMaxSegmentRunes, cfg.MaxSegmentRunes)
	assert.False(t, cfg.Verbose)
}

func TestConfig_env(t *testing.T) {
	t.Setenv("HAKIM_TRANSLATOR", "deepl")
	t.Setenv("DEEPL_AUTH_KEY", "key")
	t.Setenv("HAKIM_PARALLEL", "4")
	t.Setenv("HAKIM_PRESERVE", `\d+ ?mg,\d+ ?ml`)

	cfg := parse(t, "--default-lang", "gaz")

	assert.Equal(t, config.DeepL, cfg.Translator)
	assert.Equal(t, "key", cfg.DeepLKey)
	assert.Equal(t, 4, cfg.Parallel)
	assert.Equal(t, []string{`\d+ ?mg`, `\d+ ?ml`}, cfg.Preserve)
	assert.Equal(t, "gaz", cfg.DefaultLang)
}

func TestConfig_NewTranslator(t *testing.T) {
	ctx := context.Background()

	tr, err := config.Config{}.NewTranslator(ctx)
	require.NoError(t, err)
	assert.IsType(t, &hf.Translator{}, tr)

	tr, err = config.Config{Translator: config.DeepL, DeepLKey: "key"}.NewTranslator(ctx)
	require.NoError(t, err)
	assert.IsType(t, &deepl.Translator{}, tr)

	tr, err = config.Config{Translator: config.GCloud, GCloudProject: "hakim"}.NewTranslator(ctx)
	require.NoError(t, err)
	assert.IsType(t, &gcloud.Translator{}, tr)
	assert.Equal(t, "hakim", tr.(*gcloud.Translator).ProjectID())
}

func TestConfig_NewTranslator_missingCredentials(t *testing.T) {
	ctx := context.Background()

	_, err := config.Config{Translator: config.DeepL}.NewTranslator(ctx)
	assert.Error(t, err)

	_, err = config.Config{Translator: config.GCloud}.NewTranslator(ctx)
	assert.Error(t, err)

	_, err = config.Config{Translator: "bing"}.NewTranslator(ctx)
	assert.Error(t, err)
}

func TestConfig_Pipeline_invalid(t *testing.T) {
	ctx := context.Background()

	_, err := config.Config{DefaultLang: "klingon"}.Pipeline(ctx)
	assert.ErrorIs(t, err, hakim.ErrUnsupportedLanguage)

	_, err = config.Config{DefaultLang: "amh", Preserve: []string{"("}}.Pipeline(ctx)
	assert.ErrorContains(t, err, "compile preserve expression")
}

// fakeBackends emulates the inference API and an OpenAI-compatible server.
func fakeBackends(t *testing.T, generatorStatus int) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/models/facebook/nllb-200-distilled-600M", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Inputs     string `json:"inputs"`
			Parameters struct {
				TargetLang string `json:"tgt_lang"`
			} `json:"parameters"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		json.NewEncoder(w).Encode([]map[string]string{{
			"translation_text": body.Parameters.TargetLang + ": " + body.Inputs,
		}})
	})
	mux.HandleFunc("/models/epfl-llm/meditron-7b", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(generatorStatus)
		if generatorStatus != http.StatusOK {
			w.Write([]byte(`{"error": "unavailable"}`))
			return
		}
		w.Write([]byte(`[{"generated_text": "Drink water."}]`))
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Rest."}}]}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestConfig_Pipeline(t *testing.T) {
	srv := fakeBackends(t, http.StatusOK)

	cfg := parse(t, "--hf-base-url", srv.URL)
	pipeline, err := cfg.Pipeline(context.Background())
	require.NoError(t, err)

	reply, err := pipeline.Ask(context.Background(), hakim.Question{Message: "ራስ ምታት አለኝ"})

	require.NoError(t, err)
	assert.Equal(t, hakim.Amharic, reply.Language)
	assert.Equal(t, "eng_Latn: ራስ ምታት አለኝ", reply.EnglishQuestion)
	assert.Equal(t, "Drink water.", reply.EnglishAnswer)
	assert.Equal(t, "amh_Ethi: Drink water.", reply.Text)
}

func TestConfig_Pipeline_openAIFallback(t *testing.T) {
	srv := fakeBackends(t, http.StatusInternalServerError)

	cfg := parse(t,
		"--hf-base-url", srv.URL,
		"--openai-key", "key",
		"--openai-base-url", srv.URL+"/v1",
	)
	pipeline, err := cfg.Pipeline(context.Background())
	require.NoError(t, err)

	reply, err := pipeline.Ask(context.Background(), hakim.Question{Message: "Mataan na dhukkuba", Language: "gaz"})

	require.NoError(t, err)
	assert.Equal(t, "Rest.", reply.EnglishAnswer)
	assert.Equal(t, "gaz_Latn: Rest.", reply.Text)
}

func TestConfig_Pipeline_noFallback(t *testing.T) {
	srv := fakeBackends(t, http.StatusInternalServerError)

	cfg := parse(t, "--hf-base-url", srv.URL)
	pipeline, err := cfg.Pipeline(context.Background())
	require.NoError(t, err)

	_, err = pipeline.Ask(context.Background(), hakim.Question{Message: "ራስ ምታት አለኝ"})

	var stageErr *hakim.StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, hakim.StageGenerate, stageErr.Stage)
}
