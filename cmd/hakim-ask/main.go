package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/modernice/hakim"
	"github.com/modernice/hakim/cli"
	"github.com/modernice/hakim/hf"
	"github.com/modernice/hakim/openai"
	"github.com/modernice/hakim/service/deepl"
	"github.com/modernice/hakim/service/gcloud"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := cli.New(
		cli.WithTranslator(
			cli.Translator{
				Name:        "hf",
				Description: "Hugging Face access token (NLLB translation)",
				New: func(token string) (hakim.Translator, error) {
					return hf.NewTranslator(hf.New(token, hf.WaitForModel(true))), nil
				},
			},
			cli.Translator{
				Name:        "deepl",
				Description: "DeepL authentication key",
				New: func(authKey string) (hakim.Translator, error) {
					return deepl.New(authKey), nil
				},
			},
			cli.Translator{
				Name:        "gcloud",
				Description: "Google Cloud project (credentials from $" + gcloud.CredentialsEnv + ")",
				New: func(project string) (hakim.Translator, error) {
					return gcloud.New(project), nil
				},
			},
		),
		cli.WithModel(
			cli.Model{
				Name:        "meditron",
				Description: "Hugging Face access token (medical language model)",
				New: func(token string) (hakim.Model, error) {
					return hf.NewGenerator(hf.New(token, hf.WaitForModel(true))), nil
				},
			},
			cli.Model{
				Name:        "openai",
				Description: "OpenAI API key (fallback model)",
				New: func(key string) (hakim.Model, error) {
					return openai.New(key), nil
				},
			},
		),
		cli.WithSource(
			cli.Source{
				Name:  "text",
				Short: "Ask the question given as argument",
				Reader: func(val string) (io.Reader, error) {
					return strings.NewReader(val), nil
				},
			},
			cli.Source{
				Name:  "file",
				Short: "Ask the question in a file (- for stdin)",
				Reader: func(val string) (io.Reader, error) {
					if val == "-" {
						return os.Stdin, nil
					}
					return os.Open(val)
				},
			},
		),
		cli.WithExample("text", `"ራስ ምታት አለኝ"`),
		cli.WithExample("file", `question.txt`),
	).ExecuteContext(ctx); err != nil {
		msg := err.Error()

		var herr interface {
			HumanError() string
		}

		if errors.As(err, &herr) {
			msg = herr.HumanError()
		}

		fmt.Println(msg)
		os.Exit(1)
	}
}
