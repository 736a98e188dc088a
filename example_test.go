package hakim_test

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/modernice/hakim"
)

func ExamplePipeline_Ask() {
	// Replace with hf.NewTranslator(...) and hf.NewGenerator(...) in production.
	translator := hakim.TranslatorFunc(func(_ context.Context, text string, _, target hakim.Language) (string, error) {
		return fmt.Sprintf("[%s] %s", target.Code, text), nil
	})
	model := hakim.ModelFunc(func(context.Context, string) (string, error) {
		return "Drink water and rest.", nil
	})

	pipeline := hakim.New(translator, model)

	reply, err := pipeline.Ask(context.Background(), hakim.Question{
		Message:  "ራስ ምታት አለኝ",
		Language: "amh",
	})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(reply.EnglishQuestion)
	fmt.Println(reply.Text)
	// Output:
	// [eng] ራስ ምታት አለኝ
	// [amh] Drink water and rest.
}

func ExamplePreserve() {
	translator := hakim.TranslatorFunc(func(_ context.Context, text string, _, _ hakim.Language) (string, error) {
		return strings.ToUpper(text), nil
	})
	model := hakim.ModelFunc(func(context.Context, string) (string, error) {
		return "Take 500 mg twice a day.", nil
	})

	pipeline := hakim.New(translator, model, hakim.Preserve(regexp.MustCompile(`\d+ ?mg`)))

	reply, err := pipeline.Ask(context.Background(), hakim.Question{Message: "Dosage?", Language: "gaz"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(reply.Text)
	// Output:
	// TAKE 500 mg TWICE A DAY.
}
