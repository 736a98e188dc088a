// Package cli provides a configurable command-line interface that asks
// hakim a single question.
package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/modernice/hakim"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// New returns the CLI, configured by opts.
func New(opts ...Option) *CLI {
	cli := &CLI{
		Command: cobra.Command{
			Use:           "hakim-ask",
			Short:         "Ask a medical question in your language",
			SilenceUsage:  true,
			SilenceErrors: true,
		},
		examples:       make(map[string]string),
		translatorArgs: make(map[string]*string),
		modelArgs:      make(map[string]*string),
	}
	for _, opt := range opts {
		opt(cli)
	}
	cli.init()
	return cli
}

// Option is a CLI option.
type Option func(*CLI)

// CLI is the question CLI.
type CLI struct {
	cobra.Command
	translators []Translator
	models      []Model
	sources     []Source
	examples    map[string]string // map[SOURCE]EXAMPLE

	// flags
	translatorArgs map[string]*string
	modelArgs      map[string]*string
	lang           string
	context        string
	out            string
	preserve       string
	parallel       int
	showEnglish    bool
	verbose        bool

	pipeline *hakim.Pipeline
}

// Translator is a translation backend configuration.
type Translator struct {
	// Name will be used as the flag name of the backend.
	// For example the name "deepl" creates the CLI flag "--deepl".
	Name string
	// Description is the usage message of the flag.
	Description string
	// New accepts the flag value (token, key or project) and creates the backend.
	New func(string) (hakim.Translator, error)
}

// Model is a language model configuration. If multiple models are selected,
// they are tried in the order in which they were added.
type Model struct {
	// Name will be used as the flag name of the model.
	Name string
	// Description is the usage message of the flag.
	Description string
	// New accepts the flag value and creates the model.
	New func(string) (hakim.Model, error)
}

// Source is a question source configuration.
type Source struct {
	// Name will be used as the CLI command name.
	Name string
	// Short is the command description.
	Short string
	// Reader creates the io.Reader from the first CLI argument.
	// If the reader is also an io.Closer, it will be automatically closed after execution.
	Reader func(string) (io.Reader, error)
}

// WithTranslator adds translation backends to the CLI.
func WithTranslator(trans ...Translator) Option {
	return func(cli *CLI) {
		cli.translators = append(cli.translators, trans...)
	}
}

// WithModel adds language models to the CLI.
func WithModel(models ...Model) Option {
	return func(cli *CLI) {
		cli.models = append(cli.models, models...)
	}
}

// WithSource adds question sources to the CLI.
func WithSource(sources ...Source) Option {
	return func(cli *CLI) {
		cli.sources = append(cli.sources, sources...)
	}
}

// WithExample adds an example for the given source.
func WithExample(source, example string) Option {
	return func(cli *CLI) {
		cli.examples[source] = example
	}
}

func (cli *CLI) init() {
	flags := cli.PersistentFlags()
	flags.StringVarP(&cli.lang, "lang", "l", "", `Language of the question ("auto" to detect, default: Amharic)`)
	flags.StringVar(&cli.context, "context", "", "English background information for the model")
	flags.StringVar(&cli.preserve, "preserve", "", "Prevent translation of substrings (regular expression)")
	flags.StringVarP(&cli.out, "out", "o", "", "Write the answer to the specified filepath")
	flags.IntVarP(&cli.parallel, "parallel", "p", 1, "Max concurrent translation requests")
	flags.BoolVar(&cli.showEnglish, "show-english", false, "Also print the English question and answer")
	flags.BoolVarP(&cli.verbose, "verbose", "v", false, "Verbose output")

	cli.initBackends(flags)

	for _, source := range cli.sources {
		cli.sourceCommand(source)
	}
}

func (cli *CLI) initBackends(flags *pflag.FlagSet) {
	for _, translator := range cli.translators {
		var arg string
		flags.StringVar(&arg, translator.Name, "", translator.Description)
		cli.translatorArgs[translator.Name] = &arg
	}

	for _, model := range cli.models {
		var arg string
		flags.StringVar(&arg, model.Name, "", model.Description)
		cli.modelArgs[model.Name] = &arg
	}

	cli.PersistentPreRunE = func(*cobra.Command, []string) error {
		translator, err := cli.newTranslator()
		if err != nil {
			return fmt.Errorf("make translator: %w", err)
		}

		model, err := cli.newModel()
		if err != nil {
			return fmt.Errorf("make model: %w", err)
		}

		opts := []hakim.Option{
			hakim.Parallel(cli.parallel),
			hakim.Verbose(cli.verbose),
		}
		if cli.preserve != "" {
			expr, err := regexp.Compile(cli.preserve)
			if err != nil {
				return fmt.Errorf("compile regexp (%v): %w", cli.preserve, err)
			}
			opts = append(opts, hakim.Preserve(expr))
		}

		cli.pipeline = hakim.New(translator, model, opts...)

		return nil
	}
}

func (cli *CLI) newTranslator() (hakim.Translator, error) {
	for _, trans := range cli.translators {
		arg := *cli.translatorArgs[trans.Name]
		if arg == "" {
			continue
		}

		svc, err := trans.New(arg)
		if err != nil {
			return svc, fmt.Errorf("Translator.New(%v) failed: %w", trans.Name, err)
		}

		return svc, nil
	}
	return nil, cli.missingFlagError("translation backend", flagNames(cli.translators, func(t Translator) string { return t.Name }))
}

func (cli *CLI) newModel() (hakim.Model, error) {
	var models []hakim.Model
	for _, m := range cli.models {
		arg := *cli.modelArgs[m.Name]
		if arg == "" {
			continue
		}

		model, err := m.New(arg)
		if err != nil {
			return nil, fmt.Errorf("Model.New(%v) failed: %w", m.Name, err)
		}
		models = append(models, model)
	}

	switch len(models) {
	case 0:
		return nil, cli.missingFlagError("language model", flagNames(cli.models, func(m Model) string { return m.Name }))
	case 1:
		return models[0], nil
	default:
		return hakim.Fallback(models...), nil
	}
}

func flagNames[T any](items []T, name func(T) string) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = name(item)
	}
	return names
}

func (cli *CLI) missingFlagError(what string, flags []string) error {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Missing %s. Select one with one of the following options:\n", what))
	for _, name := range flags {
		b.WriteString(fmt.Sprintf("      --%s string\n", name))
	}
	return humanError{
		err:     fmt.Errorf("missing %s", what),
		message: b.String(),
	}
}

func (cli *CLI) sourceCommand(source Source) {
	cmd := &cobra.Command{
		Use:     fmt.Sprintf("%s <question>", source.Name),
		Short:   source.Short,
		Example: cli.example(source.Name),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := source.Reader(args[0])
			if err != nil {
				return fmt.Errorf("Source.Reader(%v) failed: %w", args[0], err)
			}
			if c, ok := r.(io.Closer); ok {
				defer c.Close()
			}

			message, err := io.ReadAll(r)
			if err != nil {
				return fmt.Errorf("read question: %w", err)
			}

			reply, err := cli.pipeline.Ask(cmd.Context(), hakim.Question{
				Message:  string(message),
				Language: cli.lang,
				Context:  cli.context,
			})
			if err != nil {
				if errors.Is(err, hakim.ErrUnsupportedLanguage) {
					return humanError{err: err, message: cli.unsupportedLanguageMessage()}
				}
				return err
			}

			writeAnswer := func(out io.Writer) error {
				if cli.showEnglish {
					fmt.Fprintf(out, "Question (English): %s\nAnswer (English): %s\n\n", reply.EnglishQuestion, reply.EnglishAnswer)
				}
				if _, err := fmt.Fprintln(out, reply.Text); err != nil {
					return fmt.Errorf("write answer: %w", err)
				}
				return nil
			}

			if cli.out == "" {
				return writeAnswer(cmd.OutOrStdout())
			}

			return writeFile(cli.out, writeAnswer)
		},
	}

	cli.AddCommand(cmd)
}

// writeFile creates the file at path and passes it to write. The file is
// closed in any case.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create outfile (%v): %w", path, err)
	}
	defer f.Close()

	if err := write(f); err != nil {
		return err
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close outfile: %w", err)
	}

	return nil
}

func (cli *CLI) unsupportedLanguageMessage() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Unsupported language %q. Supported languages:\n", cli.lang))
	for _, lang := range hakim.Languages() {
		b.WriteString(fmt.Sprintf("      %s  %s\n", lang.Code, lang.Name))
	}
	return b.String()
}

func (cli *CLI) example(source string) string {
	if example, ok := cli.examples[source]; ok {
		return fmt.Sprintf("hakim-ask %s %s --lang amh --hf $HF_TOKEN --meditron $HF_TOKEN", source, example)
	}
	return fmt.Sprintf("hakim-ask %s QUESTION --lang amh --hf $HF_TOKEN --meditron $HF_TOKEN", source)
}

type humanError struct {
	err     error
	message string
}

func (err humanError) Error() string {
	return err.err.Error()
}

func (err humanError) Unwrap() error {
	return err.err
}

func (err humanError) HumanError() string {
	return err.message
}
