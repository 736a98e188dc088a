// Package hakim answers medical questions asked in a non-English language by
// chaining a translation model and a causal language model: the question is
// translated to English, answered by the language model, and the answer is
// translated back into the language of the question.
package hakim

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/modernice/hakim/internal/chunks"
	"github.com/modernice/hakim/internal/preserve"
)

// DefaultMaxSegmentRunes is the default maximum size of a text segment that
// is sent to the translator in a single request.
const DefaultMaxSegmentRunes = 1000

const (
	// StageTranslateIn translates the question into English.
	StageTranslateIn Stage = "translate_in"

	// StageGenerate generates the English answer.
	StageGenerate Stage = "generate"

	// StageTranslateOut translates the answer back into the source language.
	StageTranslateOut Stage = "translate_out"
)

var (
	// ErrEmptyMessage is returned by [Pipeline.Ask] for questions without text.
	ErrEmptyMessage = errors.New("empty message")

	// ErrEmptyAnswer means the language model returned nothing but whitespace
	// (or only echoed the prompt).
	ErrEmptyAnswer = errors.New("empty answer")
)

// Stage is a step of the answer pipeline.
type Stage string

// StageError is returned when a backend fails during one of the pipeline stages.
type StageError struct {
	Stage Stage
	Err   error
}

func (err *StageError) Error() string {
	return fmt.Sprintf("%s: %s", err.Stage, err.Err)
}

func (err *StageError) Unwrap() error {
	return err.Err
}

// Observer is notified after every executed pipeline stage.
type Observer func(stage Stage, elapsed time.Duration, err error)

// Question is a medical question in some language.
type Question struct {
	// Message is the question text.
	Message string

	// Language of the message. Any code accepted by [ParseLanguage], "auto" to
	// detect the language, or empty for the pipeline's default language.
	Language string

	// Context is optional English background for the model (e.g. known
	// conditions of the patient).
	Context string
}

// Reply is the answer to a [Question].
type Reply struct {
	// Text is the answer in the language of the question.
	Text string

	// Language is the resolved language of the question.
	Language Language

	// EnglishQuestion is the question as it was passed to the model.
	EnglishQuestion string

	// EnglishAnswer is the answer as it was returned by the model.
	EnglishAnswer string
}

// Pipeline answers questions by chaining a [Translator] and a [Model].
type Pipeline struct {
	translator Translator
	model      Model
	cfg        config
}

// Option is a Pipeline option.
type Option func(*config)

type config struct {
	parallel        int
	preserve        []*regexp.Regexp
	defaultLang     Language
	maxSegmentRunes int
	prompt          PromptFunc
	observers       []Observer
	logger          *log.Logger
	verbose         bool
}

// Parallel sets the maximum number of concurrent translation requests for a
// single text. Defaults to 1.
func Parallel(n int) Option {
	return func(cfg *config) {
		cfg.parallel = n
	}
}

// Preserve prevents the translation of substrings that match one of the
// given expressions. Typical use cases are dosages and drug codes:
//
//	hakim.New(tr, model, hakim.Preserve(regexp.MustCompile(`\d+ ?mg`)))
func Preserve(exprs ...*regexp.Regexp) Option {
	return func(cfg *config) {
		cfg.preserve = append(cfg.preserve, exprs...)
	}
}

// DefaultLanguage sets the language of questions that don't specify one.
// Defaults to [Amharic].
func DefaultLanguage(lang Language) Option {
	return func(cfg *config) {
		cfg.defaultLang = lang
	}
}

// MaxSegmentRunes sets the maximum size of a single translation request.
// Longer texts are split into paragraphs and sentences first. A value <= 0
// sends every text in a single request.
func MaxSegmentRunes(n int) Option {
	return func(cfg *config) {
		cfg.maxSegmentRunes = n
	}
}

// Prompt replaces the default [MedicalPrompt].
func Prompt(fn PromptFunc) Option {
	return func(cfg *config) {
		cfg.prompt = fn
	}
}

// Observe registers an [Observer].
func Observe(obs Observer) Option {
	return func(cfg *config) {
		cfg.observers = append(cfg.observers, obs)
	}
}

// Logger sets the logger for debug output. Defaults to [log.Default].
func Logger(l *log.Logger) Option {
	return func(cfg *config) {
		cfg.logger = l
	}
}

// Verbose enables debug output.
func Verbose(verbose bool) Option {
	return func(cfg *config) {
		cfg.verbose = verbose
	}
}

// New returns a Pipeline that translates with translator and answers with model.
func New(translator Translator, model Model, opts ...Option) *Pipeline {
	if translator == nil {
		panic("nil translator")
	}
	if model == nil {
		panic("nil model")
	}

	cfg := config{
		parallel:        1,
		defaultLang:     Amharic,
		maxSegmentRunes: DefaultMaxSegmentRunes,
		prompt:          MedicalPrompt,
		logger:          log.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Pipeline{
		translator: translator,
		model:      model,
		cfg:        cfg,
	}
}

// Ask answers q in the language of q.
func (p *Pipeline) Ask(ctx context.Context, q Question) (Reply, error) {
	message := strings.TrimSpace(q.Message)
	if message == "" {
		return Reply{}, ErrEmptyMessage
	}

	lang, err := p.resolveLanguage(q.Language, message)
	if err != nil {
		return Reply{}, err
	}

	p.debug("Question language: %s (%s)", lang.Name, lang.FLORES())

	question, err := p.translate(ctx, StageTranslateIn, message, lang, English)
	if err != nil {
		return Reply{}, err
	}
	p.debug("Translated to English: %s", question)

	answer, err := p.generate(ctx, p.cfg.prompt(question, q.Context))
	if err != nil {
		return Reply{}, err
	}
	p.debug("English answer: %s", answer)

	text, err := p.translate(ctx, StageTranslateOut, answer, English, lang)
	if err != nil {
		return Reply{}, err
	}

	return Reply{
		Text:            text,
		Language:        lang,
		EnglishQuestion: question,
		EnglishAnswer:   answer,
	}, nil
}

func (p *Pipeline) resolveLanguage(code, message string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(code)) {
	case "":
		return p.cfg.defaultLang, nil
	case "auto":
		return DetectLanguage(message), nil
	default:
		return ParseLanguage(code)
	}
}

func (p *Pipeline) generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()

	generated, err := p.model.Chat(ctx, prompt)
	answer := cleanAnswer(prompt, generated)
	if err == nil && answer == "" {
		err = ErrEmptyAnswer
	}

	p.observe(StageGenerate, time.Since(start), err)

	if err != nil {
		return "", &StageError{Stage: StageGenerate, Err: err}
	}

	return answer, nil
}

func (p *Pipeline) translate(ctx context.Context, stage Stage, text string, source, target Language) (string, error) {
	if source.Is(target) {
		return text, nil
	}

	start := time.Now()

	segments := chunks.Split(text, p.cfg.maxSegmentRunes)
	p.debug("Translating %d rune(s) in %d segment(s) (%s -> %s)", utf8.RuneCountInString(text), len(segments), source, target)

	translated, err := p.translateSegments(ctx, segments, source, target)

	p.observe(stage, time.Since(start), err)

	if err != nil {
		return "", &StageError{Stage: stage, Err: err}
	}

	return chunks.Join(translated), nil
}

func (p *Pipeline) translateSegments(ctx context.Context, segments []chunks.Chunk, source, target Language) ([]chunks.Chunk, error) {
	parent := ctx
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]chunks.Chunk, len(segments))
	copy(out, segments)

	workers := p.cfg.parallel
	if workers < 1 {
		workers = 1
	}
	if workers > len(segments) {
		workers = len(segments)
	}

	jobs := make(chan int)
	errs := make(chan error, len(segments))

	var wg sync.WaitGroup
	wg.Add(workers)

	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobs {
				translated, err := p.translateSegment(ctx, segments[idx].Text, source, target)
				if err != nil {
					errs <- fmt.Errorf("segment #%d: %w", idx, err)
					cancel()
					continue
				}
				out[idx].Text = translated
			}
		}()
	}

L:
	for idx := range segments {
		select {
		case <-ctx.Done():
			break L
		case jobs <- idx:
		}
	}
	close(jobs)

	wg.Wait()
	close(errs)

	if err, ok := <-errs; ok {
		return nil, err
	}

	if err := parent.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (p *Pipeline) translateSegment(ctx context.Context, segment string, source, target Language) (string, error) {
	parts, items := preserve.Cut(segment, p.cfg.preserve...)

	for i, part := range parts {
		translated, err := p.translatePart(ctx, part, source, target)
		if err != nil {
			return "", err
		}
		parts[i] = translated
	}

	return preserve.Join(parts, items), nil
}

// translatePart translates s without its surrounding whitespace. Parts that
// contain no words are returned unchanged.
func (p *Pipeline) translatePart(ctx context.Context, s string, source, target Language) (string, error) {
	core := strings.TrimSpace(s)
	if !hasWords(core) {
		return s, nil
	}

	leading := s[:strings.Index(s, core)]
	trailing := s[len(leading)+len(core):]

	translated, err := p.translator.Translate(ctx, core, source, target)
	if err != nil {
		return "", err
	}

	return leading + strings.TrimSpace(translated) + trailing, nil
}

func hasWords(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func (p *Pipeline) observe(stage Stage, elapsed time.Duration, err error) {
	for _, obs := range p.cfg.observers {
		obs(stage, elapsed, err)
	}
}

func (p *Pipeline) debug(format string, args ...any) {
	if p.cfg.verbose && p.cfg.logger != nil {
		p.cfg.logger.Printf("[hakim] %s", fmt.Sprintf(format, args...))
	}
}
