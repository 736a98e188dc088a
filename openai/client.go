package openai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	// DefaultModel is the default language model used for generating text when no
	// specific model is set during the client creation.
	DefaultModel = openai.GPT4

	// DefaultTemperature is the default value for the temperature parameter in the
	// AI model. It affects the randomness of the model's output.
	DefaultTemperature = 0.3

	// DefaultMaxTokens is the default size of the context window used when the
	// model is unknown.
	DefaultMaxTokens = 4096

	// DefaultTimeout specifies the default duration to wait before timing out
	// requests to the OpenAI API.
	DefaultTimeout = 2 * time.Minute

	// DefaultSystemPrompt instructs the model to answer as a careful medical assistant.
	DefaultSystemPrompt = "You are a helpful medical assistant. Answer the patient's question clearly and simply. " +
		"Do not diagnose. If the question requires a physical examination or is an emergency, tell the patient to see a doctor."
)

var modelTokens = map[string]int{
	openai.GPT3Dot5Turbo:    4096,
	openai.GPT3Dot5Turbo16K: 16384,
	openai.GPT4:             8192,
	openai.GPT432K:          32768,
	"gpt-4-turbo":           128000,
}

// Client answers prompts through the chat completion endpoint of the OpenAI
// API or any OpenAI-compatible server (vLLM, Ollama, text-generation-inference).
// It is used as the fallback model when the medical model is unavailable.
type Client struct {
	model        string
	baseURL      string
	systemPrompt string
	maxTokens    int
	temperature  float32
	topP         float32
	timeout      time.Duration
	verbose      bool
	client       *openai.Client
}

// Option is a function type used to configure a Client.
type Option func(*Client)

// Model sets the model name.
func Model(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// BaseURL points the client to an OpenAI-compatible server, e.g.
// "http://localhost:11434/v1" for Ollama.
func BaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = u
	}
}

// SystemPrompt replaces the [DefaultSystemPrompt]. An empty prompt sends no
// system message.
func SystemPrompt(prompt string) Option {
	return func(c *Client) {
		c.systemPrompt = prompt
	}
}

// MaxTokens sets the size of the model's context window. If not set, the
// window of a known OpenAI model or [DefaultMaxTokens] is used.
func MaxTokens(maxTokens int) Option {
	return func(c *Client) {
		c.maxTokens = maxTokens
	}
}

// Temperature sets the sampling temperature.
func Temperature(temperature float32) Option {
	return func(c *Client) {
		c.temperature = temperature
	}
}

// TopP sets the topP parameter for the Client.
func TopP(topP float32) Option {
	return func(c *Client) {
		c.topP = topP
	}
}

// Timeout sets the timeout of a single completion request.
func Timeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// Verbose enables debug logs.
func Verbose(verbose bool) Option {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// New creates a new Client instance with the specified API token and optional
// configuration options.
func New(apiToken string, opts ...Option) *Client {
	c := Client{
		systemPrompt: DefaultSystemPrompt,
		temperature:  DefaultTemperature,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.model == "" {
		c.model = DefaultModel
	}

	if c.maxTokens <= 0 {
		var ok bool
		if c.maxTokens, ok = modelTokens[c.model]; !ok {
			c.maxTokens = DefaultMaxTokens
		}
	}

	cfg := openai.DefaultConfig(apiToken)
	if c.baseURL != "" {
		cfg.BaseURL = strings.TrimSuffix(c.baseURL, "/")
	}
	c.client = openai.NewClientWithConfig(cfg)

	c.debug("Model: %s", c.model)
	c.debug("Temperature: %f", c.temperature)
	c.debug("Max tokens: %d", c.maxTokens)

	return &c
}

// Chat sends prompt as the user message and returns the assistant's answer.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	promptTokens, err := PromptTokens(c.model, c.systemPrompt+"\n"+prompt)
	if err != nil {
		return "", fmt.Errorf("compute prompt tokens: %w", err)
	}

	maxTokens := c.maxTokens - promptTokens - messageOverhead
	if maxTokens <= 0 {
		return "", fmt.Errorf("prompt too long: %d tokens exceed the context window of %d tokens", promptTokens, c.maxTokens)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var msgs []openai.ChatCompletionMessage
	if c.systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: c.systemPrompt,
		})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: prompt,
	})

	c.debug("Creating chat completion with prompt:\n\n%s", prompt)

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		MaxTokens:   maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
		Messages:    msgs,
	})
	if err != nil {
		return "", fmt.Errorf("openai: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices in response")
	}

	choice := resp.Choices[0]
	if choice.FinishReason == openai.FinishReasonLength {
		c.debug("Answer was cut off after %d tokens", maxTokens)
	}

	return strings.TrimSpace(choice.Message.Content), nil
}

func (c *Client) debug(format string, args ...interface{}) {
	if c.verbose {
		log.Printf("[OpenAI] %s", fmt.Sprintf(format, args...))
	}
}
