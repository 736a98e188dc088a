// Package hf talks to pretrained models through the Hugging Face Inference API
// (or any server that exposes the same `POST /models/{model}` interface, e.g. a
// self-hosted inference endpoint).
package hf

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the base URL of the hosted Hugging Face Inference API.
	DefaultBaseURL = "https://api-inference.huggingface.co"

	// DefaultTimeout is the default timeout of a single inference request.
	// Large models can take a while to answer.
	DefaultTimeout = 2 * time.Minute
)

var (
	// ErrEmptyResponse is returned when the API answered successfully but
	// without any output.
	ErrEmptyResponse = errors.New("empty response")
)

// Client is a Hugging Face Inference API client.
type Client struct {
	token        string
	baseURL      string
	timeout      time.Duration
	waitForModel bool
	verbose      bool
	httpClient   *http.Client
}

// Option is a Client option.
type Option func(*Client)

// BaseURL sets the base URL of the inference API.
func BaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSuffix(u, "/")
	}
}

// HTTPClient sets the underlying *http.Client.
func HTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// Timeout sets the timeout of a single request. A timeout <= 0 disables it.
func Timeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WaitForModel makes the API block until a cold model is loaded instead of
// answering with 503.
func WaitForModel(wait bool) Option {
	return func(c *Client) {
		c.waitForModel = wait
	}
}

// Verbose enables debug logging of requests.
func Verbose(verbose bool) Option {
	return func(c *Client) {
		c.verbose = verbose
	}
}

// New returns a Client that authenticates with token. An empty token sends
// anonymous requests.
func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a non-2xx response of the inference API.
type APIError struct {
	StatusCode int
	Message    string

	// EstimatedTime is the time the API expects a cold model to load.
	EstimatedTime time.Duration
}

func (err *APIError) Error() string {
	if err.Loading() {
		return fmt.Sprintf("hf: %d %s (estimated load time %s)", err.StatusCode, err.Message, err.EstimatedTime)
	}
	return fmt.Sprintf("hf: %d %s", err.StatusCode, err.Message)
}

// Loading reports whether the model is still being loaded.
func (err *APIError) Loading() bool {
	return err.StatusCode == http.StatusServiceUnavailable && err.EstimatedTime > 0
}

type requestOptions struct {
	WaitForModel bool `json:"wait_for_model,omitempty"`
}

// infer posts payload to the given model and decodes the JSON response into out.
func (c *Client) infer(ctx context.Context, model string, payload map[string]any, out any) error {
	if c.waitForModel {
		payload["options"] = requestOptions{WaitForModel: true}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := fmt.Sprintf("%s/models/%s", c.baseURL, escapeModel(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.debug("POST %s (%d bytes)", endpoint, len(body))
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("hf: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.debug("%s answered %d after %s", model, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newAPIError(resp.StatusCode, b)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func newAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}

	var payload struct {
		Error         any     `json:"error"`
		EstimatedTime float64 `json:"estimated_time"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.EstimatedTime = time.Duration(payload.EstimatedTime * float64(time.Second))
		switch msg := payload.Error.(type) {
		case string:
			apiErr.Message = msg
		case []any:
			parts := make([]string, len(msg))
			for i, m := range msg {
				parts[i] = fmt.Sprint(m)
			}
			apiErr.Message = strings.Join(parts, "; ")
		}
	}

	if apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}

	return apiErr
}

// escapeModel escapes the model id but keeps the "/" between owner and name.
func escapeModel(model string) string {
	parts := strings.Split(model, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

func (c *Client) debug(format string, args ...any) {
	if c.verbose {
		log.Printf("[hf] %s", fmt.Sprintf(format, args...))
	}
}
