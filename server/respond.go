package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/modernice/hakim"
)

// Asker answers questions. It is implemented by *hakim.Pipeline.
type Asker interface {
	Ask(context.Context, hakim.Question) (hakim.Reply, error)
}

// AskerFunc allows ordinary functions to be used as an Asker.
type AskerFunc func(context.Context, hakim.Question) (hakim.Reply, error)

// Ask calls fn(ctx, q).
func (fn AskerFunc) Ask(ctx context.Context, q hakim.Question) (hakim.Reply, error) {
	return fn(ctx, q)
}

// ChatRequest is the body of a chat request.
type ChatRequest struct {
	Message string `json:"message"`
	SrcLang string `json:"src_lang"`
	Context string `json:"context,omitempty"`
}

// ChatResponse is the body of a successful chat request.
type ChatResponse struct {
	Response string `json:"response"`
	Language string `json:"language"`
}

// ErrorResponse is the body of a failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Respond answers req and returns the HTTP status code and the response body.
// It is shared by the HTTP server and the Lambda handler.
func Respond(ctx context.Context, asker Asker, req ChatRequest) (int, any) {
	reply, err := asker.Ask(ctx, hakim.Question{
		Message:  req.Message,
		Language: req.SrcLang,
		Context:  req.Context,
	})
	if err != nil {
		return StatusCode(err), ErrorResponse{Error: err.Error()}
	}

	return http.StatusOK, ChatResponse{
		Response: reply.Text,
		Language: reply.Language.Code,
	}
}

// StatusCode maps an error of [hakim.Pipeline.Ask] to an HTTP status code.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, hakim.ErrEmptyMessage), errors.Is(err, hakim.ErrUnsupportedLanguage):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
