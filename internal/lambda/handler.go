// Package lambda serves hakim as an AWS Lambda function behind API Gateway.
package lambda

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/modernice/hakim"
	"github.com/modernice/hakim/server"
)

// Handler answers API Gateway proxy events with the semantics of the HTTP API.
type Handler struct {
	asker server.Asker
}

// NewHandler returns a Handler that answers questions with asker.
func NewHandler(asker server.Asker) *Handler {
	return &Handler{asker: asker}
}

// Handle processes a single API Gateway proxy event.
func (h *Handler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch {
	case req.HTTPMethod == http.MethodOptions:
		return response(http.StatusNoContent, nil)
	case req.HTTPMethod == http.MethodGet && strings.HasSuffix(req.Path, "/health"):
		return response(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "hakim",
			"version": hakim.Version(),
		})
	case req.HTTPMethod != "" && req.HTTPMethod != http.MethodPost:
		return response(http.StatusMethodNotAllowed, server.ErrorResponse{Error: "method not allowed"})
	}

	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return response(http.StatusBadRequest, server.ErrorResponse{Error: "invalid base64 body"})
		}
		body = decoded
	}

	var chat server.ChatRequest
	if err := json.Unmarshal(body, &chat); err != nil {
		return response(http.StatusBadRequest, server.ErrorResponse{Error: "invalid request body: " + err.Error()})
	}

	return response(server.Respond(ctx, h.asker, chat))
}

func response(code int, body any) (events.APIGatewayProxyResponse, error) {
	resp := events.APIGatewayProxyResponse{
		StatusCode: code,
		Headers: map[string]string{
			"Content-Type":                 "application/json",
			"Access-Control-Allow-Origin":  "*",
			"Access-Control-Allow-Headers": "Content-Type",
			"Access-Control-Allow-Methods": "GET,POST,OPTIONS",
		},
	}

	if body == nil {
		return resp, nil
	}

	b, err := json.Marshal(body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	resp.Body = string(b)

	return resp, nil
}
