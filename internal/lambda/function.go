package lambda

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Function dispatches the raw events of the Lambda function to the warmer or
// the API Gateway handler.
type Function struct {
	handler *Handler
	warmer  *Warmer
}

// NewFunction returns a Function. warmer may be nil, in which case warmup
// events only warm the invoked instance.
func NewFunction(handler *Handler, warmer *Warmer) *Function {
	if warmer == nil {
		warmer = NewWarmer(nil, "")
	}
	return &Function{handler: handler, warmer: warmer}
}

// Invoke handles a single event. Warmup events must be checked first so that
// they never reach the answer pipeline.
func (f *Function) Invoke(ctx context.Context, event json.RawMessage) (any, error) {
	if warmup, ok := IsWarmupEvent(event); ok {
		return f.warmer.Warm(ctx, warmup), nil
	}

	var req events.APIGatewayProxyRequest
	if err := json.Unmarshal(event, &req); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	return f.handler.Handle(ctx, req)
}
