package lambda

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasdk "github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

const (
	// WarmupSource identifies warmup events of a scheduled rule.
	WarmupSource = "warmup"

	// MaxWarmupConcurrency caps the number of instances a single warmup event
	// invokes.
	MaxWarmupConcurrency = 25

	// WarmupDelay keeps the invoked instances busy long enough to overlap.
	WarmupDelay = 75 * time.Millisecond
)

// WarmupEvent is the payload of a scheduled warmup event. Concurrency is the
// number of additional instances to warm, at most [MaxWarmupConcurrency].
type WarmupEvent struct {
	Source      string `json:"source"`
	Concurrency int    `json:"concurrency"`
}

// WarmupResponse is returned for warmup events.
type WarmupResponse struct {
	Status          string `json:"status"`
	InstancesWarmed int    `json:"instancesWarmed"`
}

// Invoker invokes Lambda functions. It is implemented by *lambda.Client of
// the AWS SDK.
type Invoker interface {
	Invoke(context.Context, *lambdasdk.InvokeInput, ...func(*lambdasdk.Options)) (*lambdasdk.InvokeOutput, error)
}

// IsWarmupEvent reports whether event is a warmup event.
func IsWarmupEvent(event json.RawMessage) (WarmupEvent, bool) {
	var warmup WarmupEvent
	if err := json.Unmarshal(event, &warmup); err != nil {
		return WarmupEvent{}, false
	}
	if warmup.Source != WarmupSource {
		return WarmupEvent{}, false
	}
	return warmup, true
}

// Warmer keeps instances of a function warm by invoking the function
// asynchronously.
type Warmer struct {
	invoker      Invoker
	functionName string
	delay        time.Duration
}

// NewWarmer returns a Warmer that invokes functionName through invoker.
func NewWarmer(invoker Invoker, functionName string) *Warmer {
	return &Warmer{
		invoker:      invoker,
		functionName: functionName,
		delay:        WarmupDelay,
	}
}

// Warm handles a warmup event. Invocation failures are not returned; they
// only reduce the number of warmed instances.
func (w *Warmer) Warm(ctx context.Context, event WarmupEvent) WarmupResponse {
	warmed := 1

	if event.Concurrency > 0 && w.invoker != nil {
		warmed += w.invoke(ctx, min(event.Concurrency, MaxWarmupConcurrency))
	}

	select {
	case <-ctx.Done():
	case <-time.After(w.delay):
	}

	return WarmupResponse{Status: "warm", InstancesWarmed: warmed}
}

func (w *Warmer) invoke(ctx context.Context, count int) int {
	// invoked instances must not invoke further instances
	payload, err := json.Marshal(WarmupEvent{Source: WarmupSource})
	if err != nil {
		return 0
	}

	var (
		wg      sync.WaitGroup
		mux     sync.Mutex
		invoked int
	)

	for i := 0; i < count; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := w.invoker.Invoke(ctx, &lambdasdk.InvokeInput{
				FunctionName:   aws.String(w.functionName),
				InvocationType: types.InvocationTypeEvent,
				Payload:        payload,
			})
			if err != nil {
				return
			}

			mux.Lock()
			defer mux.Unlock()
			invoked++
		}()
	}

	wg.Wait()

	return invoked
}
