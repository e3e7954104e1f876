// Package llmgate provides a high-level façade over the provider registry and
// the request gateway. Most applications interact with this package by:
//  1. Creating a Gate via New() (optionally supplying a logger or HTTP client)
//  2. Building a core.ChatRequest with the vendor, model and credential
//  3. Streaming it (Start / Stream) and reacting to the normalized events
//
// Every vendor produces the same event sequence: text and reasoning deltas,
// tool_call_pending progress markers, sealed tool_call events and exactly one
// terminal done or error event. A cancelled request ends without a terminal
// event.
package llmgate

import (
	"context"
	"net/http"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/gateway"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/registry"
)

// Options configures the Gate instance.
type Options struct {
	// Gateway configuration (event buffering)
	GatewayConfig gateway.Config

	// HTTPClient is shared by every adapter the registry builds.
	HTTPClient *http.Client

	// Factories overrides or extends the built-in vendor factories.
	Factories map[core.Vendor]registry.Factory

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Gate is the high-level façade aggregating the registry and gateway.
type Gate struct {
	opts     Options
	registry *registry.Registry
	gateway  *gateway.Gateway
}

// New creates a new Gate with optional overrides.
func New(optFns ...func(o *Options)) *Gate {
	opts := Options{
		GatewayConfig: gateway.DefaultConfig,
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	opts.Logger = logging.OrNoOp(opts.Logger)

	reg := registry.New(func(o *registry.Options) {
		o.Logger = logging.With(opts.Logger, "component", "registry")
		o.HTTPClient = opts.HTTPClient
		o.Factories = opts.Factories
	})

	gw := gateway.New(reg, func(o *gateway.Options) {
		o.Config = opts.GatewayConfig
		o.Logger = logging.With(opts.Logger, "component", "gateway")
	})

	return &Gate{opts: opts, registry: reg, gateway: gw}
}

// Registry exposes the adapter cache, e.g. to register extra vendors.
func (g *Gate) Registry() *registry.Registry { return g.registry }

// Start begins streaming req asynchronously.
func (g *Gate) Start(ctx context.Context, req core.ChatRequest) (string, <-chan core.StreamEvent, error) {
	return g.gateway.Start(ctx, req)
}

// Stream runs req to completion, calling sink for every event. Cancel with
// an event's RequestID or cancel ctx to stop it early.
func (g *Gate) Stream(ctx context.Context, req core.ChatRequest, sink func(core.StreamEvent)) (string, error) {
	return g.gateway.Stream(ctx, req, sink)
}

// Collect is a synchronous helper that runs req and returns every event it
// produced together with the request id.
func (g *Gate) Collect(ctx context.Context, req core.ChatRequest) (string, []core.StreamEvent, error) {
	var events []core.StreamEvent
	id, err := g.gateway.Stream(ctx, req, func(ev core.StreamEvent) {
		events = append(events, ev)
	})
	return id, events, err
}

// Cancel stops an in-flight request. Unknown ids are ignored.
func (g *Gate) Cancel(requestID string) { g.gateway.Cancel(requestID) }

// Active returns the number of in-flight requests.
func (g *Gate) Active() int { return g.gateway.Active() }

// Close cancels every in-flight request and drops cached adapters.
func (g *Gate) Close() {
	g.gateway.CancelAll()
	g.registry.Clear()
}
