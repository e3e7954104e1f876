package gateway

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/model"
)

// Resolver hands out adapters for request configs. *registry.Registry
// implements it.
type Resolver interface {
	Get(ctx context.Context, cfg core.ChatConfig) (model.Adapter, error)
	Supports(vendor core.Vendor) bool
}

// Config tunes the gateway.
type Config struct {
	// EventBufferSize is the capacity of the channel returned by Start.
	EventBufferSize int

	// MaxConcurrentRequests bounds the number of in-flight requests. Requests
	// beyond the bound fail synchronously with rate_limited. 0 means unbounded.
	MaxConcurrentRequests int
}

// DefaultConfig is used when no Config is supplied.
var DefaultConfig = Config{
	EventBufferSize: 64,
}

// Options configures a Gateway.
type Options struct {
	Config Config
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// WithConfig replaces the gateway config.
func WithConfig(cfg Config) func(o *Options) {
	return func(o *Options) { o.Config = cfg }
}

// WithEventBuffer sets the capacity of the per-request event channel.
func WithEventBuffer(n int) func(o *Options) {
	return func(o *Options) { o.Config.EventBufferSize = n }
}

// WithMaxConcurrent bounds the number of in-flight requests.
func WithMaxConcurrent(n int) func(o *Options) {
	return func(o *Options) { o.Config.MaxConcurrentRequests = n }
}

// WithLogger sets the gateway logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

type request struct {
	cancel    context.CancelFunc
	cancelled atomic.Bool
}

// Gateway is safe for concurrent use.
type Gateway struct {
	resolver Resolver
	config   Config
	logger   logging.Logger
	limiter  *limiter

	mu     sync.Mutex
	active map[string]*request
}

// New creates a Gateway resolving adapters through r.
func New(r Resolver, optFns ...func(o *Options)) *Gateway {
	opts := Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Config.EventBufferSize < 0 {
		opts.Config.EventBufferSize = 0
	}

	return &Gateway{
		resolver: r,
		config:   opts.Config,
		logger:   logging.OrNoOp(opts.Logger),
		limiter:  newLimiter(opts.Config.MaxConcurrentRequests),
		active:   make(map[string]*request),
	}
}

// Start validates req and begins streaming it. The returned channel delivers
// the request's events and is closed when the request ends, fails or is
// cancelled.
func (g *Gateway) Start(ctx context.Context, req core.ChatRequest) (string, <-chan core.StreamEvent, error) {
	if err := req.ValidateWith(g.resolver.Supports); err != nil {
		return "", nil, err
	}

	adapter, err := g.resolver.Get(ctx, req.Config)
	if err != nil {
		return "", nil, err
	}

	if err := g.limiter.acquire(); err != nil {
		g.logger.Warn("request rejected", "vendor", req.Config.Vendor, "error", err)
		return "", nil, err
	}

	requestID := core.NewID()
	reqCtx, cancel := context.WithCancel(ctx)
	r := &request{cancel: cancel}

	g.mu.Lock()
	g.active[requestID] = r
	g.mu.Unlock()

	out := make(chan core.StreamEvent, g.config.EventBufferSize)
	upstream := adapter.Stream(reqCtx, requestID, req)

	logger := logging.With(g.logger, "request_id", requestID, "vendor", req.Config.Vendor, "model", req.Config.Model)
	logger.Info("request started", "messages", len(req.Messages), "tools", len(req.Tools))

	go func() {
		defer func() {
			g.mu.Lock()
			delete(g.active, requestID)
			g.mu.Unlock()
			g.limiter.release()
			cancel()
			close(out)
		}()

		g.forward(reqCtx, requestID, r, upstream, out, logger)
	}()

	return requestID, out, nil
}

func (g *Gateway) forward(ctx context.Context, requestID string, r *request, upstream <-chan core.StreamEvent, out chan<- core.StreamEvent, logger logging.Logger) {
	start := time.Now()
	var (
		terminal *core.StreamEvent
		events   int
	)

	deliver := func(ev core.StreamEvent) bool {
		if r.cancelled.Load() || ctx.Err() != nil {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		case out <- ev:
			return true
		}
	}

	// The upstream channel is drained to the end so the adapter goroutine
	// never blocks on a send after cancellation.
	for ev := range upstream {
		if terminal != nil {
			logger.Warn("dropping event after terminal", "kind", ev.Kind)
			continue
		}
		if !deliver(ev) {
			continue
		}
		events++
		if ev.IsTerminal() {
			terminal = &ev
		}
	}

	elapsed := time.Since(start)
	switch {
	case r.cancelled.Load() || ctx.Err() != nil:
		if terminal == nil {
			logger.Info("request cancelled", "duration", elapsed, "events", events)
			return
		}
	case terminal == nil:
		err := core.Errorf(core.KindUpstreamMalformed, "stream ended without a terminal event")
		ev := core.NewErrorEvent(requestID, err)
		if deliver(ev) {
			terminal = &ev
		}
	}

	if terminal == nil {
		return
	}
	if terminal.Kind == core.EventError {
		logger.Warn("request failed", "duration", elapsed, "error_kind", terminal.Err.Kind, "error", terminal.Err.Message)
		return
	}
	args := []any{"duration", elapsed, "events", events, "finish_reason", terminal.FinishReason, "tool_calls", len(terminal.ToolCalls)}
	if u := terminal.Usage; u != nil {
		args = append(args, "input_tokens", u.InputTokens, "output_tokens", u.OutputTokens)
	}
	logger.Info("request completed", args...)
}

// Stream runs req to completion, calling sink for every event on the calling
// goroutine. It returns the request's classified error when the request fails
// and a cancelled error when it was stopped before finishing.
//
// The id is returned only once the request has ended. To stop the request
// while it runs, call Cancel with the RequestID carried by every event (sink
// may do so itself) or cancel ctx, which also covers the span before the
// first event.
func (g *Gateway) Stream(ctx context.Context, req core.ChatRequest, sink func(core.StreamEvent)) (string, error) {
	requestID, events, err := g.Start(ctx, req)
	if err != nil {
		return "", err
	}

	var last *core.StreamEvent
	for ev := range events {
		sink(ev)
		if ev.IsTerminal() {
			last = &ev
		}
	}

	switch {
	case last == nil:
		return requestID, core.NewError(core.KindCancelled, "request cancelled", ctx.Err())
	case last.Kind == core.EventError:
		return requestID, last.Err
	default:
		return requestID, nil
	}
}

// Cancel stops the request with the given id. Unknown and finished ids are
// ignored, so Cancel may be called any number of times.
func (g *Gateway) Cancel(requestID string) {
	g.mu.Lock()
	r, ok := g.active[requestID]
	g.mu.Unlock()
	if !ok {
		return
	}
	if r.cancelled.CompareAndSwap(false, true) {
		g.logger.Debug("request cancel requested", "request_id", requestID)
	}
	r.cancel()
}

// CancelAll stops every in-flight request.
func (g *Gateway) CancelAll() {
	g.mu.Lock()
	ids := make([]string, 0, len(g.active))
	for id := range g.active {
		ids = append(ids, id)
	}
	g.mu.Unlock()

	for _, id := range ids {
		g.Cancel(id)
	}
}

// Remaining returns how many more requests may start, or -1 when unbounded.
func (g *Gateway) Remaining() int { return g.limiter.remaining() }

// Active returns the number of in-flight requests.
func (g *Gateway) Active() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.active)
}
