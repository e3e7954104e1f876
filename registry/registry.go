package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
	"github.com/hupe1980/llmgate/model"
	"github.com/hupe1980/llmgate/model/anthropic"
	"github.com/hupe1980/llmgate/model/gemini"
	"github.com/hupe1980/llmgate/model/openai"
)

// Factory constructs an adapter for one config. Factories must not perform
// network calls.
type Factory func(ctx context.Context, cfg core.ChatConfig, deps Deps) (model.Adapter, error)

// Deps are the shared collaborators handed to every factory.
type Deps struct {
	Logger     logging.Logger
	HTTPClient *http.Client
}

// Options configures a Registry.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// HTTPClient is shared by all adapters built through the default
	// factories. nil lets each SDK use its own client.
	HTTPClient *http.Client
	// Factories overrides or extends the built-in vendor factories.
	Factories map[core.Vendor]Factory
}

// WithLogger sets the registry logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithHTTPClient shares one HTTP client across constructed adapters.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

// WithFactory registers f for vendor, replacing any built-in factory.
func WithFactory(vendor core.Vendor, f Factory) func(o *Options) {
	return func(o *Options) {
		if o.Factories == nil {
			o.Factories = make(map[core.Vendor]Factory)
		}
		o.Factories[vendor] = f
	}
}

// Registry is safe for concurrent use.
type Registry struct {
	deps Deps

	mu        sync.RWMutex
	factories map[core.Vendor]Factory
	adapters  map[string]model.Adapter
	gen       uint64 // bumped by Clear; stale constructions are not cached

	group singleflight.Group
}

// New creates a Registry with the built-in openai, custom, anthropic and
// gemini factories.
func New(optFns ...func(o *Options)) *Registry {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	factories := DefaultFactories()
	for v, f := range opts.Factories {
		factories[v] = f
	}

	return &Registry{
		deps:      Deps{Logger: logging.OrNoOp(opts.Logger), HTTPClient: opts.HTTPClient},
		factories: factories,
		adapters:  make(map[string]model.Adapter),
	}
}

// DefaultFactories returns a fresh map of the built-in vendor factories.
func DefaultFactories() map[core.Vendor]Factory {
	return map[core.Vendor]Factory{
		core.VendorOpenAI:    newOpenAI,
		core.VendorCustom:    newOpenAI,
		core.VendorAnthropic: newAnthropic,
		core.VendorGemini:    newGemini,
	}
}

func newOpenAI(_ context.Context, cfg core.ChatConfig, deps Deps) (model.Adapter, error) {
	a, err := openai.New(cfg, openai.WithLogger(deps.Logger), openai.WithHTTPClient(deps.HTTPClient))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newAnthropic(_ context.Context, cfg core.ChatConfig, deps Deps) (model.Adapter, error) {
	a, err := anthropic.New(cfg, anthropic.WithLogger(deps.Logger), anthropic.WithHTTPClient(deps.HTTPClient))
	if err != nil {
		return nil, err
	}
	return a, nil
}

func newGemini(ctx context.Context, cfg core.ChatConfig, deps Deps) (model.Adapter, error) {
	a, err := gemini.New(ctx, cfg, gemini.WithLogger(deps.Logger), gemini.WithHTTPClient(deps.HTTPClient))
	if err != nil {
		return nil, err
	}
	return a, nil
}

// Register adds or replaces the factory for vendor. Adapters already cached
// for that vendor stay in place until Clear.
func (r *Registry) Register(vendor core.Vendor, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[vendor] = f
}

// Supports reports whether a factory is registered for vendor.
func (r *Registry) Supports(vendor core.Vendor) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[vendor]
	return ok
}

// Vendors lists the registered vendors in sorted order.
func (r *Registry) Vendors() []core.Vendor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.Vendor, 0, len(r.factories))
	for v := range r.factories {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Get returns the adapter for cfg, constructing it on first use.
func (r *Registry) Get(ctx context.Context, cfg core.ChatConfig) (model.Adapter, error) {
	if err := cfg.ValidateWith(r.Supports); err != nil {
		return nil, err
	}

	key := cfg.Fingerprint()

	r.mu.RLock()
	a, ok := r.adapters[key]
	factory := r.factories[cfg.Vendor]
	r.mu.RUnlock()
	if ok {
		return a, nil
	}

	v, err, shared := r.group.Do(key, func() (any, error) {
		r.mu.RLock()
		if a, ok := r.adapters[key]; ok {
			r.mu.RUnlock()
			return a, nil
		}
		gen := r.gen
		r.mu.RUnlock()

		a, err := factory(ctx, cfg, r.deps)
		if err != nil {
			return nil, err
		}
		if a == nil {
			return nil, core.Errorf(core.KindUnknown, "factory for vendor %q returned no adapter", cfg.Vendor)
		}

		r.mu.Lock()
		if gen == r.gen {
			r.adapters[key] = a
		}
		r.mu.Unlock()

		r.deps.Logger.Debug("adapter constructed", "vendor", cfg.Vendor, "base_url", cfg.BaseURL)
		return a, nil
	})
	if err != nil {
		var ce *core.Error
		if errors.As(err, &ce) {
			return nil, err
		}
		return nil, core.NewError(core.KindInvalidRequest, fmt.Sprintf("construct %s adapter: %v", cfg.Vendor, err), err)
	}
	if shared {
		r.deps.Logger.Debug("adapter construction shared", "vendor", cfg.Vendor)
	}
	return v.(model.Adapter), nil
}

// Len returns the number of cached adapters.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.adapters)
}

// Clear drops every cached adapter. Constructions already in flight complete
// for their callers but are not cached.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters = make(map[string]model.Adapter)
	r.gen++
}
