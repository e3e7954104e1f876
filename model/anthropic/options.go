package anthropic

import (
	"net/http"

	"github.com/hupe1980/llmgate/logging"
)

// DefaultMaxTokens is sent when neither options nor profile set a limit; the
// Messages API requires one.
const DefaultMaxTokens = 4096

// Options configures the Anthropic adapter. Extend via functional options to
// preserve stability.
type Options struct {
	Temperature    float64 // zero leaves the vendor default
	MaxTokens      int64
	ThinkingBudget int64 // enables extended thinking when positive
	HTTPClient     *http.Client
	Logger         logging.Logger
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) func(o *Options) {
	return func(o *Options) { o.Temperature = t }
}

// WithMaxTokens caps the response length.
func WithMaxTokens(n int64) func(o *Options) {
	return func(o *Options) { o.MaxTokens = n }
}

// WithThinkingBudget enables extended thinking with the given token budget.
func WithThinkingBudget(n int64) func(o *Options) {
	return func(o *Options) { o.ThinkingBudget = n }
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}
