package gemini

import (
	"net/http"

	"github.com/hupe1980/llmgate/logging"
)

// Options configures the Gemini adapter.
type Options struct {
	Temperature     float32 // zero leaves the vendor default
	MaxOutputTokens int32
	IncludeThoughts bool // ask thinking models to stream thought summaries
	APIVersion      string
	HTTPClient      *http.Client
	Logger          logging.Logger
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) func(o *Options) {
	return func(o *Options) { o.Temperature = t }
}

// WithMaxOutputTokens caps the response length.
func WithMaxOutputTokens(n int32) func(o *Options) {
	return func(o *Options) { o.MaxOutputTokens = n }
}

// WithThoughts streams thought summaries as reasoning events.
func WithThoughts() func(o *Options) {
	return func(o *Options) { o.IncludeThoughts = true }
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}
