package openai

import (
	"net/http"

	"github.com/hupe1980/llmgate/logging"
)

// DefaultReasoningField is the delta field OpenAI-compatible reasoning models
// use for their chain-of-thought text.
const DefaultReasoningField = "reasoning_content"

// DefaultAPIKeyHeader carries the credential when the header auth style is
// selected for a custom endpoint.
const DefaultAPIKeyHeader = "api-key"

// Options configure the OpenAI adapter.
// Fields mirror a subset of Chat Completion parameters intentionally kept
// minimal; extend via functional options without breaking callers.
type Options struct {
	Temperature         float64 // zero leaves the vendor default
	MaxCompletionTokens int64   // zero leaves the vendor default
	APIKeyHeader        string
	HTTPClient          *http.Client
	Logger              logging.Logger
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) func(o *Options) {
	return func(o *Options) { o.Temperature = t }
}

// WithMaxCompletionTokens caps the completion length.
func WithMaxCompletionTokens(n int64) func(o *Options) {
	return func(o *Options) { o.MaxCompletionTokens = n }
}

// WithHTTPClient overrides the transport.
func WithHTTPClient(c *http.Client) func(o *Options) {
	return func(o *Options) { o.HTTPClient = c }
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}
