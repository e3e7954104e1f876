package model

import (
	"context"

	"github.com/hupe1980/llmgate/core"
)

// Info contains metadata about an adapter implementation.
type Info struct {
	Vendor            core.Vendor    `json:"vendor"`
	Name              string         `json:"name"` // profile id for custom vendors, vendor otherwise
	BaseURL           string         `json:"base_url,omitempty"`
	AuthStyle         core.AuthStyle `json:"auth_style"`
	SupportsImages    bool           `json:"supports_images"`
	SupportsReasoning bool           `json:"supports_reasoning"`
}

// Adapter drives one vendor's wire protocol.
//
// TranslateMessages and TranslateTools expose the vendor-native request shapes
// for inspection and tests. Stream starts the request in the background and
// returns the ordered event channel; it is closed after the terminal event,
// or without one once ctx is cancelled. Cancelling ctx is the only way to stop
// a request early.
type Adapter interface {
	Info() Info
	TranslateMessages(systemPrompt string, msgs []core.Message) (any, error)
	TranslateTools(tools []core.ToolDefinition) (any, error)
	Stream(ctx context.Context, requestID string, req core.ChatRequest) <-chan core.StreamEvent
}
