package testutil

import (
	"github.com/hupe1980/llmgate/core"
)

// RequestBuilder provides a fluent helper for constructing chat requests in tests.
// Example:
//
//	req := NewRequestBuilder(core.VendorOpenAI, "gpt-4o").System("Be terse").User("hi").Build()
//
// Chain only the parts you need.
type RequestBuilder struct {
	req core.ChatRequest
}

// NewRequestBuilder creates a builder for the vendor and model.
func NewRequestBuilder(vendor core.Vendor, model string) *RequestBuilder {
	return &RequestBuilder{req: core.ChatRequest{Config: core.ChatConfig{Vendor: vendor, Model: model}}}
}

// BaseURL points the request at a test server (chainable).
func (b *RequestBuilder) BaseURL(u string) *RequestBuilder { b.req.Config.BaseURL = u; return b }

// APIKey sets the credential (chainable).
func (b *RequestBuilder) APIKey(k string) *RequestBuilder { b.req.Config.APIKey = k; return b }

// Profile attaches an adapter profile (chainable).
func (b *RequestBuilder) Profile(p *core.AdapterProfile) *RequestBuilder {
	b.req.Config.Profile = p
	return b
}

// SystemPrompt sets the explicit system prompt (chainable).
func (b *RequestBuilder) SystemPrompt(s string) *RequestBuilder { b.req.SystemPrompt = s; return b }

// System appends a system message (chainable).
func (b *RequestBuilder) System(t string) *RequestBuilder {
	return b.Message(core.NewTextMessage(core.RoleSystem, t))
}

// User appends a user text message (chainable).
func (b *RequestBuilder) User(t string) *RequestBuilder {
	return b.Message(core.NewTextMessage(core.RoleUser, t))
}

// Assistant appends an assistant text message (chainable).
func (b *RequestBuilder) Assistant(t string) *RequestBuilder {
	return b.Message(core.NewTextMessage(core.RoleAssistant, t))
}

// ToolCall appends an assistant tool invocation (chainable).
func (b *RequestBuilder) ToolCall(id, name, args string) *RequestBuilder {
	return b.Message(core.NewToolInvocationMessage(id, name, args))
}

// ToolResult appends a tool result (chainable).
func (b *RequestBuilder) ToolResult(id, name, result string) *RequestBuilder {
	return b.Message(core.NewToolResultMessage(id, name, result))
}

// Message appends an arbitrary message (chainable).
func (b *RequestBuilder) Message(m core.Message) *RequestBuilder {
	b.req.Messages = append(b.req.Messages, m)
	return b
}

// Tool appends a tool definition (chainable).
func (b *RequestBuilder) Tool(def core.ToolDefinition) *RequestBuilder {
	b.req.Tools = append(b.req.Tools, def)
	return b
}

// Build returns the request.
func (b *RequestBuilder) Build() core.ChatRequest { return b.req }

// SearchTool is a small tool definition shared by adapter tests.
func SearchTool() core.ToolDefinition {
	return core.ToolDefinition{
		Name:        "search",
		Description: "Search the codebase",
		Parameters: core.ParameterSchema{
			Type: "object",
			Properties: map[string]core.Property{
				"q":    {Type: "string", Description: "query"},
				"mode": {Type: "string", Enum: []string{"exact", "fuzzy"}},
			},
			Required: []string{"q"},
		},
	}
}
