package core

import "strings"

// Role identifies the author of a Message.
type Role string

const (
	// RoleUser is a human (or calling application) turn.
	RoleUser Role = "user"
	// RoleAssistant is a model turn, including tool invocations.
	RoleAssistant Role = "assistant"
	// RoleSystem carries instructions folded into the vendor system field.
	RoleSystem Role = "system"
	// RoleTool carries the result of a tool invocation.
	RoleTool Role = "tool"
)

// Part represents a polymorphic segment of message content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string `json:"text"`
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImageEncoding describes how ImagePart data is carried.
type ImageEncoding string

const (
	// ImageEncodingBase64 means Data holds base64 encoded bytes.
	ImageEncodingBase64 ImageEncoding = "base64"
	// ImageEncodingURL means URL references the image.
	ImageEncodingURL ImageEncoding = "url"
)

// ImagePart is an embedded or referenced image.
type ImagePart struct {
	Encoding  ImageEncoding `json:"encoding"`
	MediaType string        `json:"media_type"`     // e.g. image/png
	Data      string        `json:"data,omitempty"` // base64 payload when Encoding is base64
	URL       string        `json:"url,omitempty"`  // remote reference when Encoding is url
}

// isPart implements the Part interface for ImagePart.
func (ImagePart) isPart() {}

// Placeholder returns the text marker used by adapters that cannot send images.
func (p ImagePart) Placeholder() string {
	mt := p.MediaType
	if mt == "" {
		mt = "image"
	}
	return "[image: " + mt + "]"
}

// Message is one turn of a conversation.
//
// An assistant message with ToolCallID and ToolName set is a tool invocation;
// its text content is the argument JSON as produced by the model. A tool
// message is the result of the invocation with the matching ToolCallID.
type Message struct {
	Role       Role   `json:"role"`
	Content    []Part `json:"content"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// NewTextMessage creates a message holding a single text part.
func NewTextMessage(role Role, text string) Message {
	return Message{Role: role, Content: []Part{TextPart{Text: text}}}
}

// NewToolInvocationMessage creates the assistant turn that requested a tool call.
func NewToolInvocationMessage(id, name, arguments string) Message {
	return Message{
		Role:       RoleAssistant,
		Content:    []Part{TextPart{Text: arguments}},
		ToolCallID: id,
		ToolName:   name,
	}
}

// NewToolResultMessage creates the tool turn answering the invocation id.
func NewToolResultMessage(id, name, result string) Message {
	return Message{
		Role:       RoleTool,
		Content:    []Part{TextPart{Text: result}},
		ToolCallID: id,
		ToolName:   name,
	}
}

// IsToolInvocation reports whether the message is an assistant tool call.
func (m Message) IsToolInvocation() bool {
	return m.Role == RoleAssistant && m.ToolCallID != "" && m.ToolName != ""
}

// Text concatenates all text parts, ignoring images.
func (m Message) Text() string {
	var b strings.Builder
	for _, p := range m.Content {
		if tp, ok := p.(TextPart); ok {
			b.WriteString(tp.Text)
		}
	}
	return b.String()
}

// HasImages reports whether any part is an image.
func (m Message) HasImages() bool {
	for _, p := range m.Content {
		if _, ok := p.(ImagePart); ok {
			return true
		}
	}
	return false
}
