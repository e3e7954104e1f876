package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind tags the StreamEvent union.
type EventKind string

const (
	// EventText carries a visible text delta.
	EventText EventKind = "text"
	// EventReasoning carries a vendor-native reasoning delta.
	EventReasoning EventKind = "reasoning"
	// EventToolCallPending marks that a tool call started accumulating. It only
	// carries id and name and is meant for progress display, never execution.
	EventToolCallPending EventKind = "tool_call_pending"
	// EventToolCall carries one fully sealed tool call.
	EventToolCall EventKind = "tool_call"
	// EventDone terminates a successful request.
	EventDone EventKind = "done"
	// EventError terminates a failed request.
	EventError EventKind = "error"
)

// Usage reports token accounting for a request.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
	TotalTokens  int64 `json:"total_tokens"`
}

// StreamEvent is one element of the normalized, ordered output of a request.
// Which fields are set depends on Kind:
//
//	text, reasoning    Content
//	tool_call_pending  ToolCall (ID, Name only)
//	tool_call          ToolCall
//	done               Content (full text), ToolCalls (omitted if none), Usage (if reported), FinishReason
//	error              Err
//
// done or error is always the last event of a request and exactly one of them
// is emitted, unless the request was cancelled, in which case neither is.
type StreamEvent struct {
	Kind         EventKind  `json:"kind"`
	RequestID    string     `json:"request_id"`
	Timestamp    time.Time  `json:"timestamp"`
	Content      string     `json:"content,omitempty"`
	ToolCall     *ToolCall  `json:"tool_call,omitempty"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	Usage        *Usage     `json:"usage,omitempty"`
	FinishReason string     `json:"finish_reason,omitempty"`
	Err          *Error     `json:"error,omitempty"`
}

func newEvent(kind EventKind, requestID string) StreamEvent {
	return StreamEvent{Kind: kind, RequestID: requestID, Timestamp: time.Now().UTC()}
}

// NewTextEvent creates a text delta event.
func NewTextEvent(requestID, delta string) StreamEvent {
	e := newEvent(EventText, requestID)
	e.Content = delta
	return e
}

// NewReasoningEvent creates a reasoning delta event.
func NewReasoningEvent(requestID, delta string) StreamEvent {
	e := newEvent(EventReasoning, requestID)
	e.Content = delta
	return e
}

// NewToolCallPendingEvent signals that a tool call began accumulating.
func NewToolCallPendingEvent(requestID, id, name string) StreamEvent {
	e := newEvent(EventToolCallPending, requestID)
	e.ToolCall = &ToolCall{ID: id, Name: name}
	return e
}

// NewToolCallEvent wraps a sealed tool call.
func NewToolCallEvent(requestID string, call ToolCall) StreamEvent {
	e := newEvent(EventToolCall, requestID)
	e.ToolCall = &call
	return e
}

// NewDoneEvent creates the successful terminal event. An empty calls slice is
// dropped so consumers never see an empty list.
func NewDoneEvent(requestID, content string, calls []ToolCall, usage *Usage, finishReason string) StreamEvent {
	e := newEvent(EventDone, requestID)
	e.Content = content
	if len(calls) > 0 {
		e.ToolCalls = calls
	}
	e.Usage = usage
	e.FinishReason = finishReason
	return e
}

// NewErrorEvent creates the failed terminal event.
func NewErrorEvent(requestID string, err *Error) StreamEvent {
	e := newEvent(EventError, requestID)
	e.Err = err
	return e
}

// IsTerminal reports whether the event ends its request.
func (e StreamEvent) IsTerminal() bool { return e.Kind == EventDone || e.Kind == EventError }

// NewID generates a new unique identifier for requests.
func NewID() string { return uuid.NewString() }

// NewToolCallID synthesizes an id for vendors that do not assign one.
func NewToolCallID() string { return "call_" + uuid.NewString() }
