package model

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/llmgate/assembler"
	"github.com/hupe1980/llmgate/classify"
	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
)

// State is the lifecycle position of a request session.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateCompleted
	StateErrored
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateErrored:
		return "errored"
	case StateCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further events can follow.
func (s State) Terminal() bool { return s >= StateCompleted }

// Session is the mutable state of one request: accumulated text, the
// fragment assembler, usage and the output channel. It is owned by the single
// goroutine running the adapter stream; only State may be read concurrently.
//
// Every emit checks the context first, so cancellation is observed at each
// chunk boundary. Once cancelled the session emits nothing, not even an error.
type Session struct {
	ctx       context.Context
	requestID string
	vendor    core.Vendor
	logger    logging.Logger

	out          chan core.StreamEvent
	text         strings.Builder
	asm          *assembler.Assembler
	calls        []core.ToolCall
	usage        *core.Usage
	finishReason string
	state        atomic.Int32
}

// NewSession creates an idle session for one request.
func NewSession(ctx context.Context, requestID string, vendor core.Vendor, logger logging.Logger) *Session {
	return &Session{
		ctx:       ctx,
		requestID: requestID,
		vendor:    vendor,
		logger:    logging.OrNoOp(logger),
		out:       make(chan core.StreamEvent),
		asm:       assembler.New(),
	}
}

// Events returns the channel the session emits on.
func (s *Session) Events() <-chan core.StreamEvent { return s.out }

// RequestID returns the id stamped on every event.
func (s *Session) RequestID() string { return s.requestID }

// State returns the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// Context returns the request context.
func (s *Session) Context() context.Context { return s.ctx }

// Text returns the text accumulated so far.
func (s *Session) Text() string { return s.text.String() }

func (s *Session) transition(to State) {
	from := State(s.state.Load())
	if from.Terminal() || from == to {
		return
	}
	s.state.Store(int32(to))
	s.logger.Debug("session state", "request_id", s.requestID, "vendor", s.vendor, "from", from.String(), "to", to.String())
}

// Connecting marks the outbound connection as being opened.
func (s *Session) Connecting() { s.transition(StateConnecting) }

// Streaming marks the first vendor chunk as received.
func (s *Session) Streaming() { s.transition(StateStreaming) }

// Cancelled reports whether the request context is done. The session moves
// to the cancelled state the first time this is observed.
func (s *Session) Cancelled() bool {
	if s.ctx.Err() == nil {
		return false
	}
	s.transition(StateCancelled)
	return true
}

func (s *Session) emit(ev core.StreamEvent) bool {
	if s.State().Terminal() || s.Cancelled() {
		return false
	}
	select {
	case s.out <- ev:
		return true
	case <-s.ctx.Done():
		s.transition(StateCancelled)
		return false
	}
}

// EmitText forwards a visible text delta immediately. It returns false once
// the request was cancelled and the caller must stop reading.
func (s *Session) EmitText(delta string) bool {
	if delta == "" {
		return !s.Cancelled()
	}
	s.Streaming()
	s.text.WriteString(delta)
	return s.emit(core.NewTextEvent(s.requestID, delta))
}

// EmitReasoning forwards a reasoning delta. Reasoning shares the cancellation
// checkpoint with text.
func (s *Session) EmitReasoning(delta string) bool {
	if delta == "" {
		return !s.Cancelled()
	}
	s.Streaming()
	return s.emit(core.NewReasoningEvent(s.requestID, delta))
}

// BeginToolCall signals that a call started on the slot. A call displaced by
// an id transition is sealed and emitted first.
func (s *Session) BeginToolCall(index int, id, name string) bool {
	s.Streaming()
	wasOpen := s.asm.Open(index)
	sealed := s.asm.Begin(index, id, name)
	for _, c := range sealed {
		if !s.emitCall(c) {
			return false
		}
	}
	if wasOpen && len(sealed) == 0 {
		return !s.Cancelled()
	}
	return s.emit(core.NewToolCallPendingEvent(s.requestID, id, name))
}

// AppendToolArgs adds argument text to the call on the slot.
func (s *Session) AppendToolArgs(index int, text string) bool {
	s.Streaming()
	s.asm.Append(index, text)
	return !s.Cancelled()
}

// CompleteToolCall seals and emits the call on the slot.
func (s *Session) CompleteToolCall(index int) bool {
	call, ok := s.asm.Complete(index)
	if !ok {
		return !s.Cancelled()
	}
	return s.emitCall(call)
}

// EmitWholeToolCall seals and emits a call that arrived in one piece.
func (s *Session) EmitWholeToolCall(id, name string, args map[string]any) bool {
	s.Streaming()
	return s.emitCall(s.asm.Whole(id, name, args))
}

func (s *Session) emitCall(call core.ToolCall) bool {
	s.calls = append(s.calls, call)
	return s.emit(core.NewToolCallEvent(s.requestID, call))
}

// SetUsage merges reported token counts. Zero fields keep earlier values and
// a missing total is derived from input and output.
func (s *Session) SetUsage(u core.Usage) {
	if s.usage == nil {
		s.usage = &core.Usage{}
	}
	if u.InputTokens > 0 {
		s.usage.InputTokens = u.InputTokens
	}
	if u.OutputTokens > 0 {
		s.usage.OutputTokens = u.OutputTokens
	}
	if u.TotalTokens > 0 {
		s.usage.TotalTokens = u.TotalTokens
	} else {
		s.usage.TotalTokens = s.usage.InputTokens + s.usage.OutputTokens
	}
}

// SetFinishReason records the vendor stop reason reported on done.
func (s *Session) SetFinishReason(reason string) {
	if reason != "" {
		s.finishReason = reason
	}
}

// Finish seals any call still accumulating and emits done.
func (s *Session) Finish() {
	if n := s.asm.Pending(); n > 0 {
		s.logger.Debug("sealing unterminated tool calls", "request_id", s.requestID, "count", n)
	}
	for _, c := range s.asm.Flush() {
		if !s.emitCall(c) {
			return
		}
	}
	if s.emit(core.NewDoneEvent(s.requestID, s.text.String(), s.calls, s.usage, s.finishReason)) {
		s.transition(StateCompleted)
		s.logger.Debug("session completed", "request_id", s.requestID, "tool_calls", s.asm.Sealed())
	}
}

// Fail classifies err and emits it as the terminal error event. Cancellation
// is silent.
func (s *Session) Fail(err error) {
	ce := classify.Classify(err).WithVendor(s.vendor)
	if ce.Kind == core.KindCancelled || s.Cancelled() {
		s.transition(StateCancelled)
		return
	}
	if ce.Kind == core.KindUnknown {
		s.logger.Error("unclassified upstream failure", "request_id", s.requestID, "vendor", s.vendor, "type", fmt.Sprintf("%T", err), "error", err)
	}
	if s.emit(core.NewErrorEvent(s.requestID, ce)) {
		s.transition(StateErrored)
	}
}

// Run executes fn and then emits the terminal event: done when fn returns nil,
// the classified error otherwise. A panic inside fn becomes an Unknown error.
// The event channel is closed when Run returns.
func (s *Session) Run(fn func(s *Session) error) {
	defer close(s.out)
	defer func() {
		if r := recover(); r != nil {
			s.Fail(core.Errorf(core.KindUnknown, "adapter panic: %v", r))
		}
	}()

	s.Connecting()
	if err := fn(s); err != nil {
		s.Fail(err)
		return
	}
	if s.Cancelled() {
		return
	}
	s.Finish()
}

// Start runs fn in a new goroutine and returns the event channel.
func (s *Session) Start(fn func(s *Session) error) <-chan core.StreamEvent {
	go s.Run(fn)
	return s.out
}
