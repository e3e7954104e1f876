package model

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hupe1980/llmgate/core"
)

// MockScript describes the scripted behavior of one MockAdapter request.
type MockScript struct {
	Chunks    []string        // text deltas, emitted in order
	Reasoning []string        // reasoning deltas, emitted before text
	ToolCalls []core.ToolCall // emitted whole after the text
	Usage     *core.Usage
	Err       error         // returned after the chunks instead of done
	Delay     time.Duration // pause before each chunk
	Hold      bool          // block after the chunks until the context ends
}

// MockAdapter is a lightweight in-memory Adapter useful for tests and examples.
type MockAdapter struct {
	info Info

	mu        sync.Mutex
	scripts   map[string]MockScript
	fallback  *MockScript
	requests  []core.ChatRequest
	streams   atomic.Int64
	cancelled atomic.Int64
}

// NewMockAdapter constructs a MockAdapter for the given vendor.
func NewMockAdapter(vendor core.Vendor) *MockAdapter {
	return &MockAdapter{
		info:    Info{Vendor: vendor, Name: string(vendor), SupportsImages: true},
		scripts: make(map[string]MockScript),
	}
}

// AddResponse registers a canned streamed completion for the last user prompt.
func (m *MockAdapter) AddResponse(prompt string, chunks ...string) {
	m.AddScript(prompt, MockScript{Chunks: chunks})
}

// AddScript registers a script for the last user prompt.
func (m *MockAdapter) AddScript(prompt string, script MockScript) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts[prompt] = script
}

// SetDefault sets the script used when no prompt matches.
func (m *MockAdapter) SetDefault(script MockScript) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &script
}

// Streams returns the number of Stream calls.
func (m *MockAdapter) Streams() int { return int(m.streams.Load()) }

// Cancelled returns the number of streams that observed cancellation.
func (m *MockAdapter) Cancelled() int { return int(m.cancelled.Load()) }

// Requests returns a copy of the requests received.
func (m *MockAdapter) Requests() []core.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ChatRequest(nil), m.requests...)
}

// Info implements Adapter.
func (m *MockAdapter) Info() Info { return m.info }

// TranslateMessages implements Adapter by returning the prepared conversation.
func (m *MockAdapter) TranslateMessages(systemPrompt string, msgs []core.Message) (any, error) {
	return Prepare(systemPrompt, msgs, nil), nil
}

// TranslateTools implements Adapter by returning the definitions unchanged.
func (m *MockAdapter) TranslateTools(tools []core.ToolDefinition) (any, error) {
	return tools, nil
}

// Stream implements Adapter.
func (m *MockAdapter) Stream(ctx context.Context, requestID string, req core.ChatRequest) <-chan core.StreamEvent {
	m.streams.Add(1)
	m.mu.Lock()
	m.requests = append(m.requests, req)
	script := m.lookup(req.Messages)
	m.mu.Unlock()

	s := NewSession(ctx, requestID, m.info.Vendor, nil)
	return s.Start(func(s *Session) error {
		defer func() {
			if s.State() == StateCancelled || ctx.Err() != nil {
				m.cancelled.Add(1)
			}
		}()

		for _, r := range script.Reasoning {
			if !m.pause(ctx, script.Delay) || !s.EmitReasoning(r) {
				return nil
			}
		}
		for _, c := range script.Chunks {
			if !m.pause(ctx, script.Delay) || !s.EmitText(c) {
				return nil
			}
		}
		for _, tc := range script.ToolCalls {
			if !s.EmitWholeToolCall(tc.ID, tc.Name, tc.Arguments) {
				return nil
			}
		}
		if script.Hold {
			<-ctx.Done()
			return ctx.Err()
		}
		if script.Usage != nil {
			s.SetUsage(*script.Usage)
		}
		if script.Err != nil {
			return script.Err
		}
		s.SetFinishReason("stop")
		return nil
	})
}

func (m *MockAdapter) lookup(msgs []core.Message) MockScript {
	var prompt string
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == core.RoleUser {
			prompt = msgs[i].Text()
			break
		}
	}
	if s, ok := m.scripts[prompt]; ok {
		return s
	}
	if m.fallback != nil {
		return *m.fallback
	}
	return MockScript{Chunks: []string{"Mock response to: " + prompt}}
}

func (m *MockAdapter) pause(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

var _ Adapter = (*MockAdapter)(nil)
