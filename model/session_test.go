package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/llmgate/core"
)

func collect(ch <-chan core.StreamEvent) []core.StreamEvent {
	var out []core.StreamEvent
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

func kinds(evs []core.StreamEvent) []core.EventKind {
	out := make([]core.EventKind, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Kind)
	}
	return out
}

func TestSession_FragmentedToolCall(t *testing.T) {
	s := NewSession(context.Background(), "r1", core.VendorOpenAI, nil)
	evs := collect(s.Start(func(s *Session) error {
		s.EmitText("Looking up")
		s.BeginToolCall(0, "c1", "search")
		s.AppendToolArgs(0, `{"q":`)
		s.AppendToolArgs(0, `"rust"}`)
		s.CompleteToolCall(0)
		s.SetUsage(core.Usage{InputTokens: 10, OutputTokens: 5})
		s.SetFinishReason("tool_calls")
		return nil
	}))

	require.Equal(t, []core.EventKind{core.EventText, core.EventToolCallPending, core.EventToolCall, core.EventDone}, kinds(evs))
	assert.Equal(t, core.ToolCall{ID: "c1", Name: "search", Arguments: map[string]any{"q": "rust"}}, *evs[2].ToolCall)

	done := evs[3]
	assert.Equal(t, "Looking up", done.Content)
	require.Len(t, done.ToolCalls, 1)
	assert.Equal(t, &core.Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}, done.Usage)
	assert.Equal(t, "tool_calls", done.FinishReason)
	assert.Equal(t, StateCompleted, s.State())
	for _, ev := range evs {
		assert.Equal(t, "r1", ev.RequestID)
	}
}

func TestSession_TruncatedStreamSealsOnFinish(t *testing.T) {
	s := NewSession(context.Background(), "r2", core.VendorAnthropic, nil)
	evs := collect(s.Start(func(s *Session) error {
		s.BeginToolCall(1, "c7", "read_file")
		s.AppendToolArgs(1, `{"path":"main.go"`)
		return nil
	}))

	require.Equal(t, []core.EventKind{core.EventToolCallPending, core.EventToolCall, core.EventDone}, kinds(evs))
	assert.Equal(t, "c7", evs[1].ToolCall.ID)
	assert.Empty(t, evs[1].ToolCall.Arguments)
}

func TestSession_DoneOmitsEmptyToolCalls(t *testing.T) {
	s := NewSession(context.Background(), "r3", core.VendorGemini, nil)
	evs := collect(s.Start(func(s *Session) error {
		s.EmitText("hi")
		return nil
	}))

	require.Len(t, evs, 2)
	assert.Nil(t, evs[1].ToolCalls)
	assert.Nil(t, evs[1].Usage)
}

func TestSession_ErrorIsTerminal(t *testing.T) {
	s := NewSession(context.Background(), "r4", core.VendorOpenAI, nil)
	evs := collect(s.Start(func(s *Session) error {
		s.EmitText("partial")
		s.BeginToolCall(0, "c1", "x")
		return core.Errorf(core.KindRateLimited, "slow down")
	}))

	require.Equal(t, []core.EventKind{core.EventText, core.EventToolCallPending, core.EventError}, kinds(evs))
	assert.Equal(t, core.KindRateLimited, evs[2].Err.Kind)
	assert.Equal(t, core.VendorOpenAI, evs[2].Err.Vendor)
	assert.Equal(t, StateErrored, s.State())
}

func TestSession_PanicBecomesUnknown(t *testing.T) {
	s := NewSession(context.Background(), "r5", core.VendorOpenAI, nil)
	evs := collect(s.Start(func(s *Session) error {
		panic("boom")
	}))

	require.Len(t, evs, 1)
	assert.Equal(t, core.KindUnknown, evs[0].Err.Kind)
	assert.Contains(t, evs[0].Err.Message, "boom")
}

func TestSession_CancelledIsSilent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := NewSession(ctx, "r6", core.VendorOpenAI, nil)

	ch := s.Start(func(s *Session) error {
		if !s.EmitText("first") {
			return nil
		}
		<-ctx.Done()
		s.EmitText("late")
		return ctx.Err()
	})

	first := <-ch
	assert.Equal(t, core.EventText, first.Kind)
	cancel()

	rest := collect(ch)
	assert.Empty(t, rest)
	assert.Equal(t, StateCancelled, s.State())
}

func TestSession_CancelledErrorWithoutContext(t *testing.T) {
	s := NewSession(context.Background(), "r7", core.VendorOpenAI, nil)
	evs := collect(s.Start(func(s *Session) error {
		return context.Canceled
	}))
	assert.Empty(t, evs)
	assert.Equal(t, StateCancelled, s.State())
}

func TestSession_IDTransitionEmitsPrevious(t *testing.T) {
	s := NewSession(context.Background(), "r8", core.VendorCustom, nil)
	evs := collect(s.Start(func(s *Session) error {
		s.BeginToolCall(0, "a", "one")
		s.AppendToolArgs(0, `{"n":1}`)
		s.BeginToolCall(0, "a", "")
		s.BeginToolCall(0, "b", "two")
		s.AppendToolArgs(0, `{"n":2}`)
		return nil
	}))

	require.Equal(t, []core.EventKind{
		core.EventToolCallPending, core.EventToolCall, core.EventToolCallPending, core.EventToolCall, core.EventDone,
	}, kinds(evs))
	assert.Equal(t, "a", evs[1].ToolCall.ID)
	assert.Equal(t, "b", evs[3].ToolCall.ID)
	assert.Len(t, evs[4].ToolCalls, 2)
}

func TestSession_UnknownErrorWrapped(t *testing.T) {
	s := NewSession(context.Background(), "r9", core.VendorGemini, nil)
	evs := collect(s.Start(func(s *Session) error {
		return errors.New("odd")
	}))
	require.Len(t, evs, 1)
	assert.ErrorIs(t, evs[0].Err, core.ErrUnknown)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "streaming", StateStreaming.String())
	assert.True(t, StateCancelled.Terminal())
	assert.False(t, StateConnecting.Terminal())
}
