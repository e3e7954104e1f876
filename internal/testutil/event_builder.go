package testutil

import (
	"time"

	"github.com/hupe1980/llmgate/core"
)

// Collect drains ch until it is closed. It gives up after timeout so a
// broken stream fails the test instead of hanging it.
func Collect(ch <-chan core.StreamEvent, timeout time.Duration) ([]core.StreamEvent, bool) {
	var out []core.StreamEvent
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out, true
			}
			out = append(out, ev)
		case <-deadline.C:
			return out, false
		}
	}
}

// Kinds lists the kinds of evs in order.
func Kinds(evs []core.StreamEvent) []core.EventKind {
	out := make([]core.EventKind, 0, len(evs))
	for _, ev := range evs {
		out = append(out, ev.Kind)
	}
	return out
}

// Last returns the final event, or the zero event when evs is empty.
func Last(evs []core.StreamEvent) core.StreamEvent {
	if len(evs) == 0 {
		return core.StreamEvent{}
	}
	return evs[len(evs)-1]
}

// Terminals counts done and error events.
func Terminals(evs []core.StreamEvent) int {
	n := 0
	for _, ev := range evs {
		if ev.IsTerminal() {
			n++
		}
	}
	return n
}

// Text concatenates all text deltas.
func Text(evs []core.StreamEvent) string {
	var s string
	for _, ev := range evs {
		if ev.Kind == core.EventText {
			s += ev.Content
		}
	}
	return s
}

// Filter returns the events of the given kind.
func Filter(evs []core.StreamEvent, kind core.EventKind) []core.StreamEvent {
	var out []core.StreamEvent
	for _, ev := range evs {
		if ev.Kind == kind {
			out = append(out, ev)
		}
	}
	return out
}
