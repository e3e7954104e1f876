package assembler

import (
	"sort"
	"strings"

	"github.com/hupe1980/llmgate/core"
)

type accumulator struct {
	id   string
	name string
	args strings.Builder
}

func (a *accumulator) seal() core.ToolCall {
	id := a.id
	if id == "" {
		id = core.NewToolCallID()
	}
	return core.ToolCall{ID: id, Name: a.name, Arguments: ParseArguments(a.args.String())}
}

// Assembler accumulates tool-call fragments for one request. It is not safe
// for concurrent use; each request session owns its own instance.
type Assembler struct {
	open   map[int]*accumulator
	sealed int
}

// New creates an empty Assembler.
func New() *Assembler {
	return &Assembler{open: make(map[int]*accumulator)}
}

// Begin opens a call on the given slot. If the slot already holds a call with
// a different non-empty id, that call is sealed and returned first. A repeated
// or empty id merges into the open call and only fills in missing metadata.
func (a *Assembler) Begin(index int, id, name string) []core.ToolCall {
	var out []core.ToolCall
	if acc, ok := a.open[index]; ok {
		if id == "" || acc.id == "" || acc.id == id {
			if acc.id == "" {
				acc.id = id
			}
			if acc.name == "" {
				acc.name = name
			}
			return nil
		}
		out = append(out, a.take(index))
	}
	a.open[index] = &accumulator{id: id, name: name}
	return out
}

// Append adds argument text to the slot, opening an anonymous accumulator if
// none exists. Text is kept verbatim and in arrival order.
func (a *Assembler) Append(index int, text string) {
	acc, ok := a.open[index]
	if !ok {
		acc = &accumulator{}
		a.open[index] = acc
	}
	acc.args.WriteString(text)
}

// Complete seals the call on the slot. It reports false if nothing was open.
func (a *Assembler) Complete(index int) (core.ToolCall, bool) {
	if _, ok := a.open[index]; !ok {
		return core.ToolCall{}, false
	}
	return a.take(index), true
}

// Whole seals a call that arrived complete in a single event.
func (a *Assembler) Whole(id, name string, args map[string]any) core.ToolCall {
	if id == "" {
		id = core.NewToolCallID()
	}
	if args == nil {
		args = map[string]any{}
	}
	a.sealed++
	return core.ToolCall{ID: id, Name: name, Arguments: args}
}

// Flush seals every open call in slot order. It is called once the stream
// ended, whether or not explicit completion signals arrived.
func (a *Assembler) Flush() []core.ToolCall {
	if len(a.open) == 0 {
		return nil
	}
	idx := make([]int, 0, len(a.open))
	for i := range a.open {
		idx = append(idx, i)
	}
	sort.Ints(idx)

	out := make([]core.ToolCall, 0, len(idx))
	for _, i := range idx {
		out = append(out, a.take(i))
	}
	return out
}

// Open reports whether a call is accumulating on the slot.
func (a *Assembler) Open(index int) bool {
	_, ok := a.open[index]
	return ok
}

// Pending returns the number of calls still accumulating.
func (a *Assembler) Pending() int { return len(a.open) }

// Sealed returns the number of calls sealed so far.
func (a *Assembler) Sealed() int { return a.sealed }

func (a *Assembler) take(index int) core.ToolCall {
	acc := a.open[index]
	delete(a.open, index)
	a.sealed++
	return acc.seal()
}
