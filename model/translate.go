package model

import (
	"strings"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
)

// ContinuePrompt is the synthetic user turn injected for vendors that reject
// a history starting with a model turn.
const ContinuePrompt = "continue"

// Conversation is the vendor-neutral history after system folding and
// defensive cleanup, ready for a vendor translator.
type Conversation struct {
	System   string
	Messages []core.Message
}

// Prepare folds system content and drops malformed turns.
//
// The explicit system prompt comes first, followed by the text of every
// system message in encounter order, joined by a blank line. Tool results
// that do not answer an earlier tool invocation are skipped and logged, as
// are messages with an unknown role. Tool results without a name inherit the
// name of the invocation they answer.
func Prepare(systemPrompt string, msgs []core.Message, logger logging.Logger) Conversation {
	logger = logging.OrNoOp(logger)

	var system []string
	if s := strings.TrimSpace(systemPrompt); s != "" {
		system = append(system, s)
	}

	invoked := make(map[string]string)
	out := make([]core.Message, 0, len(msgs))

	for i, m := range msgs {
		switch m.Role {
		case core.RoleSystem:
			if s := strings.TrimSpace(m.Text()); s != "" {
				system = append(system, s)
			}
		case core.RoleUser:
			out = append(out, m)
		case core.RoleAssistant:
			if m.IsToolInvocation() {
				invoked[m.ToolCallID] = m.ToolName
			}
			out = append(out, m)
		case core.RoleTool:
			name, ok := invoked[m.ToolCallID]
			if m.ToolCallID == "" || !ok {
				logger.Debug("skipping tool result without matching invocation", "index", i, "tool_call_id", m.ToolCallID)
				continue
			}
			if m.ToolName == "" {
				m.ToolName = name
			}
			out = append(out, m)
		default:
			logger.Debug("skipping message with unknown role", "index", i, "role", m.Role)
		}
	}

	return Conversation{System: strings.Join(system, "\n\n"), Messages: out}
}

// StartsWithModelTurn reports whether the first turn is authored by the model.
func (c Conversation) StartsWithModelTurn() bool {
	return len(c.Messages) > 0 && c.Messages[0].Role == core.RoleAssistant
}

// DowngradeImages replaces image parts with their text placeholder.
func DowngradeImages(parts []core.Part) []core.Part {
	out := make([]core.Part, 0, len(parts))
	for _, p := range parts {
		if img, ok := p.(core.ImagePart); ok {
			out = append(out, core.TextPart{Text: img.Placeholder()})
			continue
		}
		out = append(out, p)
	}
	return out
}

// DataURL renders an image part as a URL, inlining base64 data.
func DataURL(img core.ImagePart) string {
	if img.Encoding == core.ImageEncodingURL {
		return img.URL
	}
	mt := img.MediaType
	if mt == "" {
		mt = "image/png"
	}
	return "data:" + mt + ";base64," + img.Data
}
