package anthropic

import (
	"github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/llmgate/assembler"
	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/model"
)

// buildMessages converts the prepared conversation into Messages API turns.
// Tool invocations become tool_use blocks with parsed input, tool results
// become tool_result blocks in a user turn, and consecutive turns of the same
// role are merged. A history starting with the assistant gets a synthetic
// user turn first.
func buildMessages(conv model.Conversation, images bool) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	if conv.StartsWithModelTurn() {
		out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(model.ContinuePrompt)))
	}

	for _, m := range conv.Messages {
		var (
			role   anthropic.MessageParamRole
			blocks []anthropic.ContentBlockParamUnion
		)
		switch {
		case m.IsToolInvocation():
			role = anthropic.MessageParamRoleAssistant
			blocks = []anthropic.ContentBlockParamUnion{
				anthropic.NewToolUseBlock(m.ToolCallID, assembler.ParseArguments(m.Text()), m.ToolName),
			}
		case m.Role == core.RoleTool:
			role = anthropic.MessageParamRoleUser
			blocks = []anthropic.ContentBlockParamUnion{
				anthropic.NewToolResultBlock(m.ToolCallID, m.Text(), false),
			}
		case m.Role == core.RoleAssistant:
			role = anthropic.MessageParamRoleAssistant
			blocks = contentBlocks(m.Content, false)
		default:
			role = anthropic.MessageParamRoleUser
			blocks = contentBlocks(m.Content, images)
		}
		if len(blocks) == 0 {
			continue
		}

		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Content = append(out[n-1].Content, blocks...)
			continue
		}
		out = append(out, anthropic.MessageParam{Role: role, Content: blocks})
	}
	return out
}

// Empty text blocks are rejected by the API and skipped.
func contentBlocks(parts []core.Part, images bool) []anthropic.ContentBlockParamUnion {
	if !images {
		parts = model.DowngradeImages(parts)
	}
	blocks := make([]anthropic.ContentBlockParamUnion, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			if v.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(v.Text))
			}
		case core.ImagePart:
			if v.Encoding == core.ImageEncodingURL {
				blocks = append(blocks, anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: v.URL}))
				continue
			}
			blocks = append(blocks, anthropic.NewImageBlockBase64(v.MediaType, v.Data))
		}
	}
	return blocks
}

func buildSystem(system string) []anthropic.TextBlockParam {
	if system == "" {
		return nil
	}
	return []anthropic.TextBlockParam{{Text: system}}
}

// buildTools converts tool definitions into custom tools.
func buildTools(tools []core.ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, len(tools))
	for i, t := range tools {
		schema := t.Parameters.JSONSchema()
		tool := anthropic.ToolUnionParamOfTool(anthropic.ToolInputSchemaParam{
			Properties: schema["properties"],
			Required:   t.Parameters.Required,
		}, t.Name)
		if t.Description != "" {
			tool.OfTool.Description = anthropic.String(t.Description)
		}
		out[i] = tool
	}
	return out
}
