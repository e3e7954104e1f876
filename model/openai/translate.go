package openai

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/hupe1980/llmgate/assembler"
	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/model"
)

// buildMessages converts the prepared conversation into chat messages. The
// folded system text becomes one leading system message. Consecutive tool
// invocations, and an assistant text turn directly before them, share one
// assistant message.
func buildMessages(conv model.Conversation, images bool) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(conv.Messages)+1)
	if conv.System != "" {
		messages = append(messages, openai.SystemMessage(conv.System))
	}

	var open *openai.ChatCompletionAssistantMessageParam
	for _, m := range conv.Messages {
		switch {
		case m.IsToolInvocation():
			call := openai.ChatCompletionMessageToolCallParam{
				ID: m.ToolCallID,
				Function: openai.ChatCompletionMessageToolCallFunctionParam{
					Name:      m.ToolName,
					Arguments: assembler.MarshalArguments(assembler.ParseArguments(m.Text())),
				},
			}
			if open == nil {
				open = &openai.ChatCompletionAssistantMessageParam{}
				messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: open})
			}
			open.ToolCalls = append(open.ToolCalls, call)
			continue
		case m.Role == core.RoleAssistant:
			open = &openai.ChatCompletionAssistantMessageParam{
				Content: openai.ChatCompletionAssistantMessageParamContentUnion{OfString: openai.String(m.Text())},
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{OfAssistant: open})
			continue
		case m.Role == core.RoleTool:
			messages = append(messages, openai.ToolMessage(m.Text(), m.ToolCallID))
		default:
			messages = append(messages, userMessage(m, images))
		}
		open = nil
	}
	return messages
}

func userMessage(m core.Message, images bool) openai.ChatCompletionMessageParamUnion {
	if !m.HasImages() {
		return openai.UserMessage(m.Text())
	}
	parts := m.Content
	if !images {
		parts = model.DowngradeImages(parts)
	}
	content := make([]openai.ChatCompletionContentPartUnionParam, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			content = append(content, openai.TextContentPart(v.Text))
		case core.ImagePart:
			content = append(content, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
				URL: model.DataURL(v),
			}))
		}
	}
	return openai.UserMessage(content)
}

// buildTools converts tool definitions into function tools.
func buildTools(tools []core.ToolDefinition) []openai.ChatCompletionToolParam {
	if len(tools) == 0 {
		return nil
	}
	out := make([]openai.ChatCompletionToolParam, len(tools))
	for i, t := range tools {
		fn := shared.FunctionDefinitionParam{
			Name:       t.Name,
			Parameters: shared.FunctionParameters(t.Parameters.JSONSchema()),
		}
		if t.Description != "" {
			fn.Description = openai.String(t.Description)
		}
		out[i] = openai.ChatCompletionToolParam{Function: fn}
	}
	return out
}
