package gemini

import (
	"encoding/base64"
	"encoding/json"

	"google.golang.org/genai"

	"github.com/hupe1980/llmgate/assembler"
	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/model"
)

// buildContents converts the prepared conversation into generation turns.
// Gemini requires the first turn to come from the user, so a history that
// starts with the model gets a synthetic user turn. Consecutive turns of the
// same role are merged.
func buildContents(conv model.Conversation, images bool) []*genai.Content {
	var out []*genai.Content
	if conv.StartsWithModelTurn() {
		out = append(out, genai.NewContentFromText(model.ContinuePrompt, genai.RoleUser))
	}

	for _, m := range conv.Messages {
		var (
			role  genai.Role
			parts []*genai.Part
		)
		switch {
		case m.IsToolInvocation():
			role = genai.RoleModel
			parts = []*genai.Part{{FunctionCall: &genai.FunctionCall{
				ID:   m.ToolCallID,
				Name: m.ToolName,
				Args: assembler.ParseArguments(m.Text()),
			}}}
		case m.Role == core.RoleTool:
			role = genai.RoleUser
			parts = []*genai.Part{{FunctionResponse: &genai.FunctionResponse{
				ID:       m.ToolCallID,
				Name:     m.ToolName,
				Response: toolResponse(m.Text()),
			}}}
		case m.Role == core.RoleAssistant:
			role = genai.RoleModel
			parts = contentParts(m.Content, false)
		default:
			role = genai.RoleUser
			parts = contentParts(m.Content, images)
		}
		if len(parts) == 0 {
			continue
		}

		if n := len(out); n > 0 && out[n-1].Role == string(role) {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			continue
		}
		out = append(out, genai.NewContentFromParts(parts, role))
	}
	return out
}

// A result that already is a JSON object is passed through; anything else is
// wrapped as {"output": text}.
func toolResponse(text string) map[string]any {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj
	}
	return map[string]any{"output": text}
}

func contentParts(parts []core.Part, images bool) []*genai.Part {
	if !images {
		parts = model.DowngradeImages(parts)
	}
	out := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		switch v := p.(type) {
		case core.TextPart:
			if v.Text != "" {
				out = append(out, genai.NewPartFromText(v.Text))
			}
		case core.ImagePart:
			if v.Encoding == core.ImageEncodingURL {
				out = append(out, genai.NewPartFromURI(v.URL, v.MediaType))
				continue
			}
			data, err := base64.StdEncoding.DecodeString(v.Data)
			if err != nil {
				out = append(out, genai.NewPartFromText(v.Placeholder()))
				continue
			}
			out = append(out, genai.NewPartFromBytes(data, v.MediaType))
		}
	}
	return out
}

func buildSystem(system string) *genai.Content {
	if system == "" {
		return nil
	}
	return genai.NewContentFromText(system, genai.RoleUser)
}

// buildTools converts tool definitions into one function-declaration tool.
func buildTools(tools []core.ToolDefinition) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, len(tools))
	for i, t := range tools {
		decls[i] = &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  schemaOf(t.Parameters),
		}
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaOf(p core.ParameterSchema) *genai.Schema {
	s := &genai.Schema{Type: genai.TypeObject, Required: p.Required}
	if len(p.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(p.Properties))
		for name, prop := range p.Properties {
			s.Properties[name] = propertySchema(prop)
		}
	}
	return s
}

func propertySchema(p core.Property) *genai.Schema {
	s := &genai.Schema{
		Type:        schemaType(p.Type),
		Description: p.Description,
		Enum:        p.Enum,
	}
	if p.Items != nil {
		s.Items = propertySchema(*p.Items)
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
