package core

import (
	"reflect"
	"strings"
)

// Property describes one named parameter of a tool.
type Property struct {
	Type        string    `json:"type" yaml:"type"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty" yaml:"enum,omitempty"`
	Items       *Property `json:"items,omitempty" yaml:"items,omitempty"` // element schema for arrays
}

// ParameterSchema is the JSON-schema-like object describing tool input.
type ParameterSchema struct {
	Type       string              `json:"type" yaml:"type"` // always "object" in practice
	Properties map[string]Property `json:"properties" yaml:"properties"`
	Required   []string            `json:"required,omitempty" yaml:"required,omitempty"`
}

// ToolDefinition declaratively exposes a callable function to the model.
// Name must be unique within a request.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  ParameterSchema `json:"parameters"`
}

// ToolCall is a sealed function call request surfaced by a vendor.
// Arguments is never nil once sealed.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// JSONSchema renders the schema as a generic map, the shape most vendor SDKs accept.
func (s ParameterSchema) JSONSchema() map[string]any {
	typ := s.Type
	if typ == "" {
		typ = "object"
	}
	props := make(map[string]any, len(s.Properties))
	for name, p := range s.Properties {
		props[name] = p.jsonSchema()
	}
	out := map[string]any{
		"type":       typ,
		"properties": props,
	}
	if len(s.Required) > 0 {
		out["required"] = append([]string(nil), s.Required...)
	}
	return out
}

func (p Property) jsonSchema() map[string]any {
	out := map[string]any{"type": p.Type}
	if p.Description != "" {
		out["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		out["enum"] = append([]string(nil), p.Enum...)
	}
	if p.Items != nil {
		out["items"] = p.Items.jsonSchema()
	}
	return out
}

// SchemaFromStruct creates a ParameterSchema from a Go struct using reflection.
// Field names follow the json tag, descriptions the description tag, and enum
// values a comma separated enum tag. Fields without omitempty that are not
// pointers are required.
func SchemaFromStruct(v any) ParameterSchema {
	schema := ParameterSchema{Type: "object", Properties: map[string]Property{}}

	t := reflect.TypeOf(v)
	if t == nil {
		return schema
	}
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return schema
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		jsonTag := field.Tag.Get("json")
		if jsonTag == "-" {
			continue
		}

		name := field.Name
		if jsonTag != "" {
			if n, _, _ := strings.Cut(jsonTag, ","); n != "" {
				name = n
			}
		}

		prop := propertyFromType(field.Type)
		prop.Description = field.Tag.Get("description")
		if enum := field.Tag.Get("enum"); enum != "" {
			prop.Enum = strings.Split(enum, ",")
		}
		schema.Properties[name] = prop

		if !hasOmitEmpty(jsonTag) && field.Type.Kind() != reflect.Ptr {
			schema.Required = append(schema.Required, name)
		}
	}

	return schema
}

func propertyFromType(t reflect.Type) Property {
	switch t.Kind() {
	case reflect.String:
		return Property{Type: "string"}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return Property{Type: "integer"}
	case reflect.Float32, reflect.Float64:
		return Property{Type: "number"}
	case reflect.Bool:
		return Property{Type: "boolean"}
	case reflect.Slice, reflect.Array:
		items := propertyFromType(t.Elem())
		return Property{Type: "array", Items: &items}
	case reflect.Map, reflect.Struct:
		return Property{Type: "object"}
	case reflect.Ptr:
		return propertyFromType(t.Elem())
	default:
		return Property{Type: "string"}
	}
}

// hasOmitEmpty checks if a JSON tag has the "omitempty" option.
func hasOmitEmpty(tag string) bool {
	parts := strings.Split(tag, ",")
	for _, part := range parts[1:] {
		if strings.TrimSpace(part) == "omitempty" {
			return true
		}
	}
	return false
}
