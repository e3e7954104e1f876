package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseArguments(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want map[string]any
	}{
		{"empty", "", map[string]any{}},
		{"whitespace", "  \n", map[string]any{}},
		{"valid", `{"a":"b"}`, map[string]any{"a": "b"}},
		{"leading noise", "```json\n{\"a\":1}\n```", map[string]any{"a": float64(1)}},
		{"trailing text", `{"a":true} done`, map[string]any{"a": true}},
		{"truncated", `{"a":`, map[string]any{}},
		{"array", `[1,2]`, map[string]any{}},
		{"null", `null`, map[string]any{}},
		{"nested", `x {"o":{"p":[1]}} y`, map[string]any{"o": map[string]any{"p": []any{float64(1)}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseArguments(tt.in))
		})
	}
}

func TestMarshalArguments(t *testing.T) {
	assert.Equal(t, "{}", MarshalArguments(nil))
	assert.Equal(t, `{"q":"rust"}`, MarshalArguments(map[string]any{"q": "rust"}))
}
