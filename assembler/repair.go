package assembler

import (
	"encoding/json"
	"strings"
)

// ParseArguments materializes tool-call argument text into a mapping.
//
// The text is parsed as-is first. If that fails it is trimmed to the span
// between the first '{' and the last '}' and parsed again. Anything that is
// still not a JSON object yields an empty, non-nil map.
func ParseArguments(text string) map[string]any {
	text = strings.TrimSpace(text)
	if text == "" {
		return map[string]any{}
	}
	if m, ok := parseObject(text); ok {
		return m
	}
	if span, ok := outermostObject(text); ok {
		if m, ok := parseObject(span); ok {
			return m
		}
	}
	return map[string]any{}
}

// MarshalArguments renders sealed arguments back to JSON text for vendors
// that expect a string.
func MarshalArguments(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(b)
}

func parseObject(text string) (map[string]any, bool) {
	var m map[string]any
	if err := json.Unmarshal([]byte(text), &m); err != nil || m == nil {
		return nil, false
	}
	return m, true
}

func outermostObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}
