package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hupe1980/llmgate/core"
)

// LoadProfile reads a YAML adapter profile. Header values and extra body
// strings may reference ${VAR}.
func LoadProfile(path string) (*core.AdapterProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML adapter profile. Unknown keys are rejected.
func ParseProfile(data []byte) (*core.AdapterProfile, error) {
	var p core.AdapterProfile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if p.ID == "" {
		return nil, fmt.Errorf("profile id is required")
	}
	switch p.AuthStyle {
	case core.AuthStyleAuto, core.AuthStyleHeader, core.AuthStyleBearer:
	default:
		return nil, fmt.Errorf("profile %q: unknown auth style %q", p.ID, p.AuthStyle)
	}

	for k, v := range p.Headers {
		p.Headers[k] = ExpandEnv(v)
	}
	for k, v := range p.ExtraBody {
		if s, ok := v.(string); ok {
			p.ExtraBody[k] = ExpandEnv(s)
		}
	}
	return &p, nil
}
