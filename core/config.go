package core

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Vendor identifies an upstream wire protocol.
type Vendor string

const (
	VendorOpenAI    Vendor = "openai"
	VendorAnthropic Vendor = "anthropic"
	VendorGemini    Vendor = "gemini"
	// VendorCustom is an OpenAI-compatible endpoint described by an AdapterProfile.
	VendorCustom Vendor = "custom"
)

// KnownVendors lists the vendor ids accepted by the built-in registry.
var KnownVendors = []Vendor{VendorOpenAI, VendorAnthropic, VendorGemini, VendorCustom}

// AuthStyle selects how the credential is presented to proxy-compatible vendors.
type AuthStyle string

const (
	// AuthStyleAuto picks bearer for custom endpoints and the native header otherwise.
	AuthStyleAuto AuthStyle = ""
	// AuthStyleHeader sends the vendor's native key header (e.g. X-Api-Key).
	AuthStyleHeader AuthStyle = "header"
	// AuthStyleBearer sends Authorization: Bearer <key>.
	AuthStyleBearer AuthStyle = "bearer"
)

// AdapterProfile remaps request/response fields for non-native vendors that
// speak a near-compatible dialect of a native wire protocol.
type AdapterProfile struct {
	ID              string            `yaml:"id"`
	AuthStyle       AuthStyle         `yaml:"auth_style"`
	Headers         map[string]string `yaml:"headers"`
	ParametersField string            `yaml:"parameters_field"` // replaces "parameters" in tool declarations
	ReasoningField  string            `yaml:"reasoning_field"`  // delta field carrying reasoning text
	MaxTokensField  string            `yaml:"max_tokens_field"`
	MaxTokens       int64             `yaml:"max_tokens"`
	ExtraBody       map[string]any    `yaml:"extra_body"`
	SupportsImages  *bool             `yaml:"supports_images"`
}

// ImagesSupported reports whether image parts may be sent through this profile.
// Profiles default to supporting images.
func (p *AdapterProfile) ImagesSupported() bool {
	return p == nil || p.SupportsImages == nil || *p.SupportsImages
}

// ChatConfig selects the vendor, model and connection settings of a request.
// It is treated as immutable once a request starts.
type ChatConfig struct {
	Vendor    Vendor            `json:"vendor"`
	Model     string            `json:"model"`
	APIKey    string            `json:"-"`
	BaseURL   string            `json:"base_url,omitempty"`
	Timeout   time.Duration     `json:"timeout,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
	AuthStyle AuthStyle         `json:"auth_style,omitempty"`
	Profile   *AdapterProfile   `json:"-"`
}

// IsKnownVendor reports whether v is accepted by the built-in adapters.
func IsKnownVendor(v Vendor) bool {
	for _, k := range KnownVendors {
		if k == v {
			return true
		}
	}
	return false
}

// EffectiveAuthStyle resolves the credential presentation: an explicit
// override on the config or profile wins, otherwise a custom endpoint selects
// bearer and the vendor default endpoint the native header.
func (c ChatConfig) EffectiveAuthStyle() AuthStyle {
	if c.AuthStyle != AuthStyleAuto {
		return c.AuthStyle
	}
	if c.Profile != nil && c.Profile.AuthStyle != AuthStyleAuto {
		return c.Profile.AuthStyle
	}
	if c.BaseURL != "" {
		return AuthStyleBearer
	}
	return AuthStyleHeader
}

// Fingerprint identifies the adapter a config needs. Two configs with the same
// fingerprint can share one adapter. The credential only enters as a hash.
func (c ChatConfig) Fingerprint() string {
	h := sha256.New()
	write := func(parts ...string) {
		for _, p := range parts {
			h.Write([]byte(p))
			h.Write([]byte{0})
		}
	}
	write(string(c.Vendor), c.APIKey, c.BaseURL, c.Timeout.String(), string(c.AuthStyle))
	write(sortedPairs(c.Headers)...)
	if c.Profile != nil {
		write("profile", c.Profile.ID, string(c.Profile.AuthStyle), c.Profile.ParametersField,
			c.Profile.ReasoningField, c.Profile.MaxTokensField, fmt.Sprint(c.Profile.MaxTokens))
		write(sortedPairs(c.Profile.Headers)...)
		write(canonicalJSON(c.Profile.ExtraBody), imagesKey(c.Profile.SupportsImages))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON renders v with sorted map keys.
func canonicalJSON(v map[string]any) string {
	if len(v) == 0 {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}

func imagesKey(b *bool) string {
	switch {
	case b == nil:
		return "images=default"
	case *b:
		return "images=on"
	default:
		return "images=off"
	}
}

func sortedPairs(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+m[k])
	}
	return out
}

// Validate checks the config before any adapter is constructed.
func (c ChatConfig) Validate() error { return c.ValidateWith(IsKnownVendor) }

// ValidateWith is Validate with a caller supplied vendor check, for registries
// that carry vendors beyond the built-in ones.
func (c ChatConfig) ValidateWith(known func(Vendor) bool) error {
	if !known(c.Vendor) {
		return Errorf(KindInvalidRequest, "unknown vendor %q", c.Vendor)
	}
	if strings.TrimSpace(c.Model) == "" {
		return Errorf(KindInvalidRequest, "model is required")
	}
	if c.Timeout < 0 {
		return Errorf(KindInvalidRequest, "timeout must not be negative")
	}
	switch c.AuthStyle {
	case AuthStyleAuto, AuthStyleHeader, AuthStyleBearer:
	default:
		return Errorf(KindInvalidRequest, "unknown auth style %q", c.AuthStyle)
	}
	if c.Vendor == VendorCustom {
		if c.Profile == nil || c.Profile.ID == "" {
			return Errorf(KindInvalidRequest, "vendor %q requires an adapter profile with an id", c.Vendor)
		}
		if c.BaseURL == "" {
			return Errorf(KindInvalidRequest, "vendor %q requires a base url", c.Vendor)
		}
	}
	return nil
}

// ChatRequest is the single abstract request accepted by the gateway.
type ChatRequest struct {
	Config       ChatConfig       `json:"config"`
	Messages     []Message        `json:"messages"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	SystemPrompt string           `json:"system_prompt,omitempty"`
}

// Validate checks the config and the request shape.
func (r ChatRequest) Validate() error { return r.ValidateWith(IsKnownVendor) }

// ValidateWith is Validate with a caller supplied vendor check.
func (r ChatRequest) ValidateWith(known func(Vendor) bool) error {
	if err := r.Config.ValidateWith(known); err != nil {
		return err
	}
	if len(r.Messages) == 0 {
		return Errorf(KindInvalidRequest, "at least one message is required")
	}
	seen := make(map[string]struct{}, len(r.Tools))
	for _, t := range r.Tools {
		if t.Name == "" {
			return Errorf(KindInvalidRequest, "tool name is required")
		}
		if _, dup := seen[t.Name]; dup {
			return Errorf(KindInvalidRequest, "duplicate tool name %q", t.Name)
		}
		seen[t.Name] = struct{}{}
	}
	return nil
}
