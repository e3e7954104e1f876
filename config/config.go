package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/hupe1980/llmgate/core"
	"github.com/hupe1980/llmgate/logging"
)

// EnvPrefix prefixes the per-provider environment overrides, e.g.
// LLMGATE_WORK_API_KEY overrides api_key of [providers.work].
const EnvPrefix = "LLMGATE"

// Settings is the decoded settings file.
type Settings struct {
	Default   string              `toml:"default"`
	Logging   Logging             `toml:"logging"`
	Providers map[string]Provider `toml:"providers"`

	dir string
}

// Logging configures the process logger.
type Logging struct {
	Level     string `toml:"level"`  // debug, info, warn, error
	Format    string `toml:"format"` // json, text, tint
	AddSource bool   `toml:"add_source"`
}

// Provider is one named upstream connection.
type Provider struct {
	Vendor    string            `toml:"vendor"`
	Model     string            `toml:"model"`
	APIKey    string            `toml:"api_key"`
	BaseURL   string            `toml:"base_url"`
	Timeout   Duration          `toml:"timeout"`
	AuthStyle string            `toml:"auth_style"`
	Headers   map[string]string `toml:"headers"`
	Profile   string            `toml:"profile"` // path to a YAML adapter profile
}

// Duration decodes TOML strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// Load reads and decodes the settings file at path.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	return Parse(string(data), filepath.Dir(path))
}

// Parse decodes settings from data. dir anchors relative profile paths.
func Parse(data, dir string) (*Settings, error) {
	var s Settings
	md, err := toml.Decode(data, &s)
	if err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("unknown settings keys: %s", strings.Join(keys, ", "))
	}

	s.dir = dir
	for name, p := range s.Providers {
		s.Providers[name] = p.expand(name)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Settings) validate() error {
	for name, p := range s.Providers {
		if p.Vendor == "" {
			return fmt.Errorf("provider %q: vendor is required", name)
		}
		if p.Model == "" {
			return fmt.Errorf("provider %q: model is required", name)
		}
	}
	if s.Default != "" {
		if _, ok := s.Providers[s.Default]; !ok {
			return fmt.Errorf("default provider %q is not defined", s.Default)
		}
	}
	return nil
}

var envRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} references with their environment values. Unset
// variables expand to the empty string.
func ExpandEnv(s string) string {
	return envRef.ReplaceAllStringFunc(s, func(ref string) string {
		return os.Getenv(envRef.FindStringSubmatch(ref)[1])
	})
}

func (p Provider) expand(name string) Provider {
	p.Model = ExpandEnv(p.Model)
	p.APIKey = ExpandEnv(p.APIKey)
	p.BaseURL = ExpandEnv(p.BaseURL)
	p.Profile = ExpandEnv(p.Profile)
	if len(p.Headers) > 0 {
		headers := make(map[string]string, len(p.Headers))
		for k, v := range p.Headers {
			headers[k] = ExpandEnv(v)
		}
		p.Headers = headers
	}

	if v := providerEnv(name, "API_KEY"); v != "" {
		p.APIKey = v
	}
	if v := providerEnv(name, "BASE_URL"); v != "" {
		p.BaseURL = v
	}
	return p
}

func providerEnv(name, suffix string) string {
	key := strings.NewReplacer("-", "_", ".", "_").Replace(strings.ToUpper(name))
	return os.Getenv(EnvPrefix + "_" + key + "_" + suffix)
}

// ProviderNames lists the configured providers in sorted order.
func (s *Settings) ProviderNames() []string {
	names := make([]string, 0, len(s.Providers))
	for name := range s.Providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolveName picks the provider to use: name if given, otherwise the
// default, otherwise the only configured provider.
func (s *Settings) ResolveName(name string) (string, error) {
	switch {
	case name != "":
	case s.Default != "":
		name = s.Default
	case len(s.Providers) == 1:
		for n := range s.Providers {
			name = n
		}
	default:
		return "", fmt.Errorf("no provider selected and no default among %v", s.ProviderNames())
	}
	if _, ok := s.Providers[name]; !ok {
		return "", fmt.Errorf("unknown provider %q", name)
	}
	return name, nil
}

// ChatConfig resolves the named provider (see ResolveName) into a config,
// loading its adapter profile if it has one.
func (s *Settings) ChatConfig(name string) (core.ChatConfig, error) {
	name, err := s.ResolveName(name)
	if err != nil {
		return core.ChatConfig{}, err
	}
	p := s.Providers[name]

	cfg := core.ChatConfig{
		Vendor:    core.Vendor(strings.ToLower(p.Vendor)),
		Model:     p.Model,
		APIKey:    p.APIKey,
		BaseURL:   p.BaseURL,
		Timeout:   p.Timeout.Duration,
		Headers:   p.Headers,
		AuthStyle: core.AuthStyle(strings.ToLower(p.AuthStyle)),
	}
	if p.Profile != "" {
		path := p.Profile
		if !filepath.IsAbs(path) && s.dir != "" {
			path = filepath.Join(s.dir, path)
		}
		profile, err := LoadProfile(path)
		if err != nil {
			return core.ChatConfig{}, fmt.Errorf("provider %q: %w", name, err)
		}
		cfg.Profile = profile
	}
	return cfg, nil
}

// LoggingConfig converts the logging table for logging.New.
func (s *Settings) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(s.Logging.Level)
	if s.Logging.Format != "" {
		cfg.Format = strings.ToLower(s.Logging.Format)
	}
	cfg.AddSource = s.Logging.AddSource
	return cfg
}
