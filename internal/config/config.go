package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/example/ciid/internal/detect"
)

const (
	DefaultConfigPath = "ciid.config.yml"

	envAudience  = "CIID_AUDIENCE"
	envProviders = "CIID_PROVIDERS"
	envTimeout   = "CIID_TIMEOUT"
	envVerbose   = "CIID_VERBOSE"
)

// Loader merges configuration coming from files, environment variables, and CLI flags.
type Loader struct {
	ConfigPath string
}

// RuntimeConfig contains the fully merged settings required by ciid sub-commands.
type RuntimeConfig struct {
	Audience       string
	Providers      []string
	TimeoutSeconds int
	Verbose        bool
}

// Overrides captures values coming from env vars or CLI flags.
type Overrides struct {
	Audience   string
	Providers  []string
	Timeout    int
	TimeoutSet bool
	Verbose    *bool
}

// DefaultRuntimeConfig returns the baseline configuration when no overrides are provided.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		TimeoutSeconds: 0, // no deadline unless the caller asks for one
	}
}

// Load resolves the final runtime configuration.
func (l Loader) Load(override Overrides) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()
	path := l.ConfigPath
	if path == "" {
		path = DefaultConfigPath
	}

	if fileExists(path) {
		fileOv, err := loadFromFile(path)
		if err != nil {
			return cfg, err
		}
		cfg.apply(fileOv)
	}

	cfg.apply(overridesFromEnv())
	cfg.apply(override)

	return cfg, nil
}

// Validate ensures the merged settings are usable before detection runs.
func (c RuntimeConfig) Validate() error {
	for _, name := range c.Providers {
		if !knownProvider(name) {
			return fmt.Errorf("unknown provider %q (valid: %s)", name, strings.Join(detect.CanonicalProviders, ", "))
		}
	}

	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout must be zero or positive (got %d)", c.TimeoutSeconds)
	}

	return nil
}

func knownProvider(name string) bool {
	for _, known := range detect.CanonicalProviders {
		if name == known {
			return true
		}
	}
	return false
}

func (c *RuntimeConfig) apply(src Overrides) {
	if src.Audience != "" {
		c.Audience = src.Audience
	}

	if len(src.Providers) > 0 {
		c.Providers = cleanList(src.Providers)
	}

	if src.TimeoutSet {
		c.TimeoutSeconds = src.Timeout
	}

	if src.Verbose != nil {
		c.Verbose = *src.Verbose
	}
}

func loadFromFile(path string) (Overrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, err
	}

	type rawConfig struct {
		Audience       string       `yaml:"audience"`
		Providers      providerList `yaml:"providers"`
		TimeoutSeconds *int         `yaml:"timeoutSeconds"`
		Verbose        *bool        `yaml:"verbose"`
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Overrides{}, err
	}

	over := Overrides{
		Audience:  raw.Audience,
		Providers: raw.Providers,
	}

	if raw.TimeoutSeconds != nil {
		over.Timeout = *raw.TimeoutSeconds
		over.TimeoutSet = true
	}

	if raw.Verbose != nil {
		over.Verbose = raw.Verbose
	}

	return over, nil
}

func overridesFromEnv() Overrides {
	ov := Overrides{}

	if value := os.Getenv(envAudience); value != "" {
		ov.Audience = value
	}

	if value := os.Getenv(envProviders); value != "" {
		ov.Providers = ParseProviderList(value)
	}

	if value := os.Getenv(envTimeout); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			ov.Timeout = parsed
			ov.TimeoutSet = true
		}
	}

	if value := os.Getenv(envVerbose); value != "" {
		parsed := strings.EqualFold(value, "true") || value == "1"
		ov.Verbose = &parsed
	}

	return ov
}

// ParseProviderList turns comma or whitespace separated input into
// individual provider names.
func ParseProviderList(input string) []string {
	if input == "" {
		return nil
	}

	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	parts := strings.FieldsFunc(trimmed, func(r rune) bool {
		return r == ',' || r == '\n' || r == '\r' || r == ' '
	})
	return cleanList(parts)
}

func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		candidate := strings.ToLower(strings.TrimSpace(v))
		if candidate != "" {
			out = append(out, candidate)
		}
	}
	return out
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// providerList enables YAML fields that can be specified as a scalar or sequence.
type providerList []string

func (p *providerList) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.SequenceNode:
		var out []string
		for _, node := range value.Content {
			out = append(out, strings.TrimSpace(node.Value))
		}
		*p = cleanList(out)
	case yaml.ScalarNode:
		*p = ParseProviderList(value.Value)
	default:
		return fmt.Errorf("unsupported YAML type for providers")
	}
	return nil
}
