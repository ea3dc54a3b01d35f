package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoaderLoadWithFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ciid.config.yml")
	configBody := []byte("audience: sigstore\nproviders:\n  - gitlab\n  - github\ntimeoutSeconds: 30\n")
	if err := os.WriteFile(configPath, configBody, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(envTimeout, "10")
	t.Setenv(envVerbose, "1")

	loader := Loader{ConfigPath: configPath}
	cfg, err := loader.Load(Overrides{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate config: %v", err)
	}

	if cfg.Audience != "sigstore" {
		t.Fatalf("expected audience sigstore, got %q", cfg.Audience)
	}

	if !reflect.DeepEqual(cfg.Providers, []string{"gitlab", "github"}) {
		t.Fatalf("unexpected providers: %#v", cfg.Providers)
	}

	if cfg.TimeoutSeconds != 10 {
		t.Fatalf("env override should set timeout to 10, got %d", cfg.TimeoutSeconds)
	}

	if !cfg.Verbose {
		t.Fatal("env override should enable verbose")
	}
}

func TestLoaderFlagOverridesWin(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ciid.config.yml")
	if err := os.WriteFile(configPath, []byte("audience: from-file\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(envAudience, "from-env")

	loader := Loader{ConfigPath: configPath}
	cfg, err := loader.Load(Overrides{Audience: "from-flag"})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Audience != "from-flag" {
		t.Fatalf("flag override should win, got %q", cfg.Audience)
	}
}

func TestLoaderMissingFileUsesDefaults(t *testing.T) {
	loader := Loader{ConfigPath: filepath.Join(t.TempDir(), "missing.yml")}
	cfg, err := loader.Load(Overrides{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if cfg.Audience != "" || len(cfg.Providers) != 0 || cfg.TimeoutSeconds != 0 || cfg.Verbose {
		t.Fatalf("expected default config, got %#v", cfg)
	}
}

func TestValidateRejectsUnknownProvider(t *testing.T) {
	cfg := RuntimeConfig{Providers: []string{"github", "jenkins"}}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown provider")
	}
}

func TestValidateRejectsNegativeTimeout(t *testing.T) {
	cfg := RuntimeConfig{TimeoutSeconds: -1}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for negative timeout")
	}
}

func TestParseProviderList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "empty", input: "", want: nil},
		{name: "single", input: "github", want: []string{"github"}},
		{name: "comma separated", input: "github,gitlab", want: []string{"github", "gitlab"}},
		{name: "mixed separators and case", input: "GitHub, gitlab\ncircleci", want: []string{"github", "gitlab", "circleci"}},
		{name: "whitespace only", input: "  \n ", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseProviderList(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("expected %#v, got %#v", tt.want, got)
			}
		})
	}
}

func TestProvidersScalarYAML(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "ciid.config.yml")
	if err := os.WriteFile(configPath, []byte("providers: github,buildkite\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loader := Loader{ConfigPath: configPath}
	cfg, err := loader.Load(Overrides{})
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	if !reflect.DeepEqual(cfg.Providers, []string{"github", "buildkite"}) {
		t.Fatalf("unexpected providers: %#v", cfg.Providers)
	}
}
