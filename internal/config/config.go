// Package config loads adapter configuration from a YAML file with
// AGENTBRIDGE_* environment overrides layered on top.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces environment overrides, e.g.
// AGENTBRIDGE_CLAUDE_PATH=/opt/claude maps to claude.path.
const envPrefix = "AGENTBRIDGE_"

// Vendor configures one CLI adapter.
type Vendor struct {
	// Path is the CLI binary to execute; empty falls back to the
	// adapter's default binary name on PATH.
	Path string `koanf:"path" json:"path,omitempty"`
	// Model is the default model id for calls that pick none.
	Model string `koanf:"model" json:"model,omitempty"`
	// Env holds extra environment variables for the CLI process.
	Env map[string]string `koanf:"env" json:"env,omitempty"`
	// ExtraArgs are appended verbatim to every invocation.
	ExtraArgs []string `koanf:"extra_args" json:"extra_args,omitempty"`
}

// Config is the root configuration document.
type Config struct {
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `koanf:"log_level" json:"log_level,omitempty"`
	// ResultLimit caps tool-result narration, in bytes. Zero selects
	// the built-in default.
	ResultLimit int `koanf:"result_limit" json:"result_limit,omitempty"`

	Claude   Vendor `koanf:"claude" json:"claude,omitempty"`
	OpenCode Vendor `koanf:"opencode" json:"opencode,omitempty"`
	Codex    Vendor `koanf:"codex" json:"codex,omitempty"`
}

// Default returns the configuration used when no file or overrides exist.
func Default() *Config {
	return &Config{
		LogLevel: "info",
	}
}

// Load reads the YAML file at path (skipped silently when path is empty or
// the file does not exist), applies AGENTBRIDGE_* environment overrides,
// and unmarshals the result over the defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("loading config file %s: %w", path, err)
			}
		}
	}

	// AGENTBRIDGE_OPENCODE_MODEL=x -> opencode.model=x. Only the first
	// underscore after the prefix is treated as a section separator so
	// keys like result_limit survive.
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return cfg, nil
}

// sections are the top-level map keys an env override can address.
var sections = []string{"claude", "opencode", "codex"}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(s, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return s
}
