package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const maxConfigFileSize = 1024 * 1024 // 1MB

// Load loads configuration from a YAML file, then overrides with
// environment variables.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (SERVER_PORT, ROUTING_HIGH_THRESHOLD, ...)
//  2. YAML config file (~/.config/netrod/config.yaml by default)
//  3. Hardcoded defaults
//
// Environment variables map to config keys by splitting on the first
// underscore: ROUTING_HIGH_THRESHOLD -> routing.high_threshold,
// GENERATION_MAX_TOKENS -> generation.max_tokens.
//
// The returned configuration has defaults applied and is validated.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, ".config", "netrod", "config.yaml")
	}

	// Load from YAML file if it exists
	if _, err := os.Stat(configPath); err == nil {
		f, err := os.Open(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxConfigFileSize {
			return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxConfigFileSize)
		}

		content, err := io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Override with environment variables.
	// SECTION_FIELD_NAME -> section.field_name (split on first underscore).
	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no file
// or environment input. Useful for tests and tooling.
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// nestedSections are the config subtrees that sit one level below a
// top-level section; their env vars split on the first two underscores.
var nestedSections = []string{"vectorstore_qdrant_", "vectorstore_chromem_"}

// envKey maps an environment variable name to its config key.
// ROUTING_TOP_K -> routing.top_k, and for nested backends
// VECTORSTORE_QDRANT_API_KEY -> vectorstore.qdrant.api_key.
func envKey(s string) string {
	lower := strings.ToLower(s)
	for _, prefix := range nestedSections {
		if strings.HasPrefix(lower, prefix) {
			trimmed := strings.TrimPrefix(lower, prefix)
			section := strings.TrimSuffix(prefix, "_")
			return strings.Replace(section, "_", ".", 1) + "." + trimmed
		}
	}
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
