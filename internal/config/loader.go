package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// envPrefix is the prefix for environment variable overrides.
// Example: AGENCYD_API_BASE_URL -> api.base_url
const envPrefix = "AGENCYD_"

// sections are the recognized top-level configuration sections. Environment
// variables whose first underscore-delimited token is not a section name map
// to top-level keys (AGENCYD_LOG_LEVEL -> log_level).
var sections = map[string]bool{
	"memory":    true,
	"processor": true,
	"metadata":  true,
	"api":       true,
	"storage":   true,
}

// Resolve loads the agencyd configuration.
//
// If overridePath names an existing readable file, it is parsed as the entire
// configuration: no default merging, no built-in fallbacks, no environment
// overlay. A malformed override file is a fatal configuration error.
//
// Otherwise the bundled default file (~/.config/agencyd/config.yaml) is used
// as the base; a missing or unparsable default never fails resolution and
// degrades to an empty base. The base is then overlaid with AGENCYD_*
// environment variables and the built-in integration defaults for the api
// and storage sections.
func Resolve(overridePath string) (*Config, error) {
	return ResolveWithDefault(overridePath, defaultConfigPath())
}

// ResolveWithDefault is Resolve with an explicit default-file location.
func ResolveWithDefault(overridePath, defaultPath string) (*Config, error) {
	if overridePath != "" {
		if _, err := os.Stat(overridePath); err == nil {
			return resolveOverride(overridePath)
		}
		// A missing override path falls through to the default branch.
	}
	return resolveDefault(defaultPath)
}

// resolveOverride parses the override file as the complete configuration.
func resolveOverride(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	cfg := newBaseConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// resolveDefault builds the configuration from the bundled default file,
// environment overlay, and built-in integration defaults. This branch never
// fails for a missing or unparsable default file.
func resolveDefault(defaultPath string) (*Config, error) {
	k := koanf.New(".")

	if content, err := os.ReadFile(defaultPath); err == nil {
		if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			// Unparsable default degrades to an empty base.
			k = koanf.New(".")
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment overrides: %w", err)
	}

	cfg := newBaseConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyIntegrationDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// newBaseConfig returns a Config with pre-unmarshal defaults. Keys absent
// from the source document leave these untouched.
func newBaseConfig() *Config {
	return &Config{ConsoleLogging: true}
}

// envTransform maps an environment variable name to a configuration key.
//
//	AGENCYD_API_BASE_URL     -> api.base_url
//	AGENCYD_STORAGE_LOCATION -> storage.location
//	AGENCYD_LOG_LEVEL        -> log_level
func envTransform(s string) string {
	lower := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 2 && sections[parts[0]] {
		return parts[0] + "." + parts[1]
	}
	return lower
}

// defaultConfigPath returns the bundled default configuration location.
func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agencyd", "config.yaml")
}
