// Package config provides configuration resolution for agencyd.
//
// Configuration is resolved once at startup from an optional override file,
// falling back to the bundled default file plus built-in integration defaults.
// The resolved Config is immutable for the process lifetime and safe to share
// across goroutines.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete agencyd configuration.
//
// Every section is always present after resolution; an absent section in the
// source document resolves to its zero value and each capability applies its
// own defaults on top.
type Config struct {
	Memory    MemoryConfig    `koanf:"memory"`
	Processor ProcessorConfig `koanf:"processor"`
	Metadata  MetadataConfig  `koanf:"metadata"`
	API       APIConfig       `koanf:"api"`
	Storage   StorageConfig   `koanf:"storage"`

	// Process-wide logging options (top-level keys, see internal/logging).
	LogLevel       string `koanf:"log_level"`
	LogFile        string `koanf:"log_file"`
	ConsoleLogging bool   `koanf:"console_logging"`
}

// MemoryConfig holds the memory store configuration.
type MemoryConfig struct {
	Path        string `koanf:"path"`
	Collection  string `koanf:"collection"`
	VectorSize  int    `koanf:"vector_size"`
	Compress    bool   `koanf:"compress"`
	RecallLimit int    `koanf:"recall_limit"`
}

// ProcessorConfig holds the processing engine configuration.
type ProcessorConfig struct {
	MinContentLength int `koanf:"min_content_length"`
	MaxContentLength int `koanf:"max_content_length"`
	RecallLimit      int `koanf:"recall_limit"`
}

// MetadataConfig holds the metadata aggregator configuration.
type MetadataConfig struct {
	ServiceName string `koanf:"service_name"`
	Environment string `koanf:"environment"`
}

// APIConfig holds the context-fetch service configuration.
type APIConfig struct {
	BaseURL       string        `koanf:"base_url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
}

// StorageConfig holds the result persistence configuration.
type StorageConfig struct {
	Location       string        `koanf:"location"`
	BackupInterval time.Duration `koanf:"backup_interval"`
}

// Built-in integration defaults. These complete the deliberately partial
// default-path configuration; an explicit override file is trusted as
// complete and never receives them.
const (
	DefaultAPIBaseURL        = "https://api.example.com"
	DefaultAPITimeout        = 30 * time.Second
	DefaultAPIRetryAttempts  = 3
	DefaultStorageLocation   = "data/"
	DefaultStorageBackupTime = 24 * time.Hour
)

// applyIntegrationDefaults fills in the built-in fallback values for the two
// integration sections. Only called on the default-path branch of Resolve.
func applyIntegrationDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = DefaultAPIBaseURL
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = DefaultAPITimeout
	}
	if cfg.API.RetryAttempts == 0 {
		cfg.API.RetryAttempts = DefaultAPIRetryAttempts
	}
	if cfg.Storage.Location == "" {
		cfg.Storage.Location = DefaultStorageLocation
	}
	if cfg.Storage.BackupInterval == 0 {
		cfg.Storage.BackupInterval = DefaultStorageBackupTime
	}
}

// Validate checks the resolved configuration for malformed values.
//
// Absent sections are legal (each capability tolerates a zero section), but
// values that are present must be usable.
func (c *Config) Validate() error {
	if c.Memory.VectorSize < 0 {
		return fmt.Errorf("memory.vector_size cannot be negative: %d", c.Memory.VectorSize)
	}
	if c.Processor.MinContentLength < 0 {
		return fmt.Errorf("processor.min_content_length cannot be negative: %d", c.Processor.MinContentLength)
	}
	if c.Processor.MaxContentLength < 0 {
		return fmt.Errorf("processor.max_content_length cannot be negative: %d", c.Processor.MaxContentLength)
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout cannot be negative")
	}
	if c.API.RetryAttempts < 0 {
		return fmt.Errorf("api.retry_attempts cannot be negative: %d", c.API.RetryAttempts)
	}
	if c.Storage.BackupInterval < 0 {
		return errors.New("storage.backup_interval cannot be negative")
	}
	return nil
}
