// Package config provides configuration loading and management for cscanfuse.
// It handles loading configuration from YAML files, applies CSCAN_*
// environment overrides and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// EnvPrefix namespaces environment overrides. Keys are the section tag
// followed by the upper-cased field name, e.g. CSCAN_PROCESSING_NUMCORES.
const EnvPrefix = "CSCAN"

// Config represents the application configuration loaded from YAML
type Config struct {
	// Processing parameters
	Processing struct {
		// NumCores specifies how many files are parsed concurrently
		NumCores int `yaml:"numCores" validate:"min=1"`
	} `yaml:"processing" envconfig:"PROCESSING"`

	// Input parameters
	Input struct {
		// Extensions lists the file extensions read from the input directory.
		// Format detection never depends on the extension; this only filters
		// unrelated files.
		Extensions []string `yaml:"extensions" validate:"min=1,dive,required"`
	} `yaml:"input" envconfig:"INPUT"`

	// Composite parameters
	Composite struct {
		// Enabled merges all parsed scans into a composite when at least
		// two parsed successfully
		Enabled bool `yaml:"enabled"`
	} `yaml:"composite" envconfig:"COMPOSITE"`

	// Output parameters
	Output struct {
		// SummaryFile is where the YAML summary is written; empty writes to stdout
		SummaryFile string `yaml:"summaryFile"`

		// IncludeGrid adds the full measurement grid to the summary
		IncludeGrid bool `yaml:"includeGrid"`

		// Verbose enables debug logging
		Verbose bool `yaml:"verbose"`
	} `yaml:"output" envconfig:"OUTPUT"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	// Set default processing parameters
	cfg.Processing.NumCores = runtime.NumCPU() // Use all available cores by default

	// Set default input parameters
	cfg.Input.Extensions = []string{".txt", ".csv", ".tsv", ".dat", ".xlsx"}

	// Set default composite parameters
	cfg.Composite.Enabled = true

	// Set default output parameters
	cfg.Output.SummaryFile = ""
	cfg.Output.IncludeGrid = false
	cfg.Output.Verbose = false

	return cfg
}

// LoadConfig loads configuration from a YAML file, then applies environment
// overrides and validates the result.
// If the file doesn't exist, it starts from the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case os.IsNotExist(err):
			// Defaults only
		case err != nil:
			return nil, fmt.Errorf("error reading config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("error parsing config file: %w", err)
			}
		}
	}

	// Environment variables take precedence over the file
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration values
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	// Marshal config to YAML
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}
