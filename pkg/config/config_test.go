package config

import (
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultConfig verifies the defaults are valid
func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Processing.NumCores < 1 {
		t.Errorf("Expected at least one core, got %d", cfg.Processing.NumCores)
	}
	if !cfg.Composite.Enabled {
		t.Error("Expected compositing to be enabled by default")
	}
	if len(cfg.Input.Extensions) == 0 {
		t.Error("Expected default input extensions")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config failed validation: %v", err)
	}
}

// TestLoadConfigMissingFile verifies a missing file yields defaults
func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	def := DefaultConfig()
	if cfg.Processing.NumCores != def.Processing.NumCores {
		t.Errorf("Expected %d cores, got %d", def.Processing.NumCores, cfg.Processing.NumCores)
	}
}

// TestSaveAndLoadConfig verifies a saved config loads back unchanged
func TestSaveAndLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Processing.NumCores = 3
	cfg.Composite.Enabled = false
	cfg.Output.SummaryFile = "summary.yaml"
	cfg.Input.Extensions = []string{".csv"}

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig returned error: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if loaded.Processing.NumCores != 3 {
		t.Errorf("Expected 3 cores, got %d", loaded.Processing.NumCores)
	}
	if loaded.Composite.Enabled {
		t.Error("Expected compositing to be disabled")
	}
	if loaded.Output.SummaryFile != "summary.yaml" {
		t.Errorf("Expected summary file summary.yaml, got %q", loaded.Output.SummaryFile)
	}
	if len(loaded.Input.Extensions) != 1 || loaded.Input.Extensions[0] != ".csv" {
		t.Errorf("Unexpected extensions %v", loaded.Input.Extensions)
	}
}

// TestCreateDefaultConfigFile verifies the default file is written
func TestCreateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	if err := CreateDefaultConfigFile(path); err != nil {
		t.Fatalf("CreateDefaultConfigFile returned error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("Config file was not created: %v", err)
	}
}

// TestEnvironmentOverrides verifies CSCAN_* variables take precedence over the file
func TestEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("processing:\n  numCores: 2\noutput:\n  verbose: false\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	t.Setenv("CSCAN_PROCESSING_NUMCORES", "6")
	t.Setenv("CSCAN_OUTPUT_VERBOSE", "true")
	t.Setenv("CSCAN_INPUT_EXTENSIONS", ".txt,.csv")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}

	if cfg.Processing.NumCores != 6 {
		t.Errorf("Expected 6 cores, got %d", cfg.Processing.NumCores)
	}
	if !cfg.Output.Verbose {
		t.Error("Expected verbose output")
	}
	if len(cfg.Input.Extensions) != 2 {
		t.Errorf("Expected 2 extensions, got %v", cfg.Input.Extensions)
	}
}

// TestLoadConfigErrors verifies malformed and invalid files are rejected
func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "processing: [unterminated"},
		{"zero cores", "processing:\n  numCores: 0\n"},
		{"empty extension", "input:\n  extensions: [\"\"]\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write config: %v", err)
			}

			if _, err := LoadConfig(path); err == nil {
				t.Error("Expected an error, got nil")
			}
		})
	}
}
