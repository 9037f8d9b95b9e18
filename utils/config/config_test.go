package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

type TestConfig struct {
	PageSize     int    `json:"page_size"`
	SwapFilePath string `json:"swap_file_path"`
}

func writeConfig(t *testing.T, content any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "memoria.json")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temporary file: %v", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(content); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestSetupConfig(t *testing.T) {
	validConfig := TestConfig{PageSize: 4096, SwapFilePath: "/tmp/swap.bin"}
	path := writeConfig(t, validConfig)

	var config TestConfig
	err := setupConfig(path, &config)
	if err != nil {
		t.Errorf("Expected no error, got: %v", err)
	}
	if config != validConfig {
		t.Errorf("Expected config to be %v, got: %v", validConfig, config)
	}
}

func TestSetupConfig_ThrowError(t *testing.T) {
	err := setupConfig("nonexistent.json", &TestConfig{})
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

func TestSetupConfig_UnknownField(t *testing.T) {
	path := writeConfig(t, map[string]any{"page_size": 4096, "tlb_entries": 4})

	err := setupConfig(path, &TestConfig{})
	if err == nil {
		t.Error("Expected error for unknown field, got nil")
	}
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, TestConfig{PageSize: 512})

	config, err := LoadConfig[TestConfig](path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if config.PageSize != 512 {
		t.Errorf("Expected page size 512, got %d", config.PageSize)
	}
}

func TestInitConfig_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for non-existent file")
		}
	}()

	var config *TestConfig
	InitConfig("nonexistent.json", &config)
}
