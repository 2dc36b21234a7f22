package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.json")

	raw := map[string]interface{}{
		"output_dir":     "./out",
		"keep_versions":  3,
		"auto_cleanup":   false,
		"default_theme":  "modern",
		"ai_temperature": 0.5,
		"language":       "bilingual",
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		t.Fatalf("Failed to marshal test config: %v", err)
	}

	err = os.WriteFile(configPath, data, 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.OutputDir != "./out" {
		t.Errorf("Expected output dir ./out, got %s", cfg.OutputDir)
	}

	if cfg.KeepVersions != 3 {
		t.Errorf("Expected keep_versions 3, got %d", cfg.KeepVersions)
	}

	if cfg.AutoCleanup {
		t.Error("Expected auto_cleanup false from file")
	}

	if cfg.DefaultTheme != "modern" || cfg.Language != "bilingual" {
		t.Errorf("Unexpected theme/language: %s/%s", cfg.DefaultTheme, cfg.Language)
	}

	// unspecified fields keep their defaults
	if cfg.MaxFileSizeMB != 10 || cfg.TimeoutSeconds != 300 || !cfg.GenerateAllFormats {
		t.Errorf("Defaults not preserved: %+v", cfg)
	}
}

func TestLoadNonexistent(t *testing.T) {
	_, err := Load("/nonexistent/path/config.json")
	if err == nil {
		t.Error("Expected error loading nonexistent explicit config, got nil")
	}
}

func TestLoadMissingDefaultIsFine(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected defaults when no config exists, got %v", err)
	}

	if cfg.KeepVersions != 5 || cfg.OutputDir != "profiles" {
		t.Errorf("Expected defaults, got %+v", cfg)
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte("{not json"), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	_, err = Load(configPath)
	if err == nil {
		t.Error("Expected parse error, got nil")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"CVFORGE_OUTPUT_DIR":    "/srv/cv",
		"CVFORGE_KEEP_VERSIONS": "9",
		"CVFORGE_AUTO_CLEANUP":  "false",
		"CVFORGE_LANGUAGE":      "chinese",
		"ANTHROPIC_API_KEY":     "sk-env",
	}
	getenv := func(k string) string { return env[k] }

	cfg := Default()
	err := cfg.ApplyEnv(getenv)
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}

	if cfg.OutputDir != "/srv/cv" || cfg.KeepVersions != 9 || cfg.AutoCleanup || cfg.Language != "chinese" || cfg.AnthropicAPIKey != "sk-env" {
		t.Errorf("Environment not applied: %+v", cfg)
	}

	env["CVFORGE_KEEP_VERSIONS"] = "lots"
	err = cfg.ApplyEnv(getenv)
	if err == nil {
		t.Error("Expected error for non-numeric CVFORGE_KEEP_VERSIONS")
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(configPath, []byte(`{"anthropic_api_key": "from-file"}`), 0600)
	if err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	t.Setenv("ANTHROPIC_API_KEY", "from-env")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.AnthropicAPIKey != "from-env" {
		t.Errorf("Expected env API key to win, got %s", cfg.AnthropicAPIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{name: "defaults", mutate: func(c *Config) {}},
		{name: "bad theme", mutate: func(c *Config) { c.DefaultTheme = "neon" }, field: "default_theme", wantErr: true},
		{name: "bad language", mutate: func(c *Config) { c.Language = "french" }, field: "language", wantErr: true},
		{name: "negative keep", mutate: func(c *Config) { c.KeepVersions = -1 }, field: "keep_versions", wantErr: true},
		{name: "hot temperature", mutate: func(c *Config) { c.AITemperature = 1.5 }, field: "ai_temperature", wantErr: true},
		{name: "no output dir", mutate: func(c *Config) { c.OutputDir = "" }, field: "output_dir", wantErr: true},
		{name: "bad format", mutate: func(c *Config) { c.DefaultFormats = []string{"pdf"} }, field: "default_formats[0]", wantErr: true},
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "trace" }, field: "log_level", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if !tt.wantErr {
				if err != nil {
					t.Errorf("Unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatal("Expected validation error, got nil")
			}

			if !strings.Contains(err.Error(), tt.field) {
				t.Errorf("Error should name %s: %v", tt.field, err)
			}
		})
	}
}

func TestFormats(t *testing.T) {
	cfg := Default()
	if got := cfg.Formats(); len(got) != 3 {
		t.Errorf("Expected all formats, got %v", got)
	}

	cfg.GenerateAllFormats = false
	cfg.DefaultFormats = []string{"html"}
	if got := cfg.Formats(); len(got) != 1 || got[0] != "html" {
		t.Errorf("Expected [html], got %v", got)
	}
}

func TestRedacted(t *testing.T) {
	cfg := Default()
	cfg.AnthropicAPIKey = "sk-ant-api03-abcdefgh"

	red := cfg.Redacted()
	if strings.Contains(red.AnthropicAPIKey, "api03") {
		t.Errorf("Key not redacted: %s", red.AnthropicAPIKey)
	}

	if cfg.AnthropicAPIKey != "sk-ant-api03-abcdefgh" {
		t.Error("Redacted must not modify the receiver")
	}
}

func TestInitConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.json")

	path, err := InitConfig(configPath)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}

	if path != configPath {
		t.Errorf("Expected path %s, got %s", configPath, path)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Sample config does not load: %v", err)
	}

	if cfg.KeepVersions != 5 {
		t.Errorf("Expected sample keep_versions 5, got %d", cfg.KeepVersions)
	}

	_, err = InitConfig(configPath)
	if err == nil {
		t.Error("Expected error when config already exists")
	}
}
