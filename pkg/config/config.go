// Package config loads cvforge settings from a JSON file and the environment.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

// Config represents the application configuration.
type Config struct {
	OutputDir          string   `json:"output_dir" validate:"required"`
	TemplateDir        string   `json:"template_dir"`
	KeepVersions       int      `json:"keep_versions" validate:"gte=0"`
	AutoCleanup        bool     `json:"auto_cleanup"`
	GenerateAllFormats bool     `json:"generate_all_formats"`
	DefaultFormats     []string `json:"default_formats,omitempty" validate:"dive,oneof=markdown md word docx html htm"`
	DefaultTemplate    string   `json:"default_template" validate:"required"`
	DefaultTheme       string   `json:"default_theme" validate:"oneof=professional modern creative traditional"`
	AIModel            string   `json:"ai_model" validate:"required"`
	AITemperature      float64  `json:"ai_temperature" validate:"gte=0,lte=1"`
	AIMaxTokens        int      `json:"ai_max_tokens" validate:"gte=256,lte=64000"`
	Language           string   `json:"language" validate:"oneof=english chinese bilingual"`
	AnthropicAPIKey    string   `json:"anthropic_api_key,omitempty"`
	LogLevel           string   `json:"log_level" validate:"oneof=debug info warn error"`
	MaxFileSizeMB      int      `json:"max_file_size_mb" validate:"gte=1,lte=100"`
	TimeoutSeconds     int      `json:"timeout_seconds" validate:"gte=1"`
	ServerAddr         string   `json:"server_addr" validate:"required"`
}

// Default returns the built-in configuration.
func Default() (cfg Config) {
	cfg = Config{
		OutputDir:          "profiles",
		TemplateDir:        "templates",
		KeepVersions:       5,
		AutoCleanup:        true,
		GenerateAllFormats: true,
		DefaultFormats:     []string{"markdown"},
		DefaultTemplate:    "default",
		DefaultTheme:       "professional",
		AIModel:            "claude-sonnet-4-20250514",
		AITemperature:      0.3,
		AIMaxTokens:        4096,
		Language:           "english",
		LogLevel:           "info",
		MaxFileSizeMB:      10,
		TimeoutSeconds:     300,
		ServerAddr:         ":8080",
	}
	return cfg
}

// DefaultPath returns ~/.cvforge/config.json.
func DefaultPath() (path string, err error) {
	var homeDir string
	homeDir, err = os.UserHomeDir()
	if err != nil {
		err = errors.Wrap(err, "failed to get user home directory")
		return path, err
	}
	path = filepath.Join(homeDir, ".cvforge", "config.json")
	return path, err
}

// Load reads configuration from file with environment variable overrides. With an
// empty configPath the default location is used and may be absent; an explicit path
// must exist.
func Load(configPath string) (cfg Config, err error) {
	cfg = Default()

	path := configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	var data []byte
	data, err = os.ReadFile(path)
	switch {
	case err == nil:
		err = json.Unmarshal(data, &cfg)
		if err != nil {
			err = errors.Wrapf(err, "failed to parse config file: %s", path)
			return cfg, err
		}
	case os.IsNotExist(err) && configPath == "":
		err = nil
	case os.IsNotExist(err):
		err = errors.Errorf("config file not found: %s (run 'cvforge config --sample %s' to create)", path, path)
		return cfg, err
	default:
		err = errors.Wrapf(err, "failed to read config file: %s", path)
		return cfg, err
	}

	err = cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return cfg, err
	}

	err = cfg.Validate()
	if err != nil {
		err = errors.Wrap(err, "config validation failed")
		return cfg, err
	}

	return cfg, err
}

// ApplyEnv overrides fields from CVFORGE_* variables and ANTHROPIC_API_KEY.
func (c *Config) ApplyEnv(getenv func(string) string) (err error) {
	strs := map[string]*string{
		"CVFORGE_OUTPUT_DIR":   &c.OutputDir,
		"CVFORGE_TEMPLATE_DIR": &c.TemplateDir,
		"CVFORGE_AI_MODEL":     &c.AIModel,
		"CVFORGE_LOG_LEVEL":    &c.LogLevel,
		"CVFORGE_LANGUAGE":     &c.Language,
		"CVFORGE_SERVER_ADDR":  &c.ServerAddr,
		"ANTHROPIC_API_KEY":    &c.AnthropicAPIKey,
	}
	for name, field := range strs {
		if v := getenv(name); v != "" {
			*field = v
		}
	}

	if v := getenv("CVFORGE_KEEP_VERSIONS"); v != "" {
		c.KeepVersions, err = strconv.Atoi(v)
		if err != nil {
			err = errors.Wrapf(err, "invalid CVFORGE_KEEP_VERSIONS %q", v)
			return err
		}
	}

	if v := getenv("CVFORGE_AUTO_CLEANUP"); v != "" {
		c.AutoCleanup, err = strconv.ParseBool(v)
		if err != nil {
			err = errors.Wrapf(err, "invalid CVFORGE_AUTO_CLEANUP %q", v)
			return err
		}
	}

	return err
}

// Validate checks every field against its constraints and reports them by JSON name.
func (c *Config) Validate() (err error) {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	err = validate.Struct(c)
	if err == nil {
		return err
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		constraint := fe.Tag()
		if fe.Param() != "" {
			constraint = fmt.Sprintf("%s=%s", fe.Tag(), fe.Param())
		}
		msgs = append(msgs, fmt.Sprintf("%s: value %v violates %s", strings.TrimPrefix(fe.Namespace(), "Config."), fe.Value(), constraint))
	}
	err = errors.New(strings.Join(msgs, "; "))
	return err
}

// Formats returns the format names generated when a request names none.
func (c *Config) Formats() (formats []string) {
	if c.GenerateAllFormats || len(c.DefaultFormats) == 0 {
		formats = []string{"markdown", "word", "html"}
		return formats
	}
	formats = append(formats, c.DefaultFormats...)
	return formats
}

// MaxFileBytes returns the per-document size limit in bytes.
func (c *Config) MaxFileBytes() (n int64) {
	n = int64(c.MaxFileSizeMB) << 20
	return n
}

// Timeout returns the AI request timeout.
func (c *Config) Timeout() (d time.Duration) {
	d = time.Duration(c.TimeoutSeconds) * time.Second
	return d
}

// Redacted returns a copy safe to print.
func (c Config) Redacted() (out Config) {
	out = c
	if len(out.AnthropicAPIKey) > 8 {
		out.AnthropicAPIKey = out.AnthropicAPIKey[:4] + "..." + out.AnthropicAPIKey[len(out.AnthropicAPIKey)-4:]
	} else if out.AnthropicAPIKey != "" {
		out.AnthropicAPIKey = "***"
	}
	return out
}

// InitConfig creates a sample configuration file at configPath (the default location when empty).
func InitConfig(configPath string) (path string, err error) {
	path = configPath
	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return path, err
		}
	}

	dir := filepath.Dir(path)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		err = errors.Wrapf(err, "failed to create config directory: %s", dir)
		return path, err
	}

	_, err = os.Stat(path)
	if err == nil {
		err = errors.Errorf("config file already exists: %s", path)
		return path, err
	}

	sample := Default()
	sample.AnthropicAPIKey = "sk-ant-api03-..."

	var data []byte
	data, err = json.MarshalIndent(sample, "", "  ")
	if err != nil {
		err = errors.Wrap(err, "failed to marshal default config")
		return path, err
	}
	data = append(data, '\n')

	err = os.WriteFile(path, data, 0600)
	if err != nil {
		err = errors.Wrapf(err, "failed to write config file: %s", path)
		return path, err
	}

	return path, err
}
