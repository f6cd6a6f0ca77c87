// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/bnanab/internal/storage"
	"github.com/jeranaias/bnanab/internal/util"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// Config is the main configuration structure.
type Config struct {
	API     APIConfig     `toml:"api" json:"api"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Log     LogConfig     `toml:"log" json:"log"`
	Export  ExportConfig  `toml:"export" json:"export"`
	UI      UIConfig      `toml:"ui" json:"ui"`
}

// APIConfig configures the completion endpoint.
type APIConfig struct {
	BaseURL      string `toml:"base_url" json:"base_url"`
	Model        string `toml:"model" json:"model"`
	Version      string `toml:"version" json:"version"`
	SystemPrompt string `toml:"system_prompt,omitempty" json:"system_prompt,omitempty"`

	// TimeoutSecs bounds a request; 0 leaves it unbounded.
	TimeoutSecs      int   `toml:"timeout_secs" json:"timeout_secs"`
	MaxResponseBytes int64 `toml:"max_response_bytes" json:"max_response_bytes"`

	// APIKey seeds the per-user setting when that is empty.
	APIKey string `toml:"api_key,omitempty" json:"api_key,omitempty"`
}

// StorageConfig selects the key-value backend.
type StorageConfig struct {
	Backend string `toml:"backend" json:"backend"`
	Dir     string `toml:"dir" json:"dir"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// File is a path, or "stderr".
	File string `toml:"file" json:"file"`
}

// ExportConfig configures chat export.
type ExportConfig struct {
	Dir    string `toml:"dir" json:"dir"`
	Format string `toml:"format" json:"format"`
}

// UIConfig configures the terminal front end.
type UIConfig struct {
	// Mode is "tui" or "repl".
	Mode      string `toml:"mode" json:"mode"`
	WordWrap  int    `toml:"word_wrap" json:"word_wrap"`
	CodeStyle string `toml:"code_style" json:"code_style"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:          "https://api.anthropic.com",
			Model:            "claude-3-5-sonnet-20241022",
			Version:          "2023-06-01",
			MaxResponseBytes: 10 * 1024 * 1024,
		},
		Storage: StorageConfig{
			Backend: storage.BackendFile,
		},
		Log: LogConfig{
			Level: "info",
		},
		Export: ExportConfig{
			Dir:    ".",
			Format: "json",
		},
		UI: UIConfig{
			Mode:     "tui",
			WordWrap: 80,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the bnanab directory: $BNANAB_HOME or ~/.bnanab.
func ConfigDir() (string, error) {
	if dir := os.Getenv("BNANAB_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bnanab"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// DataDir returns the storage directory, defaulting to <ConfigDir>/data.
func (c *Config) DataDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "data"), nil
}

// LogPath returns the log destination, defaulting to <ConfigDir>/bnanab.log.
func (c *Config) LogPath() (string, error) {
	if c.Log.File != "" {
		return c.Log.File, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bnanab.log"), nil
}

// ensureSecurePermissions tightens config files to 0600.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration. A .env file in the working directory is read
// first. Then TOML is tried, then JSON, then defaults. Environment
// overrides are applied last.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var loadErr error

	if tomlPath, err := ConfigPathTOML(); err == nil && fileExists(tomlPath) {
		cfg, err := LoadFromPath(tomlPath)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
	}

	if jsonPath, err := ConfigPathJSON(); err == nil && fileExists(jsonPath) {
		cfg, err := LoadFromPath(jsonPath)
		if err == nil {
			return cfg, nil
		}
		loadErr = errors.Join(loadErr, err)
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Defaults are usable; the load error is informational.
	return cfg, loadErr
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file over cfg.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads one file with full validation. Files ending in .json
// are JSON; anything else is TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// SetDefaults fills empty fields from Default.
func (c *Config) SetDefaults() {
	d := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = d.API.BaseURL
	}
	if c.API.Model == "" {
		c.API.Model = d.API.Model
	}
	if c.API.Version == "" {
		c.API.Version = d.API.Version
	}
	if c.API.MaxResponseBytes == 0 {
		c.API.MaxResponseBytes = d.API.MaxResponseBytes
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = d.Storage.Backend
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Export.Dir == "" {
		c.Export.Dir = d.Export.Dir
	}
	if c.Export.Format == "" {
		c.Export.Format = d.Export.Format
	}
	if c.UI.Mode == "" {
		c.UI.Mode = d.UI.Mode
	}
	if c.UI.WordWrap == 0 {
		c.UI.WordWrap = d.UI.WordWrap
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes cfg to path with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# bnanab configuration file")
	fmt.Fprintln(&buf, "# Generated by bnanab - edit with care")
	fmt.Fprintln(&buf, "")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"json", "markdown", "md"}
	validModes   = []string{"tui", "repl"}
)

// Validate returns ValidateErrors describing every invalid field.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if u, err := url.Parse(c.API.BaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		add("api.base_url", "invalid URL '%s', must be an absolute http(s) URL", c.API.BaseURL)
	}
	if c.API.TimeoutSecs < 0 {
		add("api.timeout_secs", "must be >= 0, got %d", c.API.TimeoutSecs)
	}
	if c.API.MaxResponseBytes < 0 {
		add("api.max_response_bytes", "must be >= 0, got %d", c.API.MaxResponseBytes)
	}
	if !slices.Contains(storage.Backends(), c.Storage.Backend) {
		add("storage.backend", "invalid backend '%s', must be one of: %s", c.Storage.Backend, strings.Join(storage.Backends(), ", "))
	}
	if !slices.Contains(validLevels, strings.ToLower(c.Log.Level)) {
		add("log.level", "invalid level '%s', must be one of: %s", c.Log.Level, strings.Join(validLevels, ", "))
	}
	if !slices.Contains(validFormats, strings.ToLower(c.Export.Format)) {
		add("export.format", "invalid format '%s', must be one of: json, markdown", c.Export.Format)
	}
	if !slices.Contains(validModes, strings.ToLower(c.UI.Mode)) {
		add("ui.mode", "invalid mode '%s', must be one of: tui, repl", c.UI.Mode)
	}
	if c.UI.WordWrap < 0 {
		add("ui.word_wrap", "must be >= 0, got %d", c.UI.WordWrap)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - BNANAB_API_KEY: api.api_key
//   - BNANAB_MODEL: api.model
//   - BNANAB_API_URL: api.base_url
//   - BNANAB_STORAGE: storage.backend
//   - BNANAB_DATA_DIR: storage.dir
//   - BNANAB_LOG_LEVEL: log.level
//   - BNANAB_LOG_FILE: log.file
//   - BNANAB_EXPORT_DIR: export.dir
func (c *Config) ApplyEnvOverrides() {
	overrides := []struct {
		env   string
		field *string
	}{
		{"BNANAB_API_KEY", &c.API.APIKey},
		{"BNANAB_MODEL", &c.API.Model},
		{"BNANAB_API_URL", &c.API.BaseURL},
		{"BNANAB_STORAGE", &c.Storage.Backend},
		{"BNANAB_DATA_DIR", &c.Storage.Dir},
		{"BNANAB_LOG_LEVEL", &c.Log.Level},
		{"BNANAB_LOG_FILE", &c.Log.File},
		{"BNANAB_EXPORT_DIR", &c.Export.Dir},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.field = v
		}
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a value using dot notation (e.g., "api.model").
func (c *Config) Get(key string) (any, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set assigns a value using dot notation. String values are converted to
// the field's type.
func (c *Config) Set(key string, value any) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookup(key string) (reflect.Value, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return reflect.Value{}, fmt.Errorf("invalid key %q, expected section.name", key)
	}

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return v, nil
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface value with type conversion.
func setFieldValue(field reflect.Value, value any) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"api.base_url",
		"api.model",
		"api.version",
		"api.system_prompt",
		"api.timeout_secs",
		"api.max_response_bytes",
		"api.api_key",
		"storage.backend",
		"storage.dir",
		"log.level",
		"log.file",
		"export.dir",
		"export.format",
		"ui.mode",
		"ui.word_wrap",
		"ui.code_style",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the config as JSON with the API key redacted.
func (c *Config) String() string {
	safe := c.Clone()
	if safe.API.APIKey != "" {
		safe.API.APIKey = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(safe, "", "  ")
	return string(data)
}
