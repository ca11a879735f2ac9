// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for bloodbridge.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env loading, environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.bloodbridge/config.toml
//   - ~/.bloodbridge/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/bloodbridge-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete bloodbridge configuration.
type Config struct {
	API       APIConfig       `toml:"api" json:"api"`
	Assistant AssistantConfig `toml:"assistant" json:"assistant"`
	Storage   StorageConfig   `toml:"storage" json:"storage"`
	UI        UIConfig        `toml:"ui" json:"ui"`
	Log       LogConfig       `toml:"log" json:"log"`
}

// APIConfig describes the REST backend.
type APIConfig struct {
	// BaseURL is prefixed to every request path, e.g. http://localhost:5000
	BaseURL string `toml:"base_url" json:"base_url"`
	// TimeoutSecs bounds non-streaming REST calls. Chat streams are unbounded.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// RateLimitRPS throttles outgoing REST calls (0 = unlimited)
	RateLimitRPS float64 `toml:"rate_limit_rps" json:"rate_limit_rps"`
}

// AssistantConfig controls the streaming chat request.
type AssistantConfig struct {
	Path        string  `toml:"path" json:"path"`
	Temperature float64 `toml:"temperature" json:"temperature"`
	MaxTokens   int     `toml:"max_tokens" json:"max_tokens"`
	// SendAuth attaches the session bearer token to chat requests.
	SendAuth bool `toml:"send_auth" json:"send_auth"`
}

// StorageConfig selects the key/value store that persists the session.
type StorageConfig struct {
	// Driver is one of: memory, file, sqlite, redis
	Driver       string `toml:"driver" json:"driver"`
	Path         string `toml:"path" json:"path"`
	RedisAddr    string `toml:"redis_addr" json:"redis_addr"`
	RedisDB      int    `toml:"redis_db" json:"redis_db"`
	RedisTTLSecs int    `toml:"redis_ttl_secs" json:"redis_ttl_secs"`
}

// UIConfig contains terminal rendering settings.
type UIConfig struct {
	// Markdown renders assistant replies through glamour
	Markdown bool   `toml:"markdown" json:"markdown"`
	Theme    string `toml:"theme" json:"theme"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level" json:"level"`
	// File is the log destination (empty = ~/.bloodbridge/bloodbridge.log)
	File string `toml:"file" json:"file"`
}

// Storage drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Default returns a configuration with all default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:      "http://localhost:5000",
			TimeoutSecs:  30,
			RateLimitRPS: 10,
		},
		Assistant: AssistantConfig{
			Path:        "/api/assistant/chat",
			Temperature: 0.7,
			MaxTokens:   512,
		},
		Storage: StorageConfig{
			Driver: DriverFile,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "auto",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the bloodbridge configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".bloodbridge"), nil
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

// DefaultStoragePath returns the default location for the given driver's data.
func DefaultStoragePath(driver string) string {
	dir, err := ConfigDir()
	if err != nil {
		dir = "."
	}
	if driver == DriverSQLite {
		return filepath.Join(dir, "session.db")
	}
	return filepath.Join(dir, "session.json")
}

// DefaultLogPath returns ~/.bloodbridge/bloodbridge.log.
func DefaultLogPath() string {
	dir, err := ConfigDir()
	if err != nil {
		return "bloodbridge.log"
	}
	return filepath.Join(dir, "bloodbridge.log")
}

// ensureSecurePermissions checks and fixes permissions on config files.
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

// LoadDotEnv loads KEY=VALUE pairs from .env files into the process
// environment. Missing files are skipped and variables already set win.
// With no arguments it reads ./.env and ~/.bloodbridge/.env.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
		if dir, err := ConfigDir(); err == nil {
			paths = append(paths, filepath.Join(dir, ".env"))
		}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if tomlPath, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}
	if jsonPath, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}
	return finish(Default())
}

// LoadTOML decodes a TOML file over cfg. Keys absent from the file keep
// their current values.
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

// LoadFromPath loads configuration from a specific file path with full validation.
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
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
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

// SaveTOML writes the configuration to a TOML file with 0600 permissions.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# bloodbridge configuration file\n")
	b.WriteString("# Generated by bloodbridge - edit with care\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFileWithDir(path, []byte(b.String()), 0600, 0700); err != nil {
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
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	// ==========================================================================
	// API
	// ==========================================================================

	if u, err := url.Parse(c.API.BaseURL); err != nil {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("invalid URL: %v", err),
		})
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: fmt.Sprintf("scheme must be http or https, got '%s'", u.Scheme),
		})
	}
	if c.API.TimeoutSecs < 1 || c.API.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "api.timeout_secs",
			Message: fmt.Sprintf("timeout_secs must be 1-600, got %d", c.API.TimeoutSecs),
		})
	}
	if c.API.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.rate_limit_rps",
			Message: "must be non-negative",
		})
	}

	// ==========================================================================
	// Assistant
	// ==========================================================================

	if !strings.HasPrefix(c.Assistant.Path, "/") {
		errs = append(errs, ValidationError{
			Field:   "assistant.path",
			Message: fmt.Sprintf("path must start with '/', got '%s'", c.Assistant.Path),
		})
	}
	if c.Assistant.Temperature < 0 || c.Assistant.Temperature > 2 {
		errs = append(errs, ValidationError{
			Field:   "assistant.temperature",
			Message: "must be between 0.0 and 2.0",
		})
	}
	if c.Assistant.MaxTokens < 1 {
		errs = append(errs, ValidationError{
			Field:   "assistant.max_tokens",
			Message: fmt.Sprintf("max_tokens must be positive, got %d", c.Assistant.MaxTokens),
		})
	}

	// ==========================================================================
	// Storage
	// ==========================================================================

	switch strings.ToLower(c.Storage.Driver) {
	case DriverMemory, DriverFile, DriverSQLite:
	case DriverRedis:
		if c.Storage.RedisAddr == "" {
			errs = append(errs, ValidationError{
				Field:   "storage.redis_addr",
				Message: "required when driver is redis",
			})
		}
	default:
		errs = append(errs, ValidationError{
			Field:   "storage.driver",
			Message: fmt.Sprintf("invalid driver '%s', must be one of: memory, file, sqlite, redis", c.Storage.Driver),
		})
	}
	if c.Storage.RedisDB < 0 || c.Storage.RedisTTLSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "storage.redis_db",
			Message: "redis_db and redis_ttl_secs must be non-negative",
		})
	}

	// ==========================================================================
	// UI / Log
	// ==========================================================================

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults sets default values for any missing or zero-value fields.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.TimeoutSecs == 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	if c.Assistant.Path == "" {
		c.Assistant.Path = defaults.Assistant.Path
	}
	if c.Assistant.MaxTokens == 0 {
		c.Assistant.MaxTokens = defaults.Assistant.MaxTokens
	}

	if c.Storage.Driver == "" {
		c.Storage.Driver = defaults.Storage.Driver
	}
	c.Storage.Driver = strings.ToLower(c.Storage.Driver)
	if c.Storage.Path == "" && (c.Storage.Driver == DriverFile || c.Storage.Driver == DriverSQLite) {
		c.Storage.Path = DefaultStoragePath(c.Storage.Driver)
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.Log.Level == "" {
		c.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides:
//   - BLOODBRIDGE_API_BASE: overrides api.base_url
//   - BLOODBRIDGE_STORAGE_DRIVER: overrides storage.driver
//   - BLOODBRIDGE_STORAGE_PATH: overrides storage.path
//   - BLOODBRIDGE_REDIS_ADDR: overrides storage.redis_addr
//   - BLOODBRIDGE_LOG_LEVEL: overrides log.level
//   - BLOODBRIDGE_ASSISTANT_AUTH: overrides assistant.send_auth
func (c *Config) ApplyEnvOverrides() {
	if base := os.Getenv("BLOODBRIDGE_API_BASE"); base != "" {
		c.API.BaseURL = base
	}
	if driver := os.Getenv("BLOODBRIDGE_STORAGE_DRIVER"); driver != "" {
		c.Storage.Driver = driver
	}
	if path := os.Getenv("BLOODBRIDGE_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if addr := os.Getenv("BLOODBRIDGE_REDIS_ADDR"); addr != "" {
		c.Storage.RedisAddr = addr
	}
	if level := os.Getenv("BLOODBRIDGE_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if auth := os.Getenv("BLOODBRIDGE_ASSISTANT_AUTH"); auth != "" {
		if v, err := strconv.ParseBool(auth); err == nil {
			c.Assistant.SendAuth = v
		}
	}
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Timeout returns the REST call timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSecs) * time.Second
}

// RedisTTL returns the expiry applied to redis session keys (0 = none).
func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Storage.RedisTTLSecs) * time.Second
}

// String returns a JSON rendering of the config for debugging.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
