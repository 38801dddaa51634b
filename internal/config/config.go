package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix for environment variable overrides (LARDER_API_BASE_URL, ...).
const EnvPrefix = "LARDER_"

// DefaultAPIBaseURL is the public TheMealDB v1 endpoint with the shared test key.
const DefaultAPIBaseURL = "https://www.themealdb.com/api/json/v1/1"

// Config holds application configuration.
type Config struct {
	// APIBaseURL is the base URL of the recipe API (no trailing slash required).
	APIBaseURL string `json:"api_base_url,omitempty" koanf:"api_base_url"`

	// HTTPTimeoutSeconds bounds each request to the recipe API.
	// 0 means no client-imposed timeout (transport defaults apply).
	HTTPTimeoutSeconds int `json:"http_timeout_seconds,omitempty" koanf:"http_timeout_seconds"`

	// CategoryDetailLimit caps how many full recipes are fetched when browsing a category.
	CategoryDetailLimit int `json:"category_detail_limit,omitempty" koanf:"category_detail_limit"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `json:"log_level,omitempty" koanf:"log_level"`

	// WebBind and WebPort control where `larder serve` listens.
	WebBind string `json:"web_bind,omitempty" koanf:"web_bind"`
	WebPort int    `json:"web_port,omitempty" koanf:"web_port"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.larder/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty" koanf:"allowed_paths"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// When true, any directory is allowed (but symlink and extension checks still apply).
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty" koanf:"allow_unsafe_paths"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty" koanf:"db_max_open_conns"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty" koanf:"db_max_idle_conns"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty" koanf:"disabled_tools"`

	// DisabledTypes is a list of type names to disable entirely.
	// Known types: "recipe", "category", "cookbook".
	DisabledTypes []string `json:"disabled_types,omitempty" koanf:"disabled_types"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		APIBaseURL:          DefaultAPIBaseURL,
		CategoryDetailLimit: 20,
		LogLevel:            "info",
		WebBind:             "127.0.0.1",
		WebPort:             8484,
	}
}

// Load loads configuration from baseDir/config.json, then applies LARDER_*
// environment overrides. Returns defaults if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.larder.
func Load(baseDir string) (*Config, error) {
	fileCfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}

	envCfg, err := loadEnv()
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), fileCfg), envCfg), nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", configPath, err)
	}

	return cfg, nil
}

// loadEnv reads LARDER_* variables into a zero-valued config.
func loadEnv() (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling env overrides: %w", err)
	}
	return cfg, nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.APIBaseURL = firstNonEmpty(overlay.APIBaseURL, base.APIBaseURL)
	result.LogLevel = firstNonEmpty(overlay.LogLevel, base.LogLevel)
	result.WebBind = firstNonEmpty(overlay.WebBind, base.WebBind)

	result.HTTPTimeoutSeconds = firstNonZero(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds)
	result.CategoryDetailLimit = firstNonZero(overlay.CategoryDetailLimit, base.CategoryDetailLimit)
	result.WebPort = firstNonZero(overlay.WebPort, base.WebPort)
	result.DBMaxOpenConns = firstNonZero(overlay.DBMaxOpenConns, base.DBMaxOpenConns)
	result.DBMaxIdleConns = firstNonZero(overlay.DBMaxIdleConns, base.DBMaxIdleConns)

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIBaseURL) == "" {
		return fmt.Errorf("api_base_url is required")
	}
	if c.HTTPTimeoutSeconds < 0 {
		return fmt.Errorf("http_timeout_seconds must be non-negative")
	}
	if c.CategoryDetailLimit < 0 {
		return fmt.Errorf("category_detail_limit must be non-negative")
	}
	if c.WebPort < 0 || c.WebPort > 65535 {
		return fmt.Errorf("web_port %d out of range", c.WebPort)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}

func firstNonEmpty(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func firstNonZero(a, b int) int {
	if a != 0 {
		return a
	}
	return b
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
