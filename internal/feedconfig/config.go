// FeedVault - NuGet-compatible package feed storage engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/feedvault

// Package feedconfig loads the top-level application configuration:
// defaults, then an optional YAML file, then environment variables,
// highest priority last. Grounded on the teacher's internal/config
// Koanf v2 layering (internal/config/koanf.go LoadWithKoanf), narrowed
// to this application's own option set rather than the teacher's
// multi-source media-sync configuration.
package feedconfig

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/feedvault/internal/repository"
	"github.com/tomtom215/feedvault/internal/validation"
)

// ServerConfig is the HTTP listener's own settings.
type ServerConfig struct {
	Host         string        `koanf:"host" validate:"-"`
	Port         int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `koanf:"readTimeout" validate:"min=0"`
	WriteTimeout time.Duration `koanf:"writeTimeout" validate:"min=0"`
}

// SecurityConfig carries the push-auth collaborators' settings.
// APIKeyHash is a bcrypt hash produced offline by feedauth.HashAPIKey;
// an empty value closes push/remove unless JWT is also enabled.
type SecurityConfig struct {
	APIKeyHash        string        `koanf:"apiKeyHash" validate:"-"`
	JWTEnabled        bool          `koanf:"jwtEnabled" validate:"-"`
	JWTSecret         string        `koanf:"jwtSecret" validate:"-"`
	JWTTokenTTL       time.Duration `koanf:"jwtTokenTtl" validate:"min=0"`
	CORSAllowedOrigins []string     `koanf:"corsAllowedOrigins" validate:"-"`
	RateLimitRequests int           `koanf:"rateLimitRequests" validate:"min=1"`
	RateLimitWindow   time.Duration `koanf:"rateLimitWindow" validate:"min=0"`
	RateLimitDisabled bool          `koanf:"rateLimitDisabled" validate:"-"`
}

// LoggingConfig matches the teacher's logging.Config shape, loaded here
// instead of constructed by hand so its level/format/caller are
// configurable the same way every other setting is.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"-"`
	Format string `koanf:"format" validate:"-"`
	Caller bool   `koanf:"caller" validate:"-"`
}

// Config is the complete application configuration.
type Config struct {
	// ArchiveRoot is the directory the repository's store and watcher are
	// rooted at.
	ArchiveRoot string            `koanf:"archiveRoot" validate:"required"`
	Server      ServerConfig      `koanf:"server"`
	Security    SecurityConfig    `koanf:"security"`
	Logging     LoggingConfig     `koanf:"logging"`
	Repository  repository.Config `koanf:"repository"`
}

// DefaultConfigPaths lists the paths searched for a YAML config file, in
// priority order; the first one found is used.
var DefaultConfigPaths = []string{
	"feedvault.yaml",
	"feedvault.yml",
	"/etc/feedvault/feedvault.yaml",
	"/etc/feedvault/feedvault.yml",
}

// ConfigPathEnvVar overrides the config file search path entirely.
const ConfigPathEnvVar = "FEEDVAULT_CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		ArchiveRoot: "/data/packages",
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         5341,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Security: SecurityConfig{
			RateLimitRequests: 120,
			RateLimitWindow:   time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Repository: repository.DefaultConfig(),
	}
}

// envMappings translates FEEDVAULT_-prefixed environment variable names
// to koanf dotted paths, the same explicit allow-list approach as the
// teacher's envTransformFunc: unmapped variables are ignored rather than
// polluting the config tree.
var envMappings = map[string]string{
	"archive_root":          "archiveRoot",
	"server_host":           "server.host",
	"server_port":           "server.port",
	"server_read_timeout":   "server.readTimeout",
	"server_write_timeout":  "server.writeTimeout",
	"api_key_hash":          "security.apiKeyHash",
	"jwt_enabled":           "security.jwtEnabled",
	"jwt_secret":            "security.jwtSecret",
	"jwt_token_ttl":         "security.jwtTokenTtl",
	"cors_allowed_origins":  "security.corsAllowedOrigins",
	"rate_limit_requests":   "security.rateLimitRequests",
	"rate_limit_window":     "security.rateLimitWindow",
	"rate_limit_disabled":   "security.rateLimitDisabled",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",

	"allow_override_existing_package_on_push": "repository.allowOverrideExistingPackageOnPush",
	"ignore_symbols_packages":                 "repository.ignoreSymbolsPackages",
	"enable_delisting":                        "repository.enableDelisting",
	"enable_framework_filtering":               "repository.enableFrameworkFiltering",
	"enable_file_system_monitoring":            "repository.enableFileSystemMonitoring",
	"initial_cache_rebuild_after_seconds":      "repository.initialCacheRebuildAfterSeconds",
	"drop_folder_scan_rate_per_second":         "repository.dropFolderScanRatePerSecond",
}

// envTransformFunc matches the teacher's envTransformFunc convention:
// called with the raw, unstripped environment variable name for every
// process env var (koanf's env.Provider does its own prefix filtering
// only when given a non-empty prefix, so with an empty prefix here we
// filter and strip FEEDVAULT_ ourselves).
func envTransformFunc(key string) string {
	key = stripAndLower(key)
	const prefix = "feedvault_"
	if len(key) <= len(prefix) || key[:len(prefix)] != prefix {
		return ""
	}
	key = key[len(prefix):]
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}
	return ""
}

// Load builds the Config from defaults, an optional YAML file, and
// FEEDVAULT_-prefixed environment variables (highest priority), then
// validates it via internal/validation's shared validator singleton.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("feedconfig: load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("feedconfig: load config file %s: %w", path, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("feedconfig: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("feedconfig: unmarshal: %w", err)
	}

	if err := validation.ValidateStruct(cfg); err != nil {
		return nil, fmt.Errorf("feedconfig: validation failed: %w", err)
	}
	if err := cfg.validateSemantics(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validateSemantics() error {
	if c.Security.APIKeyHash == "" && !c.Security.JWTEnabled {
		return fmt.Errorf("feedconfig: at least one of security.apiKeyHash or security.jwtEnabled must be set, or push/remove is permanently closed")
	}
	if c.Security.JWTEnabled && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("feedconfig: security.jwtSecret must be at least 32 characters when security.jwtEnabled is true")
	}
	return nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// stripAndLower lowercases s so envMappings keys can stay lowercase,
// matching the teacher's envTransformFunc convention.
func stripAndLower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
