// Package common provides shared utilities for Rampart
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for Rampart
type Config struct {
	Environment string        `toml:"environment"`
	SiteURL     string        `toml:"site_url"` // Front-end origin used for OAuth callbacks
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Logging     LoggingConfig `toml:"logging"`
	Auth        AuthConfig    `toml:"auth"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the storage backend.
// Mode "file" uses local JSON areas; mode "surreal" uses SurrealDB.
type StorageConfig struct {
	Mode      string     `toml:"mode"`
	Address   string     `toml:"address"`
	Namespace string     `toml:"namespace"`
	Database  string     `toml:"database"`
	Username  string     `toml:"username"`
	Password  string     `toml:"password"`
	Internal  AreaConfig `toml:"internal"` // Accounts, OTP challenges, system KV
	Content   AreaConfig `toml:"content"`  // Courses, blog posts, enrollments, materials
}

// AreaConfig holds path configuration for a file storage area.
type AreaConfig struct {
	Path string `toml:"path"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Gemini GeminiConfig `toml:"gemini"`
}

// GeminiConfig holds Gemini API configuration
type GeminiConfig struct {
	APIKey string `toml:"api_key"`
	Model  string `toml:"model"`
}

// AuthConfig holds authentication configuration for sessions, OAuth, and OTP.
type AuthConfig struct {
	JWTSecret   string        `toml:"jwt_secret"`
	TokenExpiry string        `toml:"token_expiry"` // duration string, default "24h"
	Google      OAuthProvider `toml:"google"`
	OTP         OTPConfig     `toml:"otp"`
}

// OAuthProvider holds OAuth client credentials for an external provider.
type OAuthProvider struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
}

// OTPConfig holds one-time-code issue and resend settings.
type OTPConfig struct {
	CodeExpiry     string `toml:"code_expiry"`     // duration string, default "10m"
	ResendCooldown string `toml:"resend_cooldown"` // duration string, default "120s"
	MaxAttempts    int    `toml:"max_attempts"`
}

// GetTokenExpiry parses and returns the token expiry duration.
func (c *AuthConfig) GetTokenExpiry() time.Duration {
	d, err := time.ParseDuration(c.TokenExpiry)
	if err != nil {
		return 24 * time.Hour
	}
	return d
}

// GetCodeExpiry parses and returns the OTP code expiry duration.
func (c *OTPConfig) GetCodeExpiry() time.Duration {
	d, err := time.ParseDuration(c.CodeExpiry)
	if err != nil {
		return 10 * time.Minute
	}
	return d
}

// GetResendCooldown parses and returns the OTP resend cooldown duration.
func (c *OTPConfig) GetResendCooldown() time.Duration {
	d, err := time.ParseDuration(c.ResendCooldown)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string `toml:"level"`
	Format   string `toml:"format"`
	FilePath string `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		SiteURL:     "http://localhost:3000",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Mode:      "file",
			Address:   "ws://localhost:8000",
			Namespace: "rampart",
			Database:  "rampart",
			Internal:  AreaConfig{Path: "data/internal"},
			Content:   AreaConfig{Path: "data/content"},
		},
		Clients: ClientsConfig{
			Gemini: GeminiConfig{
				Model: "gemini-2.0-flash",
			},
		},
		Auth: AuthConfig{
			JWTSecret:   "dev-jwt-secret-change-in-production",
			TokenExpiry: "24h",
			OTP: OTPConfig{
				CodeExpiry:     "10m",
				ResendCooldown: "120s",
				MaxAttempts:    5,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "console",
			FilePath: "./logs/rampart.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// Apply environment overrides
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("RAMPART_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("RAMPART_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("RAMPART_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("RAMPART_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if siteURL := os.Getenv("RAMPART_SITE_URL"); siteURL != "" {
		config.SiteURL = siteURL
	}

	if mode := os.Getenv("RAMPART_STORAGE_MODE"); mode != "" {
		config.Storage.Mode = strings.ToLower(mode)
	}
	if addr := os.Getenv("RAMPART_STORAGE_ADDRESS"); addr != "" {
		config.Storage.Address = addr
	}
	if path := os.Getenv("RAMPART_DATA_PATH"); path != "" {
		config.Storage.Internal.Path = filepath.Join(path, "internal")
		config.Storage.Content.Path = filepath.Join(path, "content")
	}

	// Auth overrides
	if v := os.Getenv("RAMPART_AUTH_JWT_SECRET"); v != "" {
		config.Auth.JWTSecret = v
	}
	if v := os.Getenv("RAMPART_AUTH_TOKEN_EXPIRY"); v != "" {
		config.Auth.TokenExpiry = v
	}
	if v := os.Getenv("RAMPART_AUTH_GOOGLE_CLIENT_ID"); v != "" {
		config.Auth.Google.ClientID = v
	}
	if v := os.Getenv("RAMPART_AUTH_GOOGLE_CLIENT_SECRET"); v != "" {
		config.Auth.Google.ClientSecret = v
	}

	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		config.Clients.Gemini.APIKey = v
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ValidateRequired returns the list of production-required settings that are
// missing or left at insecure defaults. Empty means the config is deployable.
func (c *Config) ValidateRequired() []string {
	var missing []string

	if c.Auth.JWTSecret == "" || strings.Contains(c.Auth.JWTSecret, "change") {
		missing = append(missing, "auth.jwt_secret")
	}
	if c.Auth.Google.ClientID == "" {
		missing = append(missing, "auth.google.client_id")
	}
	if c.Auth.Google.ClientSecret == "" {
		missing = append(missing, "auth.google.client_secret")
	}
	if c.SiteURL == "" {
		missing = append(missing, "site_url")
	}

	return missing
}
