package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultJWTSecret  = "dev-jwt-secret-change-me"
	defaultSessionKey = "dev-session-key-change-me-32byte"
)

// Config holds the application configuration.
type Config struct {
	ServerPort       int           `yaml:"port"`
	DatabasePath     string        `yaml:"database_path"`
	UploadsPath      string        `yaml:"uploads_path"`
	JWTSecret        string        `yaml:"jwt_secret"`
	SessionKey       string        `yaml:"session_key"` // Signs flash cookies and CSRF tokens
	SessionTTL       time.Duration `yaml:"session_ttl"`
	RememberTTL      time.Duration `yaml:"remember_ttl"`
	Environment      string        `yaml:"environment"`
	LogLevel         string        `yaml:"log_level"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	SessionPurgeSpec string        `yaml:"session_purge_spec"`
}

// IsProduction reports whether secure cookie settings must be used.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		ServerPort:       8080,
		DatabasePath:     "./socialnet.db",
		UploadsPath:      "./uploads",
		JWTSecret:        defaultJWTSecret,
		SessionKey:       defaultSessionKey,
		SessionTTL:       24 * time.Hour,
		RememberTTL:      30 * 24 * time.Hour,
		Environment:      "development",
		LogLevel:         "info",
		AllowedOrigins:   []string{"http://localhost:8080"},
		SessionPurgeSpec: "@every 1h",
	}
}

// Load loads configuration from defaults, an optional YAML file named by
// CONFIG_FILE, and finally environment variables.
func Load() (*Config, error) {
	return LoadFrom(getEnv("CONFIG_FILE", ""))
}

// LoadFrom is Load with an explicit YAML file. An empty path skips the file.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	portStr := getEnv("PORT", strconv.Itoa(c.ServerPort))
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("invalid PORT %q: %w", portStr, err)
	}
	c.ServerPort = port

	c.DatabasePath = getEnv("DATABASE_PATH", c.DatabasePath)
	c.UploadsPath = getEnv("UPLOADS_PATH", c.UploadsPath)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.SessionKey = getEnv("SESSION_KEY", c.SessionKey)
	c.Environment = getEnv("APP_ENV", c.Environment)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.SessionPurgeSpec = getEnv("SESSION_PURGE_SPEC", c.SessionPurgeSpec)

	if origins := getEnv("ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = strings.Split(origins, ",")
	}

	if c.SessionTTL, err = getDuration("SESSION_TTL", c.SessionTTL); err != nil {
		return err
	}
	if c.RememberTTL, err = getDuration("REMEMBER_TTL", c.RememberTTL); err != nil {
		return err
	}
	return nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.ServerPort <= 0 || c.ServerPort > 65535 {
		return fmt.Errorf("port %d out of range", c.ServerPort)
	}
	if c.SessionTTL <= 0 || c.RememberTTL < c.SessionTTL {
		return errors.New("remember_ttl must be at least session_ttl and both positive")
	}
	if len(c.SessionKey) != 32 {
		return errors.New("session_key must be exactly 32 bytes")
	}
	if c.IsProduction() && (c.JWTSecret == defaultJWTSecret || c.SessionKey == defaultSessionKey) {
		return errors.New("default secrets are not allowed in production")
	}
	return nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	return d, nil
}
