// Package config handles the configuration directory, config file and paths.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "taskboard"

	// ConfigFile is the config file name (without extension) inside Dir.
	ConfigFile = "config"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// UserFile stores the id of the local CLI user.
	UserFile = "user"

	// DatabaseFile is the default SQLite database filename.
	DatabaseFile = "taskboard.db"

	// EnvPrefix prefixes environment overrides, e.g. TASKBOARD_JWT_SECRET.
	EnvPrefix = "TASKBOARD"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	Listen   string
	Database string

	JWTSecret string
	JWTTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	RedisURL string
	RedisTTL time.Duration

	SyncTimeout time.Duration

	LogLevel string
	LogFile  string
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskboard or $HOME/.config/taskboard.
// Values come from Dir/config.yaml (optional), TASKBOARD_* env vars and defaults.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName(ConfigFile)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen", ":8080")
	v.SetDefault("database", filepath.Join(dir, DatabaseFile))
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "http://localhost:8080/api/auth/callback/google")
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.ttl", "5m")
	v.SetDefault("sync.timeout", "5s")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Dir:                dir,
		Listen:             v.GetString("listen"),
		Database:           v.GetString("database"),
		JWTSecret:          v.GetString("jwt.secret"),
		JWTTTL:             v.GetDuration("jwt.ttl"),
		GoogleClientID:     v.GetString("google.client_id"),
		GoogleClientSecret: v.GetString("google.client_secret"),
		GoogleRedirectURL:  v.GetString("google.redirect_url"),
		RedisURL:           v.GetString("redis.url"),
		RedisTTL:           v.GetDuration("redis.ttl"),
		SyncTimeout:        v.GetDuration("sync.timeout"),
		LogLevel:           v.GetString("log.level"),
		LogFile:            v.GetString("log.file"),
	}
	if cfg.SyncTimeout <= 0 {
		return nil, fmt.Errorf("invalid sync.timeout: must be greater than zero")
	}
	if cfg.JWTTTL <= 0 {
		return nil, fmt.Errorf("invalid jwt.ttl: must be greater than zero")
	}
	return cfg, nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// UserPath returns the path to the local user id file.
func (c *Config) UserPath() string {
	return filepath.Join(c.Dir, UserFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasGoogleCredentials reports whether OAuth client credentials are available
// from either oauth_client.json or the google.* settings.
func (c *Config) HasGoogleCredentials() bool {
	return c.HasOAuthClient() || (c.GoogleClientID != "" && c.GoogleClientSecret != "")
}

// LocalUserID returns the id of the CLI's local user, or "" if none exists yet.
func (c *Config) LocalUserID() string {
	data, err := os.ReadFile(c.UserPath())
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// SaveLocalUserID records the CLI's local user id with mode 0600.
func (c *Config) SaveLocalUserID(id string) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	return os.WriteFile(c.UserPath(), []byte(id+"\n"), 0600)
}
