// Package config loads runtime settings from config.toml and BARPOS_* env vars.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "BARPOS"

// Config holds all application configuration.
type Config struct {
	App      AppConfig
	Log      LogConfig
	Database DatabaseConfig
}

// AppConfig holds application-specific settings.
type AppConfig struct {
	Name string
	Env  string
}

// IsDevelopment reports whether the app runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Env == "development"
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level string
}

// DatabaseConfig holds PostgreSQL settings. An empty URL selects the in-memory store.
type DatabaseConfig struct {
	URL              string
	MaxConns         int32
	MinConns         int32
	StatementTimeout time.Duration
}

// InMemory reports whether no database is configured.
func (c DatabaseConfig) InMemory() bool {
	return c.URL == ""
}

// Load reads configuration. Priority, highest first:
// BARPOS_ environment variables, config.toml, built-in defaults.
func Load(paths ...string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("toml")
	if len(paths) == 0 {
		paths = []string{"."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
		Database: DatabaseConfig{
			URL:              v.GetString("database.url"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "barpos")
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 1)
	v.SetDefault("database.statement_timeout", 30*time.Second)
}

// Validate checks the loaded values.
func (c *Config) Validate() error {
	switch c.App.Env {
	case "development", "production", "test":
	default:
		return fmt.Errorf("app.env must be development, production or test, got %q", c.App.Env)
	}
	if c.Database.MaxConns <= 0 {
		return fmt.Errorf("database.max_conns must be positive")
	}
	if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
		return fmt.Errorf("database.min_conns must be between 0 and max_conns")
	}
	if c.Database.StatementTimeout < 0 {
		return fmt.Errorf("database.statement_timeout cannot be negative")
	}
	return nil
}
