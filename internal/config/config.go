// Package config resolves runtime settings from, in increasing precedence:
// built-in defaults, an optional TOML file, and environment variables. A
// .env file in the working directory is loaded into the environment first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config is the full runtime configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Store   StoreConfig   `toml:"store"`
	Gemini  GeminiConfig  `toml:"gemini"`
	Session SessionConfig `toml:"session"`
	Log     LogConfig     `toml:"log"`
}

type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

type StoreConfig struct {
	// Path to the SQLite database file. Empty means in-memory only.
	Path string `toml:"path"`
}

type GeminiConfig struct {
	Model string `toml:"model"`
}

type SessionConfig struct {
	// TTL is how long an idle chat session stays resident, e.g. "30m".
	TTL string `toml:"ttl"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store:   StoreConfig{Path: "baro.db"},
		Gemini:  GeminiConfig{Model: "gemini-2.0-flash"},
		Session: SessionConfig{TTL: "30m"},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration. path may be empty; a missing file is not an
// error, a malformed one is.
func Load(path string) (*Config, error) {
	// Missing .env is the normal case outside development.
	_ = godotenv.Load()

	cfg := DefaultConfig()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("Load: decode %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()

	if _, err := cfg.SessionTTL(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BARO_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("BARO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("BARO_DB_PATH"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("BARO_GEMINI_MODEL"); v != "" {
		c.Gemini.Model = v
	}
	if v := os.Getenv("BARO_SESSION_TTL"); v != "" {
		c.Session.TTL = v
	}
	if v := os.Getenv("BARO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// SessionTTL parses the session TTL setting.
func (c *Config) SessionTTL() (time.Duration, error) {
	d, err := time.ParseDuration(c.Session.TTL)
	if err != nil {
		return 0, fmt.Errorf("invalid session ttl %q: %w", c.Session.TTL, err)
	}
	return d, nil
}
