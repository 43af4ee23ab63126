package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the taskboard configuration shared by the server and the TUI
type Config struct {
	Env    string       `yaml:"env"`
	Server ServerConfig `yaml:"server"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr       string `yaml:"addr"`
	CORSOrigin string `yaml:"cors_origin"`
}

// DBConfig selects and configures the record store
type DBConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path"`   // sqlite file; empty means the XDG default
	DSN    string `yaml:"dsn"`    // postgres connection string
}

// LogConfig configures zap
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // TUI debug log; empty disables it
}

// ClientConfig configures the TUI's API client
type ClientConfig struct {
	APIURL string `yaml:"api_url"`
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Env:    "production",
		Server: ServerConfig{Addr: ":3001", CORSOrigin: "*"},
		DB:     DBConfig{Driver: DriverSQLite},
		Log:    LogConfig{Level: "info"},
		Client: ClientConfig{APIURL: "http://localhost:3001/api"},
	}
}

// Load reads path over the defaults and then applies environment overrides.
// A missing file is not an error; an empty path skips the file.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	OverrideFromEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects settings the binaries cannot start with
func (c Config) Validate() error {
	switch c.DB.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if c.DB.DSN == "" {
			return errors.New("config: db.dsn is required for the postgres driver")
		}
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DB.Driver)
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	return nil
}

// Development reports whether diagnostics may be exposed
func (c Config) Development() bool {
	return c.Env == "development"
}

// Path returns the config file path from TASKBOARD_CONFIG, or fallback
func Path(fallback string) string {
	if p := os.Getenv("TASKBOARD_CONFIG"); p != "" {
		return p
	}
	return fallback
}
