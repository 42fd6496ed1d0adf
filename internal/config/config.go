package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
	Auth      AuthConfig      `yaml:"auth"`
	Portals   PortalsConfig   `yaml:"portals"`
	Sync      SyncConfig      `yaml:"sync"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// TransportConfig selects how the MCP surface is exposed: "http" serves the
// dashboard, the JSON API and /mcp; "stdio" runs only the MCP server on stdin/stdout.
type TransportConfig struct {
	Mode string `yaml:"mode"`
}

// AuthConfig controls bearer-token authentication and the bootstrap super user.
type AuthConfig struct {
	Enabled        bool   `yaml:"enabled"`
	SuperEmail     string `yaml:"super_email"`
	BootstrapToken string `yaml:"bootstrap_token"`
}

type PortalsConfig struct {
	Path string `yaml:"path"`
}

// SyncConfig points at the workbook imported by the order sync endpoint.
type SyncConfig struct {
	Source string `yaml:"source"`
	Sheet  string `yaml:"sheet"`
}

// NATSConfig enables order event publishing when URL is set.
type NATSConfig struct {
	URL string `yaml:"url"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "logitrack.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "http",
		},
		Auth: AuthConfig{
			Enabled:    true,
			SuperEmail: "admin@localhost",
		},
		Portals: PortalsConfig{
			Path: "portales.json",
		},
		Sync: SyncConfig{
			Source: "General.xlsx",
			Sheet:  "General",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}

	if path := os.Getenv("LOGITRACK_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	if cfg.Transport.Mode != "http" && cfg.Transport.Mode != "stdio" {
		return Config{}, fmt.Errorf("invalid transport mode %q", cfg.Transport.Mode)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if host := os.Getenv("LOGITRACK_SERVER_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if portStr := os.Getenv("LOGITRACK_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid LOGITRACK_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if dbPath := os.Getenv("LOGITRACK_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("LOGITRACK_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if mode := os.Getenv("LOGITRACK_TRANSPORT"); mode != "" {
		cfg.Transport.Mode = mode
	}
	if enabled := os.Getenv("LOGITRACK_AUTH_ENABLED"); enabled != "" {
		v, err := strconv.ParseBool(enabled)
		if err != nil {
			return fmt.Errorf("invalid LOGITRACK_AUTH_ENABLED: %w", err)
		}
		cfg.Auth.Enabled = v
	}
	if email := os.Getenv("LOGITRACK_SUPER_EMAIL"); email != "" {
		cfg.Auth.SuperEmail = email
	}
	if token := os.Getenv("LOGITRACK_BOOTSTRAP_TOKEN"); token != "" {
		cfg.Auth.BootstrapToken = token
	}
	if path := os.Getenv("LOGITRACK_PORTALS_PATH"); path != "" {
		cfg.Portals.Path = path
	}
	if source := os.Getenv("LOGITRACK_SYNC_SOURCE"); source != "" {
		cfg.Sync.Source = source
	}
	if url := os.Getenv("LOGITRACK_NATS_URL"); url != "" {
		cfg.NATS.URL = url
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
