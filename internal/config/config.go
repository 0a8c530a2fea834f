package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	State     StateConfig     `yaml:"state"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	DevUser   DevUserConfig   `yaml:"dev_user"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// StateConfig locates local durable state (the completion ledger database).
type StateConfig struct {
	Dir string `yaml:"dir"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

// DevUserConfig is the identity used when Tailscale is disabled.
type DevUserConfig struct {
	Login       string `yaml:"login"`
	DisplayName string `yaml:"display_name"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Load reads config from a YAML file, then applies environment variable
// overrides. Env vars use the prefix GYMTRACK_ and underscore-separated paths:
//
//	GYMTRACK_SERVER_HOST, GYMTRACK_SERVER_PORT,
//	GYMTRACK_DB_HOST, GYMTRACK_DB_PORT, GYMTRACK_DB_NAME,
//	GYMTRACK_DB_USER, GYMTRACK_DB_PASSWORD, GYMTRACK_DB_SSLMODE,
//	GYMTRACK_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GYMTRACK_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("GYMTRACK_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("GYMTRACK_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("GYMTRACK_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("GYMTRACK_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("GYMTRACK_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("GYMTRACK_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("GYMTRACK_DB_SSLMODE"); v != "" {
		cfg.Database.SSLMode = v
	}
	if v := os.Getenv("GYMTRACK_STATE_DIR"); v != "" {
		cfg.State.Dir = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.State.Dir == "" {
		cfg.State.Dir = "./state"
	}
	if cfg.DevUser.Login == "" {
		cfg.DevUser.Login = "local"
	}
	if cfg.DevUser.DisplayName == "" {
		cfg.DevUser.DisplayName = "Local Dev User"
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 && !c.Tailscale.Enabled {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	return nil
}
