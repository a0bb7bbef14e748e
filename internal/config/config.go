// Package config provides YAML-based configuration loading for the SteelTrack service.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ironpoint/steeltrack-backend/internal/platform/envutil"
)

// Config is the top-level service configuration, loaded from steeltrack.yaml
// with environment variables taking precedence over file values.
type Config struct {
	LogMode  string         `yaml:"log_mode"`
	HTTPPort string         `yaml:"http_port"`
	Identity IdentityConfig `yaml:"identity"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
}

// IdentityConfig holds the shared key used to check identity assertions
// minted by the external identity service.
type IdentityConfig struct {
	SharedKey string `yaml:"shared_key"`
	Issuer    string `yaml:"issuer"`
}

// PostgresConfig holds connection settings for the primary database.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// RedisConfig holds settings for the broadcast bus.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

// Load reads an optional YAML config file and applies env overrides. A missing
// file is not an error; env vars alone are a complete configuration.
func Load(path string) (*Config, error) {
	var cfg Config
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("config: parse %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// Parse unmarshals YAML bytes into a Config with defaults applied. Env vars
// are not consulted; used by tests and tooling.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.HTTPPort = envutil.String("PORT", c.HTTPPort)
	c.Identity.SharedKey = envutil.String("IDENTITY_SHARED_KEY", c.Identity.SharedKey)
	c.Identity.Issuer = envutil.String("IDENTITY_ISSUER", c.Identity.Issuer)
	c.Postgres.Host = envutil.String("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = envutil.String("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = envutil.String("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = envutil.String("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.Name = envutil.String("POSTGRES_NAME", c.Postgres.Name)
	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Channel = envutil.String("REDIS_CHANNEL", c.Redis.Channel)
}

func (c *Config) applyDefaults() {
	if c.LogMode == "" {
		c.LogMode = "development"
	}
	if c.HTTPPort == "" {
		c.HTTPPort = "8080"
	}
	if c.Identity.Issuer == "" {
		c.Identity.Issuer = "steeltrack-identity"
	}
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == "" {
		c.Postgres.Port = "5432"
	}
	if c.Postgres.User == "" {
		c.Postgres.User = "postgres"
	}
	if c.Postgres.Name == "" {
		c.Postgres.Name = "steeltrack"
	}
	if c.Redis.Channel == "" {
		c.Redis.Channel = "transitions"
	}
}

// DSN renders the Postgres connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		p.User, p.Password, p.Host, p.Port, p.Name)
}
