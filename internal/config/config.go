package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const defaultPath = "config.yaml"

type ServerConfig struct {
	Host    string `yaml:"host"`
	Port    string `yaml:"port"`
	Prefork bool   `yaml:"prefork"`
}

type LimitsConfig struct {
	MaxBodyBytes     int `yaml:"max_body_bytes"`
	MaxTemplateBytes int `yaml:"max_template_bytes"`
}

type LoggerConfig struct {
	File       string `yaml:"file"`
	Level      string `yaml:"level"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// CacheConfig controls Redis usage. RedisHost is shared by the field-list
// cache and the rate limiter store.
type CacheConfig struct {
	Enabled     bool          `yaml:"enabled"`
	TTL         time.Duration `yaml:"ttl"`
	RedisHost   string        `yaml:"redis_host"`
	FieldsDB    int           `yaml:"redis_fields_db"`
	RateLimitDB int           `yaml:"redis_rate_db"`
}

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	Enabled        bool           `yaml:"enabled"`
	ReloadInterval time.Duration  `yaml:"reload_interval"`
	Postgres       PostgresConfig `yaml:"postgres"`
}

type RateLimiterConfig struct {
	Interval          time.Duration `yaml:"interval"`
	EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	UserLimit         int           `yaml:"user_limit"`
}

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Limits      LimitsConfig      `yaml:"limits"`
	Logger      LoggerConfig      `yaml:"logger"`
	Cache       CacheConfig       `yaml:"cache"`
	Auth        AuthConfig        `yaml:"auth"`
	RateLimiter RateLimiterConfig `yaml:"rate_limiter"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: ":8000"},
		Limits: LimitsConfig{
			MaxBodyBytes:     32 << 20,
			MaxTemplateBytes: 20 << 20,
		},
		Logger: LoggerConfig{Level: "info", MaxSizeMB: 10, MaxBackups: 3, MaxAgeDays: 7},
		Cache:  CacheConfig{TTL: 10 * time.Minute, FieldsDB: 1},
		Auth: AuthConfig{
			ReloadInterval: time.Minute,
			Postgres:       PostgresConfig{Port: 5432, SSLMode: "disable"},
		},
		RateLimiter: RateLimiterConfig{Interval: time.Minute},
	}
}

// Load reads a .env file if present, then the YAML file named by CONFIG_PATH
// (or ./config.yaml). Without a file the defaults are used. PORT overrides
// server.port.
func Load() Config {
	_ = godotenv.Load()

	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return LoadFrom(p)
	}
	if _, err := os.Stat(defaultPath); err == nil {
		return LoadFrom(defaultPath)
	}

	cfg := Defaults()
	applyEnv(&cfg)
	if err := validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

// LoadFrom reads the YAML file at path over the defaults. It panics if the
// file cannot be read or holds invalid values.
func LoadFrom(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("failed to read config file %q: %v", path, err))
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse config file %q: %v", path, err))
	}

	applyEnv(&cfg)
	if err := validate(cfg); err != nil {
		panic(err)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv("PORT")); v != "" {
		cfg.Server.Port = ":" + strings.TrimPrefix(v, ":")
	}
}

func validate(cfg Config) error {
	port, err := strconv.Atoi(strings.TrimPrefix(cfg.Server.Port, ":"))
	if err != nil || port < 0 || port > 65535 {
		return fmt.Errorf("config: invalid server.port %q", cfg.Server.Port)
	}
	if cfg.Limits.MaxBodyBytes <= 0 {
		return fmt.Errorf("config: limits.max_body_bytes must be positive")
	}
	if cfg.Limits.MaxTemplateBytes <= 0 {
		return fmt.Errorf("config: limits.max_template_bytes must be positive")
	}
	if cfg.Cache.Enabled {
		if cfg.Cache.RedisHost == "" {
			return fmt.Errorf("config: cache.redis_host is required when cache is enabled")
		}
		if cfg.Cache.TTL <= 0 {
			return fmt.Errorf("config: cache.ttl must be positive")
		}
	}
	if cfg.Auth.Enabled {
		if cfg.Auth.Postgres.Host == "" {
			return fmt.Errorf("config: auth.postgres.host is required when auth is enabled")
		}
		if cfg.Auth.ReloadInterval <= 0 {
			return fmt.Errorf("config: auth.reload_interval must be positive")
		}
	}
	if cfg.RateLimiter.UserLimit < 0 {
		return fmt.Errorf("config: rate_limiter.user_limit must not be negative")
	}
	if cfg.RateLimiter.Interval <= 0 {
		return fmt.Errorf("config: rate_limiter.interval must be positive")
	}
	return nil
}
