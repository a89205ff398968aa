// Package config loads and validates runtime configuration at startup.
// Fail-fast: if a required variable is missing, Load returns an error and the
// process exits.
//
// Precedence, lowest first: built-in defaults, the optional YAML file named by
// CONFIG_FILE, then environment variables (a .env file is loaded if present).
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

// Config holds all runtime configuration for the API service.
type Config struct {
	Port     string `yaml:"port"`
	GRPCPort string `yaml:"grpc_port"`

	DatabaseURL string `yaml:"database_url"`
	RedisURL    string `yaml:"redis_url"` // empty disables event publishing

	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`

	CORSAllowedOrigins []string `yaml:"cors_allowed_origins"`
	RateLimitRPS       int      `yaml:"rate_limit_rps"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`

	AuditSchedule  string `yaml:"audit_schedule"`  // robfig/cron spec
	HealthSchedule string `yaml:"health_schedule"` // robfig/cron spec

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // "json" or "text"
}

func defaults() *Config {
	return &Config{
		Port:               "3001",
		GRPCPort:           "9090",
		TokenTTL:           time.Hour,
		CORSAllowedOrigins: []string{"http://localhost:5173"},
		RateLimitRPS:       20,
		RateLimitBurst:     40,
		AuditSchedule:      "@every 15m",
		HealthSchedule:     "@every 30s",
		LogLevel:           "info",
		LogFormat:          "json",
	}
}

// Load reads the optional config file and environment variables and returns
// a validated Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read CONFIG_FILE %q: %w", path, err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse CONFIG_FILE %q: %w", path, err)
		}
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFromEnv() error {
	setString(&c.Port, "API_PORT")
	setString(&c.GRPCPort, "GRPC_PORT")
	setString(&c.DatabaseURL, "DATABASE_URL")
	setString(&c.RedisURL, "REDIS_URL")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.AuditSchedule, "AUDIT_SCHEDULE")
	setString(&c.HealthSchedule, "HEALTH_SCHEDULE")
	setString(&c.LogLevel, "LOG_LEVEL")
	setString(&c.LogFormat, "LOG_FORMAT")

	if s := os.Getenv("TOKEN_TTL"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL must be a duration, got %q", s)
		}
		c.TokenTTL = d
	}
	if s := os.Getenv("CORS_ALLOWED_ORIGINS"); s != "" {
		c.CORSAllowedOrigins = splitList(s)
	}
	if err := setPositiveInt(&c.RateLimitRPS, "RATE_LIMIT_RPS"); err != nil {
		return err
	}
	return setPositiveInt(&c.RateLimitBurst, "RATE_LIMIT_BURST")
}

// Validate checks required settings.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	if c.Port == "" || c.GRPCPort == "" {
		return fmt.Errorf("API_PORT and GRPC_PORT must not be empty")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setPositiveInt(dst *int, key string) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 {
		return fmt.Errorf("%s must be a positive integer, got %q", key, s)
	}
	*dst = v
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
