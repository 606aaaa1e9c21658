// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// JWTConfig provides JWT validation settings for middleware.
type JWTConfig interface {
	GetJWTAccessSecret() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// RedisConfig provides the Redis connection used by caches.
type RedisConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
}

// SchedulerConfig provides settings for the asynq client and worker.
type SchedulerConfig interface {
	RedisConfig
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
	GetOnboardingSweepCron() string
}

// OnboardingConfig provides tuning for the onboarding dashboard.
type OnboardingConfig interface {
	GetOnboardingStatsCacheTTL() time.Duration
}

// EmailConfig provides settings for SMTP delivery.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromName() string
	GetEmailFromAddress() string
	GetAppBaseURL() string
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	JWTAccessSecret         string
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	RedisURL                string
	RedisTLSInsecure        bool
	AsynqQueueName          string
	AsynqConcurrency        int
	OnboardingSweepCron     string
	OnboardingStatsCacheTTL time.Duration
	EmailEnabled            bool
	SMTPHost                string
	SMTPPort                int
	SMTPUsername            string
	SMTPPassword            string
	EmailFromName           string
	EmailFromAddress        string
	AppBaseURL              string
}

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// JWTConfig implementation
func (c *Config) GetJWTAccessSecret() string { return c.JWTAccessSecret }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// RedisConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }

// SchedulerConfig implementation
func (c *Config) GetAsynqQueueName() string      { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int       { return c.AsynqConcurrency }
func (c *Config) GetOnboardingSweepCron() string { return c.OnboardingSweepCron }

// OnboardingConfig implementation
func (c *Config) GetOnboardingStatsCacheTTL() time.Duration { return c.OnboardingStatsCacheTTL }

// EmailConfig implementation
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromName() string    { return c.EmailFromName }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }
func (c *Config) GetAppBaseURL() string       { return c.AppBaseURL }

// Load reads configuration from environment variables, after loading .env if present.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from the given lookup function.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, fallback string) string {
		if val, ok := lookup(key); ok {
			return val
		}
		return fallback
	}

	corsOrigins := splitCSV(get("CORS_ORIGINS", "http://localhost:3000"))
	corsAllowAll := strings.EqualFold(get("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	smtpHost := get("SMTP_HOST", "")
	emailEnabled := strings.EqualFold(get("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:                     get("APP_ENV", "development"),
		HTTPAddr:                get("HTTP_ADDR", ":8080"),
		DatabaseURL:             get("DATABASE_URL", ""),
		JWTAccessSecret:         get("JWT_ACCESS_SECRET", ""),
		CORSAllowAll:            corsAllowAll,
		CORSOrigins:             corsOrigins,
		CORSAllowCreds:          strings.EqualFold(get("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		RedisURL:                get("REDIS_URL", ""),
		RedisTLSInsecure:        strings.EqualFold(get("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:          get("ASYNQ_QUEUE", "default"),
		AsynqConcurrency:        mustInt(get("ASYNQ_CONCURRENCY", "10")),
		OnboardingSweepCron:     get("ONBOARDING_SWEEP_CRON", "0 8 * * *"),
		OnboardingStatsCacheTTL: mustDuration(get("ONBOARDING_STATS_CACHE_TTL", "24h")),
		EmailEnabled:            emailEnabled && smtpHost != "",
		SMTPHost:                smtpHost,
		SMTPPort:                mustInt(get("SMTP_PORT", "587")),
		SMTPUsername:            get("SMTP_USERNAME", ""),
		SMTPPassword:            get("SMTP_PASSWORD", ""),
		EmailFromName:           get("EMAIL_FROM_NAME", "INMOVA"),
		EmailFromAddress:        get("EMAIL_FROM_ADDRESS", ""),
		AppBaseURL:              get("APP_BASE_URL", "http://localhost:3000"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTAccessSecret == "" {
		return nil, fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if emailEnabled && smtpHost == "" {
		return nil, fmt.Errorf("SMTP_HOST is required when EMAIL_ENABLED is true")
	}
	if cfg.EmailEnabled && cfg.EmailFromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when email is enabled")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
