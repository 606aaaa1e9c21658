// Package cache provides the shared Redis connection.
// This is part of the platform layer and contains no business logic.
package cache

import (
	"context"
	"crypto/tls"
	"fmt"

	"inmova_backend/platform/config"

	"github.com/redis/go-redis/v9"
)

// ParseOptions parses a redis:// or rediss:// URL. tlsInsecure skips
// certificate verification, and forces TLS on plain redis:// URLs.
func ParseOptions(redisURL string, tlsInsecure bool) (*redis.Options, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	if opt.TLSConfig != nil {
		clone := opt.TLSConfig.Clone()
		if tlsInsecure {
			clone.InsecureSkipVerify = true
		}
		opt.TLSConfig = clone
	} else if tlsInsecure {
		opt.TLSConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return opt, nil
}

// NewClient connects to Redis and verifies the connection with a PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	opt, err := ParseOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// HealthCheck adapts a Redis client to the readiness checker interface.
type HealthCheck struct {
	client redis.Cmdable
}

func NewHealthCheck(client redis.Cmdable) HealthCheck {
	return HealthCheck{client: client}
}

// Ping reports whether Redis answers a PING.
func (h HealthCheck) Ping(ctx context.Context) error {
	return h.client.Ping(ctx).Err()
}
