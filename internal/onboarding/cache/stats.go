// Package cache keeps the last good onboarding stats per filter in Redis,
// so the dashboard can fall back to them when the stats pass fails.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"inmova_backend/internal/onboarding/progress"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "onboarding:stats:"

// ErrMiss is returned when no stats are cached for the filter.
var ErrMiss = errors.New("stats not cached")

// StatsCache stores stats as JSON with a TTL.
type StatsCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewStatsCache returns a cache over client. A zero ttl keeps entries forever.
func NewStatsCache(client redis.Cmdable, ttl time.Duration) *StatsCache {
	return &StatsCache{client: client, ttl: ttl}
}

// Key identifies a filter. Search is case-insensitive, so is the key.
func Key(status, search string) string {
	sum := sha256.Sum256([]byte(status + "\x00" + strings.ToLower(strings.TrimSpace(search))))
	return keyPrefix + hex.EncodeToString(sum[:8])
}

type entry struct {
	Stats    progress.Stats `json:"stats"`
	CachedAt time.Time      `json:"cachedAt"`
}

// Get returns the cached stats and when they were stored.
func (c *StatsCache) Get(ctx context.Context, key string) (progress.Stats, time.Time, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return progress.Stats{}, time.Time{}, ErrMiss
	}
	if err != nil {
		return progress.Stats{}, time.Time{}, err
	}

	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return progress.Stats{}, time.Time{}, err
	}
	return e.Stats, e.CachedAt, nil
}

// Set stores stats for key.
func (c *StatsCache) Set(ctx context.Context, key string, stats progress.Stats, at time.Time) error {
	raw, err := json.Marshal(entry{Stats: stats, CachedAt: at.UTC()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
