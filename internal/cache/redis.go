package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"hostel-backend/internal/config"
	"hostel-backend/internal/models"
)

// Rent report cache keys
const (
	keyPrefix         = "hostel:"
	OverdueKeyFmt     = keyPrefix + "rent:overdue:%d"
	overdueKeyPattern = keyPrefix + "rent:overdue:*"
)

// Connect opens the Redis client and pings it. On failure the client is
// closed and nil is returned so callers can run without a cache.
func Connect(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// RentCache caches per-admin rent reports in Redis. A nil client turns
// every call into a miss; Redis errors are logged and treated the same way.
type RentCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRentCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RentCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RentCache{client: client, ttl: ttl, logger: logger.Named("cache")}
}

func overdueKey(adminID int) string {
	return fmt.Sprintf(OverdueKeyFmt, adminID)
}

// GetOverdue returns the cached overdue report if available
func (c *RentCache) GetOverdue(ctx context.Context, adminID int) ([]models.OverdueEntry, bool) {
	if c.client == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, overdueKey(adminID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.Int("admin_id", adminID), zap.Error(err))
		}
		return nil, false
	}
	var entries []models.OverdueEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		c.logger.Warn("cache entry corrupt", zap.Int("admin_id", adminID), zap.Error(err))
		c.client.Del(ctx, overdueKey(adminID))
		return nil, false
	}
	return entries, true
}

// SetOverdue caches the overdue report for the configured TTL
func (c *RentCache) SetOverdue(ctx context.Context, adminID int, entries []models.OverdueEntry) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(entries)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.Int("admin_id", adminID), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, overdueKey(adminID), data, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.Int("admin_id", adminID), zap.Error(err))
	}
}

// Invalidate drops one admin's cached reports
func (c *RentCache) Invalidate(ctx context.Context, adminID int) {
	if c.client == nil {
		return
	}
	if err := c.client.Del(ctx, overdueKey(adminID)).Err(); err != nil {
		c.logger.Warn("cache invalidate failed", zap.Int("admin_id", adminID), zap.Error(err))
	}
}

// InvalidateAll clears every admin's cached reports
func (c *RentCache) InvalidateAll(ctx context.Context) {
	if c.client == nil {
		return
	}
	iter := c.client.Scan(ctx, 0, overdueKeyPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.logger.Warn("cache scan failed", zap.Error(err))
		return
	}
	if len(keys) > 0 {
		c.client.Del(ctx, keys...)
	}
}

// Ping reports whether Redis is reachable; used by the health check.
func (c *RentCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}
