package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shelfwatch/backend-go/internal/config"
	"github.com/shelfwatch/backend-go/internal/domain"
)

const (
	timelineKeyPrefix     = "timeline:merged"
	timelineScanBatchSize = 100
)

// TimelineCache memoizes computed timelines. The merge itself is a pure
// function of its inputs, so a short-TTL cache keyed by product and day is
// safe; any mutation path invalidates the product's entries.
type TimelineCache interface {
	Get(ctx context.Context, productCode string, day time.Time) (*domain.Timeline, bool, error)
	Set(ctx context.Context, productCode string, day time.Time, timeline *domain.Timeline) error
	Invalidate(ctx context.Context, productCode string) error
	InvalidateAll(ctx context.Context) error
}

type redisTimelineCache struct {
	client *redis.Client
	ttl    time.Duration
}

type noopTimelineCache struct{}

func NewTimelineCache(cfg config.CacheConfig) (TimelineCache, error) {
	if !cfg.Enabled {
		return &noopTimelineCache{}, nil
	}

	client, ttl, err := connectRedis(cfg)
	if err != nil {
		return nil, err
	}

	return &redisTimelineCache{
		client: client,
		ttl:    ttl,
	}, nil
}

func NewNoopTimelineCache() TimelineCache {
	return &noopTimelineCache{}
}

func (c *redisTimelineCache) Get(ctx context.Context, productCode string, day time.Time) (*domain.Timeline, bool, error) {
	key := buildTimelineKey(productCode, day)

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var timeline domain.Timeline
	if err := json.Unmarshal(payload, &timeline); err != nil {
		return nil, false, fmt.Errorf("decode timeline cache: %w", err)
	}

	return &timeline, true, nil
}

func (c *redisTimelineCache) Set(ctx context.Context, productCode string, day time.Time, timeline *domain.Timeline) error {
	key := buildTimelineKey(productCode, day)
	payload, err := json.Marshal(timeline)
	if err != nil {
		return fmt.Errorf("encode timeline cache: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *redisTimelineCache) Invalidate(ctx context.Context, productCode string) error {
	prefix := fmt.Sprintf("%s:%s:", timelineKeyPrefix, productKeyHash(productCode))
	return dropKeysByPrefix(ctx, c.client, prefix, timelineScanBatchSize)
}

func (c *redisTimelineCache) InvalidateAll(ctx context.Context) error {
	return dropKeysByPrefix(ctx, c.client, timelineKeyPrefix, timelineScanBatchSize)
}

func (n *noopTimelineCache) Get(ctx context.Context, productCode string, day time.Time) (*domain.Timeline, bool, error) {
	return nil, false, nil
}

func (n *noopTimelineCache) Set(ctx context.Context, productCode string, day time.Time, timeline *domain.Timeline) error {
	return nil
}

func (n *noopTimelineCache) Invalidate(ctx context.Context, productCode string) error {
	return nil
}

func (n *noopTimelineCache) InvalidateAll(ctx context.Context) error {
	return nil
}

func buildTimelineKey(productCode string, day time.Time) string {
	return fmt.Sprintf("%s:%s:%s", timelineKeyPrefix, productKeyHash(productCode), domain.CivilDate(day).Format("2006-01-02"))
}

func productKeyHash(productCode string) string {
	normalized := strings.ToLower(strings.TrimSpace(productCode))
	sum := sha1.Sum([]byte(normalized))
	return hex.EncodeToString(sum[:])
}
