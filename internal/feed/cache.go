package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/reeled/internal/ranking"
)

// DefaultCacheTTL bounds how stale cached like and view counts can get.
const DefaultCacheTTL = 30 * time.Second

// CandidateCache stores the user-independent candidate list between requests.
type CandidateCache interface {
	// Get reports ok=false on a miss.
	Get(ctx context.Context) (items []ranking.FeedItem, ok bool, err error)
	Set(ctx context.Context, items []ranking.FeedItem) error
	Invalidate(ctx context.Context) error
}

// NoopCache never stores anything.
type NoopCache struct{}

func (NoopCache) Get(context.Context) ([]ranking.FeedItem, bool, error) { return nil, false, nil }
func (NoopCache) Set(context.Context, []ranking.FeedItem) error         { return nil }
func (NoopCache) Invalidate(context.Context) error                      { return nil }

// RedisCandidateCache keeps candidates as one JSON value with a TTL, shared by
// all API replicas.
type RedisCandidateCache struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
}

// NewRedisCandidateCache creates a Redis-backed cache. A non-positive ttl uses DefaultCacheTTL.
func NewRedisCandidateCache(client redis.UniversalClient, ttl time.Duration) *RedisCandidateCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCandidateCache{
		client: client,
		key:    "feed:candidates:v1",
		ttl:    ttl,
	}
}

func (c *RedisCandidateCache) Get(ctx context.Context) ([]ranking.FeedItem, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var items []ranking.FeedItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, false, fmt.Errorf("decode cached candidates: %w", err)
	}
	return items, true, nil
}

func (c *RedisCandidateCache) Set(ctx context.Context, items []ranking.FeedItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode candidates: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (c *RedisCandidateCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
