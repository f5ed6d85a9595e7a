package feed

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/onnwee/reeled/internal/ranking"
)

func TestNoopCache(t *testing.T) {
	var c NoopCache
	if err := c.Set(context.Background(), []ranking.FeedItem{{ReelID: "r"}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if _, ok, err := c.Get(context.Background()); ok || err != nil {
		t.Errorf("Get() = ok %t, err %v; want miss", ok, err)
	}
}

func TestRedisCandidateCache_Unavailable(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	c := NewRedisCandidateCache(client, 0)
	if c.ttl != DefaultCacheTTL {
		t.Errorf("expected default TTL, got %s", c.ttl)
	}
	if _, _, err := c.Get(context.Background()); err == nil {
		t.Error("expected an error from an unreachable Redis")
	}
	if err := c.Set(context.Background(), nil); err == nil {
		t.Error("expected an error from an unreachable Redis")
	}
}

// TestRedisCandidateCache_RoundTrip requires a Redis instance on localhost:6379 and skips otherwise.
func TestRedisCandidateCache_RoundTrip(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	c := NewRedisCandidateCache(client, time.Minute)
	c.key = "feed:candidates:test:" + time.Now().Format(time.RFC3339Nano)
	defer client.Del(context.Background(), c.key)

	if _, ok, err := c.Get(ctx); ok || err != nil {
		t.Fatalf("expected an initial miss, got ok %t err %v", ok, err)
	}

	rate := 0.4
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	items := []ranking.FeedItem{{ReelID: "r1", CourseID: "c1", CompletionRate: &rate, CreatedAt: &created, LikesCount: 3}}
	if err := c.Set(ctx, items); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx)
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("Get() = %v, %t, %v", got, ok, err)
	}
	if *got[0].CompletionRate != rate || !got[0].CreatedAt.Equal(created) {
		t.Errorf("cached item did not round-trip: %+v", got[0])
	}

	if err := c.Invalidate(ctx); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, ok, _ := c.Get(ctx); ok {
		t.Error("expected a miss after Invalidate")
	}
}
