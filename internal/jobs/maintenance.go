package jobs

import (
	"context"
	"time"
)

// Default maintenance intervals.
const (
	DefaultStoryExpiryInterval      = 15 * time.Minute
	DefaultRateLimitCleanupInterval = 5 * time.Minute
)

// ExpiredStoryPurger deletes stories whose lifetime has ended.
type ExpiredStoryPurger interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// StoryExpiry returns a job that purges expired stories.
func StoryExpiry(stories ExpiredStoryPurger, interval time.Duration) Job {
	if interval <= 0 {
		interval = DefaultStoryExpiryInterval
	}
	return Job{
		Type:     JobTypeStoryExpiry,
		Interval: interval,
		Run: func(ctx context.Context) (int64, error) {
			return stories.DeleteExpired(ctx, time.Now().UTC())
		},
	}
}

// BucketCleaner drops expired in-process rate limit windows.
type BucketCleaner interface {
	Cleanup()
}

// RateLimitCleanup returns a job that prunes an in-memory rate limit store.
func RateLimitCleanup(store BucketCleaner, interval time.Duration) Job {
	if interval <= 0 {
		interval = DefaultRateLimitCleanupInterval
	}
	return Job{
		Type:     JobTypeRateLimitCleanup,
		Interval: interval,
		Run: func(context.Context) (int64, error) {
			store.Cleanup()
			return 0, nil
		},
	}
}
