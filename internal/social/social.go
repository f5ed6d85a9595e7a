// Package social provides likes, saved reels and follows, all with toggle semantics.
package social

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Errors returned by the social service.
var (
	ErrSelfFollow    = errors.New("cannot follow yourself")
	ErrUnknownTarget = errors.New("referenced user or reel does not exist")
)

// Save records a reel bookmarked by a user.
type Save struct {
	UserID    string    `json:"userId"`
	ReelID    string    `json:"reelId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SocialRepository stores the like, save and follow edges.
// Each Toggle method flips one edge atomically and reports the new state.
type SocialRepository interface {
	ToggleLike(ctx context.Context, userID, reelID string) (liked bool, err error)
	IsLiked(ctx context.Context, userID, reelID string) (bool, error)
	LikedReelIDs(ctx context.Context, userID string) ([]string, error)

	ToggleSave(ctx context.Context, userID, reelID string) (saved bool, err error)
	// ListSaved returns a user's saves, newest first.
	ListSaved(ctx context.Context, userID string) ([]Save, error)

	ToggleFollow(ctx context.Context, followerID, followingID string) (following bool, err error)
	IsFollowing(ctx context.Context, followerID, followingID string) (bool, error)
	FollowingIDs(ctx context.Context, userID string) ([]string, error)
}

// ReelCounter keeps denormalized like counts on reels.
type ReelCounter interface {
	AdjustReelLikes(ctx context.Context, reelID string, delta int) error
}

// FollowCounter keeps denormalized follower/following counts on users.
type FollowCounter interface {
	AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) error
}

// Service applies toggles and keeps the counters in step.
type Service struct {
	repo    SocialRepository
	reels   ReelCounter
	users   FollowCounter
	metrics *Metrics
}

// NewService creates a social service. metrics may be nil.
func NewService(repo SocialRepository, reels ReelCounter, users FollowCounter, metrics *Metrics) *Service {
	return &Service{repo: repo, reels: reels, users: users, metrics: metrics}
}

// Repository exposes the underlying edge store for read paths.
func (s *Service) Repository() SocialRepository {
	return s.repo
}

func delta(on bool) int {
	if on {
		return 1
	}
	return -1
}

// ToggleLike likes or unlikes a reel and adjusts its like count.
func (s *Service) ToggleLike(ctx context.Context, userID, reelID string) (bool, error) {
	liked, err := s.repo.ToggleLike(ctx, userID, reelID)
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}
	if err := s.reels.AdjustReelLikes(ctx, reelID, delta(liked)); err != nil {
		return liked, fmt.Errorf("adjust like count: %w", err)
	}
	s.metrics.observeToggle(EdgeLike, liked)
	return liked, nil
}

// ToggleSave bookmarks or un-bookmarks a reel.
func (s *Service) ToggleSave(ctx context.Context, userID, reelID string) (bool, error) {
	saved, err := s.repo.ToggleSave(ctx, userID, reelID)
	if err != nil {
		return false, fmt.Errorf("toggle save: %w", err)
	}
	s.metrics.observeToggle(EdgeSave, saved)
	return saved, nil
}

// ToggleFollow follows or unfollows targetID and adjusts both users' counters.
func (s *Service) ToggleFollow(ctx context.Context, followerID, targetID string) (bool, error) {
	if followerID == targetID {
		return false, ErrSelfFollow
	}
	following, err := s.repo.ToggleFollow(ctx, followerID, targetID)
	if err != nil {
		return false, fmt.Errorf("toggle follow: %w", err)
	}
	if err := s.users.AdjustFollowCounts(ctx, followerID, targetID, delta(following)); err != nil {
		return following, fmt.Errorf("adjust follow counts: %w", err)
	}
	s.metrics.observeToggle(EdgeFollow, following)
	return following, nil
}
