package social

import (
	"context"
	"sort"
	"sync"
	"time"
)

type edge struct{ from, to string }

// InMemorySocialRepository is an in-memory implementation of SocialRepository.
// Thread-safe via RWMutex.
type InMemorySocialRepository struct {
	mu      sync.RWMutex
	likes   map[edge]time.Time
	saves   map[edge]time.Time
	follows map[edge]time.Time
	now     func() time.Time
}

// NewInMemorySocialRepository creates a new in-memory social repository.
func NewInMemorySocialRepository() *InMemorySocialRepository {
	return &InMemorySocialRepository{
		likes:   make(map[edge]time.Time),
		saves:   make(map[edge]time.Time),
		follows: make(map[edge]time.Time),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *InMemorySocialRepository) toggle(set map[edge]time.Time, e edge) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := set[e]; ok {
		delete(set, e)
		return false
	}
	set[e] = r.now()
	return true
}

func (r *InMemorySocialRepository) has(set map[edge]time.Time, e edge) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := set[e]
	return ok
}

// targets returns the "to" side of from's edges, oldest first.
func (r *InMemorySocialRepository) targets(set map[edge]time.Time, from string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type entry struct {
		to string
		at time.Time
	}
	var entries []entry
	for e, at := range set {
		if e.from == from {
			entries = append(entries, entry{e.to, at})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].at.Equal(entries[j].at) {
			return entries[i].to < entries[j].to
		}
		return entries[i].at.Before(entries[j].at)
	})

	out := make([]string, len(entries))
	for i, en := range entries {
		out[i] = en.to
	}
	return out
}

func (r *InMemorySocialRepository) ToggleLike(_ context.Context, userID, reelID string) (bool, error) {
	return r.toggle(r.likes, edge{userID, reelID}), nil
}

func (r *InMemorySocialRepository) IsLiked(_ context.Context, userID, reelID string) (bool, error) {
	return r.has(r.likes, edge{userID, reelID}), nil
}

func (r *InMemorySocialRepository) LikedReelIDs(_ context.Context, userID string) ([]string, error) {
	return r.targets(r.likes, userID), nil
}

func (r *InMemorySocialRepository) ToggleSave(_ context.Context, userID, reelID string) (bool, error) {
	return r.toggle(r.saves, edge{userID, reelID}), nil
}

func (r *InMemorySocialRepository) ListSaved(_ context.Context, userID string) ([]Save, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var saves []Save
	for e, at := range r.saves {
		if e.from == userID {
			saves = append(saves, Save{UserID: e.from, ReelID: e.to, CreatedAt: at})
		}
	}
	sort.Slice(saves, func(i, j int) bool {
		if saves[i].CreatedAt.Equal(saves[j].CreatedAt) {
			return saves[i].ReelID < saves[j].ReelID
		}
		return saves[i].CreatedAt.After(saves[j].CreatedAt)
	})
	return saves, nil
}

func (r *InMemorySocialRepository) ToggleFollow(_ context.Context, followerID, followingID string) (bool, error) {
	return r.toggle(r.follows, edge{followerID, followingID}), nil
}

func (r *InMemorySocialRepository) IsFollowing(_ context.Context, followerID, followingID string) (bool, error) {
	return r.has(r.follows, edge{followerID, followingID}), nil
}

func (r *InMemorySocialRepository) FollowingIDs(_ context.Context, userID string) ([]string, error) {
	return r.targets(r.follows, userID), nil
}
