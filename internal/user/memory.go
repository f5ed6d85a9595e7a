package user

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// InMemoryUserRepository is an in-memory implementation of UserRepository.
// Thread-safe via RWMutex.
type InMemoryUserRepository struct {
	mu         sync.RWMutex
	users      map[string]*User
	byUsername map[string]string
	byEmail    map[string]string
}

// NewInMemoryUserRepository creates a new in-memory user repository.
func NewInMemoryUserRepository() *InMemoryUserRepository {
	return &InMemoryUserRepository{
		users:      make(map[string]*User),
		byUsername: make(map[string]string),
		byEmail:    make(map[string]string),
	}
}

func (r *InMemoryUserRepository) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if _, exists := r.users[u.ID]; exists {
		return ErrDuplicateUser
	}
	if _, taken := r.byUsername[u.Username]; taken {
		return ErrDuplicateUser
	}
	if _, taken := r.byEmail[u.Email]; taken {
		return ErrDuplicateUser
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	r.users[u.ID] = copyUser(u)
	r.byUsername[u.Username] = u.ID
	r.byEmail[u.Email] = u.ID
	return nil
}

func (r *InMemoryUserRepository) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(u), nil
}

func (r *InMemoryUserRepository) GetByUsername(_ context.Context, username string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return copyUser(r.users[id]), nil
}

func (r *InMemoryUserRepository) GetByIDs(_ context.Context, ids []string) (map[string]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]*User, len(ids))
	for _, id := range ids {
		if u, ok := r.users[id]; ok {
			out[id] = copyUser(u)
		}
	}
	return out, nil
}

func (r *InMemoryUserRepository) Search(_ context.Context, query string, limit int) ([]*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []*User
	for _, u := range r.users {
		if strings.Contains(strings.ToLower(u.Name), q) ||
			strings.Contains(strings.ToLower(u.Username), q) ||
			strings.Contains(strings.ToLower(u.Bio), q) {
			matches = append(matches, copyUser(u))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Username < matches[j].Username })

	if limit = clampLimit(limit); len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *InMemoryUserRepository) AdjustFollowCounts(_ context.Context, followerID, followingID string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	follower, ok := r.users[followerID]
	if !ok {
		return ErrUserNotFound
	}
	following, ok := r.users[followingID]
	if !ok {
		return ErrUserNotFound
	}
	follower.Following = max(0, follower.Following+delta)
	following.Followers = max(0, following.Followers+delta)
	return nil
}

func copyUser(u *User) *User {
	c := *u
	if u.Reputation != nil {
		rep := *u.Reputation
		c.Reputation = &rep
	}
	return &c
}
