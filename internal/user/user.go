// Package user provides the user model and repositories for learners and creators.
package user

import (
	"context"
	"errors"
	"time"
)

// Repository errors.
var (
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("email or username already taken")
)

// MaxSearchResults caps Search results.
const MaxSearchResults = 20

// User is a learner or creator account. Password handling lives outside this service.
type User struct {
	ID         string    `json:"id"`
	Email      string    `json:"-"`
	Username   string    `json:"username"`
	Name       string    `json:"name"`
	Bio        string    `json:"bio"`
	Avatar     string    `json:"avatar"`
	IsCreator  bool      `json:"isCreator"`
	Followers  int       `json:"followers"`
	Following  int       `json:"following"`
	Reputation *float64  `json:"reputation,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Summary is the public author block embedded in comments, stories and saved reels.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// Summary returns the public author block for u.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, Name: u.Name, Username: u.Username, Avatar: u.Avatar}
}

// UserRepository defines the interface for user data operations.
type UserRepository interface {
	// Create stores a new user, assigning ID and CreatedAt when unset.
	Create(ctx context.Context, u *User) error

	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)

	// GetByIDs returns the users that exist among ids, keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]*User, error)

	// Search matches query case-insensitively against name, username and bio.
	Search(ctx context.Context, query string, limit int) ([]*User, error)

	// AdjustFollowCounts adds delta to the follower's Following and the
	// followed user's Followers, never going below zero.
	AdjustFollowCounts(ctx context.Context, followerID, followingID string, delta int) error
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > MaxSearchResults {
		return MaxSearchResults
	}
	return limit
}
