//go:build integration

package user

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/reeled/internal/db/dbtest"
)

func TestPostgresUserRepository(t *testing.T) {
	conn := dbtest.NewPostgres(t)
	repo := NewPostgresUserRepository(conn)
	ctx := context.Background()

	rep := 0.8
	creator := &User{Email: "creator@reeled.test", Username: "sarahjohnson", Name: "Sarah Johnson",
		Bio: "Tech educator", IsCreator: true, Reputation: &rep}
	learner := &User{Email: "learner@reeled.test", Username: "alexsmith", Name: "Alex Smith"}

	for _, u := range []*User{creator, learner} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	t.Run("duplicate", func(t *testing.T) {
		err := repo.Create(ctx, &User{Email: "x@reeled.test", Username: "alexsmith", Name: "Dup"})
		if !errors.Is(err, ErrDuplicateUser) {
			t.Errorf("Create() error = %v, want ErrDuplicateUser", err)
		}
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.GetByUsername(ctx, "sarahjohnson")
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if got.ID != creator.ID || got.Reputation == nil || *got.Reputation != 0.8 {
			t.Errorf("unexpected user %+v", got)
		}
		if _, err := repo.GetByID(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("GetByID(missing) error = %v", err)
		}
	})

	t.Run("search escapes wildcards", func(t *testing.T) {
		got, err := repo.Search(ctx, "educator", 10)
		if err != nil || len(got) != 1 || got[0].ID != creator.ID {
			t.Fatalf("Search(educator) = %v, %v", got, err)
		}
		got, _ = repo.Search(ctx, "%", 10)
		if len(got) != 0 {
			t.Errorf("expected literal %% to match nothing, got %d", len(got))
		}
	})

	t.Run("follow counts", func(t *testing.T) {
		if err := repo.AdjustFollowCounts(ctx, learner.ID, creator.ID, 1); err != nil {
			t.Fatalf("AdjustFollowCounts() error = %v", err)
		}
		users, _ := repo.GetByIDs(ctx, []string{learner.ID, creator.ID})
		if users[learner.ID].Following != 1 || users[creator.ID].Followers != 1 {
			t.Errorf("unexpected counts: %+v %+v", users[learner.ID], users[creator.ID])
		}
		if err := repo.AdjustFollowCounts(ctx, learner.ID, "ghost", 1); !errors.Is(err, ErrUserNotFound) {
			t.Errorf("expected ErrUserNotFound, got %v", err)
		}
	})
}
