//go:build integration

package course

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/reeled/internal/db/dbtest"
)

func TestPostgresCourseRepository(t *testing.T) {
	conn := dbtest.NewPostgres(t)
	dbtest.Exec(t, conn, `INSERT INTO users (id, email, username, name) VALUES ('sarah', 's@reeled.test', 'sarah', 'Sarah')`)

	repo := NewPostgresCourseRepository(conn)
	ctx := context.Background()

	c := &Course{
		CreatorID: "sarah",
		Title:     "Python Data Structures",
		Tags:      "python,beginner",
		Reels: []Reel{
			{Title: "Why", MediaURL: "/videos/python-intro.mp4", Duration: 40},
			{Title: "Lists", MediaURL: "/videos/python-lists.mp4", Duration: 70},
		},
	}
	if err := repo.Create(ctx, c); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	t.Run("unknown creator", func(t *testing.T) {
		err := repo.Create(ctx, &Course{CreatorID: "ghost", Title: "x", Reels: []Reel{{Title: "r", MediaURL: "/r.mp4"}}})
		if !errors.Is(err, ErrCreatorNotFound) {
			t.Errorf("Create() error = %v, want ErrCreatorNotFound", err)
		}
	})

	t.Run("get with ordered reels", func(t *testing.T) {
		got, err := repo.GetByID(ctx, c.ID)
		if err != nil {
			t.Fatalf("GetByID() error = %v", err)
		}
		if len(got.Reels) != 2 || got.Reels[0].Title != "Why" || got.Reels[1].Index != 1 {
			t.Errorf("unexpected reels %+v", got.Reels)
		}
	})

	t.Run("search and list", func(t *testing.T) {
		found, err := repo.Search(ctx, "BEGINNER", 5)
		if err != nil || len(found) != 1 {
			t.Fatalf("Search() = %v, %v", found, err)
		}
		public, _ := repo.ListPublic(ctx)
		if len(public) != 1 || len(public[0].Reels) != 2 {
			t.Errorf("unexpected public list %+v", public)
		}
	})

	t.Run("counters", func(t *testing.T) {
		reelID := c.Reels[1].ID
		_ = repo.AdjustReelLikes(ctx, reelID, 1)
		_ = repo.AdjustReelLikes(ctx, reelID, -3)
		_ = repo.IncrementReelViews(ctx, reelID)
		reel, err := repo.GetReel(ctx, reelID)
		if err != nil {
			t.Fatalf("GetReel() error = %v", err)
		}
		if reel.LikesCount != 0 || reel.Views != 1 {
			t.Errorf("expected likes=0 views=1, got %d %d", reel.LikesCount, reel.Views)
		}
		if err := repo.IncrementReelViews(ctx, "missing"); !errors.Is(err, ErrReelNotFound) {
			t.Errorf("expected ErrReelNotFound, got %v", err)
		}
	})
}
