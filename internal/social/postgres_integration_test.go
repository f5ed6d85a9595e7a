//go:build integration

package social

import (
	"context"
	"errors"
	"testing"

	"github.com/onnwee/reeled/internal/db/dbtest"
)

func TestPostgresSocialRepository(t *testing.T) {
	conn := dbtest.NewPostgres(t)
	dbtest.Exec(t, conn, `INSERT INTO users (id, email, username, name) VALUES
		('alex', 'a@reeled.test', 'alex', 'Alex'), ('sarah', 's@reeled.test', 'sarah', 'Sarah')`)
	dbtest.Exec(t, conn, `INSERT INTO courses (id, creator_id, title) VALUES ('c1', 'sarah', 'Course')`)
	dbtest.Exec(t, conn, `INSERT INTO reels (id, course_id, idx, title, media_url) VALUES
		('r1', 'c1', 0, 'One', '/1.mp4'), ('r2', 'c1', 1, 'Two', '/2.mp4')`)

	repo := NewPostgresSocialRepository(conn)
	ctx := context.Background()

	t.Run("like toggles", func(t *testing.T) {
		for i, want := range []bool{true, false, true} {
			got, err := repo.ToggleLike(ctx, "alex", "r1")
			if err != nil || got != want {
				t.Fatalf("toggle %d = %t, %v; want %t", i+1, got, err, want)
			}
		}
		ids, _ := repo.LikedReelIDs(ctx, "alex")
		if len(ids) != 1 || ids[0] != "r1" {
			t.Errorf("LikedReelIDs() = %v", ids)
		}
	})

	t.Run("unknown reel", func(t *testing.T) {
		if _, err := repo.ToggleLike(ctx, "alex", "ghost"); !errors.Is(err, ErrUnknownTarget) {
			t.Errorf("expected ErrUnknownTarget, got %v", err)
		}
	})

	t.Run("saves", func(t *testing.T) {
		_, _ = repo.ToggleSave(ctx, "alex", "r1")
		_, _ = repo.ToggleSave(ctx, "alex", "r2")
		saves, err := repo.ListSaved(ctx, "alex")
		if err != nil || len(saves) != 2 {
			t.Fatalf("ListSaved() = %v, %v", saves, err)
		}
	})

	t.Run("follows", func(t *testing.T) {
		on, err := repo.ToggleFollow(ctx, "alex", "sarah")
		if err != nil || !on {
			t.Fatalf("ToggleFollow() = %t, %v", on, err)
		}
		if ok, _ := repo.IsFollowing(ctx, "alex", "sarah"); !ok {
			t.Error("expected alex to follow sarah")
		}
		if _, err := repo.ToggleFollow(ctx, "alex", "alex"); err == nil {
			t.Error("expected self-follow to violate the check constraint")
		}
	})
}
