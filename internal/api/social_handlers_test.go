package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/onnwee/reeled/internal/seed"
)

func TestToggleLike(t *testing.T) {
	env := newTestEnv(t)
	reelID := env.firstCourse(t).Reels[0].ID
	body := map[string]string{"userId": seed.DemoLearnerID, "reelId": reelID}

	for i, want := range []bool{true, false} {
		rec := env.do(t, http.MethodPost, "/api/like", body)
		expectStatus(t, rec, http.StatusOK)
		if got := decode[map[string]bool](t, rec)["liked"]; got != want {
			t.Fatalf("toggle %d: liked=%t, want %t", i+1, got, want)
		}

		reel, err := env.courses.GetReel(context.Background(), reelID)
		if err != nil {
			t.Fatalf("GetReel() error = %v", err)
		}
		wantCount := 0
		if want {
			wantCount = 1
		}
		if reel.LikesCount != wantCount {
			t.Errorf("toggle %d: likesCount=%d, want %d", i+1, reel.LikesCount, wantCount)
		}

		status := env.do(t, http.MethodGet, "/api/like?userId="+seed.DemoLearnerID+"&reelId="+reelID, nil)
		expectStatus(t, status, http.StatusOK)
		if got := decode[map[string]bool](t, status)["isLiked"]; got != want {
			t.Errorf("toggle %d: isLiked=%t, want %t", i+1, got, want)
		}
	}
}

func TestToggleLike_Invalid(t *testing.T) {
	env := newTestEnv(t)

	expectErrorCode(t, env.do(t, http.MethodPost, "/api/like", map[string]string{"userId": seed.DemoLearnerID, "reelId": "missing"}),
		http.StatusNotFound, ErrCodeNotFound)
	expectErrorCode(t, env.do(t, http.MethodPost, "/api/like", map[string]string{"userId": seed.DemoLearnerID}),
		http.StatusBadRequest, ErrCodeValidation)
	expectErrorCode(t, env.do(t, http.MethodGet, "/api/like?userId="+seed.DemoLearnerID, nil),
		http.StatusBadRequest, ErrCodeValidation)
}

func TestToggleFollow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name string
		body map[string]string
		want bool
	}{
		{"follow by targetId", map[string]string{"userId": seed.DemoLearnerID, "targetId": seed.DemoCreatorID}, true},
		{"unfollow by targetUserId", map[string]string{"userId": seed.DemoLearnerID, "targetUserId": seed.DemoCreatorID}, false},
	}

	for _, tt := range tests {
		rec := env.do(t, http.MethodPost, "/api/follow", tt.body)
		expectStatus(t, rec, http.StatusOK)
		if got := decode[map[string]bool](t, rec)["following"]; got != tt.want {
			t.Fatalf("%s: following=%t, want %t", tt.name, got, tt.want)
		}

		creator, _ := env.users.GetByID(ctx, seed.DemoCreatorID)
		learner, _ := env.users.GetByID(ctx, seed.DemoLearnerID)
		wantFollowers, wantFollowing := 1250, 120
		if tt.want {
			wantFollowers, wantFollowing = 1251, 121
		}
		if creator.Followers != wantFollowers || learner.Following != wantFollowing {
			t.Errorf("%s: followers=%d following=%d, want %d and %d",
				tt.name, creator.Followers, learner.Following, wantFollowers, wantFollowing)
		}
	}
}

func TestToggleFollow_Invalid(t *testing.T) {
	env := newTestEnv(t)

	expectErrorCode(t, env.do(t, http.MethodPost, "/api/follow", map[string]string{"userId": seed.DemoLearnerID, "targetId": seed.DemoLearnerID}),
		http.StatusBadRequest, ErrCodeValidation)
	expectErrorCode(t, env.do(t, http.MethodPost, "/api/follow", map[string]string{"userId": seed.DemoLearnerID, "targetId": "ghost"}),
		http.StatusNotFound, ErrCodeNotFound)
	expectErrorCode(t, env.do(t, http.MethodPost, "/api/follow", map[string]string{"userId": seed.DemoLearnerID}),
		http.StatusBadRequest, ErrCodeValidation)
}

func TestGetFollow(t *testing.T) {
	env := newTestEnv(t)
	path := "/api/follow?userId=" + seed.DemoLearnerID + "&targetId=" + seed.DemoCreatorID

	if decode[map[string]bool](t, env.do(t, http.MethodGet, path, nil))["isFollowing"] {
		t.Fatal("expected not following before toggle")
	}
	env.do(t, http.MethodPost, "/api/follow", map[string]string{"userId": seed.DemoLearnerID, "targetId": seed.DemoCreatorID})
	if !decode[map[string]bool](t, env.do(t, http.MethodGet, path, nil))["isFollowing"] {
		t.Error("expected following after toggle")
	}
}

func TestSavedReels(t *testing.T) {
	env := newTestEnv(t)
	c := env.firstCourse(t)
	reel := c.Reels[2]

	rec := env.do(t, http.MethodPost, "/api/save", map[string]string{"userId": seed.DemoLearnerID, "reelId": reel.ID})
	expectStatus(t, rec, http.StatusOK)
	if !decode[map[string]bool](t, rec)["saved"] {
		t.Fatal("expected saved=true")
	}

	rec = env.do(t, http.MethodGet, "/api/save?userId="+seed.DemoLearnerID, nil)
	expectStatus(t, rec, http.StatusOK)
	saved := decode[struct {
		SavedReels []SavedReelView `json:"savedReels"`
	}](t, rec).SavedReels
	if len(saved) != 1 {
		t.Fatalf("expected 1 saved reel, got %d", len(saved))
	}
	got := saved[0]
	if got.ReelID != reel.ID || got.Reel.Title != reel.Title {
		t.Errorf("unexpected saved reel %+v", got)
	}
	if got.Reel.Course.Title != c.Title {
		t.Errorf("expected course %q, got %q", c.Title, got.Reel.Course.Title)
	}
	if got.Reel.Course.Creator == nil || got.Reel.Course.Creator.Username != "sarahjohnson" {
		t.Errorf("expected creator summary, got %+v", got.Reel.Course.Creator)
	}

	env.do(t, http.MethodPost, "/api/save", map[string]string{"userId": seed.DemoLearnerID, "reelId": reel.ID})
	rec = env.do(t, http.MethodGet, "/api/save?userId="+seed.DemoLearnerID, nil)
	if n := len(decode[struct {
		SavedReels []SavedReelView `json:"savedReels"`
	}](t, rec).SavedReels); n != 0 {
		t.Errorf("expected unsave to remove the entry, got %d", n)
	}
}
