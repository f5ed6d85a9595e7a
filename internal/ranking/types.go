package ranking

import "time"

// FeedItem is one reel exposed as a feed candidate.
// Optional fields are pointers; absence has defined meaning in the scoring phase.
type FeedItem struct {
	ReelID   string `json:"reelId"`
	CourseID string `json:"courseId"`
	Title    string `json:"title"`
	MediaURL string `json:"mediaUrl"`

	CompletionRate    *float64 `json:"completionRate,omitempty"`    // nil scores as DefaultCompletionRate
	CreatorReputation *float64 `json:"creatorReputation,omitempty"` // reserved, not scored
	IsNewCreator      bool     `json:"isNewCreator"`

	LikesCount int        `json:"likesCount"`
	Views      int        `json:"views"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"` // nil skips the recency term

	UserHasLiked bool `json:"userHasLiked"`

	Score float64 `json:"score"`
}

// InProgressCourse describes a course the user has started but not finished.
type InProgressCourse struct {
	CourseID         string `json:"courseId"`
	CurrentReelIndex int    `json:"currentReelIndex"`
	TotalReels       int    `json:"totalReels"`
}

// UserContext is the per-request personalization snapshot supplied to the ranker.
// CompletedCourses and LikedReels are carried for callers but not consumed by scoring.
type UserContext struct {
	UserID            string             `json:"userId"`
	InProgressCourses []InProgressCourse `json:"inProgressCourses"`
	CompletedCourses  []string           `json:"completedCourses"`
	SeenCreators      []string           `json:"seenCreators"`
	LikedReels        []string           `json:"likedReels"`
}

// Stats summarizes a single ranking pass.
type Stats struct {
	Candidates    int // Items received
	Substitutions int // Diversity slots filled by a different course
}
