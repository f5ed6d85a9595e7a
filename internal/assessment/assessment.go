// Package assessment grades learner answers to course assessments.
package assessment

import (
	"context"
	"errors"
	"strings"
	"time"
)

// Errors returned by assessments.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrUnknownType        = errors.New("unknown assessment type")
	ErrUnknownReference   = errors.New("unknown assessment or user")
)

// Type is the kind of answer an assessment expects.
type Type string

// Assessment types.
const (
	TypeMCQ  Type = "mcq"
	TypeCode Type = "code"
	TypeText Type = "text"
)

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	switch t {
	case TypeMCQ, TypeCode, TypeText:
		return true
	}
	return false
}

const (
	// PassingScore is the minimum score that counts as a pass.
	PassingScore = 70

	// DefaultRequiredKeyword is checked in code answers when the config names none.
	DefaultRequiredKeyword = "function"
)

// Config holds the type-specific grading inputs, stored as JSON.
type Config struct {
	Question        string   `json:"question"`
	Options         []string `json:"options,omitempty"`
	CorrectAnswer   string   `json:"correctAnswer,omitempty"`
	RequiredKeyword string   `json:"requiredKeyword,omitempty"`
}

// Assessment is a graded exercise attached to a course.
type Assessment struct {
	ID       string `json:"id"`
	CourseID string `json:"courseId"`
	Type     Type   `json:"type"`
	Config   Config `json:"config"`
}

// Submission is one graded answer.
type Submission struct {
	ID           string    `json:"id"`
	AssessmentID string    `json:"assessmentId"`
	UserID       string    `json:"userId"`
	Answer       string    `json:"answer"`
	Score        int       `json:"score"`
	Feedback     string    `json:"feedback"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Passed reports whether the submission reached PassingScore.
func (s *Submission) Passed() bool {
	return s.Score >= PassingScore
}

// Result is the outcome of grading one answer.
type Result struct {
	Score    int
	Correct  bool
	Feedback string
}

// Grade scores answer against a. Multiple choice is all-or-nothing, code earns
// full marks when it mentions the required keyword and half otherwise, and free
// text is accepted with a fixed score.
func Grade(a *Assessment, answer string) Result {
	var r Result
	switch a.Type {
	case TypeMCQ:
		r.Correct = answer == a.Config.CorrectAnswer
		if r.Correct {
			r.Score = 100
		}
	case TypeCode:
		keyword := a.Config.RequiredKeyword
		if keyword == "" {
			keyword = DefaultRequiredKeyword
		}
		r.Correct = strings.Contains(answer, keyword)
		r.Score = 50
		if r.Correct {
			r.Score = 100
		}
	default:
		r.Score = 75
		r.Correct = true
	}
	r.Feedback = Feedback(a.Type, r.Correct)
	return r
}

var incorrectFeedback = map[Type]string{
	TypeMCQ:  "Not quite right. Review the core concept and try to identify the key principle being tested.",
	TypeCode: "Your code has some issues. Focus on the logic flow and check for syntax errors.",
	TypeText: "Your answer needs more detail. Consider the main points covered in the lesson.",
}

// Feedback returns the learner-facing message for a graded answer.
func Feedback(t Type, correct bool) string {
	if correct {
		return "Great job! You've demonstrated understanding of this concept. Keep up the excellent work!"
	}
	if msg, ok := incorrectFeedback[t]; ok {
		return msg
	}
	return "Try again and review the lesson material."
}

// AssessmentRepository defines the interface for assessment data operations.
type AssessmentRepository interface {
	Create(ctx context.Context, a *Assessment) error
	GetByID(ctx context.Context, id string) (*Assessment, error)
	ListByCourse(ctx context.Context, courseID string) ([]*Assessment, error)

	CreateSubmission(ctx context.Context, s *Submission) error
	// ListSubmissions returns a user's submissions for an assessment, newest first.
	ListSubmissions(ctx context.Context, assessmentID, userID string) ([]*Submission, error)
}
