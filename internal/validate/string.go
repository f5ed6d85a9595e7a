// Package validate provides input validation and sanitization for Reeled request data:
// free-text limits, usernames, tags, media and link URLs, and struct-tag validation of
// request bodies.
package validate

import (
	"errors"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors.
var (
	ErrEmpty             = errors.New("string is empty")
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrTooManyTags       = errors.New("too many tags")
)

// Length limits in runes.
const (
	MaxCommentLength     = 1000
	MaxCourseTitleLength = 120
	MaxDescriptionLength = 5000
	MaxStoryTextLength   = 280
	MaxSearchQueryLength = 100
	MaxTags              = 10
	MaxTagLength         = 30
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_.]{3,30}$`)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // 0 = no minimum
	MaxLength      int            // 0 = no maximum
	AllowedPattern *regexp.Regexp // optional
	AllowEmpty     bool
	TrimSpace      bool
}

// String validates s against constraints and returns the (optionally trimmed) value.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)
	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}
	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

// SanitizeHTML escapes HTML special characters in user-generated text.
func SanitizeHTML(s string) string {
	return html.EscapeString(s)
}

// SanitizeString validates s and then HTML-escapes it.
func SanitizeString(s string, constraints StringConstraints) (string, error) {
	validated, err := String(s, constraints)
	if err != nil {
		return "", err
	}
	return SanitizeHTML(validated), nil
}

// CommentText validates a reel comment: required, at most MaxCommentLength runes.
func CommentText(text string) (string, error) {
	return SanitizeString(text, StringConstraints{
		MinLength: 1,
		MaxLength: MaxCommentLength,
		TrimSpace: true,
	})
}

// CourseTitle validates a course or reel title.
func CourseTitle(title string) (string, error) {
	return SanitizeString(title, StringConstraints{
		MinLength: 1,
		MaxLength: MaxCourseTitleLength,
		TrimSpace: true,
	})
}

// Description validates an optional long-form description.
func Description(desc string) (string, error) {
	return SanitizeString(desc, StringConstraints{
		MaxLength:  MaxDescriptionLength,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// StoryText validates the optional caption on a story.
func StoryText(text string) (string, error) {
	return SanitizeString(text, StringConstraints{
		MaxLength:  MaxStoryTextLength,
		AllowEmpty: true,
		TrimSpace:  true,
	})
}

// SearchQuery trims and bounds a search term. It is not escaped: queries are
// only ever passed as bound parameters.
func SearchQuery(q string) (string, error) {
	return String(q, StringConstraints{
		MinLength: 1,
		MaxLength: MaxSearchQueryLength,
		TrimSpace: true,
	})
}

// Username lowercases and validates a handle: 3-30 of [a-z0-9_.].
func Username(name string) (string, error) {
	return String(strings.ToLower(name), StringConstraints{
		AllowedPattern: usernamePattern,
		TrimSpace:      true,
	})
}

// Tags normalizes a comma-separated tag list: trimmed, lowercased, deduplicated,
// empty entries dropped. Order of first appearance is kept.
func Tags(raw string) (string, error) {
	seen := make(map[string]struct{})
	var tags []string
	for _, part := range strings.Split(raw, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if utf8.RuneCountInString(tag) > MaxTagLength {
			return "", fmt.Errorf("%w: tag %q exceeds %d chars", ErrStringTooLong, tag, MaxTagLength)
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if len(tags) > MaxTags {
		return "", fmt.Errorf("%w: got %d, maximum is %d", ErrTooManyTags, len(tags), MaxTags)
	}
	return strings.Join(tags, ","), nil
}
