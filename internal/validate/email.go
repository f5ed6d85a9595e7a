package validate

import (
	"errors"
	"regexp"
	"strings"
)

// ErrInvalidEmail is returned for addresses that fail the format check.
var ErrInvalidEmail = errors.New("invalid email format")

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}$`)

// Email lowercases, trims and checks an address, enforcing RFC 5321 length limits
// (254 overall, 64 for the local part).
func Email(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", ErrEmpty
	}
	if len(email) > 254 {
		return "", ErrStringTooLong
	}
	if !emailPattern.MatchString(email) {
		return "", ErrInvalidEmail
	}

	local, _, _ := strings.Cut(email, "@")
	if len(local) > 64 {
		return "", ErrStringTooLong
	}
	return email, nil
}
