// Package health provides readiness checks for the external dependencies of the API.
package health

import "context"

// Checker reports whether a dependency is reachable.
type Checker interface {
	HealthCheck(ctx context.Context) error
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

// HealthCheck calls f(ctx).
func (f CheckerFunc) HealthCheck(ctx context.Context) error {
	return f(ctx)
}
