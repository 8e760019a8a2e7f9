// Package health provides health check implementations for external dependencies.
package health

import "context"

// Checker reports the health of a single dependency.
type Checker interface {
	HealthCheck(ctx context.Context) error
}
