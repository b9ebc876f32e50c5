package messaging

import "context"

// HealthChecker is implemented by broker clients that can report whether
// they are able to publish right now.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}
