package health

import "context"

// HealthPinger is implemented by components that can answer a cheap
// connectivity probe.
type HealthPinger interface {
	HealthPing(ctx context.Context) error
}
