package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// DocsChecker checks documentation backend availability.
type DocsChecker interface {
	HealthCheck(ctx context.Context) error
}
