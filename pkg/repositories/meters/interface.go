package meters

import (
	"context"
)

// Repository persists meter values
type Repository interface {
	// Increment adds delta to the named meter, creating it at zero if needed
	Increment(ctx context.Context, name string, delta int64) error

	// Get returns the current value of a meter; unknown meters read zero
	Get(ctx context.Context, name string) (int64, error)

	// All returns every meter that has been written
	All(ctx context.Context) (map[string]int64, error)
}
