package meters

import (
	"context"
	"sync"

	"github.com/fadedpez/egmcore/pkg/storage"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	values map[string]int64
	mu     sync.RWMutex
}

// NewMemoryRepository creates a new in-memory meter repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		values: make(map[string]int64),
	}
}

// Increment adds delta to the named meter
func (r *MemoryRepository) Increment(ctx context.Context, name string, delta int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.values[name] += delta

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.values[name] -= delta
	})

	return nil
}

// Get returns the current value of a meter
func (r *MemoryRepository) Get(ctx context.Context, name string) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.values[name], nil
}

// All returns every meter that has been written
func (r *MemoryRepository) All(ctx context.Context) (map[string]int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]int64, len(r.values))
	for name, value := range r.values {
		result[name] = value
	}
	return result, nil
}
