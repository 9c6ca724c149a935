package recovery

import (
	"context"
	"sync"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	pending *entities.CashOutMarker
	mu      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory marker repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// SavePending stores the marker
func (r *MemoryRepository) SavePending(ctx context.Context, marker *entities.CashOutMarker) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.pending
	markerCopy := *marker
	r.pending = &markerCopy

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pending = previous
	})
	return nil
}

// GetPending returns the stored marker
func (r *MemoryRepository) GetPending(ctx context.Context) (*entities.CashOutMarker, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.pending == nil {
		return nil, nil
	}
	markerCopy := *r.pending
	return &markerCopy, nil
}

// ClearPending removes the marker
func (r *MemoryRepository) ClearPending(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.pending
	r.pending = nil

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.pending = previous
	})
	return nil
}
