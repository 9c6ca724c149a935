package history

import (
	"context"
	"sort"
	"sync"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
)

type archivedRound struct {
	log     *entities.GameHistoryLog
	shipped bool
}

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	current *entities.GameHistoryLog
	archive map[string]*archivedRound
	mu      sync.RWMutex
}

// NewMemoryRepository creates a new in-memory history repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		archive: make(map[string]*archivedRound),
	}
}

// SaveCurrent replaces the round in progress
func (r *MemoryRepository) SaveCurrent(ctx context.Context, log *entities.GameHistoryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.current
	r.current = log.Clone()

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.current = previous
	})
	return nil
}

// LoadCurrent returns the round in progress, or nil
func (r *MemoryRepository) LoadCurrent(ctx context.Context) (*entities.GameHistoryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current.Clone(), nil
}

// ClearCurrent forgets the round in progress
func (r *MemoryRepository) ClearCurrent(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous := r.current
	r.current = nil

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.current = previous
	})
	return nil
}

// Archive stores a finished round
func (r *MemoryRepository) Archive(ctx context.Context, log *entities.GameHistoryLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, existed := r.archive[log.RoundID]
	r.archive[log.RoundID] = &archivedRound{log: log.Clone()}

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.archive[log.RoundID] = previous
		} else {
			delete(r.archive, log.RoundID)
		}
	})
	return nil
}

// GetArchived retrieves a finished round
func (r *MemoryRepository) GetArchived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	round, exists := r.archive[roundID]
	if !exists {
		return nil, ErrRoundNotFound
	}
	return round.log.Clone(), nil
}

// ListUnshipped returns archived rounds not yet shipped, oldest first
func (r *MemoryRepository) ListUnshipped(ctx context.Context, limit int) ([]*entities.GameHistoryLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*entities.GameHistoryLog
	for _, round := range r.archive {
		if !round.shipped {
			result = append(result, round.log.Clone())
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].EndTime.Before(result[j].EndTime)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// MarkShipped flags archived rounds as shipped
func (r *MemoryRepository) MarkShipped(ctx context.Context, roundIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range roundIDs {
		if round, exists := r.archive[id]; exists {
			round.shipped = true
		}
	}
	return nil
}
