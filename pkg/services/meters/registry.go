package meters

import (
	"context"
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	metersRepo "github.com/fadedpez/egmcore/pkg/repositories/meters"
)

// Meter is a named, monotonically increasing counter
type Meter struct {
	name string
	repo metersRepo.Repository
}

// Name returns the meter name
func (m *Meter) Name() string {
	return m.name
}

// Increment adds n to the meter. Meters never go down.
func (m *Meter) Increment(ctx context.Context, n int64) error {
	if n < 0 {
		return types.NewGameError(types.ErrInvalidArgument, "meters cannot be decremented")
	}
	if n == 0 {
		return nil
	}
	if err := m.repo.Increment(ctx, m.name, n); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to increment meter "+m.name, err)
	}
	return nil
}

// Value returns the current reading
func (m *Meter) Value(ctx context.Context) (int64, error) {
	return m.repo.Get(ctx, m.name)
}

// Registry hands out meters by name
type Registry struct {
	repo metersRepo.Repository
	log  *logging.Logger

	mu     sync.Mutex
	meters map[string]*Meter
}

// NewRegistry creates a new meter registry
func NewRegistry(repo metersRepo.Repository, logger *logging.Logger) *Registry {
	if logger == nil {
		logger = logging.Default
	}
	return &Registry{
		repo:   repo,
		log:    logger.Named("meters"),
		meters: make(map[string]*Meter),
	}
}

// GetMeter returns the meter called name
func (r *Registry) GetMeter(name string) *Meter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.meters[name]; ok {
		return m
	}
	m := &Meter{name: name, repo: r.repo}
	r.meters[name] = m
	return m
}

// IncrementGamesPlayed counts one settled game. Base games feed the
// played/won/lost/tied meters and the wager category meter; free games feed
// the free game meters.
func (r *Registry) IncrementGamesPlayed(ctx context.Context, rec entities.GamePlayedRecord) error {
	var names []string
	if rec.FreeGame {
		names = append(names, entities.MeterFreeGamesPlayed)
		if rec.Result == entities.ResultWon {
			names = append(names, entities.MeterFreeGamesWon)
		}
	} else {
		names = append(names, entities.MeterGamesPlayed)
		switch rec.Result {
		case entities.ResultWon:
			names = append(names, entities.MeterGamesWon)
		case entities.ResultLost:
			names = append(names, entities.MeterGamesLost)
		case entities.ResultTied:
			names = append(names, entities.MeterGamesTied)
		}
		if rec.WagerCategory != "" {
			names = append(names, entities.WagerCategoryMeter(rec.WagerCategory))
		}
	}

	for _, name := range names {
		if err := r.GetMeter(name).Increment(ctx, 1); err != nil {
			return err
		}
	}
	r.log.Debug("Games played meters incremented: %v", names)
	return nil
}

// Snapshot returns every meter reading
func (r *Registry) Snapshot(ctx context.Context) (map[string]int64, error) {
	values, err := r.repo.All(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to read meters", err)
	}
	return values, nil
}
