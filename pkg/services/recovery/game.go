package recovery

import (
	"context"
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// Game tracks whether an interrupted round is being replayed
type Game struct {
	log *logging.Logger

	mu         sync.RWMutex
	recovering bool
}

// NewGame creates a game recovery tracker that is not recovering
func NewGame(logger *logging.Logger) *Game {
	if logger == nil {
		logger = logging.Default
	}
	return &Game{log: logger.Named("recovery")}
}

// IsRecovering reports whether persisted fragments are being replayed
func (g *Game) IsRecovering() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.recovering
}

// Begin enters recovery for roundID
func (g *Game) Begin(roundID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.recovering {
		g.log.Warn("Recovering interrupted round %s", roundID)
	}
	g.recovering = true
}

// Complete leaves recovery. A released scope carried by ctx resumes it.
func (g *Game) Complete(ctx context.Context) {
	g.mu.Lock()
	previous := g.recovering
	g.recovering = false
	g.mu.Unlock()

	if !previous {
		return
	}
	g.log.Info("Game recovery complete")
	storage.OnRollback(ctx, func() {
		g.mu.Lock()
		defer g.mu.Unlock()
		g.recovering = previous
	})
}

// Tracker folds the recovery flags into the phase handed to round handlers
type Tracker struct {
	game    *Game
	cashOut *CashOut
}

// NewTracker creates a phase tracker
func NewTracker(game *Game, cashOut *CashOut) *Tracker {
	return &Tracker{game: game, cashOut: cashOut}
}

// Phase returns the current phase for the in-progress log, which may be nil
func (t *Tracker) Phase(current *entities.GameHistoryLog) entities.RoundPhase {
	committed := current != nil && current.Committed()
	return entities.PhaseOf(t.game.IsRecovering(), t.cashOut.HasPending(), committed)
}
