package playstate

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/cabinet"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/commands"
	"github.com/fadedpez/egmcore/pkg/services/history"
	"github.com/fadedpez/egmcore/pkg/services/recovery"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/google/uuid"
)

// State is where the cabinet is in the play cycle
type State int

const (
	StateIdle State = iota
	StatePrimaryGameStarted
	StatePresentationIdle
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePrimaryGameStarted:
		return "PrimaryGameStarted"
	case StatePresentationIdle:
		return "PresentationIdle"
	default:
		return "Unknown"
	}
}

// GameProvider answers which game and denomination are active
type GameProvider interface {
	GetActiveGame() (*entities.Game, entities.Denomination)
}

// Service drives the play cycle of one round at a time
type Service struct {
	history  *history.Service
	bank     *bank.Service
	commands *commands.Runner
	games    GameProvider
	cabinet  *cabinet.Cabinet
	recovery *recovery.Game
	props    *properties.Properties
	log      *logging.Logger

	mu    sync.RWMutex
	state State
}

// Deps groups the collaborators of the play state service
type Deps struct {
	History    *history.Service
	Bank       *bank.Service
	Commands   *commands.Runner
	Games      GameProvider
	Cabinet    *cabinet.Cabinet
	Recovery   *recovery.Game
	Properties *properties.Properties
}

// NewService creates the play state service
func NewService(deps Deps, logger *logging.Logger) (*Service, error) {
	if deps.History == nil || deps.Bank == nil || deps.Commands == nil || deps.Games == nil ||
		deps.Cabinet == nil || deps.Recovery == nil || deps.Properties == nil {
		return nil, types.NewGameError(types.ErrConfiguration, "play state service is missing a collaborator")
	}
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		history:  deps.History,
		bank:     deps.Bank,
		commands: deps.Commands,
		games:    deps.Games,
		cabinet:  deps.Cabinet,
		recovery: deps.Recovery,
		props:    deps.Properties,
		log:      logger.Named("playstate"),
	}, nil
}

// State returns the current play state
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// IsIdle reports whether no round is being played
func (s *Service) IsIdle() bool {
	return s.State() == StateIdle
}

// IsPresentationIdle reports whether the win presentation has finished
func (s *Service) IsPresentationIdle() bool {
	return s.State() == StatePresentationIdle
}

// Start begins a round with the given wager. While recovering, the persisted
// round is resumed and nothing is wagered again.
func (s *Service) Start(ctx context.Context, wager int64, startData []byte, recovering bool) (*entities.GameHistoryLog, error) {
	if recovering && s.history.InProgress() {
		s.setState(ctx, StatePrimaryGameStarted)
		return s.history.Current(), nil
	}
	if s.history.InProgress() {
		return nil, types.NewGameError(types.ErrInvalidState, "previous round has not ended")
	}

	game, denom := s.games.GetActiveGame()
	log := entities.NewGameHistoryLog(uuid.New().String(), time.Now())
	log.GameID = game.ID
	log.Denomination = denom.Value
	log.WagerCategory = game.WagerCategory
	log.InitialWager = wager
	log.StartData = append([]byte(nil), startData...)

	if err := s.history.Start(ctx, log); err != nil {
		return nil, err
	}
	if !recovering && wager > 0 {
		if err := s.commands.Wager(ctx, wager); err != nil {
			return nil, err
		}
	}

	s.setState(ctx, StatePrimaryGameStarted)
	return s.history.Current(), nil
}

// EnterPresentationIdle records that the win presentation has finished
func (s *Service) EnterPresentationIdle(ctx context.Context) {
	s.setState(ctx, StatePresentationIdle)
}

// End closes the round: the log is archived, the operator key is released
// and game recovery ends. The bank is unlocked when money-in is allowed
// during play or when a mid-round wager locked it; otherwise the cash-in
// gate owns the lock.
func (s *Service) End(ctx context.Context, finalWin int64) (*entities.GameHistoryLog, error) {
	if !s.history.InProgress() {
		s.setState(ctx, StateIdle)
		s.recovery.Complete(ctx)
		return nil, nil
	}

	finished, err := s.history.End(ctx)
	if err != nil {
		return nil, err
	}
	if finished.FinalWin() != finalWin {
		s.log.Warn("Round %s ended with win %d, runtime reported %d", finished.RoundID, finished.FinalWin(), finalWin)
	}

	if s.props.AllowCashInDuringPlay() || finished.WagerLocked {
		if err := s.bank.Unlock(ctx); err != nil {
			return nil, err
		}
	}
	s.cabinet.EnableOperatorKey(ctx)
	s.recovery.Complete(ctx)
	s.setState(ctx, StateIdle)
	return finished, nil
}

func (s *Service) setState(ctx context.Context, state State) {
	s.mu.Lock()
	previous := s.state
	s.state = state
	s.mu.Unlock()

	if previous != state {
		s.log.Debug("Play state %s -> %s", previous, state)
	}
	storage.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = previous
	})
}
