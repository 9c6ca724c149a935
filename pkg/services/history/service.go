package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// Service owns the single in-progress GameHistoryLog. Every mutation is
// written through to the repository with the caller's context, so it commits
// or rolls back with the caller's storage scope.
type Service struct {
	repo historyRepo.Repository
	log  *logging.Logger
	now  func() time.Time

	mu      sync.Mutex
	current *entities.GameHistoryLog
}

// NewService creates a new game history service
func NewService(repo historyRepo.Repository, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default
	}
	return &Service{
		repo: repo,
		log:  logger.Named("history"),
		now:  time.Now,
	}
}

// Load reads the persisted in-progress log, if any, into memory
func (s *Service) Load(ctx context.Context) (*entities.GameHistoryLog, error) {
	current, err := s.repo.LoadCurrent(ctx)
	if err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to load current round", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	if current != nil {
		s.log.Info("Loaded round %s in progress", current.RoundID)
	}
	return current.Clone(), nil
}

// Current returns a copy of the in-progress log, or nil
func (s *Service) Current() *entities.GameHistoryLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// InProgress reports whether a round is open
func (s *Service) InProgress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current != nil
}

// Archived returns a finished round
func (s *Service) Archived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	return s.repo.GetArchived(ctx, roundID)
}

// Start makes log the in-progress round
func (s *Service) Start(ctx context.Context, log *entities.GameHistoryLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current != nil {
		return types.NewGameError(types.ErrInvalidState,
			fmt.Sprintf("round %s is still in progress", s.current.RoundID))
	}
	if err := s.repo.SaveCurrent(ctx, log); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save round", err)
	}
	s.current = log.Clone()
	storage.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.current = nil
	})

	s.log.Info("Round %s started (initial wager %d)", log.RoundID, log.InitialWager)
	return nil
}

// ClearForRecovery drops what the replayed fragments will rebuild
func (s *Service) ClearForRecovery(ctx context.Context) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.ResetForRecovery()
		return nil
	})
}

// AppendRoundInfo appends round info fragments in arrival order
func (s *Service) AppendRoundInfo(ctx context.Context, fragments []string) error {
	if len(fragments) == 0 {
		return nil
	}
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.RoundInfo = append(l.RoundInfo, fragments...)
		return nil
	})
}

// AddWager adds to the round's final wager
func (s *Service) AddWager(ctx context.Context, amount int64) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.FinalWager += amount
		return nil
	})
}

// MarkWagerLocked records that a wager locked the bank during the round
func (s *Service) MarkWagerLocked(ctx context.Context) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.WagerLocked = true
		return nil
	})
}

// IncrementUncommittedWin accumulates a win not yet in the bank
func (s *Service) IncrementUncommittedWin(ctx context.Context, amount int64) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.UncommittedWin += amount
		return nil
	})
}

// StartSecondaryGame stakes part of the uncommitted win on a side game
func (s *Service) StartSecondaryGame(ctx context.Context, stake int64) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		if stake > l.UncommittedWin {
			return types.NewGameError(types.ErrInvalidArgument,
				fmt.Sprintf("secondary stake %d exceeds uncommitted win %d", stake, l.UncommittedWin))
		}
		l.UncommittedWin -= stake
		l.SecondaryGames = append(l.SecondaryGames, entities.SecondaryGame{
			Stake:     stake,
			StartTime: s.now(),
		})
		return nil
	})
}

// AddRecoveryDataPoint stores an opaque runtime checkpoint
func (s *Service) AddRecoveryDataPoint(ctx context.Context, data []byte) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		l.RecoveryData = append(l.RecoveryData, entities.RecoveryDataPoint{
			Index:     len(l.RecoveryData),
			Data:      append([]byte(nil), data...),
			Timestamp: s.now(),
		})
		return nil
	})
}

// StartFreeGame moves to the next free game and returns its index
func (s *Service) StartFreeGame(ctx context.Context) (int, error) {
	index := -1
	err := s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		index = l.NextFreeGame(s.now())
		return nil
	})
	return index, err
}

// AddFreeGameWin accumulates a win for the current free game. Wins of a
// free game that was already paid are ignored; wins of a closed but unpaid
// free game only rebuild the uncommitted win.
func (s *Service) AddFreeGameWin(ctx context.Context, amount int64) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		i := l.CurrentFreeGame()
		if i < 0 {
			return types.NewGameError(types.ErrInvalidState, "no free game in progress")
		}
		fg := &l.FreeGames[i]
		switch {
		case fg.Paid:
			s.log.Debug("Free game %d already paid, ignoring win %d", i, amount)
		case fg.Open():
			fg.FinalWin += amount
			l.UncommittedWin += amount
		default:
			l.UncommittedWin += amount
		}
		return nil
	})
}

// LatestOpenFreeGame returns the index of the last free game without a
// result, or -1
func (s *Service) LatestOpenFreeGame() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return -1
	}
	return s.current.LatestOpenFreeGame()
}

// SettleFreeGame closes free game index as paid and moves its win from the
// uncommitted win to the total won
func (s *Service) SettleFreeGame(ctx context.Context, index int) (entities.FreeGame, error) {
	var settled entities.FreeGame
	err := s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		if index < 0 || index >= len(l.FreeGames) {
			return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("no free game %d", index))
		}
		fg := &l.FreeGames[index]
		if !fg.Open() {
			return types.NewGameError(types.ErrInvalidState, fmt.Sprintf("free game %d already settled", index))
		}
		end := s.now()
		fg.EndTime = &end
		fg.Result = entities.ResultFor(0, fg.FinalWin)
		fg.Paid = true

		l.TotalWon += fg.FinalWin
		l.UncommittedWin -= fg.FinalWin
		if l.UncommittedWin < 0 {
			l.UncommittedWin = 0
		}
		settled = *fg
		return nil
	})
	return settled, err
}

// EndFreeGame closes the current free game without paying it; its win stays
// in the uncommitted win for the round's aggregate settlement
func (s *Service) EndFreeGame(ctx context.Context) error {
	return s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		i := l.CurrentFreeGame()
		if i < 0 {
			i = l.LatestOpenFreeGame()
		}
		if i < 0 || !l.FreeGames[i].Open() {
			return nil
		}
		end := s.now()
		l.FreeGames[i].EndTime = &end
		l.FreeGames[i].Result = entities.ResultFor(0, l.FreeGames[i].FinalWin)
		return nil
	})
}

// CommitWin marks the uncommitted win as paid by the machine and returns it
func (s *Service) CommitWin(ctx context.Context) (int64, error) {
	return s.commit(ctx, false)
}

// RecordHandpay marks the uncommitted win as paid by an attendant and returns it
func (s *Service) RecordHandpay(ctx context.Context) (int64, error) {
	return s.commit(ctx, true)
}

func (s *Service) commit(ctx context.Context, handpay bool) (int64, error) {
	var amount int64
	err := s.mutate(ctx, func(l *entities.GameHistoryLog) error {
		if l.Committed() {
			return types.NewGameError(types.ErrInvalidState,
				fmt.Sprintf("round %s already committed", l.RoundID))
		}
		amount = l.UncommittedWin
		if handpay {
			l.HandpaidWin += amount
		} else {
			l.TotalWon += amount
		}
		l.UncommittedWin = 0
		l.LastCommitIndex = len(l.FreeGames)
		return nil
	})
	return amount, err
}

// End closes the round, archives it and clears the in-progress slot
func (s *Service) End(ctx context.Context) (*entities.GameHistoryLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return nil, types.NewGameError(types.ErrInvalidState, "no round in progress")
	}
	previous := s.current
	finished := s.current.Clone()
	finished.EndTime = s.now()
	finished.Result = entities.ResultFor(finished.FinalWager, finished.FinalWin())

	if err := s.repo.Archive(ctx, finished); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to archive round", err)
	}
	if err := s.repo.ClearCurrent(ctx); err != nil {
		return nil, types.WrapError(types.ErrDatabaseError, "failed to clear current round", err)
	}
	s.current = nil
	storage.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.current = previous
	})

	s.log.Info("Round %s ended: %s, wagered %d, won %d", finished.RoundID, finished.Result, finished.FinalWager, finished.FinalWin())
	return finished.Clone(), nil
}

func (s *Service) mutate(ctx context.Context, fn func(*entities.GameHistoryLog) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		return types.NewGameError(types.ErrInvalidState, "no round in progress")
	}
	previous := s.current
	next := s.current.Clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := s.repo.SaveCurrent(ctx, next); err != nil {
		return types.WrapError(types.ErrDatabaseError, "failed to save round", err)
	}
	s.current = next
	storage.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.current = previous
	})
	return nil
}
