package playstate

import (
	"context"
	"testing"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/cabinet"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
	bankRepo "github.com/fadedpez/egmcore/pkg/repositories/bank"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	metersRepo "github.com/fadedpez/egmcore/pkg/repositories/meters"
	recoveryRepo "github.com/fadedpez/egmcore/pkg/repositories/recovery"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/commands"
	"github.com/fadedpez/egmcore/pkg/services/history"
	"github.com/fadedpez/egmcore/pkg/services/meters"
	"github.com/fadedpez/egmcore/pkg/services/recovery"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type staticGames struct{}

func (staticGames) GetActiveGame() (*entities.Game, entities.Denomination) {
	return &entities.Game{ID: "dragon", WagerCategory: "standard"}, entities.Denomination{Value: 1}
}

type PlayStateTestSuite struct {
	suite.Suite
	ctx      context.Context
	store    *storage.Store
	props    *properties.Properties
	bank     *bank.Service
	history  *history.Service
	cabinet  *cabinet.Cabinet
	recovery *recovery.Game
	service  *Service
}

func (s *PlayStateTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = storage.NewMemoryStore()
	s.props = properties.New(nil)
	s.bank = bank.NewService(bankRepo.NewMemoryRepository(), "egm", logging.NewNop())
	s.history = history.NewService(historyRepo.NewMemoryRepository(), logging.NewNop())
	s.cabinet = cabinet.New(logging.NewNop())
	s.recovery = recovery.NewGame(logging.NewNop())
	registry := meters.NewRegistry(metersRepo.NewMemoryRepository(), logging.NewNop())
	cashOut := recovery.NewCashOut(recoveryRepo.NewMemoryRepository(), s.store, s.bank, registry, nil, logging.NewNop())
	runner := commands.NewRunner(s.bank, registry, s.history, cashOut, s.props, logging.NewNop())

	var err error
	s.service, err = NewService(Deps{
		History:    s.history,
		Bank:       s.bank,
		Commands:   runner,
		Games:      staticGames{},
		Cabinet:    s.cabinet,
		Recovery:   s.recovery,
		Properties: s.props,
	}, logging.NewNop())
	s.Require().NoError(err)
	s.Require().NoError(s.bank.Deposit(s.ctx, 1000))
}

func TestPlayStateSuite(t *testing.T) {
	suite.Run(t, new(PlayStateTestSuite))
}

func (s *PlayStateTestSuite) TestStartWagersAndCreatesLog() {
	// Execute
	log, err := s.service.Start(s.ctx, 100, []byte("seed"), false)

	// Assert
	s.Require().NoError(err)
	s.Equal("dragon", log.GameID)
	s.Equal("standard", log.WagerCategory)
	s.Equal(int64(1), log.Denomination)
	s.Equal(int64(100), log.InitialWager)
	s.Equal(int64(100), log.FinalWager)
	s.Equal([]byte("seed"), log.StartData)
	s.Equal(-1, log.LastCommitIndex)
	s.Equal(StatePrimaryGameStarted, s.service.State())
	credits, _ := s.bank.Credits(s.ctx)
	s.Equal(int64(900), credits)
}

func (s *PlayStateTestSuite) TestStartRejectsOverlappingRound() {
	_, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)

	_, err = s.service.Start(s.ctx, 100, nil, false)

	s.True(types.IsGameError(err, types.ErrInvalidState))
}

func (s *PlayStateTestSuite) TestRecoveringStartResumesWithoutWager() {
	first, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)

	resumed, err := s.service.Start(s.ctx, 100, nil, true)

	s.Require().NoError(err)
	s.Equal(first.RoundID, resumed.RoundID)
	s.Equal(int64(100), resumed.FinalWager)
	credits, _ := s.bank.Credits(s.ctx)
	s.Equal(int64(900), credits)
}

func (s *PlayStateTestSuite) TestEndArchivesAndReleasesCabinet() {
	// Setup
	_, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)
	s.cabinet.DisableOperatorKey(s.ctx)
	s.recovery.Begin("round")
	s.service.EnterPresentationIdle(s.ctx)
	s.True(s.service.IsPresentationIdle())

	// Execute
	finished, err := s.service.End(s.ctx, 0)

	// Assert
	s.Require().NoError(err)
	s.Equal(entities.ResultLost, finished.Result)
	s.True(s.service.IsIdle())
	s.True(s.cabinet.OperatorKeyEnabled())
	s.False(s.recovery.IsRecovering())
	s.False(s.history.InProgress())
}

func (s *PlayStateTestSuite) TestEndUnlocksBankOnlyWhenCashInAllowedDuringPlay() {
	_, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)
	s.Require().NoError(s.bank.Lock(s.ctx))

	_, err = s.service.End(s.ctx, 0)
	s.Require().NoError(err)
	locked, _ := s.bank.IsLocked(s.ctx)
	s.True(locked, "cash-in gate owns the lock")

	s.props.SetValue(properties.KeyAllowCashInDuringPlay, true)
	_, err = s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)
	_, err = s.service.End(s.ctx, 0)
	s.Require().NoError(err)
	locked, _ = s.bank.IsLocked(s.ctx)
	s.False(locked)
}

func (s *PlayStateTestSuite) TestEndReleasesWagerLock() {
	// Setup
	_, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)
	s.Require().NoError(s.bank.Lock(s.ctx))
	s.Require().NoError(s.history.MarkWagerLocked(s.ctx))

	// Execute
	_, err = s.service.End(s.ctx, 0)

	// Assert
	s.Require().NoError(err)
	locked, _ := s.bank.IsLocked(s.ctx)
	s.False(locked)
	s.NoError(s.bank.Deposit(s.ctx, 10))
}

func (s *PlayStateTestSuite) TestReleasedScopeUndoesEnd() {
	// Setup
	_, err := s.service.Start(s.ctx, 100, nil, false)
	s.Require().NoError(err)
	s.cabinet.DisableOperatorKey(s.ctx)
	s.recovery.Begin("round")
	scope, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)

	// Execute
	_, err = s.service.End(scope.Context(), 0)
	s.Require().NoError(err)
	scope.Release()

	// Assert
	s.True(s.history.InProgress())
	s.True(s.recovery.IsRecovering())
	s.False(s.cabinet.OperatorKeyEnabled())
	s.Equal(StatePrimaryGameStarted, s.service.State())
}

func (s *PlayStateTestSuite) TestEndWithoutRoundIsNoop() {
	finished, err := s.service.End(s.ctx, 0)

	s.Require().NoError(err)
	s.Nil(finished)
	s.True(s.service.IsIdle())
}

func (s *PlayStateTestSuite) TestReleasedScopeRestoresState() {
	scope, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)
	_, err = s.service.Start(scope.Context(), 100, nil, false)
	s.Require().NoError(err)
	scope.Release()

	s.True(s.service.IsIdle())
	s.False(s.history.InProgress())
	credits, _ := s.bank.Credits(s.ctx)
	s.Equal(int64(1000), credits)
}

func TestNewServiceRequiresCollaborators(t *testing.T) {
	_, err := NewService(Deps{}, logging.NewNop())
	assert.True(t, types.IsGameError(err, types.ErrConfiguration))
}
