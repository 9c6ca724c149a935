package rounds

import (
	"context"
	"errors"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/bus"
	"github.com/fadedpez/egmcore/pkg/cabinet"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
	bankRepo "github.com/fadedpez/egmcore/pkg/repositories/bank"
	historyRepo "github.com/fadedpez/egmcore/pkg/repositories/history"
	metersRepo "github.com/fadedpez/egmcore/pkg/repositories/meters"
	recoveryRepo "github.com/fadedpez/egmcore/pkg/repositories/recovery"
	"github.com/fadedpez/egmcore/pkg/runtime"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/commands"
	"github.com/fadedpez/egmcore/pkg/services/history"
	"github.com/fadedpez/egmcore/pkg/services/meters"
	"github.com/fadedpez/egmcore/pkg/services/payment"
	"github.com/fadedpez/egmcore/pkg/services/playstate"
	"github.com/fadedpez/egmcore/pkg/services/recovery"
	"github.com/fadedpez/egmcore/pkg/storage"
)

type fixedGames struct {
	denom entities.Denomination
}

func (g fixedGames) GetActiveGame() (*entities.Game, entities.Denomination) {
	return &entities.Game{ID: "dragon", WagerCategory: "standard"}, g.denom
}

// fakeDevice pays out only while working is true
type fakeDevice struct {
	working bool
	paid    []int64
	// paidInScope is set if the device is ever asked to pay inside a scope
	paidInScope bool
}

func (d *fakeDevice) Dispense(ctx context.Context, amount int64) error {
	if !d.working {
		return errors.New("printer offline")
	}
	if storage.InScope(ctx) {
		d.paidInScope = true
	}
	d.paid = append(d.paid, amount)
	return nil
}

// harness is a cabinet on memory storage. restart rebuilds every service
// over the same repositories, the way a power cycle would.
type harness struct {
	ctx   context.Context
	props *properties.Properties
	games fixedGames

	store        *storage.Store
	bankRepo     *bankRepo.MemoryRepository
	historyRepo  *historyRepo.MemoryRepository
	metersRepo   *metersRepo.MemoryRepository
	recoveryRepo *recoveryRepo.MemoryRepository

	device   *fakeDevice
	proxy    runtime.Proxy
	signals  *runtime.SignalSet
	events   *bus.Recorder
	cabinet  *cabinet.Cabinet
	bank     *bank.Service
	meters   *meters.Registry
	history  *history.Service
	game     *recovery.Game
	cashOut  *recovery.CashOut
	play     *playstate.Service
	dispatch *Dispatcher
}

func newHarness(values map[string]interface{}, denom entities.Denomination) (*harness, error) {
	h := &harness{
		ctx:          context.Background(),
		props:        properties.New(values),
		games:        fixedGames{denom: denom},
		store:        storage.NewMemoryStore(),
		bankRepo:     bankRepo.NewMemoryRepository(),
		historyRepo:  historyRepo.NewMemoryRepository(),
		metersRepo:   metersRepo.NewMemoryRepository(),
		recoveryRepo: recoveryRepo.NewMemoryRepository(),
		device:       &fakeDevice{working: true},
	}
	return h, h.restart()
}

func (h *harness) restart() error {
	logger := logging.NewNop()
	h.signals = runtime.NewSignalSet(logger)
	h.events = bus.NewRecorder()
	h.cabinet = cabinet.New(logger)
	h.bank = bank.NewService(h.bankRepo, "egm", logger)
	h.meters = meters.NewRegistry(h.metersRepo, logger)
	h.history = history.NewService(h.historyRepo, logger)
	h.game = recovery.NewGame(logger)
	h.cashOut = recovery.NewCashOut(h.recoveryRepo, h.store, h.bank, h.meters, h.device, logger)
	runner := commands.NewRunner(h.bank, h.meters, h.history, h.cashOut, h.props, logger)

	var err error
	h.play, err = playstate.NewService(playstate.Deps{
		History:    h.history,
		Bank:       h.bank,
		Commands:   runner,
		Games:      h.games,
		Cabinet:    h.cabinet,
		Recovery:   h.game,
		Properties: h.props,
	}, logger)
	if err != nil {
		return err
	}

	current, err := h.history.Load(h.ctx)
	if err != nil {
		return err
	}
	if current != nil {
		h.game.Begin(current.RoundID)
	}
	if err := h.cashOut.Load(h.ctx); err != nil {
		return err
	}

	h.dispatch, err = NewDispatcher(Collaborators{
		Store:      h.store,
		Runtime:    h.runtimeProxy(),
		Bank:       h.bank,
		Meters:     h.meters,
		History:    h.history,
		PlayState:  h.play,
		Recovery:   h.game,
		CashOut:    h.cashOut,
		Commands:   runner,
		Payment:    payment.NewThresholdProvider(h.props, logger),
		Games:      h.games,
		Cabinet:    h.cabinet,
		Properties: h.props,
		Events:     h.events,
	}, logger)
	return err
}

func (h *harness) runtimeProxy() runtime.Proxy {
	if h.proxy != nil {
		return h.proxy
	}
	return h.signals
}

func (h *harness) send(state entities.RoundState, action entities.RoundAction, opts ...func(*entities.GameRoundEvent)) error {
	event := &entities.GameRoundEvent{State: state, Action: action, PlayMode: entities.PlayModeNormal}
	for _, opt := range opts {
		opt(event)
	}
	return h.dispatch.Dispatch(h.ctx, event)
}

func bet(n int64) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.Bet = n }
}

func win(n int64) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.Win = n }
}

func stake(n int64) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.Stake = n }
}

func info(fragments ...string) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.RoundInfo = fragments }
}

func data(b string) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.Data = []byte(b) }
}

func mode(m entities.PlayMode) func(*entities.GameRoundEvent) {
	return func(e *entities.GameRoundEvent) { e.PlayMode = m }
}

func (h *harness) credits() int64 {
	credits, err := h.bank.Credits(h.ctx)
	if err != nil {
		panic(err)
	}
	return credits
}

func (h *harness) meter(name string) int64 {
	value, err := h.meters.GetMeter(name).Value(h.ctx)
	if err != nil {
		panic(err)
	}
	return value
}

func (h *harness) allowed() bool {
	return h.signals.Flag(runtime.AllowSubGameRound)
}
