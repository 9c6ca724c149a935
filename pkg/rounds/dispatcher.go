package rounds

import (
	"context"
	"fmt"
	"sync"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/cabinet"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
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

// Publisher sends coordinator events outward. Publishing is fire-and-forget.
type Publisher interface {
	Publish(event entities.RoundEvent)
}

// Collaborators are the handles every round handler works through
type Collaborators struct {
	Store      *storage.Store
	Runtime    runtime.Proxy
	Bank       *bank.Service
	Meters     *meters.Registry
	History    *history.Service
	PlayState  *playstate.Service
	Recovery   *recovery.Game
	CashOut    *recovery.CashOut
	Commands   *commands.Runner
	Payment    payment.Provider
	Games      playstate.GameProvider
	Cabinet    *cabinet.Cabinet
	Properties *properties.Properties
	Events     Publisher
}

func (c Collaborators) validate() error {
	required := []struct {
		name    string
		missing bool
	}{
		{"Store", c.Store == nil},
		{"Runtime", c.Runtime == nil},
		{"Bank", c.Bank == nil},
		{"Meters", c.Meters == nil},
		{"History", c.History == nil},
		{"PlayState", c.PlayState == nil},
		{"Recovery", c.Recovery == nil},
		{"CashOut", c.CashOut == nil},
		{"Commands", c.Commands == nil},
		{"Payment", c.Payment == nil},
		{"Games", c.Games == nil},
		{"Cabinet", c.Cabinet == nil},
		{"Properties", c.Properties == nil},
		{"Events", c.Events == nil},
	}
	for _, r := range required {
		if r.missing {
			return types.NewGameError(types.ErrConfiguration, fmt.Sprintf("round coordinator is missing %s", r.name))
		}
	}
	return nil
}

// Dispatcher routes game round events to the handler for their state. It
// processes one event at a time.
type Dispatcher struct {
	base    *base
	tracker *recovery.Tracker

	primary      *primaryHandler
	presentation *presentationHandler
	freeGame     *freeGameHandler
	cashInGate   *cashInGateHandler
	playerInput  *playerInputGateHandler

	mu sync.Mutex
}

// NewDispatcher wires every handler. A missing collaborator is a
// configuration error.
func NewDispatcher(c Collaborators, logger *logging.Logger) (*Dispatcher, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default
	}

	b := &base{c: c, log: logger.Named("rounds")}
	return &Dispatcher{
		base:         b,
		tracker:      recovery.NewTracker(c.Recovery, c.CashOut),
		primary:      &primaryHandler{base: b},
		presentation: &presentationHandler{base: b},
		freeGame:     &freeGameHandler{base: b},
		cashInGate:   &cashInGateHandler{base: b},
		playerInput:  &playerInputGateHandler{base: b},
	}, nil
}

// Phase returns the phase the next event would be handled in
func (d *Dispatcher) Phase() entities.RoundPhase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tracker.Phase(d.base.c.History.Current())
}

// Dispatch handles one event. Business outcomes such as a forced cash-out
// are expressed through runtime signals; infrastructure failures are
// returned and leave the persisted state as it was before the event.
func (d *Dispatcher) Dispatch(ctx context.Context, event *entities.GameRoundEvent) error {
	if err := event.Validate(); err != nil {
		return types.WrapError(types.ErrInvalidArgument, "rejected game round event", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	phase := d.tracker.Phase(d.base.c.History.Current())
	d.base.log.Debug("Dispatching %s in phase %s", event, phase)

	var err error
	switch event.State {
	case entities.StatePrimary:
		err = d.primary.handle(ctx, event, phase)
	case entities.StatePresentation:
		err = d.presentation.handle(ctx, event, phase)
	case entities.StateFreeGame:
		err = d.freeGame.handle(ctx, event, phase)
	case entities.StateCashInGate:
		err = d.cashInGate.handle(ctx, event, phase)
	case entities.StatePlayerInputGate:
		err = d.playerInput.handle(ctx, event, phase)
	default:
		err = types.NewGameError(types.ErrInvalidState, fmt.Sprintf("no handler for %s", event.State))
	}

	// sub-rounds never stay allowed while a cash-out is outstanding
	if d.base.allowed && d.base.c.CashOut.HasPending() {
		d.base.pushAllow(false)
	}

	if err != nil {
		d.base.log.Error("Handling %s failed: %v", event, err)
	}
	return err
}
