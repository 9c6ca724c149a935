package rounds

import (
	"context"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// cashInGateHandler opens and closes money-in around the runtime's gate.
// When money-in is allowed during play the gate does nothing.
type cashInGateHandler struct {
	*base
}

func (h *cashInGateHandler) handle(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	if event.Action != entities.ActionBegin && event.Action != entities.ActionCompleted {
		return unsupported(event)
	}
	if phase.Recovering() {
		h.updateBalance(ctx)
	}
	if h.c.Properties.AllowCashInDuringPlay() {
		return nil
	}

	return h.withTransaction(ctx, func(tx context.Context) error {
		if event.Action == entities.ActionBegin {
			if err := h.c.Bank.Unlock(tx); err != nil {
				return err
			}
			h.publish(tx, entities.EventMoneyInAllowed, nil)
			return nil
		}

		h.publish(tx, entities.EventMoneyInProhibited, nil)
		return h.c.Bank.Lock(tx)
	})
}

// playerInputGateHandler brackets a wait for player input
type playerInputGateHandler struct {
	*base
}

func (h *playerInputGateHandler) handle(ctx context.Context, event *entities.GameRoundEvent, _ entities.RoundPhase) error {
	switch event.Action {
	case entities.ActionBegin:
		h.publish(ctx, entities.EventWaitingForInputStarted, nil)
	case entities.ActionCompleted:
		h.publish(ctx, entities.EventWaitingForInputEnded, nil)
	default:
		return unsupported(event)
	}
	return nil
}
