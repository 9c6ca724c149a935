package rounds

import (
	"context"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// primaryHandler runs the base game: wagering, win accumulation and
// secondary games
type primaryHandler struct {
	*base
}

func (h *primaryHandler) handle(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	switch event.Action {
	case entities.ActionBegin:
		return h.begin(ctx, event, phase)
	case entities.ActionInvoked:
		return h.invoked(ctx, event, phase)
	case entities.ActionCompleted:
		return h.withTransaction(ctx, func(tx context.Context) error {
			return h.c.History.AppendRoundInfo(tx, event.RoundInfo)
		})
	default:
		return unsupported(event)
	}
}

func (h *primaryHandler) begin(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	recovering := phase.Recovering() || event.PlayMode == entities.PlayModeRecovery

	err := h.withTransaction(ctx, func(tx context.Context) error {
		if recovering && h.c.History.InProgress() {
			if !h.c.Cabinet.SystemDisabled() {
				h.c.Cabinet.DisableOperatorKey(tx)
			}
			if err := h.c.History.ClearForRecovery(tx); err != nil {
				return err
			}
			h.log.Info("Recovering round %s", h.c.History.Current().RoundID)
			h.publish(tx, entities.EventRoundRecoveryStarted, nil)
		}

		wager := event.Bet
		if !event.PlayMode.Wagering() {
			wager = 0
		}
		if _, err := h.c.PlayState.Start(tx, wager, event.Data, recovering); err != nil {
			return err
		}
		if !recovering && wager > 0 {
			h.updateBalance(tx)
		}

		h.setAllowSubGameRound(tx, false)
		h.publish(tx, entities.EventPrimaryGameStarted, nil, withAmount(wager))
		return nil
	})
	return err
}

func (h *primaryHandler) invoked(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	return h.withTransaction(ctx, func(tx context.Context) error {
		if err := h.c.History.AppendRoundInfo(tx, event.RoundInfo); err != nil {
			return err
		}

		if event.Stake > 0 {
			if err := h.c.History.StartSecondaryGame(tx, event.Stake); err != nil {
				return err
			}
			h.publish(tx, entities.EventSecondaryGameStarted, nil, withAmount(event.Stake))
		} else if event.Win > 0 {
			if err := h.c.History.IncrementUncommittedWin(tx, event.Win); err != nil {
				return err
			}
		}

		// wagers of a replayed round are already in the ledger
		if event.Bet <= 0 || !event.PlayMode.Wagering() || phase.Recovering() {
			return nil
		}
		if err := h.c.Bank.Lock(tx); err != nil {
			return err
		}
		if err := h.c.History.MarkWagerLocked(tx); err != nil {
			return err
		}
		if err := h.c.Commands.Wager(tx, event.Bet); err != nil {
			return err
		}
		if len(event.Data) > 0 {
			if err := h.c.Commands.AddRecoveryDataPoint(tx, event.Data); err != nil {
				return err
			}
		}
		h.updateBalance(tx)
		return nil
	})
}
