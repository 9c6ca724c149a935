package rounds

import (
	"context"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/money"
	"github.com/fadedpez/egmcore/pkg/services/payment"
)

// presentationHandler settles the round's win once the runtime has shown it
type presentationHandler struct {
	*base
}

func (h *presentationHandler) handle(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	switch event.Action {
	case entities.ActionBegin:
		h.publish(ctx, entities.EventPresentationStarted, nil)
		return nil
	case entities.ActionPending:
		h.publish(ctx, entities.EventWinPendingStarted, nil)
		return nil
	case entities.ActionCompleted:
		return h.completed(ctx, event, phase)
	case entities.ActionInvoked:
		return h.invoked(ctx, phase)
	default:
		return unsupported(event)
	}
}

func (h *presentationHandler) completed(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	if err := h.retryCashOut(ctx); err != nil {
		return err
	}
	current := h.c.History.Current()
	if current == nil {
		h.log.Warn("Presentation completed with no round in progress")
		return h.finishPresentation(ctx)
	}

	_, denom := h.c.Games.GetActiveGame()
	if h.perFreeGameMetering() && !denom.AllowsSecondaryGames && !current.Committed() {
		err := h.withTransaction(ctx, func(tx context.Context) error {
			if _, err := h.settleBaseWin(tx, current); err != nil {
				return err
			}
			if _, err := h.checkOutcome(tx, h.c.History.Current().FinalWin(), !phase.CashOutPending()); err != nil {
				return err
			}
			h.updateBalance(tx)
			return nil
		})
		if err != nil {
			return err
		}
		return h.finishPresentation(ctx)
	}

	// a replayed presentation only re-enables play; an uncommitted win is
	// still settled below
	if event.PlayMode == entities.PlayModeRecovery && current.Committed() {
		return h.withTransaction(ctx, func(tx context.Context) error {
			if h.canExitRecovery(tx) {
				h.setAllowSubGameRound(tx, true)
			}
			return nil
		})
	}

	if !current.Committed() {
		handpay, err := h.requiresHandpay(ctx, current.UncommittedWin)
		if err != nil {
			return err
		}
		if handpay {
			return h.handpay(ctx, current)
		}
		if err := h.withTransaction(ctx, func(tx context.Context) error {
			_, err := h.settleBaseWin(tx, current)
			return err
		}); err != nil {
			return err
		}
	}

	err := h.withTransaction(ctx, func(tx context.Context) error {
		h.updateBalance(tx)
		_, err := h.checkOutcome(tx, h.c.History.Current().FinalWin(), h.canExitRecovery(tx))
		return err
	})
	if err != nil {
		return err
	}
	return h.finishPresentation(ctx)
}

func (h *presentationHandler) requiresHandpay(ctx context.Context, win int64) (bool, error) {
	if win <= 0 {
		return false, nil
	}
	converter := money.NewConverter(h.c.Properties.BaseUnitMillicents())
	results, err := h.c.Payment.GetPaymentResults(ctx, converter.ToMillicents(win), false)
	if err != nil {
		return false, err
	}
	return payment.RequiresHandpay(results), nil
}

// handpay records the win as owed by an attendant. Credits do not change.
func (h *presentationHandler) handpay(ctx context.Context, current *entities.GameHistoryLog) error {
	amount := current.UncommittedWin
	err := h.withTransaction(ctx, func(tx context.Context) error {
		if err := h.c.Bank.RecordHandpay(tx, amount, current.RoundID); err != nil {
			return err
		}
		if _, err := h.c.History.RecordHandpay(tx); err != nil {
			return err
		}
		if err := h.c.Meters.GetMeter(entities.MeterHandpaidGameWon).Increment(tx, amount); err != nil {
			return err
		}
		if err := h.c.Meters.IncrementGamesPlayed(tx, entities.GamePlayedRecord{
			Result:        entities.ResultFor(current.FinalWager, amount),
			WagerCategory: current.WagerCategory,
		}); err != nil {
			return err
		}

		h.log.Info("Round %s win %d requires a handpay", current.RoundID, amount)
		h.setPendingHandpay(tx, true)
		h.setAllowSubGameRound(tx, false)
		h.publish(tx, entities.EventHandpayPending, nil, withAmount(amount))
		return nil
	})
	if err != nil {
		return err
	}
	return h.finishPresentation(ctx)
}

func (h *presentationHandler) finishPresentation(ctx context.Context) error {
	return h.withTransaction(ctx, func(tx context.Context) error {
		h.c.PlayState.EnterPresentationIdle(tx)
		h.publish(tx, entities.EventPresentationEnded, nil)
		return nil
	})
}

// invoked ends the round once nothing is left to resolve
func (h *presentationHandler) invoked(ctx context.Context, phase entities.RoundPhase) error {
	if err := h.retryCashOut(ctx); err != nil {
		return err
	}
	return h.withTransaction(ctx, func(tx context.Context) error {
		if !phase.CashOutPending() && (h.c.PlayState.IsIdle() || h.c.PlayState.IsPresentationIdle()) {
			h.setPendingHandpay(tx, false)
		} else {
			if !h.canExitRecovery(tx) {
				h.log.Info("Cash-out still pending, round stays open")
				return nil
			}
		}

		var finalWin int64
		if current := h.c.History.Current(); current != nil {
			finalWin = current.FinalWin()
		}
		finished, err := h.c.PlayState.End(tx, finalWin)
		if err != nil {
			return err
		}

		h.setAllowSubGameRound(tx, true)
		if finished != nil {
			h.publish(tx, entities.EventPrimaryGameEnded, finished, withAmount(finished.FinalWin()))
		}
		return nil
	})
}
