package rounds

import (
	"context"

	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
)

// freeGameHandler runs free games. With per-free-game metering each free
// game is paid when it completes; otherwise its win joins the round's
// aggregate settlement.
type freeGameHandler struct {
	*base
}

func (h *freeGameHandler) handle(ctx context.Context, event *entities.GameRoundEvent, phase entities.RoundPhase) error {
	switch event.Action {
	case entities.ActionBegin:
		return h.withTransaction(ctx, func(tx context.Context) error {
			index, err := h.c.History.StartFreeGame(tx)
			if err != nil {
				return err
			}
			h.log.Debug("Free game %d started", index)
			if h.perFreeGameMetering() {
				h.setAllowSubGameRound(tx, false)
			}
			h.publish(tx, entities.EventFreeGameStarted, nil)
			return nil
		})
	case entities.ActionInvoked:
		return h.withTransaction(ctx, func(tx context.Context) error {
			if err := h.c.History.AppendRoundInfo(tx, event.RoundInfo); err != nil {
				return err
			}
			if event.Win <= 0 {
				return nil
			}
			return h.c.History.AddFreeGameWin(tx, event.Win)
		})
	case entities.ActionCompleted:
		return h.completed(ctx, event)
	default:
		return unsupported(event)
	}
}

func (h *freeGameHandler) completed(ctx context.Context, event *entities.GameRoundEvent) error {
	if !h.c.History.InProgress() {
		return types.NewGameError(types.ErrInvalidState, "free game completed with no round in progress")
	}
	if event.PlayMode == entities.PlayModeRecovery {
		return h.withTransaction(ctx, func(tx context.Context) error {
			return h.c.History.AppendRoundInfo(tx, event.RoundInfo)
		})
	}
	if err := h.retryCashOut(ctx); err != nil {
		return err
	}

	return h.withTransaction(ctx, func(tx context.Context) error {
		if err := h.c.History.AppendRoundInfo(tx, event.RoundInfo); err != nil {
			return err
		}

		if !h.perFreeGameMetering() {
			if err := h.c.History.EndFreeGame(tx); err != nil {
				return err
			}
			h.publish(tx, entities.EventFreeGameEnded, nil)
			return nil
		}

		var paid int64
		if index := h.c.History.LatestOpenFreeGame(); index >= 0 {
			won, err := h.settleFreeGame(tx, index)
			if err != nil {
				return err
			}
			paid = won
		} else {
			// already settled before an interruption
			if last := h.c.History.Current().LastFreeGame(); last != nil && last.FinalWin > 0 {
				h.updateBalance(tx)
			}
			if h.canExitRecovery(tx) {
				h.setAllowSubGameRound(tx, true)
			}
		}

		if paid > 0 {
			h.updateBalance(tx)
		}
		h.publish(tx, entities.EventFreeGameEnded, nil, withAmount(paid))
		return nil
	})
}

func (h *freeGameHandler) settleFreeGame(ctx context.Context, index int) (int64, error) {
	current := h.c.History.Current()
	fg, err := h.c.History.SettleFreeGame(ctx, index)
	if err != nil {
		return 0, err
	}
	if err := h.c.Bank.AddWin(ctx, fg.FinalWin, current.RoundID); err != nil {
		return 0, err
	}
	if err := h.c.Meters.IncrementGamesPlayed(ctx, entities.GamePlayedRecord{
		Result:        fg.Result,
		WagerCategory: current.WagerCategory,
		FreeGame:      true,
	}); err != nil {
		return 0, err
	}
	if err := h.c.Meters.GetMeter(entities.MeterEgmPaidGameWon).Increment(ctx, fg.FinalWin); err != nil {
		return 0, err
	}
	h.log.Info("Round %s free game %d paid %d", current.RoundID, index, fg.FinalWin)

	if _, err := h.checkOutcome(ctx, fg.FinalWin, true); err != nil {
		return 0, err
	}
	return fg.FinalWin, nil
}
