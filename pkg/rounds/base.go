package rounds

import (
	"context"
	"fmt"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/runtime"
)

// effect is a runtime signal or published event. Inside a transaction it
// waits for the commit; a released transaction drops it.
type effect func(ctx context.Context)

// base holds the settlement helpers shared by the handlers
type base struct {
	c   Collaborators
	log *logging.Logger

	// allowed is the last AllowSubGameRound value pushed to the runtime
	allowed bool

	inTx     bool
	deferred []effect
}

// withTransaction runs fn inside one storage scope. Effects queued while fn
// runs are applied, in order, only after the scope commits. A nested call
// joins the enclosing scope.
func (b *base) withTransaction(ctx context.Context, fn func(tx context.Context) error) error {
	if b.inTx {
		return fn(ctx)
	}

	scope, err := b.c.Store.ScopedTransaction(ctx)
	if err != nil {
		return err
	}
	defer scope.Release()

	b.inTx = true
	b.deferred = nil
	defer func() {
		b.inTx = false
		b.deferred = nil
	}()

	if err := fn(scope.Context()); err != nil {
		return err
	}
	if err := scope.Complete(); err != nil {
		return err
	}

	effects := b.deferred
	b.inTx = false
	b.deferred = nil
	for _, fx := range effects {
		fx(ctx)
	}
	return nil
}

func (b *base) afterCommit(ctx context.Context, fx effect) {
	if b.inTx {
		b.deferred = append(b.deferred, fx)
		return
	}
	fx(ctx)
}

// setAllowSubGameRound tells the runtime whether another wager may start.
// Allowing is refused while a cash-out is pending.
func (b *base) setAllowSubGameRound(ctx context.Context, allow bool) {
	b.afterCommit(ctx, func(context.Context) {
		if allow && b.c.CashOut.HasPending() {
			b.log.Debug("Cash-out pending, keeping sub-rounds disallowed")
			allow = false
		}
		b.pushAllow(allow)
	})
}

func (b *base) pushAllow(allow bool) {
	b.c.Runtime.UpdateFlag(runtime.AllowSubGameRound, allow)
	b.allowed = allow
}

func (b *base) setPendingHandpay(ctx context.Context, pending bool) {
	b.afterCommit(ctx, func(context.Context) {
		b.c.Runtime.UpdateFlag(runtime.PendingHandpay, pending)
	})
}

// updateBalance pushes the bank's credits to the runtime
func (b *base) updateBalance(ctx context.Context) {
	b.afterCommit(ctx, func(ctx context.Context) {
		credits, err := b.c.Bank.Credits(ctx)
		if err != nil {
			b.log.Error("Could not read credits for the runtime: %v", err)
			return
		}
		b.c.Runtime.UpdateBalance(credits)
	})
}

// checkOutcome runs the result and balance checks for win. Sub-rounds are
// re-enabled only when neither forces a cash-out and reenable is set. It
// reports whether a cash-out was forced.
func (b *base) checkOutcome(ctx context.Context, win int64, reenable bool) (bool, error) {
	result, err := b.c.Commands.CheckResult(ctx, win)
	if err != nil {
		return false, err
	}
	balance, err := b.c.Commands.CheckBalance(ctx)
	if err != nil {
		return false, err
	}

	if result.ForcedCashout || balance.ForcedCashout {
		reason := result.Reason
		if reason == "" {
			reason = balance.Reason
		}
		b.setAllowSubGameRound(ctx, false)
		b.publish(ctx, entities.EventForcedCashOut, nil, func(e *entities.RoundEvent) {
			e.Amount = win
			e.Reason = reason
		})
		return true, nil
	}

	if reenable {
		b.setAllowSubGameRound(ctx, true)
	}
	return false, nil
}

// retryCashOut asks the device to pay a pending cash-out. It must run
// before the handler opens its transaction.
func (b *base) retryCashOut(ctx context.Context) error {
	if !b.c.CashOut.HasPending() {
		return nil
	}
	return b.c.CashOut.Recover(ctx)
}

// canExitRecovery reports whether play may continue. A cash-out still
// pending after retryCashOut disallows sub-rounds.
func (b *base) canExitRecovery(ctx context.Context) bool {
	if !b.c.CashOut.HasPending() {
		return true
	}
	b.setAllowSubGameRound(ctx, false)
	return false
}

// settleBaseWin pays the uncommitted win through the bank and commits it
func (b *base) settleBaseWin(ctx context.Context, current *entities.GameHistoryLog) (int64, error) {
	amount := current.UncommittedWin
	if err := b.c.Bank.AddWin(ctx, amount, current.RoundID); err != nil {
		return 0, err
	}
	if err := b.c.Meters.IncrementGamesPlayed(ctx, entities.GamePlayedRecord{
		Result:        entities.ResultFor(current.FinalWager, amount),
		WagerCategory: current.WagerCategory,
	}); err != nil {
		return 0, err
	}
	if err := b.c.Meters.GetMeter(entities.MeterEgmPaidGameWon).Increment(ctx, amount); err != nil {
		return 0, err
	}
	if _, err := b.c.History.CommitWin(ctx); err != nil {
		return 0, err
	}
	b.log.Info("Round %s paid %d", current.RoundID, amount)
	return amount, nil
}

// perFreeGameMetering reports whether each free game settles on its own
func (b *base) perFreeGameMetering() bool {
	return b.c.Properties.MeterFreeGamesIndependently()
}

func unsupported(event *entities.GameRoundEvent) error {
	return types.NewGameError(types.ErrInvalidAction,
		fmt.Sprintf("%s does not handle %s", event.State, event.Action))
}
