package commands

import (
	"context"
	"fmt"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/properties"
	"github.com/fadedpez/egmcore/pkg/services/bank"
	"github.com/fadedpez/egmcore/pkg/services/history"
	"github.com/fadedpez/egmcore/pkg/services/meters"
	"github.com/fadedpez/egmcore/pkg/services/recovery"
)

// Outcome is the verdict of a result or balance check
type Outcome struct {
	ForcedCashout bool
	Reason        string
}

// Runner executes validated commands against the bank, meters and history
type Runner struct {
	bank    *bank.Service
	meters  *meters.Registry
	history *history.Service
	cashOut *recovery.CashOut
	props   *properties.Properties
	log     *logging.Logger
}

// NewRunner creates a command runner
func NewRunner(bankService *bank.Service, registry *meters.Registry, historyService *history.Service, cashOut *recovery.CashOut, props *properties.Properties, logger *logging.Logger) *Runner {
	if logger == nil {
		logger = logging.Default
	}
	return &Runner{
		bank:    bankService,
		meters:  registry,
		history: historyService,
		cashOut: cashOut,
		props:   props,
		log:     logger.Named("commands"),
	}
}

// Wager takes amount from the bank for the in-progress round
func (r *Runner) Wager(ctx context.Context, amount int64) error {
	if amount <= 0 {
		return types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("invalid wager %d", amount))
	}
	current := r.history.Current()
	if current == nil {
		return types.NewGameError(types.ErrInvalidState, "wager without a round in progress")
	}

	if err := r.bank.Wager(ctx, amount, current.RoundID); err != nil {
		return err
	}
	if err := r.meters.GetMeter(entities.MeterTotalWagered).Increment(ctx, amount); err != nil {
		return err
	}
	return r.history.AddWager(ctx, amount)
}

// CheckResult forces a cash-out when win exceeds the jurisdiction's ceiling
func (r *Runner) CheckResult(ctx context.Context, win int64) (Outcome, error) {
	if win < 0 {
		return Outcome{}, types.NewGameError(types.ErrInvalidArgument, fmt.Sprintf("invalid win %d", win))
	}
	ceiling := r.props.MaxWinCeiling()
	if ceiling <= 0 || win <= ceiling {
		return Outcome{}, nil
	}
	return r.force(ctx, fmt.Sprintf("win %d exceeds ceiling %d", win, ceiling))
}

// CheckBalance forces a cash-out when the credits exceed the jurisdiction's limit
func (r *Runner) CheckBalance(ctx context.Context) (Outcome, error) {
	limit := r.props.MaxCreditLimit()
	if limit <= 0 {
		return Outcome{}, nil
	}
	credits, err := r.bank.Credits(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if credits <= limit {
		return Outcome{}, nil
	}
	return r.force(ctx, fmt.Sprintf("credits %d exceed limit %d", credits, limit))
}

// AddRecoveryDataPoint stores a runtime checkpoint in the in-progress round
func (r *Runner) AddRecoveryDataPoint(ctx context.Context, data []byte) error {
	if len(data) == 0 {
		return types.NewGameError(types.ErrInvalidArgument, "empty recovery data")
	}
	return r.history.AddRecoveryDataPoint(ctx, data)
}

func (r *Runner) force(ctx context.Context, reason string) (Outcome, error) {
	r.log.Warn("Forcing cash-out: %s", reason)
	if err := r.cashOut.Request(ctx, reason); err != nil {
		return Outcome{}, err
	}
	return Outcome{ForcedCashout: true, Reason: reason}, nil
}
