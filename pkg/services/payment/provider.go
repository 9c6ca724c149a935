package payment

import (
	"context"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/internal/types"
	"github.com/fadedpez/egmcore/pkg/money"
	"github.com/fadedpez/egmcore/pkg/properties"
)

// Result is one payment strategy's verdict on a win
type Result struct {
	// MillicentsToPayUsingLargeWinStrategy is the part of the win that has to
	// be paid by an attendant
	MillicentsToPayUsingLargeWinStrategy int64 `json:"millicentsToPayUsingLargeWinStrategy"`
}

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_payment

// Provider decides how a win is paid
type Provider interface {
	GetPaymentResults(ctx context.Context, millicents int64, isPartial bool) ([]Result, error)
}

// RequiresHandpay reports whether any strategy wants a large-win payout
func RequiresHandpay(results []Result) bool {
	for _, r := range results {
		if r.MillicentsToPayUsingLargeWinStrategy > 0 {
			return true
		}
	}
	return false
}

// ThresholdProvider sends every win at or above the jurisdiction's large-win
// limit to an attendant
type ThresholdProvider struct {
	props *properties.Properties
	log   *logging.Logger
}

// NewThresholdProvider creates a large-win threshold provider
func NewThresholdProvider(props *properties.Properties, logger *logging.Logger) *ThresholdProvider {
	if logger == nil {
		logger = logging.Default
	}
	return &ThresholdProvider{props: props, log: logger.Named("payment")}
}

// GetPaymentResults implements Provider
func (p *ThresholdProvider) GetPaymentResults(ctx context.Context, millicents int64, isPartial bool) ([]Result, error) {
	if millicents < 0 {
		return nil, types.NewGameError(types.ErrInvalidArgument, "win cannot be negative")
	}

	limit := p.props.LargeWinLimit()
	if limit <= 0 {
		return []Result{{}}, nil
	}

	converter := money.NewConverter(p.props.BaseUnitMillicents())
	limitMillicents := converter.ToMillicents(limit)
	if millicents < limitMillicents {
		return []Result{{}}, nil
	}

	p.log.Info("Win of %s reaches large-win limit %s (partial=%t)",
		converter.Format(converter.FromMillicents(millicents)), converter.Format(limit), isPartial)
	return []Result{{MillicentsToPayUsingLargeWinStrategy: millicents}}, nil
}

var _ Provider = (*ThresholdProvider)(nil)
