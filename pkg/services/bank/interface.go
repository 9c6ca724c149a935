package bank

import (
	"context"
)

// BankService is the credit meter as seen by components outside the round
// lifecycle, such as the bill validator and the diagnostics surface
type BankService interface {
	Credits(ctx context.Context) (int64, error)
	IsLocked(ctx context.Context) (bool, error)
	Deposit(ctx context.Context, amount int64) error
}
