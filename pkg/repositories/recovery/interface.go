package recovery

import (
	"context"

	"github.com/fadedpez/egmcore/pkg/entities"
)

// Repository persists the single pending cash-out marker. A marker that
// survives a power cycle means the device never confirmed the cash-out.
type Repository interface {
	// SavePending stores the marker, replacing any previous one
	SavePending(ctx context.Context, marker *entities.CashOutMarker) error

	// GetPending returns the stored marker, or nil when there is none
	GetPending(ctx context.Context) (*entities.CashOutMarker, error)

	// ClearPending removes the marker
	ClearPending(ctx context.Context) error
}
