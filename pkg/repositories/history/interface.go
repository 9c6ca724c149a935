package history

import (
	"context"
	"errors"

	"github.com/fadedpez/egmcore/pkg/entities"
)

var (
	ErrRoundNotFound = errors.New("round not found")
)

// Repository stores the round in progress and the archive of finished rounds
type Repository interface {
	// Current round operations
	SaveCurrent(ctx context.Context, log *entities.GameHistoryLog) error
	LoadCurrent(ctx context.Context) (*entities.GameHistoryLog, error) // nil when no round is in progress
	ClearCurrent(ctx context.Context) error

	// Archive operations
	Archive(ctx context.Context, log *entities.GameHistoryLog) error
	GetArchived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error)
	ListUnshipped(ctx context.Context, limit int) ([]*entities.GameHistoryLog, error)
	MarkShipped(ctx context.Context, roundIDs []string) error
}
