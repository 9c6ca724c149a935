package recovery

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// SQLiteRepository implements Repository using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SavePending stores the marker
func (r *SQLiteRepository) SavePending(ctx context.Context, marker *entities.CashOutMarker) error {
	query := `
		INSERT INTO cashout_recovery (slot, id, amount, reason, requested_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			id = excluded.id,
			amount = excluded.amount,
			reason = excluded.reason,
			requested_at = excluded.requested_at
	`

	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		marker.ID, marker.Amount, marker.Reason, marker.RequestedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error saving cash-out marker: %w", err)
	}
	return nil
}

// GetPending returns the stored marker
func (r *SQLiteRepository) GetPending(ctx context.Context) (*entities.CashOutMarker, error) {
	query := `SELECT id, amount, reason, requested_at FROM cashout_recovery WHERE slot = 1`

	var marker entities.CashOutMarker
	var requestedAt string
	err := storage.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query).Scan(
		&marker.ID, &marker.Amount, &marker.Reason, &requestedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error getting cash-out marker: %w", err)
	}

	marker.RequestedAt, err = time.Parse(time.RFC3339Nano, requestedAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing timestamp '%s': %w", requestedAt, err)
	}
	return &marker, nil
}

// ClearPending removes the marker
func (r *SQLiteRepository) ClearPending(ctx context.Context) error {
	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM cashout_recovery WHERE slot = 1`)
	if err != nil {
		return fmt.Errorf("error clearing cash-out marker: %w", err)
	}
	return nil
}
