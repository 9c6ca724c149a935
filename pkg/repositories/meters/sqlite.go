package meters

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// Increment adds delta to the named meter
func (r *SQLiteRepository) Increment(ctx context.Context, name string, delta int64) error {
	query := `
		INSERT INTO meters (name, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			value = value + excluded.value,
			updated_at = excluded.updated_at
	`

	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query, name, delta, time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("error incrementing meter %s: %w", name, err)
	}
	return nil
}

// Get returns the current value of a meter
func (r *SQLiteRepository) Get(ctx context.Context, name string) (int64, error) {
	var value int64
	err := storage.ExecutorFor(ctx, r.db).QueryRowContext(ctx, `SELECT value FROM meters WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("error reading meter %s: %w", name, err)
	}
	return value, nil
}

// All returns every meter that has been written
func (r *SQLiteRepository) All(ctx context.Context) (map[string]int64, error) {
	rows, err := storage.ExecutorFor(ctx, r.db).QueryContext(ctx, `SELECT name, value FROM meters`)
	if err != nil {
		return nil, fmt.Errorf("error querying meters: %w", err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var name string
		var value int64
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("error scanning meter: %w", err)
		}
		result[name] = value
	}
	return result, rows.Err()
}
