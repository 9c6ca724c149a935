package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
)

// sortableTime keeps archive timestamps in lexical order
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteRepository implements Repository using SQLite. Logs are stored as
// JSON documents.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// SaveCurrent replaces the round in progress
func (r *SQLiteRepository) SaveCurrent(ctx context.Context, log *entities.GameHistoryLog) error {
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("error marshaling round %s: %w", log.RoundID, err)
	}

	query := `
		INSERT INTO current_round (slot, round_id, log, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET
			round_id = excluded.round_id,
			log = excluded.log,
			updated_at = excluded.updated_at
	`

	_, err = storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query, log.RoundID, string(logJSON), time.Now().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("error saving current round: %w", err)
	}
	return nil
}

// LoadCurrent returns the round in progress, or nil
func (r *SQLiteRepository) LoadCurrent(ctx context.Context) (*entities.GameHistoryLog, error) {
	var logJSON string
	err := storage.ExecutorFor(ctx, r.db).QueryRowContext(ctx, `SELECT log FROM current_round WHERE slot = 1`).Scan(&logJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("error loading current round: %w", err)
	}
	return decodeLog(logJSON)
}

// ClearCurrent forgets the round in progress
func (r *SQLiteRepository) ClearCurrent(ctx context.Context) error {
	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, `DELETE FROM current_round WHERE slot = 1`)
	if err != nil {
		return fmt.Errorf("error clearing current round: %w", err)
	}
	return nil
}

// Archive stores a finished round
func (r *SQLiteRepository) Archive(ctx context.Context, log *entities.GameHistoryLog) error {
	logJSON, err := json.Marshal(log)
	if err != nil {
		return fmt.Errorf("error marshaling round %s: %w", log.RoundID, err)
	}

	query := `
		INSERT INTO round_archive (round_id, game_id, start_time, end_time, log, shipped)
		VALUES (?, ?, ?, ?, ?, 0)
		ON CONFLICT(round_id) DO UPDATE SET
			log = excluded.log,
			end_time = excluded.end_time,
			shipped = 0
	`

	_, err = storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		log.RoundID,
		log.GameID,
		log.StartTime.UTC().Format(sortableTime),
		log.EndTime.UTC().Format(sortableTime),
		string(logJSON),
	)
	if err != nil {
		return fmt.Errorf("error archiving round %s: %w", log.RoundID, err)
	}
	return nil
}

// GetArchived retrieves a finished round
func (r *SQLiteRepository) GetArchived(ctx context.Context, roundID string) (*entities.GameHistoryLog, error) {
	var logJSON string
	err := storage.ExecutorFor(ctx, r.db).QueryRowContext(ctx, `SELECT log FROM round_archive WHERE round_id = ?`, roundID).Scan(&logJSON)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("error loading round %s: %w", roundID, err)
	}
	return decodeLog(logJSON)
}

// ListUnshipped returns archived rounds not yet shipped, oldest first
func (r *SQLiteRepository) ListUnshipped(ctx context.Context, limit int) ([]*entities.GameHistoryLog, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := storage.ExecutorFor(ctx, r.db).QueryContext(ctx,
		`SELECT log FROM round_archive WHERE shipped = 0 ORDER BY end_time ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying unshipped rounds: %w", err)
	}
	defer rows.Close()

	var result []*entities.GameHistoryLog
	for rows.Next() {
		var logJSON string
		if err := rows.Scan(&logJSON); err != nil {
			return nil, fmt.Errorf("error scanning round: %w", err)
		}
		log, err := decodeLog(logJSON)
		if err != nil {
			return nil, err
		}
		result = append(result, log)
	}
	return result, rows.Err()
}

// MarkShipped flags archived rounds as shipped
func (r *SQLiteRepository) MarkShipped(ctx context.Context, roundIDs []string) error {
	if len(roundIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(roundIDs)), ",")
	args := make([]interface{}, len(roundIDs))
	for i, id := range roundIDs {
		args[i] = id
	}

	query := fmt.Sprintf(`UPDATE round_archive SET shipped = 1 WHERE round_id IN (%s)`, placeholders)
	if _, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("error marking rounds shipped: %w", err)
	}
	return nil
}

func decodeLog(logJSON string) (*entities.GameHistoryLog, error) {
	var log entities.GameHistoryLog
	if err := json.Unmarshal([]byte(logJSON), &log); err != nil {
		return nil, fmt.Errorf("error unmarshaling round: %w", err)
	}
	return &log, nil
}
