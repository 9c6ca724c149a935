package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using SQLite. The schema comes from
// the embedded migrations.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// GetAccount retrieves an account by ID
func (r *SQLiteRepository) GetAccount(ctx context.Context, accountID string) (*entities.Account, error) {
	query := `SELECT id, credits, locked, updated_at FROM bank_accounts WHERE id = ?`

	var account entities.Account
	var updatedAt string

	err := storage.ExecutorFor(ctx, r.db).QueryRowContext(ctx, query, accountID).Scan(
		&account.ID,
		&account.Credits,
		&account.Locked,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("error getting account: %w", err)
	}

	account.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("error parsing timestamp '%s': %w", updatedAt, err)
	}

	return &account, nil
}

// SaveAccount creates or updates an account
func (r *SQLiteRepository) SaveAccount(ctx context.Context, account *entities.Account) error {
	account.UpdatedAt = time.Now()
	formattedTime := account.UpdatedAt.Format(time.RFC3339Nano)

	query := `
		INSERT INTO bank_accounts (id, credits, locked, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			credits = excluded.credits,
			locked = excluded.locked,
			updated_at = excluded.updated_at
	`

	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		account.ID, account.Credits, account.Locked, formattedTime,
	)
	if err != nil {
		return fmt.Errorf("error saving account: %w", err)
	}

	return nil
}

// AddTransaction records a new transaction
func (r *SQLiteRepository) AddTransaction(ctx context.Context, transaction *entities.BankTransaction) error {
	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}

	query := `
		INSERT INTO bank_transactions (
			id, account_id, type, amount, balance_after, round_id, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := storage.ExecutorFor(ctx, r.db).ExecContext(ctx, query,
		transaction.ID,
		transaction.AccountID,
		string(transaction.Type),
		transaction.Amount,
		transaction.BalanceAfter,
		transaction.RoundID,
		transaction.Timestamp.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("error adding transaction: %w", err)
	}

	return nil
}

// GetTransactions retrieves recent transactions, newest last
func (r *SQLiteRepository) GetTransactions(ctx context.Context, accountID string, limit int) ([]*entities.BankTransaction, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
		SELECT id, account_id, type, amount, balance_after, round_id, timestamp
		FROM (
			SELECT rowid AS seq, * FROM bank_transactions
			WHERE account_id = ?
			ORDER BY seq DESC
			LIMIT ?
		)
		ORDER BY seq ASC
	`

	rows, err := storage.ExecutorFor(ctx, r.db).QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*entities.BankTransaction
	for rows.Next() {
		var tx entities.BankTransaction
		var txType, timestamp string
		var roundID sql.NullString

		if err := rows.Scan(&tx.ID, &tx.AccountID, &txType, &tx.Amount, &tx.BalanceAfter, &roundID, &timestamp); err != nil {
			return nil, fmt.Errorf("error scanning transaction: %w", err)
		}

		tx.Type = entities.BankTransactionType(txType)
		tx.RoundID = roundID.String
		tx.Timestamp, err = time.Parse(time.RFC3339Nano, timestamp)
		if err != nil {
			return nil, fmt.Errorf("error parsing timestamp '%s': %w", timestamp, err)
		}

		transactions = append(transactions, &tx)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}

	return transactions, nil
}
