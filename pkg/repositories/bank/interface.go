package bank

import (
	"context"
	"errors"

	"github.com/fadedpez/egmcore/pkg/entities"
)

var (
	ErrAccountNotFound = errors.New("bank account not found")
)

// Repository defines the interface for bank data operations. Writes made
// with a context carrying a storage scope are rolled back with it.
type Repository interface {
	// GetAccount retrieves an account by ID
	GetAccount(ctx context.Context, accountID string) (*entities.Account, error)

	// SaveAccount creates or updates an account
	SaveAccount(ctx context.Context, account *entities.Account) error

	// AddTransaction records a new transaction
	AddTransaction(ctx context.Context, transaction *entities.BankTransaction) error

	// GetTransactions retrieves recent transactions, newest last
	GetTransactions(ctx context.Context, accountID string, limit int) ([]*entities.BankTransaction, error)
}
