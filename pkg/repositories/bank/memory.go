package bank

import (
	"context"
	"sync"
	"time"

	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/google/uuid"
)

// MemoryRepository implements Repository using in-memory storage
type MemoryRepository struct {
	accounts     map[string]*entities.Account
	transactions map[string][]*entities.BankTransaction
	mu           sync.RWMutex
}

// NewMemoryRepository creates a new in-memory bank repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:     make(map[string]*entities.Account),
		transactions: make(map[string][]*entities.BankTransaction),
	}
}

// GetAccount retrieves an account by ID
func (r *MemoryRepository) GetAccount(ctx context.Context, accountID string) (*entities.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, exists := r.accounts[accountID]
	if !exists {
		return nil, ErrAccountNotFound
	}

	// Return a copy to prevent concurrent modification
	accountCopy := *account
	return &accountCopy, nil
}

// SaveAccount creates or updates an account
func (r *MemoryRepository) SaveAccount(ctx context.Context, account *entities.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	account.UpdatedAt = time.Now()

	previous, existed := r.accounts[account.ID]
	accountCopy := *account
	r.accounts[account.ID] = &accountCopy

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.accounts[account.ID] = previous
		} else {
			delete(r.accounts, account.ID)
		}
	})

	return nil
}

// AddTransaction records a new transaction
func (r *MemoryRepository) AddTransaction(ctx context.Context, transaction *entities.BankTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if transaction.ID == "" {
		transaction.ID = uuid.New().String()
	}
	if transaction.Timestamp.IsZero() {
		transaction.Timestamp = time.Now()
	}

	txCopy := *transaction
	accountID := transaction.AccountID
	r.transactions[accountID] = append(r.transactions[accountID], &txCopy)
	count := len(r.transactions[accountID])

	storage.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.transactions[accountID] = r.transactions[accountID][:count-1]
	})

	return nil
}

// GetTransactions retrieves recent transactions, newest last
func (r *MemoryRepository) GetTransactions(ctx context.Context, accountID string, limit int) ([]*entities.BankTransaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	transactions := r.transactions[accountID]

	start := 0
	if limit > 0 && len(transactions) > limit {
		start = len(transactions) - limit
	}

	result := make([]*entities.BankTransaction, 0, len(transactions)-start)
	for i := start; i < len(transactions); i++ {
		txCopy := *transactions[i]
		result = append(result, &txCopy)
	}

	return result, nil
}
