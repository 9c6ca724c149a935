package bank

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/db"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backend struct {
	name string
	open func(t *testing.T) (Repository, *storage.Store)
}

func backends() []backend {
	return []backend{
		{
			name: "memory",
			open: func(t *testing.T) (Repository, *storage.Store) {
				return NewMemoryRepository(), storage.NewMemoryStore()
			},
		},
		{
			name: "sqlite",
			open: func(t *testing.T) (Repository, *storage.Store) {
				conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "bank.db"), logging.NewNop())
				require.NoError(t, err)
				t.Cleanup(func() { conn.Close() })
				return NewSQLiteRepository(conn), storage.NewSQLiteStore(conn)
			},
		},
	}
}

func TestAccountRoundTrip(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo, _ := b.open(t)
			ctx := context.Background()

			_, err := repo.GetAccount(ctx, "egm")
			assert.ErrorIs(t, err, ErrAccountNotFound)

			require.NoError(t, repo.SaveAccount(ctx, &entities.Account{ID: "egm", Credits: 1000, Locked: true}))

			account, err := repo.GetAccount(ctx, "egm")
			require.NoError(t, err)
			assert.Equal(t, int64(1000), account.Credits)
			assert.True(t, account.Locked)
			assert.False(t, account.UpdatedAt.IsZero())
		})
	}
}

func TestTransactionsAreOrderedAndLimited(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo, _ := b.open(t)
			ctx := context.Background()
			require.NoError(t, repo.SaveAccount(ctx, &entities.Account{ID: "egm"}))

			for i, amount := range []int64{-100, 250, -50} {
				require.NoError(t, repo.AddTransaction(ctx, &entities.BankTransaction{
					AccountID:    "egm",
					Type:         entities.BankTransactionWager,
					Amount:       amount,
					BalanceAfter: int64(i),
					RoundID:      "round-1",
				}))
			}

			all, err := repo.GetTransactions(ctx, "egm", 0)
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, int64(-100), all[0].Amount)
			assert.NotEmpty(t, all[0].ID)
			assert.Equal(t, "round-1", all[0].RoundID)

			recent, err := repo.GetTransactions(ctx, "egm", 2)
			require.NoError(t, err)
			require.Len(t, recent, 2)
			assert.Equal(t, int64(250), recent[0].Amount)
			assert.Equal(t, int64(-50), recent[1].Amount)
		})
	}
}

func TestReleasedScopeLeavesNothingBehind(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			repo, store := b.open(t)
			ctx := context.Background()
			require.NoError(t, repo.SaveAccount(ctx, &entities.Account{ID: "egm", Credits: 100}))

			scope, err := store.ScopedTransaction(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.SaveAccount(scope.Context(), &entities.Account{ID: "egm", Credits: 900}))
			require.NoError(t, repo.AddTransaction(scope.Context(), &entities.BankTransaction{
				AccountID: "egm", Type: entities.BankTransactionWin, Amount: 800, BalanceAfter: 900,
			}))
			scope.Release()

			account, err := repo.GetAccount(ctx, "egm")
			require.NoError(t, err)
			assert.Equal(t, int64(100), account.Credits)

			txs, err := repo.GetTransactions(ctx, "egm", 0)
			require.NoError(t, err)
			assert.Empty(t, txs)
		})
	}
}
