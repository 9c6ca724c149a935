package meters

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/db"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeterRepositories(t *testing.T) {
	backends := map[string]func(t *testing.T) (Repository, *storage.Store){
		"memory": func(t *testing.T) (Repository, *storage.Store) {
			return NewMemoryRepository(), storage.NewMemoryStore()
		},
		"sqlite": func(t *testing.T) (Repository, *storage.Store) {
			conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "meters.db"), logging.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { conn.Close() })
			return NewSQLiteRepository(conn), storage.NewSQLiteStore(conn)
		},
	}

	for name, open := range backends {
		t.Run(name, func(t *testing.T) {
			repo, store := open(t)
			ctx := context.Background()

			value, err := repo.Get(ctx, "games-played")
			require.NoError(t, err)
			assert.Zero(t, value)

			require.NoError(t, repo.Increment(ctx, "games-played", 1))
			require.NoError(t, repo.Increment(ctx, "games-played", 2))
			require.NoError(t, repo.Increment(ctx, "games-won", 1))

			value, err = repo.Get(ctx, "games-played")
			require.NoError(t, err)
			assert.Equal(t, int64(3), value)

			scope, err := store.ScopedTransaction(ctx)
			require.NoError(t, err)
			require.NoError(t, repo.Increment(scope.Context(), "games-played", 10))
			scope.Release()

			all, err := repo.All(ctx)
			require.NoError(t, err)
			assert.Equal(t, map[string]int64{"games-played": 3, "games-won": 1}, all)
		})
	}
}
