package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fadedpez/egmcore/internal/logging"
	"github.com/fadedpez/egmcore/pkg/db"
	"github.com/fadedpez/egmcore/pkg/entities"
	"github.com/fadedpez/egmcore/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openBackends(t *testing.T) map[string]func() (Repository, *storage.Store) {
	return map[string]func() (Repository, *storage.Store){
		"memory": func() (Repository, *storage.Store) {
			return NewMemoryRepository(), storage.NewMemoryStore()
		},
		"sqlite": func() (Repository, *storage.Store) {
			conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "history.db"), logging.NewNop())
			require.NoError(t, err)
			t.Cleanup(func() { conn.Close() })
			return NewSQLiteRepository(conn), storage.NewSQLiteStore(conn)
		},
	}
}

func finishedRound(id string, end time.Time) *entities.GameHistoryLog {
	log := entities.NewGameHistoryLog(id, end.Add(-time.Minute))
	log.GameID = "dragon"
	log.InitialWager = 100
	log.FinalWager = 100
	log.TotalWon = 250
	log.LastCommitIndex = 0
	log.Result = entities.ResultWon
	log.EndTime = end
	log.RoundInfo = []string{"spin", "stop"}
	return log
}

func TestCurrentRoundLifecycle(t *testing.T) {
	for name, open := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo, store := open()
			ctx := context.Background()

			current, err := repo.LoadCurrent(ctx)
			require.NoError(t, err)
			assert.Nil(t, current)

			log := entities.NewGameHistoryLog("round-1", time.Now())
			log.UncommittedWin = 40
			require.NoError(t, repo.SaveCurrent(ctx, log))

			// a released scope restores the previous version
			scope, err := store.ScopedTransaction(ctx)
			require.NoError(t, err)
			changed := log.Clone()
			changed.UncommittedWin = 999
			require.NoError(t, repo.SaveCurrent(scope.Context(), changed))
			scope.Release()

			current, err = repo.LoadCurrent(ctx)
			require.NoError(t, err)
			require.NotNil(t, current)
			assert.Equal(t, "round-1", current.RoundID)
			assert.Equal(t, int64(40), current.UncommittedWin)
			assert.Equal(t, -1, current.LastCommitIndex)

			require.NoError(t, repo.ClearCurrent(ctx))
			current, err = repo.LoadCurrent(ctx)
			require.NoError(t, err)
			assert.Nil(t, current)
		})
	}
}

func TestArchiveAndShipping(t *testing.T) {
	for name, open := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			repo, _ := open()
			ctx := context.Background()
			now := time.Now()

			require.NoError(t, repo.Archive(ctx, finishedRound("late", now)))
			require.NoError(t, repo.Archive(ctx, finishedRound("early", now.Add(-time.Hour))))

			got, err := repo.GetArchived(ctx, "late")
			require.NoError(t, err)
			assert.Equal(t, int64(250), got.TotalWon)
			assert.Equal(t, []string{"spin", "stop"}, got.RoundInfo)

			_, err = repo.GetArchived(ctx, "missing")
			assert.ErrorIs(t, err, ErrRoundNotFound)

			pending, err := repo.ListUnshipped(ctx, 0)
			require.NoError(t, err)
			require.Len(t, pending, 2)
			assert.Equal(t, "early", pending[0].RoundID)

			require.NoError(t, repo.MarkShipped(ctx, []string{"early"}))
			pending, err = repo.ListUnshipped(ctx, 10)
			require.NoError(t, err)
			require.Len(t, pending, 1)
			assert.Equal(t, "late", pending[0].RoundID)

			require.NoError(t, repo.MarkShipped(ctx, nil))
		})
	}
}
