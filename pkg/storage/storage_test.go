package storage

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/fadedpez/egmcore/internal/types"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type MemoryStoreTestSuite struct {
	suite.Suite
	store *Store
	ctx   context.Context
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreTestSuite))
}

func (s *MemoryStoreTestSuite) SetupTest() {
	s.store = NewMemoryStore()
	s.ctx = context.Background()
}

func (s *MemoryStoreTestSuite) TestReleaseRunsUndoInReverse() {
	// Setup
	var order []int
	scope, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)

	// Execute
	OnRollback(scope.Context(), func() { order = append(order, 1) })
	OnRollback(scope.Context(), func() { order = append(order, 2) })
	scope.Release()

	// Assert
	s.Equal([]int{2, 1}, order)
	s.False(s.store.Active())
}

func (s *MemoryStoreTestSuite) TestCompleteDiscardsUndo() {
	// Setup
	undone := false
	scope, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)
	OnRollback(scope.Context(), func() { undone = true })

	// Execute
	s.Require().NoError(scope.Complete())
	scope.Release()

	// Assert
	s.False(undone, "release after complete must not roll back")
	s.False(s.store.Active())
	s.Error(scope.Complete(), "a scope completes once")
}

func (s *MemoryStoreTestSuite) TestNestedScopeJoinsOuter() {
	// Setup
	undone := false
	outer, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)

	// Execute
	inner, err := s.store.ScopedTransaction(outer.Context())
	s.Require().NoError(err)
	OnRollback(inner.Context(), func() { undone = true })
	s.Require().NoError(inner.Complete())
	inner.Release()

	// Assert
	s.True(s.store.Active(), "inner complete leaves the outer scope open")
	outer.Release()
	s.True(undone, "outer release rolls back writes made through the inner scope")
}

func (s *MemoryStoreTestSuite) TestSecondScopeIsRejected() {
	// Setup
	first, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)
	defer first.Release()

	// Execute
	second, err := s.store.ScopedTransaction(s.ctx)

	// Assert
	s.Nil(second)
	s.True(types.IsGameError(err, types.ErrTransactionActive))
}

func (s *MemoryStoreTestSuite) TestOutsideScopeHelpersAreInert() {
	called := false
	OnRollback(s.ctx, func() { called = true })

	s.False(called)
	s.False(InScope(s.ctx))
	s.Nil(Tx(s.ctx))
}

func (s *MemoryStoreTestSuite) TestCommitHookRunsAfterScopeCloses() {
	// Setup
	type marker struct{}
	parent := context.WithValue(s.ctx, marker{}, "outer")
	var seen context.Context
	activeDuringHook := true
	scope, err := s.store.ScopedTransaction(parent)
	s.Require().NoError(err)
	inner, err := s.store.ScopedTransaction(scope.Context())
	s.Require().NoError(err)
	OnCommit(inner.Context(), func(ctx context.Context) {
		seen = ctx
		activeDuringHook = s.store.Active()
	})

	// Execute
	s.Require().NoError(inner.Complete())
	s.Nil(seen, "a joined scope does not run hooks")
	s.Require().NoError(scope.Complete())

	// Assert
	s.Require().NotNil(seen)
	s.False(activeDuringHook)
	s.False(InScope(seen))
	s.Equal("outer", seen.Value(marker{}))
}

func (s *MemoryStoreTestSuite) TestReleaseDropsCommitHooks() {
	// Setup
	ran := false
	scope, err := s.store.ScopedTransaction(s.ctx)
	s.Require().NoError(err)
	OnCommit(scope.Context(), func(context.Context) { ran = true })

	// Execute
	scope.Release()

	// Assert
	s.False(ran)
}

func (s *MemoryStoreTestSuite) TestCommitHookOutsideScopeRunsNow() {
	ran := false
	OnCommit(s.ctx, func(context.Context) { ran = true })
	s.True(ran)
}

func TestSQLiteStoreCommitAndRollback(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE items (name TEXT PRIMARY KEY)`)
	require.NoError(t, err)

	store := NewSQLiteStore(db)
	ctx := context.Background()

	insert := func(name string, complete bool) {
		scope, err := store.ScopedTransaction(ctx)
		require.NoError(t, err)
		defer scope.Release()

		require.NotNil(t, Tx(scope.Context()))
		_, err = ExecutorFor(scope.Context(), db).ExecContext(scope.Context(), `INSERT INTO items (name) VALUES (?)`, name)
		require.NoError(t, err)

		if complete {
			require.NoError(t, scope.Complete())
		}
	}

	insert("kept", true)
	insert("dropped", false)

	var names []string
	rows, err := db.Query(`SELECT name FROM items ORDER BY name`)
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())

	assert.Equal(t, []string{"kept"}, names)
	assert.False(t, store.Active())
}
