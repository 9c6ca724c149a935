package storage

import (
	"context"
	"database/sql"
	"sync"

	"github.com/fadedpez/egmcore/internal/types"
)

// Executor is the subset of *sql.DB and *sql.Tx the repositories need
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Store hands out scoped transactions. A SQLite store wraps a *sql.Tx; a
// memory store only keeps the undo journal.
type Store struct {
	db     *sql.DB
	mu     sync.Mutex
	active *txState
}

// NewSQLiteStore creates a store whose scopes run inside SQLite transactions
func NewSQLiteStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// NewMemoryStore creates a store for memory repositories
func NewMemoryStore() *Store {
	return &Store{}
}

// DB returns the underlying database, nil for a memory store
func (s *Store) DB() *sql.DB {
	return s.db
}

type scopeKey struct{}

type txState struct {
	store  *Store
	parent context.Context
	tx     *sql.Tx
	undo   []func()
	commit []func(ctx context.Context)
}

// ScopedTransaction opens the single transaction scope. When ctx already
// carries a scope from this store the returned scope joins it, and its
// Complete and Release do nothing.
func (s *Store) ScopedTransaction(ctx context.Context) (*Scope, error) {
	if st, ok := ctx.Value(scopeKey{}).(*txState); ok && st.store == s {
		return &Scope{ctx: ctx, state: st, joined: true}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		return nil, types.NewGameError(types.ErrTransactionActive, "a transaction scope is already open")
	}

	st := &txState{store: s, parent: ctx}
	if s.db != nil {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return nil, types.WrapError(types.ErrTransactionFailed, "begin transaction", err)
		}
		st.tx = tx
	}
	s.active = st

	return &Scope{ctx: context.WithValue(ctx, scopeKey{}, st), state: st}, nil
}

// Active reports whether a scope is open
func (s *Store) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active != nil
}

func (s *Store) finish(st *txState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == st {
		s.active = nil
	}
}

// Scope is one atomic unit of persistence. Always defer Release right after
// acquiring it; Complete makes the enclosed writes durable.
type Scope struct {
	noCopy noCopy

	ctx    context.Context
	state  *txState
	joined bool
	done   bool
}

// Context carries the scope to repositories
func (sc *Scope) Context() context.Context {
	return sc.ctx
}

// Complete commits the enclosed writes
func (sc *Scope) Complete() error {
	if sc.joined {
		return nil
	}
	if sc.done {
		return types.NewGameError(types.ErrTransactionFailed, "scope already finished")
	}
	sc.done = true

	if sc.state.tx != nil {
		if err := sc.state.tx.Commit(); err != nil {
			sc.rollbackMemory()
			sc.state.store.finish(sc.state)
			return types.WrapError(types.ErrTransactionFailed, "commit", err)
		}
	}
	sc.state.undo = nil
	sc.state.store.finish(sc.state)

	// hooks run outside the scope so they can open their own
	hooks := sc.state.commit
	sc.state.commit = nil
	for _, fn := range hooks {
		fn(sc.state.parent)
	}
	return nil
}

// Release rolls back a scope that was never completed
func (sc *Scope) Release() {
	if sc.joined || sc.done {
		return
	}
	sc.done = true
	defer sc.state.store.finish(sc.state)

	if sc.state.tx != nil {
		_ = sc.state.tx.Rollback()
	}
	sc.rollbackMemory()
}

func (sc *Scope) rollbackMemory() {
	for i := len(sc.state.undo) - 1; i >= 0; i-- {
		sc.state.undo[i]()
	}
	sc.state.undo = nil
	sc.state.commit = nil
}

// Tx returns the SQL transaction carried by ctx, if any
func Tx(ctx context.Context) *sql.Tx {
	if st, ok := ctx.Value(scopeKey{}).(*txState); ok {
		return st.tx
	}
	return nil
}

// InScope reports whether ctx carries an open scope
func InScope(ctx context.Context) bool {
	_, ok := ctx.Value(scopeKey{}).(*txState)
	return ok
}

// OnRollback registers fn to run if the scope carried by ctx is released
// without being completed. Outside a scope it does nothing.
func OnRollback(ctx context.Context, fn func()) {
	if st, ok := ctx.Value(scopeKey{}).(*txState); ok {
		st.undo = append(st.undo, fn)
	}
}

// OnCommit registers fn to run once the scope carried by ctx has committed
// and closed. fn receives the context the scope was opened with. Outside a
// scope fn runs right away with ctx.
func OnCommit(ctx context.Context, fn func(ctx context.Context)) {
	if st, ok := ctx.Value(scopeKey{}).(*txState); ok {
		st.commit = append(st.commit, fn)
		return
	}
	fn(ctx)
}

// ExecutorFor returns the transaction carried by ctx, or db
func ExecutorFor(ctx context.Context, db *sql.DB) Executor {
	if tx := Tx(ctx); tx != nil {
		return tx
	}
	return db
}

// noCopy makes go vet's copylocks check flag copied scopes
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}
