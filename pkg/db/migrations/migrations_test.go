package migrations

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/fadedpez/egmcore/internal/logging"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrations.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestEmbeddedSchemaApplies(t *testing.T) {
	db := openDB(t)
	migrator := NewMigrator(db, Embedded(), logging.NewNop())

	require.NoError(t, migrator.MigrateUp())
	// running twice is a no-op
	require.NoError(t, migrator.MigrateUp())

	for _, table := range []string{"bank_accounts", "bank_transactions", "meters", "current_round", "round_archive", "cashout_recovery"} {
		var name string
		err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}

	applied, err := migrator.GetAppliedMigrations()
	require.NoError(t, err)
	assert.True(t, applied["001"])
}

func TestLoadMigrationsSortsAndRejectsBadNames(t *testing.T) {
	db := openDB(t)

	source := fstest.MapFS{
		"002_second.sql": {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"001_first.sql":  {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"README.md":      {Data: []byte("ignored")},
	}
	migrations, err := NewMigrator(db, source, logging.NewNop()).LoadMigrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "001", migrations[0].Version)
	assert.Equal(t, "first", migrations[0].Description)

	bad := fstest.MapFS{"nodescription.sql": {Data: []byte("")}}
	_, err = NewMigrator(db, bad, logging.NewNop()).LoadMigrations()
	assert.ErrorContains(t, err, "invalid migration filename")
}

func TestCreateMigration(t *testing.T) {
	db := openDB(t)
	dir := filepath.Join(t.TempDir(), "migrations")
	migrator := NewDirMigrator(db, dir, logging.NewNop())

	path, err := migrator.CreateMigration("add meter snapshots")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "001_add_meter_snapshots.sql"), path)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "-- Migration: add meter snapshots")

	_, err = NewMigrator(db, Embedded(), logging.NewNop()).CreateMigration("nope")
	assert.Error(t, err)
}
