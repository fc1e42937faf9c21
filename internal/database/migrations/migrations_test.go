package migrations

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "m.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n))
	return n == 1
}

func TestLoadMigrationsEmbedded(t *testing.T) {
	ms, err := LoadMigrations(Files)
	require.NoError(t, err)
	require.NotEmpty(t, ms)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "init", ms[0].Name)
	assert.Contains(t, ms[0].Up, "CREATE TABLE IF NOT EXISTS events")
	assert.Contains(t, ms[0].Down, "DROP TABLE IF EXISTS events")
}

func TestLoadMigrationsOrderAndSkips(t *testing.T) {
	fsys := fstest.MapFS{
		"0002_b.up.sql":   {Data: []byte("CREATE TABLE b (id INTEGER);")},
		"0001_a.up.sql":   {Data: []byte("CREATE TABLE a (id INTEGER);")},
		"0001_a.down.sql": {Data: []byte("DROP TABLE a;")},
		"README.md":       {Data: []byte("not a migration")},
		"bogus.sql":       {Data: []byte("SELECT 1;")},
		"x_c.up.sql":      {Data: []byte("SELECT 1;")},
	}

	ms, err := LoadMigrations(fsys)
	require.NoError(t, err)
	require.Len(t, ms, 2)
	assert.Equal(t, 1, ms[0].Version)
	assert.Equal(t, "DROP TABLE a;", ms[0].Down)
	assert.Equal(t, "a", ms[0].Name)
	assert.Equal(t, 2, ms[1].Version)
	assert.Empty(t, ms[1].Down)
}

func TestRunAndRollback(t *testing.T) {
	ctx := context.Background()
	db := openDB(t)
	ms, err := LoadMigrations(Files)
	require.NoError(t, err)

	require.NoError(t, RunMigrations(ctx, db, ms))
	require.NoError(t, RunMigrations(ctx, db, ms))
	assert.True(t, tableExists(t, db, "events"))
	assert.True(t, tableExists(t, db, "feeds"))

	require.NoError(t, RollbackMigrations(ctx, db, ms, 1))
	assert.False(t, tableExists(t, db, "events"))
	assert.False(t, tableExists(t, db, "feeds"))

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Zero(t, n)
}
