package db

import (
	"path/filepath"
	"testing"
)

// migrationsDir locates the repo-root migrations directory from this
// package's test working directory.
const migrationsDir = "../../migrations"

// newTestDB opens a fresh database in a per-test temp dir with the full
// schema applied.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "eyecal_test.db")
	d, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	if err := d.MigrateUp(migrationsDir); err != nil {
		t.Fatalf("MigrateUp: %v", err)
	}
	return d
}
