// Package testing provides testing utilities and helpers for the kabumemo project.
package testing

import (
	"path/filepath"
	"testing"

	"github.com/kabumemo/kabumemo/internal/database"
	"github.com/kabumemo/kabumemo/internal/storage"
	"github.com/rs/zerolog"
)

// NewTestDB creates a migrated SQLite mirror database inside dir.
// The cleanup function is idempotent and can be called multiple times safely.
func NewTestDB(t *testing.T, dir string) (*database.DB, func()) {
	t.Helper()

	db, err := database.New(database.Config{
		Path: filepath.Join(dir, "kabumemo.db"),
		Name: "mirror",
	})
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if err := db.Migrate(); err != nil {
		_ = db.Close()
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	closed := false
	return db, func() {
		if closed {
			return
		}
		closed = true
		if err := db.Close(); err != nil {
			// Log error but don't fail test - cleanup should be idempotent
			t.Logf("Warning: Failed to close test database: %v", err)
		}
	}
}

// NewTestRepository creates a repository over a fresh temporary data directory.
// JSON files and the mirror live side by side; both are removed with the test.
func NewTestRepository(t *testing.T) *storage.Repository {
	t.Helper()

	dir := t.TempDir()
	db, cleanup := NewTestDB(t, dir)

	repo, err := storage.NewRepository(dir, storage.NewMirror(db, zerolog.Nop()), zerolog.Nop())
	if err != nil {
		cleanup()
		t.Fatalf("Failed to create test repository: %v", err)
	}
	t.Cleanup(cleanup)
	return repo
}

// NewSeededRepository is NewTestRepository with the two default funding groups.
func NewSeededRepository(t *testing.T) *storage.Repository {
	t.Helper()

	repo := NewTestRepository(t)
	if err := repo.EnsureDefaultGroups(); err != nil {
		t.Fatalf("Failed to seed default groups: %v", err)
	}
	return repo
}
