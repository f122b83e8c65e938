package testutil

import (
	"database/sql"
	"testing"

	"github.com/merosman91/Agricultural-Tractor/internal/db"
	"github.com/merosman91/Agricultural-Tractor/internal/repository"
)

// NewTestDB creates an in-memory SQLite database with all migrations applied.
// The database is closed when the test completes.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() {
		database.Close()
	})
	return database
}

// NewTestUoW creates a UnitOfWork backed by the given test database.
func NewTestUoW(database *sql.DB) db.UnitOfWork {
	return db.NewSQLiteUnitOfWork(database)
}

// NewTestBlobStore returns a blob store over a fresh in-memory database.
func NewTestBlobStore(t *testing.T) *repository.SQLiteBlobStore {
	t.Helper()
	database := NewTestDB(t)
	return repository.NewSQLiteBlobStore(database, NewTestUoW(database))
}
