package db

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMigrate_UpgradePath_LegacyBlobTable simulates a database created before
// the revision column existed. The stored blob must survive and pick up the
// column default.
func TestMigrate_UpgradePath_LegacyBlobTable(t *testing.T) {
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE kv_blobs (
		key        TEXT PRIMARY KEY,
		value      BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO kv_blobs (key, value, updated_at) VALUES ('tractor_records', '[]', '2024-12-01T08:00:00Z')`)
	require.NoError(t, err)

	require.NoError(t, Migrate(db))

	var value string
	var rev int
	err = db.QueryRow(`SELECT value, revision FROM kv_blobs WHERE key = 'tractor_records'`).Scan(&value, &rev)
	require.NoError(t, err)
	assert.Equal(t, "[]", value)
	assert.Equal(t, 1, rev)
}
