// Package storagetest opens migrated in-memory databases for store tests.
package storagetest

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"vacademy/internal/adapters/storage"
)

// Open returns a fresh migrated single-connection in-memory database that is
// closed when the test ends.
func Open(t testing.TB) *sql.DB {
	t.Helper()
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.InitDB(db))
	return db
}
