package template

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/template"
)

// EditorStateSQLiteStore implements EditorStateStore using SQLite.
type EditorStateSQLiteStore struct {
	db storage.SQLDB
}

// NewEditorStateSQLiteStore creates a new EditorStateSQLiteStore.
func NewEditorStateSQLiteStore(db storage.SQLDB) *EditorStateSQLiteStore {
	return &EditorStateSQLiteStore{db: db}
}

// Get returns the value stored under key.
// POST: Returns domain.ErrEditorStateNotFound for a missing key
func (s *EditorStateSQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM editor_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrEditorStateNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "get editor state")
	}
	return []byte(value), nil
}

// Put stores value under key, replacing any previous value.
func (s *EditorStateSQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO editor_state (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, string(value), timeNow().UTC().Format(timeLayout))
	return errors.Wrap(err, "put editor state")
}

// Delete removes key. Deleting a missing key is not an error.
func (s *EditorStateSQLiteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM editor_state WHERE key = ?`, key)
	return errors.Wrap(err, "delete editor state")
}
