package outbox

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/outbox"
)

const timeLayout = "2006-01-02T15:04:05.999999999Z07:00"

const entryColumns = `id, action_type, reference, payload, status, attempts, max_attempts,
	last_attempted_at, created_at, external_id, error_message`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// GetByID retrieves an outbox entry.
// PRE: id is non-empty
// POST: Returns the entry or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Entry, error) {
	e, err := scanEntry(s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM outbox WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, domain.ErrNotFound
	}
	return e, errors.Wrapf(err, "get outbox entry %s", id)
}

// Save inserts or updates an entry.
// PRE: e has been validated
// POST: entry persisted
func (s *SQLiteStore) Save(ctx context.Context, e domain.Entry) error {
	lastAttempted := ""
	if !e.LastAttemptedAt.IsZero() {
		lastAttempted = e.LastAttemptedAt.UTC().Format(timeLayout)
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO outbox (`+entryColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   status=excluded.status, attempts=excluded.attempts, max_attempts=excluded.max_attempts,
		   last_attempted_at=excluded.last_attempted_at, external_id=excluded.external_id,
		   error_message=excluded.error_message`,
		e.ID, e.ActionType, e.Reference, e.Payload, e.Status, e.Attempts, e.MaxAttempts,
		lastAttempted, e.CreatedAt.UTC().Format(timeLayout), e.ExternalID, e.ErrorMessage)
	return errors.Wrap(err, "save outbox entry")
}

// ListPending returns pending and retrying entries, oldest first.
// PRE: limit > 0
func (s *SQLiteStore) ListPending(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM outbox
		WHERE status IN (?, ?) ORDER BY created_at ASC, id LIMIT ?`,
		domain.StatusPending, domain.StatusRetrying, limit)
}

// ListFailed returns entries out of attempts, most recently attempted first.
// PRE: limit > 0
func (s *SQLiteStore) ListFailed(ctx context.Context, limit int) ([]domain.Entry, error) {
	return s.list(ctx, `SELECT `+entryColumns+` FROM outbox
		WHERE status = ? AND attempts >= max_attempts ORDER BY last_attempted_at DESC, id LIMIT ?`,
		domain.StatusFailed, limit)
}

// Delete removes an entry.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox WHERE id = ?`, id)
	return errors.Wrap(err, "delete outbox entry")
}

func (s *SQLiteStore) list(ctx context.Context, query string, args ...any) ([]domain.Entry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list outbox entries")
	}
	defer rows.Close()

	entries := []domain.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (domain.Entry, error) {
	var e domain.Entry
	var lastAttempted, created string
	if err := row.Scan(&e.ID, &e.ActionType, &e.Reference, &e.Payload, &e.Status, &e.Attempts, &e.MaxAttempts,
		&lastAttempted, &created, &e.ExternalID, &e.ErrorMessage); err != nil {
		return e, err
	}
	e.CreatedAt = parseTime(created, e.ID)
	if lastAttempted != "" {
		e.LastAttemptedAt = parseTime(lastAttempted, e.ID)
	}
	return e, nil
}

func parseTime(raw, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		zap.S().Warnw("outbox_time_parse_failed", "id", id, "raw", raw, "error", err)
	}
	return t
}
