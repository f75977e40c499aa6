package customfield

import (
	"context"

	"github.com/pkg/errors"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/customfield"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// ListByInstitute returns the registry ordered by form order, then id.
// PRE: instituteID is non-empty
// POST: Returns all fields; empty slice if none
func (s *SQLiteStore) ListByInstitute(ctx context.Context, instituteID string) ([]domain.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, field_key, field_name, field_type, form_order
		 FROM custom_field WHERE institute_id = ? ORDER BY form_order, id`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "list custom fields")
	}
	defer rows.Close()

	fields := []domain.Field{}
	for rows.Next() {
		var f domain.Field
		if err := rows.Scan(&f.ID, &f.FieldKey, &f.FieldName, &f.FieldType, &f.FormOrder); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// ReplaceAll swaps the institute's registry for fields in one transaction.
// PRE: every field has been validated
// POST: the stored registry equals fields; later duplicates of an id win
func (s *SQLiteStore) ReplaceAll(ctx context.Context, instituteID string, fields []domain.Field) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin replace custom fields")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM custom_field WHERE institute_id = ?`, instituteID); err != nil {
		return errors.Wrap(err, "clear custom fields")
	}
	for _, f := range fields {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO custom_field (id, institute_id, field_key, field_name, field_type, form_order)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(institute_id, id) DO UPDATE SET
			   field_key=excluded.field_key, field_name=excluded.field_name,
			   field_type=excluded.field_type, form_order=excluded.form_order`,
			f.ID, instituteID, f.FieldKey, f.FieldName, f.FieldType, f.FormOrder)
		if err != nil {
			return errors.Wrapf(err, "insert custom field %s", f.ID)
		}
	}
	return tx.Commit()
}
