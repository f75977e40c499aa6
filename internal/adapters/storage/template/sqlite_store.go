package template

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/template"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// timeNow is a variable for testability.
var timeNow = time.Now

// SQLiteStore implements Store and MappingStore using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const templateColumns = `id, institute_id, name, subject, html, channel, updated_at`

// GetByID retrieves a template.
// PRE: id is non-empty
// POST: Returns the template or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Template, error) {
	t, err := scanTemplate(s.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM email_template WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Template{}, domain.ErrNotFound
	}
	return t, errors.Wrapf(err, "get template %s", id)
}

// ListByInstitute returns an institute's templates, most recently updated first.
func (s *SQLiteStore) ListByInstitute(ctx context.Context, instituteID string) ([]domain.Template, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM email_template WHERE institute_id = ? ORDER BY updated_at DESC, id`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "list templates")
	}
	defer rows.Close()

	templates := []domain.Template{}
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// Save inserts or updates a template. A zero UpdatedAt is set to now.
// PRE: t has an id and has been validated
// POST: template persisted
func (s *SQLiteStore) Save(ctx context.Context, t domain.Template) error {
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = timeNow()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO email_template (id, institute_id, name, subject, html, channel, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   institute_id=excluded.institute_id, name=excluded.name, subject=excluded.subject,
		   html=excluded.html, channel=excluded.channel, updated_at=excluded.updated_at`,
		t.ID, t.InstituteID, t.Name, t.Subject, t.HTML, t.Channel, t.UpdatedAt.UTC().Format(timeLayout))
	return errors.Wrap(err, "save template")
}

// Delete removes a template, its mappings and its editor state.
// PRE: id is non-empty
// POST: nothing keyed by id remains
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin delete template")
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM template_mapping WHERE template_id = ?`, id); err != nil {
		return errors.Wrap(err, "delete mappings")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM editor_state WHERE key = ?`, domain.EditorStateKey(id)); err != nil {
		return errors.Wrap(err, "delete editor state")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM email_template WHERE id = ?`, id); err != nil {
		return errors.Wrap(err, "delete template")
	}
	return tx.Commit()
}

// ListByTemplate returns a template's mappings ordered by placeholder.
func (s *SQLiteStore) ListByTemplate(ctx context.Context, templateID string) ([]domain.Mapping, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, placeholder, field_key FROM template_mapping
		 WHERE template_id = ? ORDER BY placeholder`, templateID)
	if err != nil {
		return nil, errors.Wrap(err, "list mappings")
	}
	defer rows.Close()

	ms := []domain.Mapping{}
	for rows.Next() {
		var m domain.Mapping
		if err := rows.Scan(&m.ID, &m.TemplateID, &m.Placeholder, &m.FieldKey); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}

// ReplaceForTemplate swaps a template's mappings in one transaction.
// PRE: every mapping has an id and has been validated
// POST: stored mappings equal ms; a repeated placeholder keeps the last mapping
func (s *SQLiteStore) ReplaceForTemplate(ctx context.Context, templateID string, ms []domain.Mapping) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin replace mappings")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM template_mapping WHERE template_id = ?`, templateID); err != nil {
		return errors.Wrap(err, "clear mappings")
	}
	for _, m := range ms {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO template_mapping (id, template_id, placeholder, field_key) VALUES (?, ?, ?, ?)
			 ON CONFLICT(template_id, placeholder) DO UPDATE SET field_key=excluded.field_key`,
			m.ID, templateID, m.Placeholder, m.FieldKey)
		if err != nil {
			return errors.Wrapf(err, "insert mapping %s", m.Placeholder)
		}
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTemplate(row scanner) (domain.Template, error) {
	var t domain.Template
	var updated string
	if err := row.Scan(&t.ID, &t.InstituteID, &t.Name, &t.Subject, &t.HTML, &t.Channel, &updated); err != nil {
		return t, err
	}
	var err error
	if t.UpdatedAt, err = time.Parse(timeLayout, updated); err != nil {
		zap.S().Warnw("template_time_parse_failed", "id", t.ID, "raw", updated, "error", err)
	}
	return t, nil
}
