package asset

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/asset"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const assetColumns = `id, institute_id, folder, file_name, url, mime_type, size, created_at`

// GetByID retrieves an asset.
// PRE: id is non-empty
// POST: Returns the asset or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Asset, error) {
	a, err := scanAsset(s.db.QueryRowContext(ctx, `SELECT `+assetColumns+` FROM asset WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Asset{}, domain.ErrNotFound
	}
	return a, errors.Wrapf(err, "get asset %s", id)
}

// Save inserts or updates asset metadata.
// PRE: a has an id and has been validated
// POST: asset persisted
func (s *SQLiteStore) Save(ctx context.Context, a domain.Asset) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO asset (`+assetColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   institute_id=excluded.institute_id, folder=excluded.folder, file_name=excluded.file_name,
		   url=excluded.url, mime_type=excluded.mime_type, size=excluded.size`,
		a.ID, a.InstituteID, a.Folder, a.FileName, a.URL, a.MimeType, a.Size, a.CreatedAt.UTC().Format(timeLayout))
	return errors.Wrap(err, "save asset")
}

// Search lists an institute's assets, newest first. Folder matches exactly;
// Search matches a case-insensitive substring of the file name.
// PRE: q.InstituteID is non-empty
// POST: at most q.Limit (or domain.DefaultLimit) assets
func (s *SQLiteStore) Search(ctx context.Context, q domain.Query) ([]domain.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM asset WHERE institute_id = ?`
	args := []any{q.InstituteID}
	if q.Folder != "" {
		query += ` AND folder = ?`
		args = append(args, q.Folder)
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		query += ` AND LOWER(file_name) LIKE ? ESCAPE '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(term))+"%")
	}
	limit := q.Limit
	if limit <= 0 {
		limit = domain.DefaultLimit
	}
	query += ` ORDER BY created_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "search assets")
	}
	defer rows.Close()

	assets := []domain.Asset{}
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAsset(row scanner) (domain.Asset, error) {
	var a domain.Asset
	var created string
	if err := row.Scan(&a.ID, &a.InstituteID, &a.Folder, &a.FileName, &a.URL, &a.MimeType, &a.Size, &created); err != nil {
		return a, err
	}
	var err error
	if a.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		zap.S().Warnw("asset_time_parse_failed", "id", a.ID, "raw", created, "error", err)
	}
	return a, nil
}
