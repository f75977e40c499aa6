package campaign

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/campaign"
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

const campaignColumns = `id, institute_id, campaign_name, audience_id, status, created_at`

// GetByID retrieves a campaign with its declared fields.
// PRE: id is non-empty
// POST: Returns the campaign or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Campaign, error) {
	c, err := scanCampaign(s.db.QueryRowContext(ctx, `SELECT `+campaignColumns+` FROM campaign WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Campaign{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Campaign{}, errors.Wrapf(err, "get campaign %s", id)
	}
	if c.CustomFields, err = s.loadFields(ctx, c.ID); err != nil {
		return domain.Campaign{}, err
	}
	return c, nil
}

// ListByInstitute returns an institute's campaigns, newest first.
// PRE: instituteID is non-empty
// POST: Returns campaigns with declared fields; empty slice if none
func (s *SQLiteStore) ListByInstitute(ctx context.Context, instituteID string) ([]domain.Campaign, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaign WHERE institute_id = ? ORDER BY created_at DESC, id`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "list campaigns")
	}
	campaigns := []domain.Campaign{}
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	for i := range campaigns {
		if campaigns[i].CustomFields, err = s.loadFields(ctx, campaigns[i].ID); err != nil {
			return nil, err
		}
	}
	return campaigns, nil
}

// Save upserts a campaign and replaces its declared fields.
// PRE: c has an id and has been validated
// POST: campaign and field declarations persisted in declaration order
func (s *SQLiteStore) Save(ctx context.Context, c domain.Campaign) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save campaign")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO campaign (id, institute_id, campaign_name, audience_id, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   institute_id=excluded.institute_id, campaign_name=excluded.campaign_name,
		   audience_id=excluded.audience_id, status=excluded.status`,
		c.ID, c.InstituteID, c.Name, c.AudienceID, c.Status, c.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return errors.Wrap(err, "upsert campaign")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM campaign_field WHERE campaign_id = ?`, c.ID); err != nil {
		return errors.Wrap(err, "clear campaign fields")
	}
	for i, f := range c.CustomFields {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO campaign_field (campaign_id, custom_field_id, field_key, field_name, form_order, position)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(campaign_id, custom_field_id) DO NOTHING`,
			c.ID, f.CustomFieldID, f.FieldKey, f.FieldName, f.FormOrder, i)
		if err != nil {
			return errors.Wrapf(err, "insert campaign field %s", f.CustomFieldID)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) loadFields(ctx context.Context, campaignID string) ([]domain.FieldRef, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT custom_field_id, field_key, field_name, form_order
		 FROM campaign_field WHERE campaign_id = ? ORDER BY position`, campaignID)
	if err != nil {
		return nil, errors.Wrap(err, "load campaign fields")
	}
	defer rows.Close()

	fields := []domain.FieldRef{}
	for rows.Next() {
		var f domain.FieldRef
		if err := rows.Scan(&f.CustomFieldID, &f.FieldKey, &f.FieldName, &f.FormOrder); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row scanner) (domain.Campaign, error) {
	var c domain.Campaign
	var createdAt string
	if err := row.Scan(&c.ID, &c.InstituteID, &c.Name, &c.AudienceID, &c.Status, &createdAt); err != nil {
		return c, err
	}
	c.CreatedAt = parseTime(createdAt, "created_at", c.ID)
	return c, nil
}

// parseTime parses a stored time, logging a warning on failure.
func parseTime(raw, field, id string) time.Time {
	t, err := time.Parse(timeLayout, raw)
	if err != nil {
		zap.S().Warnw("campaign_time_parse_failed", "field", field, "id", id, "raw", raw, "error", err)
	}
	return t
}
