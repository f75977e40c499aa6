package campaign

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pkg/errors"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/campaign"
)

// sortColumns maps LeadQuery sort keys to columns.
var sortColumns = map[string]string{
	domain.SortSubmittedAt: "submitted_at",
	domain.SortFullName:    "full_name",
	domain.SortEmail:       "email",
}

// LeadSQLiteStore implements LeadStore using SQLite.
type LeadSQLiteStore struct {
	db storage.SQLDB
}

// NewLeadSQLiteStore creates a new LeadSQLiteStore.
func NewLeadSQLiteStore(db storage.SQLDB) *LeadSQLiteStore {
	return &LeadSQLiteStore{db: db}
}

// Save inserts or replaces a lead response.
// PRE: l has been validated
// POST: lead persisted with its custom values as JSON
func (s *LeadSQLiteStore) Save(ctx context.Context, l domain.Lead) error {
	values := l.CustomFieldValues
	if values == nil {
		values = map[string]string{}
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return errors.Wrap(err, "encode custom field values")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO lead_response (id, audience_id, user_id, full_name, email, mobile_number, custom_field_values, submitted_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   audience_id=excluded.audience_id, user_id=excluded.user_id, full_name=excluded.full_name,
		   email=excluded.email, mobile_number=excluded.mobile_number,
		   custom_field_values=excluded.custom_field_values, submitted_at=excluded.submitted_at`,
		l.ResponseID, l.AudienceID, l.User.ID, l.User.FullName, l.User.Email, l.User.MobileNumber,
		string(raw), l.SubmittedAtLocal.UTC().Format(timeLayout))
	return errors.Wrap(err, "save lead")
}

// Search returns one page of an audience's leads.
// PRE: q validates after normalisation
// POST: Returns a page whose metadata counts every matching lead
func (s *LeadSQLiteStore) Search(ctx context.Context, q domain.LeadQuery) (domain.LeadPage, error) {
	q = q.Normalize()
	if err := q.Validate(); err != nil {
		return domain.LeadPage{}, err
	}

	where := []string{"audience_id = ?"}
	args := []any{q.AudienceID}
	if q.SubmittedFrom != nil {
		where = append(where, "submitted_at >= ?")
		args = append(args, q.SubmittedFrom.UTC().Format(timeLayout))
	}
	if q.SubmittedTo != nil {
		where = append(where, "submitted_at <= ?")
		args = append(args, q.SubmittedTo.UTC().Format(timeLayout))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM lead_response WHERE `+cond, args...).Scan(&total); err != nil {
		return domain.LeadPage{}, errors.Wrap(err, "count leads")
	}

	query := `SELECT id, audience_id, user_id, full_name, email, mobile_number, custom_field_values, submitted_at
		FROM lead_response WHERE ` + cond +
		` ORDER BY ` + sortColumns[q.SortBy] + ` ` + q.SortDirection + `, id ` + q.SortDirection +
		` LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, q.Size, q.Page*q.Size)...)
	if err != nil {
		return domain.LeadPage{}, errors.Wrap(err, "search leads")
	}
	defer rows.Close()

	var leads []domain.Lead
	for rows.Next() {
		var l domain.Lead
		var raw, submitted string
		if err := rows.Scan(&l.ResponseID, &l.AudienceID, &l.User.ID, &l.User.FullName, &l.User.Email,
			&l.User.MobileNumber, &raw, &submitted); err != nil {
			return domain.LeadPage{}, err
		}
		if err := json.Unmarshal([]byte(raw), &l.CustomFieldValues); err != nil {
			return domain.LeadPage{}, errors.Wrapf(err, "decode custom values of lead %s", l.ResponseID)
		}
		l.SubmittedAtLocal = parseTime(submitted, "submitted_at", l.ResponseID)
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return domain.LeadPage{}, err
	}
	return domain.NewLeadPage(leads, q.Page, q.Size, total), nil
}
