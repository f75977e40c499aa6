package course

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"vacademy/internal/adapters/storage"
	domain "vacademy/internal/domain/course"
)

const timeLayout = "2006-01-02T15:04:05Z07:00"

// timeNow is a variable for testability.
var timeNow = time.Now

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db storage.SQLDB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db storage.SQLDB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

const courseColumns = `id, institute_id, course_name, thumbnail_file_id, contain_levels, status`

// GetByID retrieves a course with its sessions and levels in saved order.
// PRE: id is non-empty
// POST: Returns the course or domain.ErrNotFound
func (s *SQLiteStore) GetByID(ctx context.Context, id string) (domain.Course, error) {
	c, err := scanCourse(s.db.QueryRowContext(ctx, `SELECT `+courseColumns+` FROM course WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Course{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Course{}, errors.Wrapf(err, "get course %s", id)
	}
	if c.Sessions, err = s.loadSessions(ctx, c.ID); err != nil {
		return domain.Course{}, err
	}
	return c, nil
}

// ListByInstitute returns an institute's courses ordered by name.
// PRE: instituteID is non-empty
// POST: Returns courses with sessions loaded; empty slice if none
func (s *SQLiteStore) ListByInstitute(ctx context.Context, instituteID string) ([]domain.Course, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+courseColumns+` FROM course WHERE institute_id = ? ORDER BY course_name, id`, instituteID)
	if err != nil {
		return nil, errors.Wrap(err, "list courses")
	}
	courses := []domain.Course{}
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	// sessions are loaded after the cursor is closed so a single-connection
	// pool does not deadlock
	for i := range courses {
		if courses[i].Sessions, err = s.loadSessions(ctx, courses[i].ID); err != nil {
			return nil, err
		}
	}
	return courses, nil
}

// Save replaces the course row and its whole selection in one transaction.
// PRE: c has an id and has been validated
// POST: stored sessions and levels equal c.Sessions, in order
func (s *SQLiteStore) Save(ctx context.Context, c domain.Course) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin save course")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO course (id, institute_id, course_name, thumbnail_file_id, contain_levels, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   institute_id=excluded.institute_id, course_name=excluded.course_name,
		   thumbnail_file_id=excluded.thumbnail_file_id, contain_levels=excluded.contain_levels,
		   status=excluded.status, updated_at=excluded.updated_at`,
		c.ID, c.InstituteID, c.CourseName, c.ThumbnailFileID, boolToInt(c.ContainLevels), c.Status,
		timeNow().UTC().Format(timeLayout))
	if err != nil {
		return errors.Wrap(err, "upsert course")
	}
	for _, table := range []string{"session_level", "course_session"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE course_id = ?`, c.ID); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}
	for i, sess := range c.Sessions {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO course_session (course_id, session_id, session_name, status, start_date, position)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			c.ID, sess.ID, sess.SessionName, sess.Status, sess.StartDate, i)
		if err != nil {
			return errors.Wrapf(err, "insert session %s", sess.ID)
		}
		for j, lvl := range sess.Levels {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO session_level (course_id, session_id, level_id, level_name, duration_in_days, thumbnail_id, position)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				c.ID, sess.ID, lvl.ID, lvl.LevelName, lvl.DurationInDays, lvl.ThumbnailID, j)
			if err != nil {
				return errors.Wrapf(err, "insert level %s", lvl.ID)
			}
		}
	}
	return tx.Commit()
}

// Delete removes a course; sessions and levels cascade.
// PRE: id is non-empty
// POST: course with id is removed
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM course WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) loadSessions(ctx context.Context, courseID string) ([]domain.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT cs.session_id, cs.session_name, cs.status, cs.start_date,
		        sl.level_id, sl.level_name, sl.duration_in_days, sl.thumbnail_id
		 FROM course_session cs
		 LEFT JOIN session_level sl ON sl.course_id = cs.course_id AND sl.session_id = cs.session_id
		 WHERE cs.course_id = ?
		 ORDER BY cs.position, sl.position`, courseID)
	if err != nil {
		return nil, errors.Wrap(err, "load sessions")
	}
	defer rows.Close()

	sessions := []domain.Session{}
	for rows.Next() {
		var sess domain.Session
		var levelID, levelName, thumb sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&sess.ID, &sess.SessionName, &sess.Status, &sess.StartDate,
			&levelID, &levelName, &duration, &thumb); err != nil {
			return nil, err
		}
		if n := len(sessions); n == 0 || sessions[n-1].ID != sess.ID {
			sess.Levels = []domain.Level{}
			sessions = append(sessions, sess)
		}
		if levelID.Valid {
			last := &sessions[len(sessions)-1]
			last.Levels = append(last.Levels, domain.Level{
				ID:             levelID.String,
				LevelName:      levelName.String,
				DurationInDays: int(duration.Int64),
				ThumbnailID:    thumb.String,
			})
		}
	}
	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCourse(row scanner) (domain.Course, error) {
	var c domain.Course
	var containLevels int
	err := row.Scan(&c.ID, &c.InstituteID, &c.CourseName, &c.ThumbnailFileID, &containLevels, &c.Status)
	c.ContainLevels = containLevels != 0
	return c, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
