package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// migration applies one schema step inside a transaction.
type migration struct {
	version int
	name    string
	stmts   []string
}

// migrations is the ordered schema history. Append only.
var migrations = []migration{
	{1, "baseline", []string{
		`CREATE TABLE IF NOT EXISTS course (
			id TEXT PRIMARY KEY,
			institute_id TEXT NOT NULL,
			course_name TEXT NOT NULL,
			thumbnail_file_id TEXT NOT NULL DEFAULT '',
			contain_levels INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_course_institute ON course(institute_id)`,
		`CREATE TABLE IF NOT EXISTS course_session (
			course_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			session_name TEXT NOT NULL,
			status TEXT NOT NULL,
			start_date TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			PRIMARY KEY (course_id, session_id),
			FOREIGN KEY (course_id) REFERENCES course(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS session_level (
			course_id TEXT NOT NULL,
			session_id TEXT NOT NULL,
			level_id TEXT NOT NULL,
			level_name TEXT NOT NULL,
			duration_in_days INTEGER NOT NULL DEFAULT 0,
			thumbnail_id TEXT NOT NULL DEFAULT '',
			position INTEGER NOT NULL,
			PRIMARY KEY (course_id, session_id, level_id),
			FOREIGN KEY (course_id, session_id) REFERENCES course_session(course_id, session_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS custom_field (
			id TEXT NOT NULL,
			institute_id TEXT NOT NULL,
			field_key TEXT NOT NULL,
			field_name TEXT NOT NULL DEFAULT '',
			field_type TEXT NOT NULL DEFAULT '',
			form_order INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (institute_id, id)
		)`,
		`CREATE TABLE IF NOT EXISTS campaign (
			id TEXT PRIMARY KEY,
			institute_id TEXT NOT NULL,
			campaign_name TEXT NOT NULL,
			audience_id TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_campaign_institute ON campaign(institute_id)`,
		`CREATE TABLE IF NOT EXISTS campaign_field (
			campaign_id TEXT NOT NULL,
			custom_field_id TEXT NOT NULL,
			field_key TEXT NOT NULL DEFAULT '',
			field_name TEXT NOT NULL DEFAULT '',
			form_order INTEGER NOT NULL DEFAULT 0,
			position INTEGER NOT NULL,
			PRIMARY KEY (campaign_id, custom_field_id),
			FOREIGN KEY (campaign_id) REFERENCES campaign(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS lead_response (
			id TEXT PRIMARY KEY,
			audience_id TEXT NOT NULL,
			user_id TEXT NOT NULL DEFAULT '',
			full_name TEXT NOT NULL DEFAULT '',
			email TEXT NOT NULL DEFAULT '',
			mobile_number TEXT NOT NULL DEFAULT '',
			custom_field_values TEXT NOT NULL DEFAULT '{}',
			submitted_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_lead_audience_submitted ON lead_response(audience_id, submitted_at)`,
		`CREATE TABLE IF NOT EXISTS email_template (
			id TEXT PRIMARY KEY,
			institute_id TEXT NOT NULL,
			name TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT '',
			html TEXT NOT NULL DEFAULT '',
			channel TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS template_mapping (
			id TEXT PRIMARY KEY,
			template_id TEXT NOT NULL,
			placeholder TEXT NOT NULL,
			field_key TEXT NOT NULL,
			UNIQUE (template_id, placeholder),
			FOREIGN KEY (template_id) REFERENCES email_template(id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS editor_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS asset (
			id TEXT PRIMARY KEY,
			institute_id TEXT NOT NULL,
			folder TEXT NOT NULL DEFAULT '',
			file_name TEXT NOT NULL,
			url TEXT NOT NULL,
			mime_type TEXT NOT NULL DEFAULT '',
			size INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_asset_institute_folder ON asset(institute_id, folder)`,
	}},
	{2, "outbox", []string{
		`CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			action_type TEXT NOT NULL,
			reference TEXT NOT NULL DEFAULT '',
			payload TEXT NOT NULL,
			status TEXT NOT NULL,
			attempts INTEGER NOT NULL DEFAULT 0,
			max_attempts INTEGER NOT NULL,
			last_attempted_at TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			external_id TEXT NOT NULL DEFAULT '',
			error_message TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_outbox_status ON outbox(status, created_at)`,
	}},
}

// Open opens the SQLite database at path with WAL, busy timeout and foreign
// keys set on every pooled connection. ":memory:" is limited to a single
// connection so all callers share one database.
func Open(path string) (*sql.DB, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(25)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "database unreachable")
	}
	return db, nil
}

// LatestSchemaVersion returns the version the migration chain ends at.
func LatestSchemaVersion() int {
	return migrations[len(migrations)-1].version
}

// SchemaVersion returns the applied schema version, 0 for a fresh database.
func SchemaVersion(db *sql.DB) (int, error) {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL)`); err != nil {
		return 0, errors.Wrap(err, "create schema_version")
	}
	var v sql.NullInt64
	if err := db.QueryRow(`SELECT MAX(version) FROM schema_version`).Scan(&v); err != nil {
		return 0, errors.Wrap(err, "read schema_version")
	}
	return int(v.Int64), nil
}

// InitDB enables WAL and foreign keys, then applies pending migrations.
// PRE: db is a valid database connection
// POST: schema is at LatestSchemaVersion
func InitDB(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return errors.Wrap(err, "enable WAL mode")
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return errors.Wrap(err, "enable foreign keys")
	}
	return MigrateDB(db)
}

// MigrateDB applies every migration newer than the stored version, each in
// its own transaction. Running it twice is a no-op.
func MigrateDB(db *sql.DB) error {
	current, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := apply(db, m); err != nil {
			return errors.Wrapf(err, "migration %d (%s)", m.version, m.name)
		}
	}
	return nil
}

func apply(db *sql.DB, m migration) error {
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	for _, stmt := range m.stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_version (version) VALUES (?)`, m.version); err != nil {
		return err
	}
	return tx.Commit()
}
