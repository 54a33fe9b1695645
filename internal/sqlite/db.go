package sqlite

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New creates a new SQLite database connection
func New(dataSourceName string) (*DB, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return &DB{db}, nil
}

// RunMigrations creates the schema. The layout mirrors the exported
// snapshot: records with their sessions, templates, and single-row
// settings and timer tables.
func (db *DB) RunMigrations() error {
	migration := `
-- Work records
CREATE TABLE IF NOT EXISTS work_records (
    id TEXT PRIMARY KEY,
    work_name TEXT NOT NULL,
    deal_name TEXT NOT NULL DEFAULT '',
    task_name TEXT NOT NULL DEFAULT '',
    category_name TEXT NOT NULL DEFAULT '',
    project_code TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    start_time TEXT NOT NULL DEFAULT '',
    end_time TEXT NOT NULL DEFAULT '',
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    is_completed INTEGER NOT NULL DEFAULT 0,
    is_deleted INTEGER NOT NULL DEFAULT 0,
    completed_at TIMESTAMP,
    deleted_at TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_record_date ON work_records(date);
CREATE INDEX IF NOT EXISTS idx_record_identity ON work_records(work_name, deal_name);

-- Work sessions, owned by their record
CREATE TABLE IF NOT EXISTS work_sessions (
    id TEXT PRIMARY KEY,
    record_id TEXT NOT NULL,
    date TEXT NOT NULL,
    start_time TEXT NOT NULL,
    end_time TEXT NOT NULL DEFAULT '',
    duration_minutes INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (record_id) REFERENCES work_records(id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_session_record ON work_sessions(record_id);
CREATE INDEX IF NOT EXISTS idx_session_date ON work_sessions(date);

-- Templates
CREATE TABLE IF NOT EXISTS work_templates (
    id TEXT PRIMARY KEY,
    work_name TEXT NOT NULL,
    deal_name TEXT NOT NULL DEFAULT '',
    task_name TEXT NOT NULL DEFAULT '',
    category_name TEXT NOT NULL DEFAULT '',
    project_code TEXT NOT NULL DEFAULT '',
    note TEXT NOT NULL DEFAULT ''
);

-- Single-row settings
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    lunch_start TEXT NOT NULL DEFAULT '',
    lunch_end TEXT NOT NULL DEFAULT '',
    custom_work_names TEXT NOT NULL DEFAULT '[]',
    custom_categories TEXT NOT NULL DEFAULT '[]',
    custom_project_codes TEXT NOT NULL DEFAULT '[]'
);

-- Single-row timer slot
CREATE TABLE IF NOT EXISTS timer_state (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    is_running INTEGER NOT NULL DEFAULT 0,
    start_time INTEGER NOT NULL DEFAULT 0,
    active_record_id TEXT,
    active_session_id TEXT,
    active_form_data TEXT NOT NULL DEFAULT '{}'
);
`

	_, err := db.Exec(migration)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
