package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/syncer"
)

// Syncer persists snapshot mutations to SQLite. It implements both the
// sync contract and the startup loader.
type Syncer struct {
	db *DB
}

// NewSyncer creates a Syncer over an open database.
func NewSyncer(db *DB) *Syncer {
	return &Syncer{db: db}
}

var _ syncer.Syncer = (*Syncer)(nil)
var _ syncer.Loader = (*Syncer)(nil)

// SyncRecord upserts a record and rewrites its session rows in one
// transaction.
func (s *Syncer) SyncRecord(ctx context.Context, rec worklog.WorkRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO work_records (
			id, work_name, deal_name, task_name, category_name, project_code,
			note, date, start_time, end_time, duration_minutes,
			is_completed, is_deleted, completed_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			work_name = excluded.work_name,
			deal_name = excluded.deal_name,
			task_name = excluded.task_name,
			category_name = excluded.category_name,
			project_code = excluded.project_code,
			note = excluded.note,
			date = excluded.date,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			duration_minutes = excluded.duration_minutes,
			is_completed = excluded.is_completed,
			is_deleted = excluded.is_deleted,
			completed_at = excluded.completed_at,
			deleted_at = excluded.deleted_at
	`,
		rec.ID, rec.WorkName, rec.DealName, rec.TaskName, rec.CategoryName,
		rec.ProjectCode, rec.Note, rec.Date, rec.StartTime, rec.EndTime,
		rec.DurationMinutes, rec.IsCompleted, rec.IsDeleted,
		nullTime(rec.CompletedAt), nullTime(rec.DeletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM work_sessions WHERE record_id = ?`, rec.ID); err != nil {
		return fmt.Errorf("failed to clear sessions: %w", err)
	}
	for _, sess := range rec.Sessions {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO work_sessions (id, record_id, date, start_time, end_time, duration_minutes)
			VALUES (?, ?, ?, ?, ?, ?)
		`, sess.ID, rec.ID, sess.Date, sess.StartTime, sess.EndTime, sess.DurationMinutes)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit record: %w", err)
	}
	return nil
}

// SyncDeleteRecord removes a record permanently; its sessions cascade.
func (s *Syncer) SyncDeleteRecord(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM work_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record: %w", err)
	}
	return nil
}

// SyncTemplate upserts a template.
func (s *Syncer) SyncTemplate(ctx context.Context, tpl worklog.WorkTemplate) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO work_templates (id, work_name, deal_name, task_name, category_name, project_code, note)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			work_name = excluded.work_name,
			deal_name = excluded.deal_name,
			task_name = excluded.task_name,
			category_name = excluded.category_name,
			project_code = excluded.project_code,
			note = excluded.note
	`, tpl.ID, tpl.WorkName, tpl.DealName, tpl.TaskName, tpl.CategoryName, tpl.ProjectCode, tpl.Note)
	if err != nil {
		return fmt.Errorf("failed to upsert template: %w", err)
	}
	return nil
}

// SyncDeleteTemplate removes a template.
func (s *Syncer) SyncDeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM work_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// SyncSettings writes the settings row.
func (s *Syncer) SyncSettings(ctx context.Context, settings worklog.Settings) error {
	workNames, err := json.Marshal(emptyList(settings.CustomWorkNames))
	if err != nil {
		return fmt.Errorf("failed to encode work names: %w", err)
	}
	categories, err := json.Marshal(emptyList(settings.CustomCategories))
	if err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}
	projectCodes, err := json.Marshal(emptyList(settings.CustomProjectCodes))
	if err != nil {
		return fmt.Errorf("failed to encode project codes: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (id, lunch_start, lunch_end, custom_work_names, custom_categories, custom_project_codes)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			lunch_start = excluded.lunch_start,
			lunch_end = excluded.lunch_end,
			custom_work_names = excluded.custom_work_names,
			custom_categories = excluded.custom_categories,
			custom_project_codes = excluded.custom_project_codes
	`, settings.LunchStart, settings.LunchEnd, string(workNames), string(categories), string(projectCodes))
	if err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

// SyncTimer writes the timer row.
func (s *Syncer) SyncTimer(ctx context.Context, timer syncer.TimerSnapshot) error {
	form, err := json.Marshal(timer.ActiveFormData)
	if err != nil {
		return fmt.Errorf("failed to encode form data: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO timer_state (id, is_running, start_time, active_record_id, active_session_id, active_form_data)
		VALUES (1, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			is_running = excluded.is_running,
			start_time = excluded.start_time,
			active_record_id = excluded.active_record_id,
			active_session_id = excluded.active_session_id,
			active_form_data = excluded.active_form_data
	`, timer.IsRunning, timer.StartTime, timer.ActiveRecordID, timer.ActiveSessionID, string(form))
	if err != nil {
		return fmt.Errorf("failed to write timer: %w", err)
	}
	return nil
}

// Load reads the whole persisted state back into a snapshot. A fresh
// database yields an empty snapshot, not an error.
func (s *Syncer) Load(ctx context.Context) (*syncer.Snapshot, error) {
	snap := &syncer.Snapshot{Version: syncer.SnapshotVersion}

	records, err := s.loadRecords(ctx)
	if err != nil {
		return nil, err
	}
	snap.Records = records

	templates, err := s.loadTemplates(ctx)
	if err != nil {
		return nil, err
	}
	snap.Templates = templates

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, err
	}
	snap.Settings = settings

	timer, err := s.loadTimer(ctx)
	if err != nil {
		return nil, err
	}
	snap.Timer = timer

	return snap, nil
}

func (s *Syncer) loadRecords(ctx context.Context) ([]worklog.WorkRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_name, deal_name, task_name, category_name, project_code,
		       note, date, start_time, end_time, duration_minutes,
		       is_completed, is_deleted, completed_at, deleted_at
		FROM work_records
		ORDER BY date, start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []worklog.WorkRecord
	index := map[string]int{}
	for rows.Next() {
		var rec worklog.WorkRecord
		var completedAt, deletedAt sql.NullTime
		err := rows.Scan(
			&rec.ID, &rec.WorkName, &rec.DealName, &rec.TaskName, &rec.CategoryName,
			&rec.ProjectCode, &rec.Note, &rec.Date, &rec.StartTime, &rec.EndTime,
			&rec.DurationMinutes, &rec.IsCompleted, &rec.IsDeleted, &completedAt, &deletedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if completedAt.Valid {
			at := completedAt.Time
			rec.CompletedAt = &at
		}
		if deletedAt.Valid {
			at := deletedAt.Time
			rec.DeletedAt = &at
		}
		index[rec.ID] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	sessionRows, err := s.db.QueryContext(ctx, `
		SELECT id, record_id, date, start_time, end_time, duration_minutes
		FROM work_sessions
		ORDER BY date, start_time
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer sessionRows.Close()

	for sessionRows.Next() {
		var sess worklog.WorkSession
		var recordID string
		err := sessionRows.Scan(&sess.ID, &recordID, &sess.Date, &sess.StartTime, &sess.EndTime, &sess.DurationMinutes)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		if i, ok := index[recordID]; ok {
			records[i].Sessions = append(records[i].Sessions, sess)
		}
	}
	if err := sessionRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}

	return records, nil
}

func (s *Syncer) loadTemplates(ctx context.Context) ([]worklog.WorkTemplate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, work_name, deal_name, task_name, category_name, project_code, note
		FROM work_templates
		ORDER BY work_name, deal_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []worklog.WorkTemplate
	for rows.Next() {
		var tpl worklog.WorkTemplate
		err := rows.Scan(&tpl.ID, &tpl.WorkName, &tpl.DealName, &tpl.TaskName,
			&tpl.CategoryName, &tpl.ProjectCode, &tpl.Note)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, tpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read templates: %w", err)
	}
	return templates, nil
}

func (s *Syncer) loadSettings(ctx context.Context) (worklog.Settings, error) {
	var settings worklog.Settings
	var workNames, categories, projectCodes string
	err := s.db.QueryRowContext(ctx, `
		SELECT lunch_start, lunch_end, custom_work_names, custom_categories, custom_project_codes
		FROM settings WHERE id = 1
	`).Scan(&settings.LunchStart, &settings.LunchEnd, &workNames, &categories, &projectCodes)
	if err == sql.ErrNoRows {
		return worklog.DefaultSettings(), nil
	}
	if err != nil {
		return settings, fmt.Errorf("failed to query settings: %w", err)
	}

	if err := json.Unmarshal([]byte(workNames), &settings.CustomWorkNames); err != nil {
		return settings, fmt.Errorf("failed to decode work names: %w", err)
	}
	if err := json.Unmarshal([]byte(categories), &settings.CustomCategories); err != nil {
		return settings, fmt.Errorf("failed to decode categories: %w", err)
	}
	if err := json.Unmarshal([]byte(projectCodes), &settings.CustomProjectCodes); err != nil {
		return settings, fmt.Errorf("failed to decode project codes: %w", err)
	}
	return settings, nil
}

func (s *Syncer) loadTimer(ctx context.Context) (syncer.TimerSnapshot, error) {
	var timer syncer.TimerSnapshot
	var recordID, sessionID sql.NullString
	var form string
	err := s.db.QueryRowContext(ctx, `
		SELECT is_running, start_time, active_record_id, active_session_id, active_form_data
		FROM timer_state WHERE id = 1
	`).Scan(&timer.IsRunning, &timer.StartTime, &recordID, &sessionID, &form)
	if err == sql.ErrNoRows {
		return timer, nil
	}
	if err != nil {
		return timer, fmt.Errorf("failed to query timer: %w", err)
	}

	if recordID.Valid {
		timer.ActiveRecordID = &recordID.String
	}
	if sessionID.Valid {
		timer.ActiveSessionID = &sessionID.String
	}
	if err := json.Unmarshal([]byte(form), &timer.ActiveFormData); err != nil {
		return timer, fmt.Errorf("failed to decode form data: %w", err)
	}
	return timer, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func emptyList(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
