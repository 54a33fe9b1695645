// Package worklog defines the work record and session model plus the
// pure helpers that keep it consistent: aggregate recomputation, duplicate
// record merging, and label generation.
package worklog

import "time"

// WorkSession is one contiguous interval of work. An empty EndTime marks
// a session that is still running.
type WorkSession struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time"`
	EndTime         string `json:"end_time"`
	DurationMinutes int    `json:"duration_minutes"`
}

// Running reports whether the session has no end yet.
func (s WorkSession) Running() bool { return s.EndTime == "" }

// WorkRecord is a named task and the aggregate of its sessions. Date,
// StartTime, EndTime and DurationMinutes are denormalized caches over the
// session list, kept in sync by Normalize.
type WorkRecord struct {
	ID              string        `json:"id"`
	WorkName        string        `json:"work_name"`
	DealName        string        `json:"deal_name"`
	TaskName        string        `json:"task_name"`
	CategoryName    string        `json:"category_name"`
	ProjectCode     string        `json:"project_code"`
	Note            string        `json:"note"`
	Date            string        `json:"date"`
	StartTime       string        `json:"start_time"`
	EndTime         string        `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	Sessions        []WorkSession `json:"sessions"`
	IsCompleted     bool          `json:"is_completed"`
	IsDeleted       bool          `json:"is_deleted"`
	CompletedAt     *time.Time    `json:"completed_at,omitempty"`
	DeletedAt       *time.Time    `json:"deleted_at,omitempty"`
}

// Identity is the logical task identity used for duplicate detection and
// timer resume.
type Identity struct {
	WorkName string
	DealName string
}

// Identity returns the record's logical identity.
func (r WorkRecord) Identity() Identity {
	return Identity{WorkName: r.WorkName, DealName: r.DealName}
}

// Active reports whether the record participates in duplicate detection
// and label uniqueness: not deleted and not completed.
func (r WorkRecord) Active() bool {
	return !r.IsDeleted && !r.IsCompleted
}

// Label renders the record's user-facing name for conflict messages:
// `work > deal`, or just `work` when there is no deal name.
func (r WorkRecord) Label() string {
	if r.DealName == "" {
		return r.WorkName
	}
	return r.WorkName + " > " + r.DealName
}

// WorkTemplate is a reusable preset of descriptive fields from which new
// records are stamped. Carries no time data.
type WorkTemplate struct {
	ID           string `json:"id"`
	WorkName     string `json:"work_name"`
	DealName     string `json:"deal_name"`
	TaskName     string `json:"task_name"`
	CategoryName string `json:"category_name"`
	ProjectCode  string `json:"project_code"`
	Note         string `json:"note"`
}

// Form returns the template's descriptive fields as form data.
func (t WorkTemplate) Form() FormData {
	return FormData{
		WorkName:     t.WorkName,
		DealName:     t.DealName,
		TaskName:     t.TaskName,
		CategoryName: t.CategoryName,
		ProjectCode:  t.ProjectCode,
		Note:         t.Note,
	}
}

// FormData is a snapshot of the descriptive fields of a record, used by
// the timer to find-or-create its target.
type FormData struct {
	WorkName     string `json:"work_name"`
	DealName     string `json:"deal_name"`
	TaskName     string `json:"task_name"`
	CategoryName string `json:"category_name"`
	ProjectCode  string `json:"project_code"`
	Note         string `json:"note"`
}

// Identity returns the logical identity carried by the form.
func (f FormData) Identity() Identity {
	return Identity{WorkName: f.WorkName, DealName: f.DealName}
}

// FormPatch is a partial update of descriptive fields; nil fields are
// left untouched.
type FormPatch struct {
	WorkName     *string `json:"work_name,omitempty"`
	DealName     *string `json:"deal_name,omitempty"`
	TaskName     *string `json:"task_name,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`
	ProjectCode  *string `json:"project_code,omitempty"`
	Note         *string `json:"note,omitempty"`
}

// Apply overlays the patch onto form data.
func (p FormPatch) Apply(f FormData) FormData {
	if p.WorkName != nil {
		f.WorkName = *p.WorkName
	}
	if p.DealName != nil {
		f.DealName = *p.DealName
	}
	if p.TaskName != nil {
		f.TaskName = *p.TaskName
	}
	if p.CategoryName != nil {
		f.CategoryName = *p.CategoryName
	}
	if p.ProjectCode != nil {
		f.ProjectCode = *p.ProjectCode
	}
	if p.Note != nil {
		f.Note = *p.Note
	}
	return f
}

// ApplyToRecord overlays the patch onto a record's descriptive fields.
func (p FormPatch) ApplyToRecord(r WorkRecord) WorkRecord {
	form := p.Apply(FormData{
		WorkName:     r.WorkName,
		DealName:     r.DealName,
		TaskName:     r.TaskName,
		CategoryName: r.CategoryName,
		ProjectCode:  r.ProjectCode,
		Note:         r.Note,
	})
	r.WorkName = form.WorkName
	r.DealName = form.DealName
	r.TaskName = form.TaskName
	r.CategoryName = form.CategoryName
	r.ProjectCode = form.ProjectCode
	r.Note = form.Note
	return r
}

// Settings holds the per-user scalar settings carried alongside records.
type Settings struct {
	LunchStart         string   `json:"lunch_start"`
	LunchEnd           string   `json:"lunch_end"`
	CustomWorkNames    []string `json:"custom_work_names,omitempty"`
	CustomCategories   []string `json:"custom_categories,omitempty"`
	CustomProjectCodes []string `json:"custom_project_codes,omitempty"`
}

// DefaultSettings returns the stock lunch window (12:00–13:00).
func DefaultSettings() Settings {
	return Settings{LunchStart: "12:00", LunchEnd: "13:00"}
}
