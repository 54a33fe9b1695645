package rpc

import (
	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/store"
)

type StartTimerParams struct {
	WorkName     string `json:"work_name"`
	DealName     string `json:"deal_name,omitempty"`
	TaskName     string `json:"task_name,omitempty"`
	CategoryName string `json:"category_name,omitempty"`
	ProjectCode  string `json:"project_code,omitempty"`
	Note         string `json:"note,omitempty"`
}

func (p StartTimerParams) form() worklog.FormData {
	return worklog.FormData{
		WorkName:     p.WorkName,
		DealName:     p.DealName,
		TaskName:     p.TaskName,
		CategoryName: p.CategoryName,
		ProjectCode:  p.ProjectCode,
		Note:         p.Note,
	}
}

type StartTimerForRecordParams struct {
	RecordID string `json:"record_id"`
}

type StartTimerFromTemplateParams struct {
	TemplateID    string `json:"template_id"`
	NewRecord     bool   `json:"new_record,omitempty"`
	TimestampName bool   `json:"timestamp_name,omitempty"`
}

type SwitchTemplateParams struct {
	TemplateID string `json:"template_id"`
}

type UpdateTimerStartTimeParams struct {
	StartTime int64 `json:"start_time"`
}

type AddRecordParams struct {
	StartTimerParams
	Date      string `json:"date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

type RecordIDParams struct {
	ID string `json:"id"`
}

type UpdateRecordParams struct {
	ID    string            `json:"id"`
	Patch worklog.FormPatch `json:"patch"`
}

type UpdateSessionParams struct {
	RecordID  string `json:"record_id"`
	SessionID string `json:"session_id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time,omitempty"`
	Date      string `json:"date,omitempty"`
}

type DeleteSessionParams struct {
	RecordID  string `json:"record_id"`
	SessionID string `json:"session_id"`
}

type DateParams struct {
	Date string `json:"date"`
}

type OptionsParams struct {
	Field string `json:"field"`
}

type SaveTemplateParams struct {
	Template worklog.WorkTemplate `json:"template"`
}

type TemplateIDParams struct {
	ID string `json:"id"`
}

type UpdateSettingsParams struct {
	Patch store.SettingsPatch `json:"patch"`
}

type UpdateActiveFormDataParams struct {
	Patch worklog.FormPatch `json:"patch"`
}

// RecordResult pairs a record with the outcome of the mutation that
// produced it.
type RecordResult struct {
	Record *worklog.WorkRecord `json:"record,omitempty"`
	store.OpResult
}

// SettingsResult pairs the settings with the outcome of the update.
type SettingsResult struct {
	Settings worklog.Settings `json:"settings"`
	store.OpResult
}

type ElapsedResult struct {
	Seconds int64 `json:"seconds"`
}

type DailyTotalResult struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
}

type OKResult struct {
	OK bool `json:"success"`
}
