package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/rpc"
	"github.com/serbi2012/time-manager/internal/store"
	"github.com/serbi2012/time-manager/internal/syncer"
)

type emptyParams struct{}

// tool registers a handler that needs no request plumbing beyond its
// typed input.
func tool[In, Out any](server *sdkmcp.Server, name, description string, fn func(In) Out) {
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        name,
		Description: description,
	}, func(_ context.Context, _ *sdkmcp.CallToolRequest, in In) (*sdkmcp.CallToolResult, Out, error) {
		return nil, fn(in), nil
	})
}

func registerTools(server *sdkmcp.Server, st *store.Store) {
	// Timer
	tool(server, "start_timer",
		"Start the timer for a task described by its form fields; resumes the matching record or creates one",
		func(in rpc.StartTimerParams) rpc.RecordResult {
			rec, res := st.StartTimer(worklog.FormData{
				WorkName:     in.WorkName,
				DealName:     in.DealName,
				TaskName:     in.TaskName,
				CategoryName: in.CategoryName,
				ProjectCode:  in.ProjectCode,
				Note:         in.Note,
			})
			return rpc.RecordResult{Record: rec, OpResult: res}
		})

	tool(server, "start_timer_for_record",
		"Start the timer directly on an existing record by id, stopping any running timer first",
		func(in rpc.StartTimerForRecordParams) rpc.RecordResult {
			rec, res := st.StartTimerForRecord(in.RecordID)
			return rpc.RecordResult{Record: rec, OpResult: res}
		})

	tool(server, "start_timer_from_template",
		"Start the timer from a template; new_record forces a fresh record with a uniquified deal name",
		func(in rpc.StartTimerFromTemplateParams) rpc.RecordResult {
			rec, res := st.StartTimerFromTemplate(store.StartFromTemplateRequest{
				TemplateID:    in.TemplateID,
				NewRecord:     in.NewRecord,
				TimestampName: in.TimestampName,
			})
			return rpc.RecordResult{Record: rec, OpResult: res}
		})

	tool(server, "stop_timer",
		"Stop the running timer, closing its session at the current minute",
		func(emptyParams) rpc.RecordResult {
			rec := st.StopTimer()
			return rpc.RecordResult{Record: rec, OpResult: store.OpResult{OK: rec != nil}}
		})

	tool(server, "reset_timer",
		"Discard the in-progress session without recording it",
		func(emptyParams) rpc.OKResult {
			st.ResetTimer()
			return rpc.OKResult{OK: true}
		})

	tool(server, "switch_template",
		"Close the running session and immediately start tracking the template's task",
		func(in rpc.SwitchTemplateParams) rpc.RecordResult {
			rec, res := st.SwitchTemplate(in.TemplateID)
			return rpc.RecordResult{Record: rec, OpResult: res}
		})

	tool(server, "update_active_form_data",
		"Patch the descriptive fields of the task being timed",
		func(in rpc.UpdateActiveFormDataParams) rpc.OKResult {
			st.UpdateActiveFormData(in.Patch)
			return rpc.OKResult{OK: true}
		})

	tool(server, "update_timer_start_time",
		"Move the running session's start to an earlier point of the current day (epoch milliseconds); conflicts push it forward",
		func(in rpc.UpdateTimerStartTimeParams) store.OpResult {
			return st.UpdateTimerStartTime(in.StartTime)
		})

	tool(server, "get_timer",
		"Get the timer slot: running flag, anchor time, active record and form",
		func(emptyParams) syncer.TimerSnapshot {
			return st.Timer()
		})

	tool(server, "get_elapsed_seconds",
		"Get whole seconds elapsed since the timer started, zero while idle",
		func(emptyParams) rpc.ElapsedResult {
			return rpc.ElapsedResult{Seconds: st.GetElapsedSeconds()}
		})

	// Records
	tool(server, "add_record",
		"Create a record; optional start/end times form its first session after conflict resolution",
		func(in rpc.AddRecordParams) rpc.RecordResult {
			rec, res := st.AddRecord(store.AddRecordRequest{
				Form: worklog.FormData{
					WorkName:     in.WorkName,
					DealName:     in.DealName,
					TaskName:     in.TaskName,
					CategoryName: in.CategoryName,
					ProjectCode:  in.ProjectCode,
					Note:         in.Note,
				},
				Date:      in.Date,
				StartTime: in.StartTime,
				EndTime:   in.EndTime,
			})
			return rpc.RecordResult{Record: rec, OpResult: res}
		})

	tool(server, "update_record",
		"Patch a record's descriptive fields",
		func(in rpc.UpdateRecordParams) rpc.RecordResult {
			rec, ok := st.UpdateRecord(in.ID, in.Patch)
			return rpc.RecordResult{Record: rec, OpResult: store.OpResult{OK: ok}}
		})

	tool(server, "get_record",
		"Get one record by id",
		func(in rpc.RecordIDParams) rpc.RecordResult {
			rec, ok := st.Record(in.ID)
			if !ok {
				return rpc.RecordResult{}
			}
			return rpc.RecordResult{Record: &rec, OpResult: store.OpResult{OK: true}}
		})

	tool(server, "list_records",
		"List all records including deleted and completed ones",
		func(emptyParams) []worklog.WorkRecord {
			return st.Records()
		})

	tool(server, "list_records_by_date",
		"List records with at least one session on a date (YYYY-MM-DD)",
		func(in rpc.DateParams) []worklog.WorkRecord {
			return st.RecordsOn(in.Date)
		})

	tool(server, "get_daily_total",
		"Sum worked minutes of closed sessions on a date",
		func(in rpc.DateParams) rpc.DailyTotalResult {
			return rpc.DailyTotalResult{Date: in.Date, Minutes: st.DailyTotal(in.Date)}
		})

	tool(server, "delete_record",
		"Soft-delete a record; it stops counting but can be restored",
		func(in rpc.RecordIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.DeleteRecord(in.ID)}
		})

	tool(server, "restore_record",
		"Undo a soft delete",
		func(in rpc.RecordIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.RestoreRecord(in.ID)}
		})

	tool(server, "purge_record",
		"Remove a record permanently",
		func(in rpc.RecordIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.PurgeRecord(in.ID)}
		})

	tool(server, "complete_record",
		"Mark a record done; its label becomes reusable",
		func(in rpc.RecordIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.CompleteRecord(in.ID)}
		})

	tool(server, "uncomplete_record",
		"Reopen a completed record",
		func(in rpc.RecordIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.UncompleteRecord(in.ID)}
		})

	// Sessions
	tool(server, "update_session",
		"Rewrite a session's interval or move it to another date; overlaps adjust on the same day and reject on a date move",
		func(in rpc.UpdateSessionParams) store.OpResult {
			return st.UpdateSession(in.RecordID, in.SessionID, in.StartTime, in.EndTime, in.Date)
		})

	tool(server, "delete_session",
		"Remove a session; a record left without sessions is soft-deleted",
		func(in rpc.DeleteSessionParams) rpc.OKResult {
			return rpc.OKResult{OK: st.DeleteSession(in.RecordID, in.SessionID)}
		})

	// Options
	tool(server, "get_options",
		"Distinct values of a descriptive field (work_name, deal_name, task_name, category_name, project_code) for suggestions",
		func(in rpc.OptionsParams) []string {
			field, ok := worklog.ParseOptionField(in.Field)
			if !ok {
				return nil
			}
			return st.Options(field)
		})

	// Templates
	tool(server, "list_templates",
		"List saved templates",
		func(emptyParams) []worklog.WorkTemplate {
			return st.Templates()
		})

	tool(server, "save_template",
		"Insert or replace a template; a blank id is assigned",
		func(in rpc.SaveTemplateParams) worklog.WorkTemplate {
			return st.SaveTemplate(in.Template)
		})

	tool(server, "delete_template",
		"Delete a template",
		func(in rpc.TemplateIDParams) rpc.OKResult {
			return rpc.OKResult{OK: st.DeleteTemplate(in.ID)}
		})

	// Settings
	tool(server, "get_settings",
		"Get lunch window and custom option lists",
		func(emptyParams) worklog.Settings {
			return st.Settings()
		})

	tool(server, "update_settings",
		"Patch lunch window or custom option lists",
		func(in rpc.UpdateSettingsParams) rpc.SettingsResult {
			settings, res := st.UpdateSettings(in.Patch)
			return rpc.SettingsResult{Settings: settings, OpResult: res}
		})

	// Snapshot
	tool(server, "export_snapshot",
		"Export the whole state in the persisted snapshot layout",
		func(emptyParams) syncer.Snapshot {
			return st.Snapshot()
		})
}
