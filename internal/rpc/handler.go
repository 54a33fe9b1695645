// Package rpc maps wire method names onto store operations. The same
// dispatch backs the HTTP JSON-RPC surface and the stdio tool surface.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/store"
)

var (
	// ErrMethodNotFound marks an unknown method name.
	ErrMethodNotFound = errors.New("method not found")
	// ErrInvalidParams marks a malformed or missing parameter payload.
	ErrInvalidParams = errors.New("invalid params")
)

// Handler dispatches wire methods to the store.
type Handler struct {
	store *store.Store
}

// NewHandler creates a new method dispatcher.
func NewHandler(st *store.Store) *Handler {
	return &Handler{store: st}
}

// Handle executes one method. The ctx parameter is accepted for transport
// symmetry; store operations are in-memory and do not block on it.
func (h *Handler) Handle(_ context.Context, method string, params json.RawMessage) (any, error) {
	switch method {
	case "start_timer":
		var req StartTimerParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, res := h.store.StartTimer(req.form())
		return RecordResult{Record: rec, OpResult: res}, nil

	case "start_timer_for_record":
		var req StartTimerForRecordParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, res := h.store.StartTimerForRecord(req.RecordID)
		return RecordResult{Record: rec, OpResult: res}, nil

	case "start_timer_from_template":
		var req StartTimerFromTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, res := h.store.StartTimerFromTemplate(store.StartFromTemplateRequest{
			TemplateID:    req.TemplateID,
			NewRecord:     req.NewRecord,
			TimestampName: req.TimestampName,
		})
		return RecordResult{Record: rec, OpResult: res}, nil

	case "stop_timer":
		rec := h.store.StopTimer()
		return RecordResult{Record: rec, OpResult: store.OpResult{OK: rec != nil}}, nil

	case "reset_timer":
		h.store.ResetTimer()
		return OKResult{OK: true}, nil

	case "switch_template":
		var req SwitchTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, res := h.store.SwitchTemplate(req.TemplateID)
		return RecordResult{Record: rec, OpResult: res}, nil

	case "update_active_form_data":
		var req UpdateActiveFormDataParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		h.store.UpdateActiveFormData(req.Patch)
		return OKResult{OK: true}, nil

	case "update_timer_start_time":
		var req UpdateTimerStartTimeParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.store.UpdateTimerStartTime(req.StartTime), nil

	case "get_timer":
		return h.store.Timer(), nil

	case "get_elapsed_seconds":
		return ElapsedResult{Seconds: h.store.GetElapsedSeconds()}, nil

	case "add_record":
		var req AddRecordParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, res := h.store.AddRecord(store.AddRecordRequest{
			Form:      req.form(),
			Date:      req.Date,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
		return RecordResult{Record: rec, OpResult: res}, nil

	case "update_record":
		var req UpdateRecordParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, ok := h.store.UpdateRecord(req.ID, req.Patch)
		return RecordResult{Record: rec, OpResult: store.OpResult{OK: ok}}, nil

	case "get_record":
		var req RecordIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		rec, ok := h.store.Record(req.ID)
		if !ok {
			return RecordResult{}, nil
		}
		return RecordResult{Record: &rec, OpResult: store.OpResult{OK: true}}, nil

	case "list_records":
		return h.store.Records(), nil

	case "list_records_by_date":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.store.RecordsOn(req.Date), nil

	case "get_daily_total":
		var req DateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return DailyTotalResult{Date: req.Date, Minutes: h.store.DailyTotal(req.Date)}, nil

	case "delete_record":
		return h.recordBool(params, h.store.DeleteRecord)

	case "restore_record":
		return h.recordBool(params, h.store.RestoreRecord)

	case "purge_record":
		return h.recordBool(params, h.store.PurgeRecord)

	case "complete_record":
		return h.recordBool(params, h.store.CompleteRecord)

	case "uncomplete_record":
		return h.recordBool(params, h.store.UncompleteRecord)

	case "update_session":
		var req UpdateSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.store.UpdateSession(req.RecordID, req.SessionID, req.StartTime, req.EndTime, req.Date), nil

	case "delete_session":
		var req DeleteSessionParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return OKResult{OK: h.store.DeleteSession(req.RecordID, req.SessionID)}, nil

	case "get_options":
		var req OptionsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		field, ok := worklog.ParseOptionField(req.Field)
		if !ok {
			return nil, fmt.Errorf("%w: unknown field %q", ErrInvalidParams, req.Field)
		}
		return h.store.Options(field), nil

	case "list_templates":
		return h.store.Templates(), nil

	case "save_template":
		var req SaveTemplateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.store.SaveTemplate(req.Template), nil

	case "delete_template":
		var req TemplateIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return OKResult{OK: h.store.DeleteTemplate(req.ID)}, nil

	case "get_settings":
		return h.store.Settings(), nil

	case "update_settings":
		var req UpdateSettingsParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		settings, res := h.store.UpdateSettings(req.Patch)
		return SettingsResult{Settings: settings, OpResult: res}, nil

	case "export_snapshot":
		return h.store.Snapshot(), nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrMethodNotFound, method)
	}
}

func (h *Handler) recordBool(params json.RawMessage, op func(string) bool) (any, error) {
	var req RecordIDParams
	if err := decodeParams(params, &req); err != nil {
		return nil, err
	}
	return OKResult{OK: op(req.ID)}, nil
}

func decodeParams(params json.RawMessage, dst any) error {
	if len(params) == 0 {
		return fmt.Errorf("%w: missing params", ErrInvalidParams)
	}
	if err := json.Unmarshal(params, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}
