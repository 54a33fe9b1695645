// Package syncer defines the contract with the external persistence
// collaborator. Sync calls are best-effort side effects fired after each
// successful local mutation; their failure never rolls back local state.
package syncer

import (
	"context"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
)

// Syncer receives local mutations. Implementations must be safe for
// concurrent use; callers invoke them from short-lived goroutines and only
// log errors.
type Syncer interface {
	SyncRecord(ctx context.Context, rec worklog.WorkRecord) error
	SyncDeleteRecord(ctx context.Context, id string) error
	SyncTemplate(ctx context.Context, tpl worklog.WorkTemplate) error
	SyncDeleteTemplate(ctx context.Context, id string) error
	SyncSettings(ctx context.Context, settings worklog.Settings) error
	SyncTimer(ctx context.Context, timer TimerSnapshot) error
}

// Loader restores the persisted state at startup.
type Loader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// SnapshotVersion is the current export-wrapper version.
const SnapshotVersion = 1

// Snapshot is the flat persisted-state layout exchanged with the storage
// collaborator.
type Snapshot struct {
	Version   int                    `json:"version"`
	Records   []worklog.WorkRecord   `json:"records"`
	Templates []worklog.WorkTemplate `json:"templates"`
	Timer     TimerSnapshot          `json:"timer"`
	Settings  worklog.Settings       `json:"settings"`
}

// TimerSnapshot is the serialized shape of the active-timer slot.
type TimerSnapshot struct {
	IsRunning       bool             `json:"is_running"`
	StartTime       int64            `json:"start_time"`
	ActiveRecordID  *string          `json:"active_record_id,omitempty"`
	ActiveSessionID *string          `json:"active_session_id,omitempty"`
	ActiveFormData  worklog.FormData `json:"active_form_data"`
}

// Nop is a Syncer that discards everything. Used when no persistence
// collaborator is configured.
type Nop struct{}

func (Nop) SyncRecord(context.Context, worklog.WorkRecord) error     { return nil }
func (Nop) SyncDeleteRecord(context.Context, string) error           { return nil }
func (Nop) SyncTemplate(context.Context, worklog.WorkTemplate) error { return nil }
func (Nop) SyncDeleteTemplate(context.Context, string) error         { return nil }
func (Nop) SyncSettings(context.Context, worklog.Settings) error     { return nil }
func (Nop) SyncTimer(context.Context, TimerSnapshot) error           { return nil }
