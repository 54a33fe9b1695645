package store

import (
	"github.com/google/uuid"
	"github.com/serbi2012/time-manager/internal/syncer"
)

func (s *Store) newID() string { return uuid.NewString() }

// snapshotTimer flattens the timer slot into its persisted shape.
func snapshotTimer(t TimerState) syncer.TimerSnapshot {
	snap := syncer.TimerSnapshot{
		IsRunning:      t.IsRunning,
		StartTime:      t.StartTime,
		ActiveFormData: t.Form,
	}
	switch ref := t.Active.(type) {
	case ByID:
		recordID, sessionID := ref.RecordID, ref.SessionID
		snap.ActiveRecordID = &recordID
		snap.ActiveSessionID = &sessionID
	case ByIdentity:
		snap.ActiveFormData = ref.Form
	}
	return snap
}

// timerFromSnapshot rebuilds the timer slot, picking the reference variant
// from which ids survived serialization.
func timerFromSnapshot(snap syncer.TimerSnapshot) TimerState {
	t := TimerState{
		IsRunning: snap.IsRunning,
		StartTime: snap.StartTime,
		Form:      snap.ActiveFormData,
	}
	if !snap.IsRunning {
		return t
	}
	if snap.ActiveRecordID != nil && snap.ActiveSessionID != nil {
		t.Active = ByID{RecordID: *snap.ActiveRecordID, SessionID: *snap.ActiveSessionID}
	} else {
		t.Active = ByIdentity{Form: snap.ActiveFormData}
	}
	return t
}
