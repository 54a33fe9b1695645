package store

import (
	"time"

	"github.com/serbi2012/time-manager/internal/domain/clock"
	"github.com/serbi2012/time-manager/internal/domain/schedule"
	"github.com/serbi2012/time-manager/internal/domain/worklog"
)

// ActiveRef identifies the session a running timer extends. Exactly two
// variants exist: ByID points at a concrete record/session pair, and
// ByIdentity carries only a form snapshot for the legacy resume path where
// ids are unavailable and the target is found-or-created at close time.
type ActiveRef interface {
	activeRef()
}

// ByID references the active record and session directly.
type ByID struct {
	RecordID  string
	SessionID string
}

func (ByID) activeRef() {}

// ByIdentity defers target resolution to the form's logical identity.
type ByIdentity struct {
	Form worklog.FormData
}

func (ByIdentity) activeRef() {}

// TimerState is the single global "what is running" slot.
type TimerState struct {
	IsRunning bool
	StartTime int64 // epoch ms the current session began
	Active    ActiveRef
	Form      worklog.FormData
}

// State is one immutable snapshot of the whole store. Reducers take a
// State and return a new one; they never mutate shared slices in place.
type State struct {
	Records   []worklog.WorkRecord
	Templates []worklog.WorkTemplate
	Timer     TimerState
	Settings  worklog.Settings
}

// clone deep-copies the state so a reducer can rework it freely.
func (st State) clone() State {
	records := make([]worklog.WorkRecord, len(st.Records))
	for i, r := range st.Records {
		sessions := make([]worklog.WorkSession, len(r.Sessions))
		copy(sessions, r.Sessions)
		r.Sessions = sessions
		records[i] = r
	}
	templates := make([]worklog.WorkTemplate, len(st.Templates))
	copy(templates, st.Templates)
	st.Records = records
	st.Templates = templates
	return st
}

func (st State) findRecord(id string) int {
	for i := range st.Records {
		if st.Records[i].ID == id {
			return i
		}
	}
	return -1
}

func (st State) findTemplate(id string) int {
	for i := range st.Templates {
		if st.Templates[i].ID == id {
			return i
		}
	}
	return -1
}

// lunch parses the configured lunch window, falling back to the stock one
// on malformed settings.
func (st State) lunch() schedule.Window {
	start, err1 := clock.MinutesOfDay(st.Settings.LunchStart)
	end, err2 := clock.MinutesOfDay(st.Settings.LunchEnd)
	if err1 != nil || err2 != nil || end < start {
		defaults := worklog.DefaultSettings()
		start, _ = clock.MinutesOfDay(defaults.LunchStart)
		end, _ = clock.MinutesOfDay(defaults.LunchEnd)
	}
	return schedule.Window{Start: start, End: end}
}

// daySessions is the one query every conflict check goes through: all
// occupied intervals on the given date across non-deleted records,
// excluding one session (the one being edited). A still-running session
// dated today contributes a virtual interval ending at "now".
func (st State) daySessions(date, excludeSessionID string, now time.Time) []schedule.Interval {
	today := clock.FormatDate(now)
	var out []schedule.Interval
	for _, r := range st.Records {
		if r.IsDeleted {
			continue
		}
		for _, s := range r.Sessions {
			if s.Date != date || s.ID == excludeSessionID {
				continue
			}
			start, err := clock.MinutesOfDay(s.StartTime)
			if err != nil {
				continue
			}
			end := 0
			if s.Running() {
				if date != today {
					continue
				}
				end = clock.MinuteOf(now)
			} else {
				end, err = clock.MinutesOfDay(s.EndTime)
				if err != nil {
					continue
				}
			}
			if end <= start {
				continue
			}
			out = append(out, schedule.Interval{Start: start, End: end, Owner: r.Label()})
		}
	}
	return out
}

// activeSessionID returns the running session id when the timer points at
// one directly, else "".
func (st State) activeSessionID() string {
	if ref, ok := st.Timer.Active.(ByID); ok {
		return ref.SessionID
	}
	return ""
}
