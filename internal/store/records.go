package store

import (
	"github.com/serbi2012/time-manager/internal/domain/clock"
	"github.com/serbi2012/time-manager/internal/domain/schedule"
	"github.com/serbi2012/time-manager/internal/domain/worklog"
)

// AddRecordRequest describes a manually created record. Times are
// optional: when present they form the record's first session and go
// through conflict resolution on the target date.
type AddRecordRequest struct {
	Form      worklog.FormData
	Date      string
	StartTime string
	EndTime   string
}

// AddRecord creates a record. With times supplied, the initial session is
// validated and possibly adjusted against the day's other sessions.
func (s *Store) AddRecord(req AddRecordRequest) (*worklog.WorkRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	date := req.Date
	if date == "" {
		date = clock.FormatDate(now)
	}

	rec := worklog.WorkRecord{
		ID:           s.newID(),
		WorkName:     req.Form.WorkName,
		DealName:     req.Form.DealName,
		TaskName:     req.Form.TaskName,
		CategoryName: req.Form.CategoryName,
		ProjectCode:  req.Form.ProjectCode,
		Note:         req.Form.Note,
		Date:         date,
	}

	res := OpResult{OK: true}
	if req.StartTime != "" || req.EndTime != "" {
		startM, err := clock.MinutesOfDay(req.StartTime)
		if err != nil {
			return nil, failure("invalid start time")
		}
		endM, err := clock.MinutesOfDay(req.EndTime)
		if err != nil {
			return nil, failure("invalid end time")
		}
		verdict := schedule.Resolve(startM, endM, s.state.daySessions(date, "", now), s.state.lunch())
		if !verdict.OK {
			return nil, OpResult{Message: verdict.Message}
		}
		rec.Sessions = []worklog.WorkSession{{
			ID:              s.newID(),
			Date:            date,
			StartTime:       clock.FormatMinutes(verdict.Start),
			EndTime:         clock.FormatMinutes(verdict.End),
			DurationMinutes: verdict.Duration,
		}}
		res = OpResult{OK: true, Adjusted: verdict.Adjusted, Message: verdict.Message}
	}

	rec = worklog.Normalize(rec)
	st := s.state.clone()
	st.Records = append(st.Records, rec)
	s.state = st
	s.syncRecord(rec)
	return &rec, res
}

// UpdateRecord patches a record's descriptive fields. Unknown ids are a
// benign no-op.
func (s *Store) UpdateRecord(id string, patch worklog.FormPatch) (*worklog.WorkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	i := st.findRecord(id)
	if i < 0 {
		return nil, false
	}
	st.Records[i] = patch.ApplyToRecord(st.Records[i])
	rec := st.Records[i]
	s.state = st
	s.syncRecord(rec)
	return &rec, true
}

// DeleteRecord soft-deletes a record. Deleting the record the timer is
// extending clears the timer.
func (s *Store) DeleteRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	i := st.findRecord(id)
	if i < 0 {
		return false
	}
	now := s.clock.Now()
	st.Records[i].IsDeleted = true
	st.Records[i].DeletedAt = &now
	timerCleared := false
	if ref, ok := st.Timer.Active.(ByID); ok && ref.RecordID == id {
		st.Timer = TimerState{Form: st.Timer.Form}
		timerCleared = true
	}
	rec := st.Records[i]
	s.state = st
	s.syncRecord(rec)
	if timerCleared {
		s.syncTimer(st.Timer)
	}
	return true
}

// RestoreRecord clears the soft-delete flag.
func (s *Store) RestoreRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	i := st.findRecord(id)
	if i < 0 {
		return false
	}
	st.Records[i].IsDeleted = false
	st.Records[i].DeletedAt = nil
	rec := st.Records[i]
	s.state = st
	s.syncRecord(rec)
	return true
}

// PurgeRecord removes a record permanently.
func (s *Store) PurgeRecord(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	i := st.findRecord(id)
	if i < 0 {
		return false
	}
	st.Records = append(st.Records[:i], st.Records[i+1:]...)
	if ref, ok := st.Timer.Active.(ByID); ok && ref.RecordID == id {
		st.Timer = TimerState{Form: st.Timer.Form}
		s.state = st
		s.syncDeleteRecord(id)
		s.syncTimer(st.Timer)
		return true
	}
	s.state = st
	s.syncDeleteRecord(id)
	return true
}

// CompleteRecord marks a record done, stamping the transition time.
func (s *Store) CompleteRecord(id string) bool {
	return s.setCompleted(id, true)
}

// UncompleteRecord reopens a completed record.
func (s *Store) UncompleteRecord(id string) bool {
	return s.setCompleted(id, false)
}

func (s *Store) setCompleted(id string, completed bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	i := st.findRecord(id)
	if i < 0 {
		return false
	}
	st.Records[i].IsCompleted = completed
	if completed {
		now := s.clock.Now()
		st.Records[i].CompletedAt = &now
	} else {
		st.Records[i].CompletedAt = nil
	}
	rec := st.Records[i]
	s.state = st
	s.syncRecord(rec)
	return true
}

// UpdateSession rewrites a session's interval, and optionally moves it to
// another date. Same-date edits may be auto-adjusted out of overlaps; an
// explicit date change is only validated and rejects on any overlap.
func (s *Store) UpdateSession(recordID, sessionID, newStart, newEnd, newDate string) OpResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	ri := st.findRecord(recordID)
	if ri < 0 {
		return failure("session not found")
	}
	si := worklog.FindSession(st.Records[ri], sessionID)
	if si < 0 {
		return failure("session not found")
	}
	sess := st.Records[ri].Sessions[si]

	now := s.clock.Now()
	today := clock.FormatDate(now)
	targetDate := sess.Date
	dateChanged := newDate != "" && newDate != sess.Date
	if dateChanged {
		targetDate = newDate
	}

	keepRunning := sess.Running() && newEnd == ""
	if keepRunning && targetDate != today {
		return failure("a running session cannot move to another day")
	}

	startM, err := clock.MinutesOfDay(newStart)
	if err != nil {
		return failure("invalid start time")
	}
	endM := clock.MinuteOf(now)
	if !keepRunning {
		endM, err = clock.MinutesOfDay(newEnd)
		if err != nil {
			return failure("invalid end time")
		}
	}

	others := st.daySessions(targetDate, sessionID, now)
	var verdict schedule.Result
	if dateChanged {
		verdict = schedule.Validate(startM, endM, others, st.lunch())
	} else if keepRunning {
		verdict = schedule.ResolveStartOnly(startM, endM, others, st.lunch())
	} else {
		verdict = schedule.Resolve(startM, endM, others, st.lunch())
	}
	if !verdict.OK {
		return OpResult{Message: verdict.Message}
	}

	sess.Date = targetDate
	sess.StartTime = clock.FormatMinutes(verdict.Start)
	if keepRunning {
		sess.EndTime = ""
		sess.DurationMinutes = 0
	} else {
		sess.EndTime = clock.FormatMinutes(verdict.End)
		sess.DurationMinutes = verdict.Duration
	}
	st.Records[ri].Sessions[si] = sess

	// closing the session the timer is extending stops the timer; moving
	// its start re-anchors it
	timerChanged := false
	if ref, ok := st.Timer.Active.(ByID); ok && ref.SessionID == sessionID {
		if keepRunning {
			st.Timer.StartTime = sessionStartMillis(sess)
		} else {
			st.Timer = TimerState{Form: st.Timer.Form}
		}
		timerChanged = true
	}

	st.Records[ri] = worklog.Normalize(st.Records[ri])
	rec := st.Records[ri]
	s.state = st
	s.syncRecord(rec)
	if timerChanged {
		s.syncTimer(st.Timer)
	}
	return OpResult{OK: true, Adjusted: verdict.Adjusted, Message: verdict.Message}
}

// DeleteSession removes a session outright. A record left without
// sessions is soft-deleted with it; deleting the running session clears
// the timer.
func (s *Store) DeleteSession(recordID, sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	ri := st.findRecord(recordID)
	if ri < 0 {
		return false
	}
	si := worklog.FindSession(st.Records[ri], sessionID)
	if si < 0 {
		return false
	}

	rec := st.Records[ri]
	rec.Sessions = append(rec.Sessions[:si], rec.Sessions[si+1:]...)
	rec = worklog.Normalize(rec)

	timerCleared := false
	if ref, ok := st.Timer.Active.(ByID); ok && ref.SessionID == sessionID {
		st.Timer = TimerState{Form: st.Timer.Form}
		timerCleared = true
	}

	if len(rec.Sessions) == 0 {
		now := s.clock.Now()
		rec.IsDeleted = true
		rec.DeletedAt = &now
	}
	st.Records[ri] = rec
	s.state = st
	s.syncRecord(rec)
	if timerCleared {
		s.syncTimer(st.Timer)
	}
	return true
}
