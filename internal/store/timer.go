package store

import (
	"math/rand"
	"time"

	"github.com/serbi2012/time-manager/internal/domain/clock"
	"github.com/serbi2012/time-manager/internal/domain/schedule"
	"github.com/serbi2012/time-manager/internal/domain/worklog"
)

// sessionStartMillis anchors a session's date + start string to an epoch
// millisecond instant in the local timezone.
func sessionStartMillis(sess worklog.WorkSession) int64 {
	at, err := time.ParseInLocation(clock.DateLayout+" "+clock.TimeLayout,
		sess.Date+" "+sess.StartTime, time.Local)
	if err != nil {
		return 0
	}
	return clock.Millis(at)
}

// resolveTarget finds or creates the record for a logical identity,
// folding duplicates first so the identity maps to exactly one incomplete
// record. Returns the target index and the ids of records removed by the
// merge.
func resolveTarget(st *State, form worklog.FormData, newID func() string, now time.Time) (int, []string) {
	records, merged := worklog.MergeDuplicates(st.Records, form.Identity())
	st.Records = records
	if merged.Base != nil {
		return st.findRecord(merged.Base.ID), merged.DeletedIDs
	}

	rec := worklog.WorkRecord{
		ID:           newID(),
		WorkName:     form.WorkName,
		DealName:     form.DealName,
		TaskName:     form.TaskName,
		CategoryName: form.CategoryName,
		ProjectCode:  form.ProjectCode,
		Note:         form.Note,
		Date:         clock.FormatDate(now),
	}
	st.Records = append(st.Records, rec)
	return len(st.Records) - 1, merged.DeletedIDs
}

// openSession reuses the record's already-open session or appends a fresh
// one starting now.
func openSession(rec *worklog.WorkRecord, newID func() string, now time.Time) worklog.WorkSession {
	if open := worklog.RunningSession(rec.Sessions); open != nil {
		return *open
	}
	sess := worklog.WorkSession{
		ID:        newID(),
		Date:      clock.FormatDate(now),
		StartTime: clock.FormatTime(now),
	}
	rec.Sessions = append(rec.Sessions, sess)
	*rec = worklog.Normalize(*rec)
	return sess
}

// closeActiveSession writes the running session's end bound and duration,
// resolving a ByIdentity reference through find-or-create first. Returns
// the updated record index, the ids removed by a merge, and whether there
// was anything to close.
func (s *Store) closeActiveSession(st *State, now time.Time) (int, []string, bool) {
	if !st.Timer.IsRunning || st.Timer.Active == nil {
		return -1, nil, false
	}

	var ri int
	var mergedIDs []string
	var sessionID string

	switch ref := st.Timer.Active.(type) {
	case ByID:
		ri = st.findRecord(ref.RecordID)
		if ri < 0 {
			return -1, nil, false
		}
		sessionID = ref.SessionID
	case ByIdentity:
		// The session materializes only now, so stamp it from the
		// timer's anchor, not the stop instant.
		at := now
		if st.Timer.StartTime > 0 {
			at = clock.FromMillis(st.Timer.StartTime)
		}
		ri, mergedIDs = resolveTarget(st, ref.Form, s.newID, at)
		sess := openSession(&st.Records[ri], s.newID, at)
		sessionID = sess.ID
	}

	si := worklog.FindSession(st.Records[ri], sessionID)
	if si < 0 {
		return -1, mergedIDs, false
	}

	sess := st.Records[ri].Sessions[si]
	startM := clock.MinuteOf(clock.FromMillis(st.Timer.StartTime))
	endM := clock.MinuteOf(now)
	if endM < startM {
		// cross-midnight close degrades to a same-minute stop
		endM = startM
	}
	lunch := st.lunch()
	duration := clock.DurationExcludingLunch(startM, endM, lunch.Start, lunch.End)
	if duration < 1 {
		duration = 1
	}
	sess.EndTime = clock.FormatTime(now)
	sess.DurationMinutes = duration
	st.Records[ri].Sessions[si] = sess
	st.Records[ri] = worklog.Normalize(st.Records[ri])
	return ri, mergedIDs, true
}

// startOn opens (or reuses) a session on the target record and points the
// timer at it.
func (s *Store) startOn(st *State, ri int, form worklog.FormData, now time.Time) worklog.WorkSession {
	sess := openSession(&st.Records[ri], s.newID, now)
	startMs := sessionStartMillis(sess)
	if startMs == 0 {
		startMs = clock.Millis(now)
	}
	st.Timer = TimerState{
		IsRunning: true,
		StartTime: startMs,
		Active:    ByID{RecordID: st.Records[ri].ID, SessionID: sess.ID},
		Form:      form,
	}
	return sess
}

// StartTimer begins tracking the task described by the form, finding or
// creating its record by logical identity. Fails if a timer is already
// running.
func (s *Store) StartTimer(form worklog.FormData) (*worklog.WorkRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTimerLocked(form)
}

func (s *Store) startTimerLocked(form worklog.FormData) (*worklog.WorkRecord, OpResult) {
	if s.state.Timer.IsRunning {
		return nil, failure("a timer is already running")
	}

	now := s.clock.Now()
	st := s.state.clone()
	ri, mergedIDs := resolveTarget(&st, form, s.newID, now)
	s.startOn(&st, ri, form, now)
	rec := st.Records[ri]
	s.state = st

	for _, id := range mergedIDs {
		s.syncDeleteRecord(id)
	}
	s.syncRecord(rec)
	s.syncTimer(st.Timer)
	return &rec, OpResult{OK: true}
}

// StartFromTemplateRequest controls how a timer starts off a template.
type StartFromTemplateRequest struct {
	TemplateID    string
	NewRecord     bool // stamp a fresh record instead of resuming by identity
	TimestampName bool // timestamp-mode label instead of sequential numbering
}

// StartTimerFromTemplate stamps the template's fields into the timer
// form. With NewRecord set, the deal name is uniquified first so a fresh
// record is created even when the template's label is already in use.
func (s *Store) StartTimerFromTemplate(req StartFromTemplateRequest) (*worklog.WorkRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ti := s.state.findTemplate(req.TemplateID)
	if ti < 0 {
		return nil, OpResult{}
	}
	form := s.state.Templates[ti].Form()
	if req.NewRecord {
		// Resolved under the same lock acquisition as the start, so
		// two concurrent callers cannot compute the same suffix.
		if req.TimestampName {
			form.DealName = worklog.TimestampDealName(form.DealName, s.clock.Now(), rand.Intn(1000))
		} else {
			form.DealName = worklog.SequentialDealName(form.DealName, form.WorkName, s.state.Records)
		}
	}
	return s.startTimerLocked(form)
}

// StartTimerForRecord opens a session directly on a known record id,
// bypassing identity search. A running timer is stopped first, so the
// switch never leaves an observable idle gap.
func (s *Store) StartTimerForRecord(recordID string) (*worklog.WorkRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	now := s.clock.Now()

	var closedRec *worklog.WorkRecord
	if st.Timer.IsRunning {
		ci, mergedIDs, ok := s.closeActiveSession(&st, now)
		if ok {
			closed := st.Records[ci]
			closedRec = &closed
		}
		for _, id := range mergedIDs {
			s.syncDeleteRecord(id)
		}
		st.Timer = TimerState{Form: st.Timer.Form}
	}

	ri := st.findRecord(recordID)
	if ri < 0 {
		// benign: the record may have vanished on another surface
		if closedRec != nil {
			s.state = st
			s.syncRecord(*closedRec)
			s.syncTimer(st.Timer)
		}
		return nil, OpResult{}
	}

	form := worklog.FormData{
		WorkName:     st.Records[ri].WorkName,
		DealName:     st.Records[ri].DealName,
		TaskName:     st.Records[ri].TaskName,
		CategoryName: st.Records[ri].CategoryName,
		ProjectCode:  st.Records[ri].ProjectCode,
		Note:         st.Records[ri].Note,
	}
	s.startOn(&st, ri, form, now)
	rec := st.Records[ri]
	s.state = st

	if closedRec != nil && closedRec.ID != rec.ID {
		s.syncRecord(*closedRec)
	}
	s.syncRecord(rec)
	s.syncTimer(st.Timer)
	return &rec, OpResult{OK: true}
}

// StopTimer closes the active session at the current minute and returns
// the updated record. Stopping an idle timer is a nil no-op.
func (s *Store) StopTimer() *worklog.WorkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Timer.IsRunning {
		return nil
	}

	st := s.state.clone()
	now := s.clock.Now()
	ri, mergedIDs, ok := s.closeActiveSession(&st, now)
	st.Timer = TimerState{Form: st.Timer.Form}
	s.state = st

	for _, id := range mergedIDs {
		s.syncDeleteRecord(id)
	}
	s.syncTimer(st.Timer)
	if !ok {
		return nil
	}
	rec := st.Records[ri]
	s.syncRecord(rec)
	return &rec
}

// ResetTimer discards the in-progress session instead of closing it. The
// session is removed from its record, and a record left empty by that is
// removed with it.
func (s *Store) ResetTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Timer.IsRunning {
		return
	}

	st := s.state.clone()
	if ref, ok := st.Timer.Active.(ByID); ok {
		if ri := st.findRecord(ref.RecordID); ri >= 0 {
			rec := st.Records[ri]
			if si := worklog.FindSession(rec, ref.SessionID); si >= 0 {
				rec.Sessions = append(rec.Sessions[:si], rec.Sessions[si+1:]...)
				rec = worklog.Normalize(rec)
			}
			if len(rec.Sessions) == 0 {
				st.Records = append(st.Records[:ri], st.Records[ri+1:]...)
				st.Timer = TimerState{Form: st.Timer.Form}
				s.state = st
				s.syncDeleteRecord(rec.ID)
				s.syncTimer(st.Timer)
				return
			}
			st.Records[ri] = rec
			st.Timer = TimerState{Form: st.Timer.Form}
			s.state = st
			s.syncRecord(rec)
			s.syncTimer(st.Timer)
			return
		}
	}

	st.Timer = TimerState{Form: st.Timer.Form}
	s.state = st
	s.syncTimer(st.Timer)
}

// SwitchTemplate closes out the running session (if any) and immediately
// starts tracking the task described by the template, atomically from the
// caller's point of view.
func (s *Store) SwitchTemplate(templateID string) (*worklog.WorkRecord, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	ti := st.findTemplate(templateID)
	if ti < 0 {
		return nil, OpResult{}
	}
	form := st.Templates[ti].Form()
	now := s.clock.Now()

	var closedRec *worklog.WorkRecord
	if st.Timer.IsRunning {
		if ci, mergedIDs, ok := s.closeActiveSession(&st, now); ok {
			closed := st.Records[ci]
			closedRec = &closed
			for _, id := range mergedIDs {
				s.syncDeleteRecord(id)
			}
		}
	}

	ri, mergedIDs := resolveTarget(&st, form, s.newID, now)
	s.startOn(&st, ri, form, now)
	rec := st.Records[ri]
	s.state = st

	removed := map[string]bool{}
	for _, id := range mergedIDs {
		removed[id] = true
		s.syncDeleteRecord(id)
	}
	if closedRec != nil && closedRec.ID != rec.ID && !removed[closedRec.ID] {
		s.syncRecord(*closedRec)
	}
	s.syncRecord(rec)
	s.syncTimer(st.Timer)
	return &rec, OpResult{OK: true}
}

// UpdateActiveFormData patches the timer's form cache and, when the timer
// points at a record, that record's descriptive fields.
func (s *Store) UpdateActiveFormData(patch worklog.FormPatch) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.state.clone()
	st.Timer.Form = patch.Apply(st.Timer.Form)
	if ident, ok := st.Timer.Active.(ByIdentity); ok {
		st.Timer.Active = ByIdentity{Form: patch.Apply(ident.Form)}
	}

	var synced *worklog.WorkRecord
	if ref, ok := st.Timer.Active.(ByID); ok {
		if ri := st.findRecord(ref.RecordID); ri >= 0 {
			st.Records[ri] = patch.ApplyToRecord(st.Records[ri])
			synced = &st.Records[ri]
		}
	}
	s.state = st
	if synced != nil {
		s.syncRecord(*synced)
	}
	s.syncTimer(st.Timer)
}

// UpdateTimerStartTime re-anchors the running session's start. Only the
// start boundary may move, and only forward past conflicting sessions;
// the end stays pinned at "now". Future starts and starts on another
// calendar day are rejected.
func (s *Store) UpdateTimerStartTime(newStartMillis int64) OpResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Timer.IsRunning {
		return failure("no timer is running")
	}

	now := s.clock.Now()
	if newStartMillis > clock.Millis(now) {
		return failure("start time cannot be in the future")
	}
	at := clock.FromMillis(newStartMillis)
	today := clock.FormatDate(now)
	if clock.FormatDate(at) != today {
		return failure("start time must be on the current day")
	}

	st := s.state.clone()
	startM := clock.MinuteOf(at)
	endM := clock.MinuteOf(now)

	verdict := schedule.Result{OK: true, Start: startM, End: endM}
	if startM < endM {
		others := st.daySessions(today, st.activeSessionID(), now)
		verdict = schedule.ResolveStartOnly(startM, endM, others, st.lunch())
		if !verdict.OK {
			return OpResult{Message: verdict.Message}
		}
	}

	anchor := newStartMillis
	if verdict.Adjusted || verdict.Start != startM {
		adjustedAt := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local).
			Add(time.Duration(verdict.Start) * time.Minute)
		anchor = clock.Millis(adjustedAt)
	}
	st.Timer.StartTime = anchor

	var synced *worklog.WorkRecord
	if ref, ok := st.Timer.Active.(ByID); ok {
		if ri := st.findRecord(ref.RecordID); ri >= 0 {
			if si := worklog.FindSession(st.Records[ri], ref.SessionID); si >= 0 {
				st.Records[ri].Sessions[si].StartTime = clock.FormatMinutes(verdict.Start)
				st.Records[ri] = worklog.Normalize(st.Records[ri])
				synced = &st.Records[ri]
			}
		}
	}

	s.state = st
	if synced != nil {
		s.syncRecord(*synced)
	}
	s.syncTimer(st.Timer)
	return OpResult{OK: true, Adjusted: verdict.Adjusted, Message: verdict.Message}
}

// GetElapsedSeconds reports whole seconds since the timer started, zero
// while idle.
func (s *Store) GetElapsedSeconds() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Timer.IsRunning {
		return 0
	}
	elapsed := clock.Millis(s.clock.Now()) - s.state.Timer.StartTime
	if elapsed < 0 {
		return 0
	}
	return elapsed / 1000
}
