package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/serbi2012/time-manager/internal/domain/clock"
	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/syncer"
)

// stepClock is a controllable clock for exercising the timer state
// machine minute by minute.
type stepClock struct {
	at time.Time
}

func (c *stepClock) Now() time.Time { return c.at }

func (c *stepClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestStore(t *testing.T) (*Store, *stepClock) {
	t.Helper()
	clk := &stepClock{at: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	return New(clk, nil, nil), clk
}

func devForm() worklog.FormData {
	return worklog.FormData{WorkName: "개발", DealName: "결제 모듈", TaskName: "구현"}
}

func TestStartAndStopTimer(t *testing.T) {
	s, clk := newTestStore(t)

	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	require.NotNil(t, rec)
	require.Len(t, rec.Sessions, 1)
	require.True(t, rec.Sessions[0].Running())
	require.Equal(t, "09:00", rec.Sessions[0].StartTime)
	require.Equal(t, "2026-03-02", rec.Sessions[0].Date)

	timer := s.Timer()
	require.True(t, timer.IsRunning)
	require.NotNil(t, timer.ActiveRecordID)
	require.Equal(t, rec.ID, *timer.ActiveRecordID)

	clk.advance(30 * time.Minute)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)
	require.Equal(t, rec.ID, stopped.ID)
	require.Equal(t, "09:30", stopped.Sessions[0].EndTime)
	require.Equal(t, 30, stopped.Sessions[0].DurationMinutes)
	require.Equal(t, 30, stopped.DurationMinutes)
	require.False(t, s.Timer().IsRunning)
}

func TestStartTimerWhileRunningFails(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	rec, res := s.StartTimer(worklog.FormData{WorkName: "회의"})
	require.False(t, res.OK)
	require.Nil(t, rec)
	require.NotEmpty(t, res.Message)
	require.True(t, s.Timer().IsRunning)
}

func TestStopTimerWhileIdleIsNil(t *testing.T) {
	s, _ := newTestStore(t)
	require.Nil(t, s.StopTimer())
}

func TestStopExcludesLunchAndFloorsDuration(t *testing.T) {
	s, clk := newTestStore(t)
	clk.at = time.Date(2026, 3, 2, 11, 30, 0, 0, time.Local)

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	// 11:30 to 13:30 spans the whole 12:00-13:00 lunch window
	clk.at = time.Date(2026, 3, 2, 13, 30, 0, 0, time.Local)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)
	require.Equal(t, 60, stopped.Sessions[0].DurationMinutes)
}

func TestImmediateStopKeepsOneMinute(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	stopped := s.StopTimer()
	require.NotNil(t, stopped)
	require.Equal(t, 1, stopped.Sessions[0].DurationMinutes)
}

func TestStartTimerMergesDuplicateRecords(t *testing.T) {
	s, clk := newTestStore(t)

	first, res := s.AddRecord(AddRecordRequest{
		Form: devForm(), Date: "2026-03-02", StartTime: "07:00", EndTime: "07:30",
	})
	require.True(t, res.OK)
	second, res := s.AddRecord(AddRecordRequest{
		Form: devForm(), Date: "2026-03-02", StartTime: "08:00", EndTime: "08:30",
	})
	require.True(t, res.OK)

	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	require.Equal(t, first.ID, rec.ID)
	require.Len(t, rec.Sessions, 3)

	_, found := s.Record(second.ID)
	require.False(t, found)

	clk.advance(10 * time.Minute)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)
	require.Equal(t, 70, stopped.DurationMinutes)
}

func TestStartTimerReusesOpenSession(t *testing.T) {
	s, clk := newTestStore(t)

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	clk.advance(20 * time.Minute)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)

	// reopen the session by hand, as a restored snapshot would
	snap := s.Snapshot()
	snap.Records[0].Sessions[0].EndTime = ""
	snap.Records[0].Sessions[0].DurationMinutes = 0
	s.Init(&snap)

	clk.advance(15 * time.Minute)
	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	require.Len(t, rec.Sessions, 1)

	// timer anchors to the session's recorded start, not to "now"
	startAt := time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)
	require.Equal(t, clock.Millis(startAt), s.Timer().StartTime)
}

func TestResetTimerDiscardsSessionAndEmptyRecord(t *testing.T) {
	s, clk := newTestStore(t)

	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	clk.advance(45 * time.Minute)
	s.ResetTimer()

	require.False(t, s.Timer().IsRunning)
	_, found := s.Record(rec.ID)
	require.False(t, found)
}

func TestResetTimerKeepsRecordWithClosedSessions(t *testing.T) {
	s, clk := newTestStore(t)

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	clk.advance(30 * time.Minute)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)

	clk.advance(5 * time.Minute)
	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)
	require.Equal(t, stopped.ID, rec.ID)
	require.Len(t, rec.Sessions, 2)

	s.ResetTimer()
	kept, found := s.Record(rec.ID)
	require.True(t, found)
	require.Len(t, kept.Sessions, 1)
	require.Equal(t, 30, kept.DurationMinutes)
}

func TestStartTimerForRecord(t *testing.T) {
	s, clk := newTestStore(t)

	seed, res := s.AddRecord(AddRecordRequest{
		Form: devForm(), Date: "2026-03-02", StartTime: "08:00", EndTime: "08:30",
	})
	require.True(t, res.OK)

	rec, res := s.StartTimerForRecord(seed.ID)
	require.True(t, res.OK)
	require.Equal(t, seed.ID, rec.ID)
	require.Len(t, rec.Sessions, 2)
	require.True(t, rec.Sessions[1].Running())

	// switching to another record closes the current session first
	other, res := s.AddRecord(AddRecordRequest{Form: worklog.FormData{WorkName: "회의"}})
	require.True(t, res.OK)
	clk.advance(10 * time.Minute)
	rec2, res := s.StartTimerForRecord(other.ID)
	require.True(t, res.OK)
	require.Equal(t, other.ID, rec2.ID)

	prev, found := s.Record(seed.ID)
	require.True(t, found)
	require.Equal(t, "09:10", prev.Sessions[1].EndTime)
	require.True(t, s.Timer().IsRunning)
}

func TestStartTimerForMissingRecord(t *testing.T) {
	s, _ := newTestStore(t)
	rec, res := s.StartTimerForRecord("nope")
	require.Nil(t, rec)
	require.False(t, res.OK)
	require.Empty(t, res.Message)
	require.False(t, s.Timer().IsRunning)
}

func TestSwitchTemplateClosesAndReopens(t *testing.T) {
	s, clk := newTestStore(t)

	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "회의", DealName: "주간 회의"})

	first, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	clk.advance(25 * time.Minute)
	rec, res := s.SwitchTemplate(tpl.ID)
	require.True(t, res.OK)
	require.Equal(t, "회의", rec.WorkName)
	require.True(t, s.Timer().IsRunning)

	closed, found := s.Record(first.ID)
	require.True(t, found)
	require.Equal(t, "09:25", closed.Sessions[0].EndTime)
	require.Equal(t, 25, closed.DurationMinutes)
	require.Equal(t, "09:25", rec.Sessions[0].StartTime)
}

func TestSwitchTemplateWhileIdleStarts(t *testing.T) {
	s, _ := newTestStore(t)
	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "회의"})

	rec, res := s.SwitchTemplate(tpl.ID)
	require.True(t, res.OK)
	require.NotNil(t, rec)
	require.True(t, s.Timer().IsRunning)
}

func TestSwitchUnknownTemplate(t *testing.T) {
	s, _ := newTestStore(t)
	rec, res := s.SwitchTemplate("nope")
	require.Nil(t, rec)
	require.False(t, res.OK)
}

func TestStartFromTemplateSequentialName(t *testing.T) {
	s, clk := newTestStore(t)
	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "개발", DealName: "작업"})

	rec, res := s.StartTimerFromTemplate(StartFromTemplateRequest{TemplateID: tpl.ID, NewRecord: true})
	require.True(t, res.OK)
	require.Equal(t, "작업", rec.DealName)
	s.StopTimer()

	clk.advance(5 * time.Minute)
	rec2, res := s.StartTimerFromTemplate(StartFromTemplateRequest{TemplateID: tpl.ID, NewRecord: true})
	require.True(t, res.OK)
	require.Equal(t, "작업 (2)", rec2.DealName)
	require.NotEqual(t, rec.ID, rec2.ID)
}

func TestStartFromTemplateTimestampName(t *testing.T) {
	s, _ := newTestStore(t)
	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "개발", DealName: "작업"})

	rec, res := s.StartTimerFromTemplate(StartFromTemplateRequest{
		TemplateID: tpl.ID, NewRecord: true, TimestampName: true,
	})
	require.True(t, res.OK)
	require.Regexp(t, `^작업_0302_090000_\d{3}$`, rec.DealName)
}

func TestStartFromTemplateResumesByIdentity(t *testing.T) {
	s, clk := newTestStore(t)
	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "개발", DealName: "작업"})

	rec, res := s.StartTimerFromTemplate(StartFromTemplateRequest{TemplateID: tpl.ID})
	require.True(t, res.OK)
	s.StopTimer()

	clk.advance(5 * time.Minute)
	rec2, res := s.StartTimerFromTemplate(StartFromTemplateRequest{TemplateID: tpl.ID})
	require.True(t, res.OK)
	require.Equal(t, rec.ID, rec2.ID)
	require.Len(t, rec2.Sessions, 2)
}

func TestUpdateActiveFormData(t *testing.T) {
	s, _ := newTestStore(t)

	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	note := "리뷰 반영"
	s.UpdateActiveFormData(worklog.FormPatch{Note: &note})

	updated, found := s.Record(rec.ID)
	require.True(t, found)
	require.Equal(t, note, updated.Note)
	require.Equal(t, note, s.Timer().ActiveFormData.Note)
}

func TestUpdateTimerStartTime(t *testing.T) {
	s, clk := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의"}, Date: "2026-03-02",
		StartTime: "09:00", EndTime: "09:45",
	})
	require.True(t, res.OK)

	clk.at = time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)
	rec, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	clk.advance(30 * time.Minute)

	// clean pull-back
	at := time.Date(2026, 3, 2, 9, 50, 0, 0, time.Local)
	res = s.UpdateTimerStartTime(clock.Millis(at))
	require.True(t, res.OK)
	require.False(t, res.Adjusted)
	updated, _ := s.Record(rec.ID)
	require.Equal(t, "09:50", updated.Sessions[0].StartTime)
	require.Equal(t, clock.Millis(at), s.Timer().StartTime)

	// pull-back into the meeting gets nudged to its end
	at = time.Date(2026, 3, 2, 9, 30, 0, 0, time.Local)
	res = s.UpdateTimerStartTime(clock.Millis(at))
	require.True(t, res.OK)
	require.True(t, res.Adjusted)
	updated, _ = s.Record(rec.ID)
	require.Equal(t, "09:45", updated.Sessions[0].StartTime)
	anchor := time.Date(2026, 3, 2, 9, 45, 0, 0, time.Local)
	require.Equal(t, clock.Millis(anchor), s.Timer().StartTime)
}

func TestUpdateTimerStartTimeRejections(t *testing.T) {
	s, clk := newTestStore(t)

	res := s.UpdateTimerStartTime(clock.Millis(clk.at))
	require.False(t, res.OK)

	_, start := s.StartTimer(devForm())
	require.True(t, start.OK)

	future := clk.at.Add(time.Hour)
	require.False(t, s.UpdateTimerStartTime(clock.Millis(future)).OK)

	yesterday := clk.at.AddDate(0, 0, -1)
	require.False(t, s.UpdateTimerStartTime(clock.Millis(yesterday)).OK)
}

func TestGetElapsedSeconds(t *testing.T) {
	s, clk := newTestStore(t)
	require.EqualValues(t, 0, s.GetElapsedSeconds())

	_, res := s.StartTimer(devForm())
	require.True(t, res.OK)

	clk.advance(90 * time.Second)
	require.EqualValues(t, 90, s.GetElapsedSeconds())
}

func restoreIdentityTimer(s *Store, startedAt time.Time) {
	s.Init(&syncer.Snapshot{
		Version: syncer.SnapshotVersion,
		Timer: syncer.TimerSnapshot{
			IsRunning:      true,
			StartTime:      clock.Millis(startedAt),
			ActiveFormData: devForm(),
		},
		Settings: worklog.DefaultSettings(),
	})
}

func TestStopRestoredIdentityTimerAnchorsSession(t *testing.T) {
	s, clk := newTestStore(t)
	restoreIdentityTimer(s, clk.at)

	clk.advance(time.Hour)
	stopped := s.StopTimer()
	require.NotNil(t, stopped)
	require.Len(t, stopped.Sessions, 1)
	require.Equal(t, "2026-03-02", stopped.Sessions[0].Date)
	require.Equal(t, "09:00", stopped.Sessions[0].StartTime)
	require.Equal(t, "10:00", stopped.Sessions[0].EndTime)
	require.Equal(t, 60, stopped.Sessions[0].DurationMinutes)
	require.False(t, s.Timer().IsRunning)
}

func TestStopRestoredIdentityTimerOccupiesInterval(t *testing.T) {
	s, clk := newTestStore(t)
	restoreIdentityTimer(s, clk.at)

	clk.advance(time.Hour)
	require.NotNil(t, s.StopTimer())

	_, res := s.AddRecord(AddRecordRequest{
		Form:      worklog.FormData{WorkName: "회의", DealName: "주간"},
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "10:00",
	})
	require.False(t, res.OK)
	require.Contains(t, res.Message, "개발")
}

func TestSwitchTemplateFromRestoredIdentityTimer(t *testing.T) {
	s, clk := newTestStore(t)
	restoreIdentityTimer(s, clk.at)
	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "회의", DealName: "주간 회의"})

	clk.advance(25 * time.Minute)
	rec, res := s.SwitchTemplate(tpl.ID)
	require.True(t, res.OK)
	require.Equal(t, "회의", rec.WorkName)

	var closed worklog.WorkRecord
	for _, r := range s.Records() {
		if r.WorkName == "개발" {
			closed = r
		}
	}
	require.Len(t, closed.Sessions, 1)
	require.Equal(t, "09:00", closed.Sessions[0].StartTime)
	require.Equal(t, "09:25", closed.Sessions[0].EndTime)
	require.Equal(t, 25, closed.DurationMinutes)
	require.Equal(t, "09:25", rec.Sessions[0].StartTime)
}
