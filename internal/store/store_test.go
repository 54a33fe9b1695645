package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/syncer"
	"github.com/serbi2012/time-manager/internal/syncer/mocks"
)

func TestAddRecordWithoutTimes(t *testing.T) {
	s, _ := newTestStore(t)

	rec, res := s.AddRecord(AddRecordRequest{Form: worklog.FormData{WorkName: "개발"}})
	require.True(t, res.OK)
	require.NotEmpty(t, rec.ID)
	require.Empty(t, rec.Sessions)
	require.Equal(t, "2026-03-02", rec.Date)
}

func TestAddRecordAdjustsOutOfOverlap(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의"}, Date: "2026-03-02",
		StartTime: "09:30", EndTime: "10:30",
	})
	require.True(t, res.OK)

	rec, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "10:00", EndTime: "11:00",
	})
	require.True(t, res.OK)
	require.True(t, res.Adjusted)
	require.Equal(t, "10:30", rec.Sessions[0].StartTime)
	require.Equal(t, "11:00", rec.Sessions[0].EndTime)
	require.Equal(t, 30, rec.Sessions[0].DurationMinutes)
}

func TestAddRecordContainmentRejected(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의", DealName: "주간"}, Date: "2026-03-02",
		StartTime: "10:00", EndTime: "11:00",
	})
	require.True(t, res.OK)

	rec, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "09:00", EndTime: "12:00",
	})
	require.False(t, res.OK)
	require.Nil(t, rec)
	require.Contains(t, res.Message, "회의 > 주간")
}

func TestAddRecordInvalidTimes(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, StartTime: "9am", EndTime: "10:00",
	})
	require.False(t, res.OK)
}

func TestUpdateRecordFields(t *testing.T) {
	s, _ := newTestStore(t)

	rec, _ := s.AddRecord(AddRecordRequest{Form: worklog.FormData{WorkName: "개발"}})
	note := "코드 리뷰"
	updated, ok := s.UpdateRecord(rec.ID, worklog.FormPatch{Note: &note})
	require.True(t, ok)
	require.Equal(t, note, updated.Note)

	_, ok = s.UpdateRecord("nope", worklog.FormPatch{Note: &note})
	require.False(t, ok)
}

func TestDeleteRestorePurgeRecord(t *testing.T) {
	s, _ := newTestStore(t)

	rec, _ := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "08:00", EndTime: "08:30",
	})

	require.True(t, s.DeleteRecord(rec.ID))
	got, found := s.Record(rec.ID)
	require.True(t, found)
	require.True(t, got.IsDeleted)
	require.NotNil(t, got.DeletedAt)
	require.Empty(t, s.RecordsOn("2026-03-02"))
	require.Zero(t, s.DailyTotal("2026-03-02"))

	require.True(t, s.RestoreRecord(rec.ID))
	got, _ = s.Record(rec.ID)
	require.False(t, got.IsDeleted)
	require.Equal(t, 30, s.DailyTotal("2026-03-02"))

	require.True(t, s.PurgeRecord(rec.ID))
	_, found = s.Record(rec.ID)
	require.False(t, found)
}

func TestDeleteRecordClearsTimer(t *testing.T) {
	s, _ := newTestStore(t)

	rec, res := s.StartTimer(worklog.FormData{WorkName: "개발"})
	require.True(t, res.OK)

	require.True(t, s.DeleteRecord(rec.ID))
	require.False(t, s.Timer().IsRunning)
}

func TestCompleteRecordLeavesDuplicateDetection(t *testing.T) {
	s, _ := newTestStore(t)

	form := worklog.FormData{WorkName: "개발", DealName: "작업"}
	rec, _ := s.AddRecord(AddRecordRequest{Form: form})
	require.True(t, s.CompleteRecord(rec.ID))

	got, _ := s.Record(rec.ID)
	require.True(t, got.IsCompleted)
	require.NotNil(t, got.CompletedAt)

	// identity is free again: the timer creates a fresh record
	started, res := s.StartTimer(form)
	require.True(t, res.OK)
	require.NotEqual(t, rec.ID, started.ID)

	s.StopTimer()
	require.True(t, s.UncompleteRecord(rec.ID))
	got, _ = s.Record(rec.ID)
	require.False(t, got.IsCompleted)
	require.Nil(t, got.CompletedAt)
}

func TestUpdateSessionAdjusts(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의"}, Date: "2026-03-02",
		StartTime: "09:30", EndTime: "10:30",
	})
	require.True(t, res.OK)
	rec, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "11:00", EndTime: "11:30",
	})
	require.True(t, res.OK)

	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "10:00", "11:00", "")
	require.True(t, res.OK)
	require.True(t, res.Adjusted)

	got, _ := s.Record(rec.ID)
	require.Equal(t, "10:30", got.Sessions[0].StartTime)
	require.Equal(t, "11:00", got.Sessions[0].EndTime)
}

func TestUpdateSessionDateMoveValidatesOnly(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의"}, Date: "2026-03-03",
		StartTime: "09:00", EndTime: "10:00",
	})
	require.True(t, res.OK)
	rec, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "09:00", EndTime: "10:00",
	})
	require.True(t, res.OK)

	// overlap on the target date rejects instead of adjusting
	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "09:30", "10:30", "2026-03-03")
	require.False(t, res.OK)
	got, _ := s.Record(rec.ID)
	require.Equal(t, "2026-03-02", got.Sessions[0].Date)

	// a clear slot moves cleanly
	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "10:00", "11:00", "2026-03-03")
	require.True(t, res.OK)
	got, _ = s.Record(rec.ID)
	require.Equal(t, "2026-03-03", got.Sessions[0].Date)
	require.Equal(t, "2026-03-03", got.Date)
}

func TestUpdateSessionRunningCannotChangeDate(t *testing.T) {
	s, _ := newTestStore(t)

	rec, res := s.StartTimer(worklog.FormData{WorkName: "개발"})
	require.True(t, res.OK)

	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "08:00", "", "2026-03-01")
	require.False(t, res.OK)
}

func TestUpdateSessionReanchorsTimer(t *testing.T) {
	s, clk := newTestStore(t)

	rec, res := s.StartTimer(worklog.FormData{WorkName: "개발"})
	require.True(t, res.OK)
	clk.advance(30 * time.Minute)

	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "08:40", "", "")
	require.True(t, res.OK)

	timer := s.Timer()
	require.True(t, timer.IsRunning)
	anchor := time.Date(2026, 3, 2, 8, 40, 0, 0, time.Local)
	require.Equal(t, anchor.UnixMilli(), timer.StartTime)

	// closing the running session stops the timer
	res = s.UpdateSession(rec.ID, rec.Sessions[0].ID, "08:40", "09:30", "")
	require.True(t, res.OK)
	require.False(t, s.Timer().IsRunning)
	got, _ := s.Record(rec.ID)
	require.Equal(t, 50, got.DurationMinutes)
}

func TestUpdateSessionNotFound(t *testing.T) {
	s, _ := newTestStore(t)
	res := s.UpdateSession("nope", "nope", "09:00", "10:00", "")
	require.False(t, res.OK)
	require.Equal(t, "session not found", res.Message)
}

func TestDeleteSessionCascades(t *testing.T) {
	s, _ := newTestStore(t)

	rec, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "08:00", EndTime: "08:30",
	})
	require.True(t, res.OK)

	require.True(t, s.DeleteSession(rec.ID, rec.Sessions[0].ID))
	got, found := s.Record(rec.ID)
	require.True(t, found)
	require.Empty(t, got.Sessions)
	require.True(t, got.IsDeleted)
}

func TestDailyTotalSkipsRunning(t *testing.T) {
	s, clk := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "회의"}, Date: "2026-03-02",
		StartTime: "08:00", EndTime: "08:45",
	})
	require.True(t, res.OK)

	_, res = s.StartTimer(worklog.FormData{WorkName: "개발"})
	require.True(t, res.OK)
	clk.advance(20 * time.Minute)

	require.Equal(t, 45, s.DailyTotal("2026-03-02"))

	s.StopTimer()
	require.Equal(t, 65, s.DailyTotal("2026-03-02"))
}

func TestOptionsMergeCustomLists(t *testing.T) {
	s, _ := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{Form: worklog.FormData{WorkName: "개발", CategoryName: "백엔드"}})
	require.True(t, res.OK)

	_, ok := s.UpdateSettings(SettingsPatch{CustomWorkNames: []string{"교육", "개발"}})
	require.True(t, ok.OK)

	require.Equal(t, []string{"개발", "교육"}, s.Options(worklog.FieldWorkName))
	require.Equal(t, []string{"백엔드"}, s.Options(worklog.FieldCategoryName))
}

func TestTemplateLifecycle(t *testing.T) {
	s, _ := newTestStore(t)

	tpl := s.SaveTemplate(worklog.WorkTemplate{WorkName: "회의", DealName: "주간"})
	require.NotEmpty(t, tpl.ID)
	require.Len(t, s.Templates(), 1)

	tpl.DealName = "월간"
	s.SaveTemplate(tpl)
	require.Len(t, s.Templates(), 1)
	require.Equal(t, "월간", s.Templates()[0].DealName)

	require.True(t, s.DeleteTemplate(tpl.ID))
	require.False(t, s.DeleteTemplate(tpl.ID))
	require.Empty(t, s.Templates())
}

func TestUpdateSettingsValidatesLunch(t *testing.T) {
	s, _ := newTestStore(t)

	start, end := "11:30", "12:30"
	got, res := s.UpdateSettings(SettingsPatch{LunchStart: &start, LunchEnd: &end})
	require.True(t, res.OK)
	require.Equal(t, "11:30", got.LunchStart)

	bad := "25:99"
	_, res = s.UpdateSettings(SettingsPatch{LunchStart: &bad})
	require.False(t, res.OK)

	inverted := "10:00"
	_, res = s.UpdateSettings(SettingsPatch{LunchEnd: &inverted})
	require.False(t, res.OK)
	require.Equal(t, "12:30", s.Settings().LunchEnd)
}

func TestSnapshotRoundTrip(t *testing.T) {
	s, clk := newTestStore(t)

	_, res := s.AddRecord(AddRecordRequest{
		Form: worklog.FormData{WorkName: "개발"}, Date: "2026-03-02",
		StartTime: "08:00", EndTime: "08:30",
	})
	require.True(t, res.OK)
	s.SaveTemplate(worklog.WorkTemplate{WorkName: "회의"})
	started, res := s.StartTimer(worklog.FormData{WorkName: "배포"})
	require.True(t, res.OK)

	snap := s.Snapshot()
	require.Equal(t, syncer.SnapshotVersion, snap.Version)

	restored := New(clk, nil, nil)
	restored.Init(&snap)

	require.Len(t, restored.Records(), 2)
	require.Len(t, restored.Templates(), 1)
	timer := restored.Timer()
	require.True(t, timer.IsRunning)
	require.Equal(t, started.ID, *timer.ActiveRecordID)
}

func TestInitDropsTimerForMissingRecord(t *testing.T) {
	s, clk := newTestStore(t)

	recordID, sessionID := "gone", "gone-session"
	snap := syncer.Snapshot{
		Version: syncer.SnapshotVersion,
		Timer: syncer.TimerSnapshot{
			IsRunning:       true,
			StartTime:       clk.at.UnixMilli(),
			ActiveRecordID:  &recordID,
			ActiveSessionID: &sessionID,
		},
		Settings: worklog.DefaultSettings(),
	}
	s.Init(&snap)
	require.False(t, s.Timer().IsRunning)
}

func TestMutationsReachSyncer(t *testing.T) {
	clk := &stepClock{at: time.Date(2026, 3, 2, 9, 0, 0, 0, time.Local)}
	sync := &mocks.Syncer{}
	sync.On("SyncRecord", mock.Anything, mock.Anything).Return(nil)
	sync.On("SyncTimer", mock.Anything, mock.Anything).Return(nil)

	s := New(clk, sync, nil)

	rec, res := s.StartTimer(worklog.FormData{WorkName: "개발"})
	require.True(t, res.OK)
	clk.advance(10 * time.Minute)
	require.NotNil(t, s.StopTimer())

	s.Flush()
	sync.AssertCalled(t, "SyncRecord", mock.Anything, mock.MatchedBy(func(r worklog.WorkRecord) bool {
		return r.ID == rec.ID && r.DurationMinutes == 10
	}))
	sync.AssertCalled(t, "SyncTimer", mock.Anything, mock.MatchedBy(func(ts syncer.TimerSnapshot) bool {
		return !ts.IsRunning
	}))
}
