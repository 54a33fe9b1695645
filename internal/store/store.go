// Package store owns the authoritative in-memory collection of work
// records, templates and the active-timer slot. Every mutation is a pure
// reducer over an immutable State value applied under the store's lock;
// successful mutations hand the result to the sync collaborator as a
// fire-and-forget side effect.
package store

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/serbi2012/time-manager/internal/domain/clock"
	"github.com/serbi2012/time-manager/internal/domain/worklog"
	"github.com/serbi2012/time-manager/internal/syncer"
)

// OpResult is the discriminated outcome of a mutation that can fail or be
// auto-adjusted. Adjustment is informational, not an error: callers
// surface Message as a soft warning when Adjusted is set, and as an error
// only when OK is false.
type OpResult struct {
	OK       bool   `json:"success"`
	Adjusted bool   `json:"adjusted,omitempty"`
	Message  string `json:"message,omitempty"`
}

func failure(message string) OpResult {
	return OpResult{Message: message}
}

// Store is the process-scoped state owner. There is exactly one logical
// writer: all mutations serialize through mu.
type Store struct {
	mu          sync.Mutex
	state       State
	clock       clock.Clock
	syncer      syncer.Syncer
	logger      *slog.Logger
	syncTimeout time.Duration
	wg          sync.WaitGroup
}

// New creates a store. Nil collaborators fall back to the system clock, a
// discarding syncer, and a silent logger.
func New(clk clock.Clock, sync syncer.Syncer, logger *slog.Logger) *Store {
	if clk == nil {
		clk = clock.SystemClock{}
	}
	if sync == nil {
		sync = syncer.Nop{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{
		state: State{
			Settings: worklog.DefaultSettings(),
		},
		clock:       clk,
		syncer:      sync,
		logger:      logger,
		syncTimeout: 10 * time.Second,
	}
}

// Init loads a persisted snapshot as the starting state. A timer that
// references a record no longer present degrades to idle instead of
// failing.
func (s *Store) Init(snap *syncer.Snapshot) {
	if snap == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Records:   make([]worklog.WorkRecord, 0, len(snap.Records)),
		Templates: append([]worklog.WorkTemplate(nil), snap.Templates...),
		Settings:  snap.Settings,
		Timer:     timerFromSnapshot(snap.Timer),
	}
	for _, r := range snap.Records {
		st.Records = append(st.Records, worklog.Normalize(r))
	}
	if st.Settings.LunchStart == "" || st.Settings.LunchEnd == "" {
		defaults := worklog.DefaultSettings()
		if st.Settings.LunchStart == "" {
			st.Settings.LunchStart = defaults.LunchStart
		}
		if st.Settings.LunchEnd == "" {
			st.Settings.LunchEnd = defaults.LunchEnd
		}
	}
	if ref, ok := st.Timer.Active.(ByID); ok && st.findRecord(ref.RecordID) < 0 {
		s.logger.Warn("dropping timer for missing record", "record_id", ref.RecordID)
		st.Timer = TimerState{}
	}
	s.state = st
}

// Flush waits for in-flight sync calls. Intended for tests and shutdown.
func (s *Store) Flush() {
	s.wg.Wait()
}

// fireSync runs a sync call in the background; failures are logged and
// never propagated. Local state stays authoritative.
func (s *Store) fireSync(op string, call func(ctx context.Context) error) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.syncTimeout)
		defer cancel()
		if err := call(ctx); err != nil {
			s.logger.Error("sync failed", "op", op, "error", err)
		}
	}()
}

func (s *Store) syncRecord(rec worklog.WorkRecord) {
	s.fireSync("record", func(ctx context.Context) error {
		return s.syncer.SyncRecord(ctx, rec)
	})
}

func (s *Store) syncDeleteRecord(id string) {
	s.fireSync("delete_record", func(ctx context.Context) error {
		return s.syncer.SyncDeleteRecord(ctx, id)
	})
}

func (s *Store) syncTimer(timer TimerState) {
	snap := snapshotTimer(timer)
	s.fireSync("timer", func(ctx context.Context) error {
		return s.syncer.SyncTimer(ctx, snap)
	})
}

// Records returns a deep copy of all records.
func (s *Store) Records() []worklog.WorkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone().Records
}

// Record returns a copy of one record.
func (s *Store) Record(id string) (worklog.WorkRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.state.findRecord(id)
	if i < 0 {
		return worklog.WorkRecord{}, false
	}
	st := s.state.clone()
	return st.Records[i], true
}

// RecordsOn lists non-deleted records having at least one session on the
// given date.
func (s *Store) RecordsOn(date string) []worklog.WorkRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []worklog.WorkRecord
	for _, r := range s.state.clone().Records {
		if r.IsDeleted {
			continue
		}
		for _, sess := range r.Sessions {
			if sess.Date == date {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// DailyTotal sums the worked minutes of all closed sessions on a date
// across non-deleted records.
func (s *Store) DailyTotal(date string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, r := range s.state.Records {
		if r.IsDeleted {
			continue
		}
		for _, sess := range r.Sessions {
			if sess.Date == date && !sess.Running() {
				total += sess.DurationMinutes
			}
		}
	}
	return total
}

// Options lists distinct values for a descriptive field, merged with the
// user's custom lists where applicable.
func (s *Store) Options(field worklog.OptionField) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var extra []string
	switch field {
	case worklog.FieldWorkName:
		extra = s.state.Settings.CustomWorkNames
	case worklog.FieldCategoryName:
		extra = s.state.Settings.CustomCategories
	case worklog.FieldProjectCode:
		extra = s.state.Settings.CustomProjectCodes
	}
	return worklog.DistinctOptions(s.state.Records, field, extra)
}

// Templates returns a copy of all templates.
func (s *Store) Templates() []worklog.WorkTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]worklog.WorkTemplate(nil), s.state.Templates...)
}

// SaveTemplate inserts or replaces a template, assigning an id when blank.
func (s *Store) SaveTemplate(tpl worklog.WorkTemplate) worklog.WorkTemplate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tpl.ID == "" {
		tpl.ID = s.newID()
	}
	st := s.state.clone()
	if i := st.findTemplate(tpl.ID); i >= 0 {
		st.Templates[i] = tpl
	} else {
		st.Templates = append(st.Templates, tpl)
	}
	s.state = st
	s.fireSync("template", func(ctx context.Context) error {
		return s.syncer.SyncTemplate(ctx, tpl)
	})
	return tpl
}

// DeleteTemplate removes a template. Unknown ids are a no-op.
func (s *Store) DeleteTemplate(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.clone()
	i := st.findTemplate(id)
	if i < 0 {
		return false
	}
	st.Templates = append(st.Templates[:i], st.Templates[i+1:]...)
	s.state = st
	s.fireSync("delete_template", func(ctx context.Context) error {
		return s.syncer.SyncDeleteTemplate(ctx, id)
	})
	return true
}

// Settings returns the current settings.
func (s *Store) Settings() worklog.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Settings
}

// SettingsPatch is a partial settings update; nil fields are untouched.
type SettingsPatch struct {
	LunchStart         *string  `json:"lunch_start,omitempty"`
	LunchEnd           *string  `json:"lunch_end,omitempty"`
	CustomWorkNames    []string `json:"custom_work_names,omitempty"`
	CustomCategories   []string `json:"custom_categories,omitempty"`
	CustomProjectCodes []string `json:"custom_project_codes,omitempty"`
}

// UpdateSettings applies a partial settings update. Malformed lunch
// bounds are rejected.
func (s *Store) UpdateSettings(patch SettingsPatch) (worklog.Settings, OpResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Settings
	if patch.LunchStart != nil {
		if _, err := clock.MinutesOfDay(*patch.LunchStart); err != nil {
			return next, failure("invalid lunch start time")
		}
		next.LunchStart = *patch.LunchStart
	}
	if patch.LunchEnd != nil {
		if _, err := clock.MinutesOfDay(*patch.LunchEnd); err != nil {
			return next, failure("invalid lunch end time")
		}
		next.LunchEnd = *patch.LunchEnd
	}
	startM, _ := clock.MinutesOfDay(next.LunchStart)
	endM, _ := clock.MinutesOfDay(next.LunchEnd)
	if endM < startM {
		return s.state.Settings, failure("lunch end before lunch start")
	}
	if patch.CustomWorkNames != nil {
		next.CustomWorkNames = patch.CustomWorkNames
	}
	if patch.CustomCategories != nil {
		next.CustomCategories = patch.CustomCategories
	}
	if patch.CustomProjectCodes != nil {
		next.CustomProjectCodes = patch.CustomProjectCodes
	}

	st := s.state.clone()
	st.Settings = next
	s.state = st
	s.fireSync("settings", func(ctx context.Context) error {
		return s.syncer.SyncSettings(ctx, next)
	})
	return next, OpResult{OK: true}
}

// Snapshot exports the whole state in the persisted layout.
func (s *Store) Snapshot() syncer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state.clone()
	return syncer.Snapshot{
		Version:   syncer.SnapshotVersion,
		Records:   st.Records,
		Templates: st.Templates,
		Timer:     snapshotTimer(st.Timer),
		Settings:  st.Settings,
	}
}

// Timer returns the serialized view of the timer slot.
func (s *Store) Timer() syncer.TimerSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshotTimer(s.state.Timer)
}
