package worklog

import "sort"

// SortSessions orders sessions chronologically by date then start time.
// Lexicographic order on "YYYY-MM-DD" and "HH:MM" is chronological order.
func SortSessions(sessions []WorkSession) {
	sort.SliceStable(sessions, func(i, j int) bool {
		if sessions[i].Date != sessions[j].Date {
			return sessions[i].Date < sessions[j].Date
		}
		return sessions[i].StartTime < sessions[j].StartTime
	})
}

// TotalDuration sums the worked minutes across sessions.
func TotalDuration(sessions []WorkSession) int {
	total := 0
	for _, s := range sessions {
		total += s.DurationMinutes
	}
	return total
}

// RunningSession returns the first open session, or nil.
func RunningSession(sessions []WorkSession) *WorkSession {
	for i := range sessions {
		if sessions[i].Running() {
			return &sessions[i]
		}
	}
	return nil
}

// Normalize re-sorts the session list and recomputes the record's cached
// aggregate fields from it. A record that has sessions gets the one-minute
// duration floor; a session-less record keeps its anchor date and zeroed
// times.
func Normalize(r WorkRecord) WorkRecord {
	sessions := make([]WorkSession, len(r.Sessions))
	copy(sessions, r.Sessions)
	SortSessions(sessions)
	r.Sessions = sessions

	if len(sessions) == 0 {
		r.StartTime = ""
		r.EndTime = ""
		r.DurationMinutes = 0
		return r
	}

	first := sessions[0]
	last := sessions[len(sessions)-1]
	r.Date = first.Date
	r.StartTime = first.StartTime
	r.EndTime = last.EndTime

	total := TotalDuration(sessions)
	if total < 1 && anyClosed(sessions) {
		total = 1
	}
	r.DurationMinutes = total
	return r
}

func anyClosed(sessions []WorkSession) bool {
	for _, s := range sessions {
		if !s.Running() {
			return true
		}
	}
	return false
}

// FindSession locates a session by id within a record, returning its index
// or -1.
func FindSession(r WorkRecord, sessionID string) int {
	for i := range r.Sessions {
		if r.Sessions[i].ID == sessionID {
			return i
		}
	}
	return -1
}
