// Package clock provides minute-of-day arithmetic and the wall clock
// abstraction used by the scheduling engine. All math is minute-granular
// and assumes a single local timezone.
package clock

import (
	"fmt"
	"time"
)

// Clock supplies the current wall time. Injected so scheduling decisions
// are testable against a fixed instant.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the real local clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Test fixture.
type FixedClock struct {
	Instant time.Time
}

func (c FixedClock) Now() time.Time { return c.Instant }

const (
	// DateLayout is the calendar-date form used throughout ("YYYY-MM-DD").
	DateLayout = "2006-01-02"
	// TimeLayout is the minute-precision clock form used throughout ("HH:MM").
	TimeLayout = "15:04"
)

// MinutesOfDay parses an "HH:MM" string into minutes since midnight.
func MinutesOfDay(value string) (int, error) {
	t, err := time.Parse(TimeLayout, value)
	if err != nil {
		return 0, fmt.Errorf("parse time %q: %w", value, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// FormatMinutes is the inverse of MinutesOfDay.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// MinuteOf truncates an instant to its minute of day.
func MinuteOf(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatDate renders an instant as "YYYY-MM-DD" in local time.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatTime renders an instant as "HH:MM" in local time.
func FormatTime(t time.Time) string {
	return t.Format(TimeLayout)
}

// Millis converts an instant to epoch milliseconds.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds back to a local instant.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// DurationExcludingLunch returns the worked minutes in [start, end) with
// the overlap against the lunch window removed. The result is clamped to
// zero; callers that need the one-minute floor apply it themselves.
func DurationExcludingLunch(start, end, lunchStart, lunchEnd int) int {
	if end <= start {
		return 0
	}
	total := end - start
	overlap := intervalOverlap(start, end, lunchStart, lunchEnd)
	if worked := total - overlap; worked > 0 {
		return worked
	}
	return 0
}

// intervalOverlap computes the length of the intersection of two
// half-open minute intervals.
func intervalOverlap(aStart, aEnd, bStart, bEnd int) int {
	low := aStart
	if bStart > low {
		low = bStart
	}
	high := aEnd
	if bEnd < high {
		high = bEnd
	}
	if high > low {
		return high - low
	}
	return 0
}
