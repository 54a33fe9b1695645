// Package schedule decides whether a candidate work interval can coexist
// with the other intervals already recorded for the same day, trimming or
// rejecting it according to deterministic rules.
package schedule

import (
	"fmt"

	"github.com/serbi2012/time-manager/internal/domain/clock"
)

// maxAdjustPasses bounds the boundary-nudging loop. Exceeding it resolves
// to rejection, never an endless loop.
const maxAdjustPasses = 10

// Interval is an occupied half-open minute range [Start, End) owned by an
// existing session. Owner carries the user-facing task label for conflict
// messages.
type Interval struct {
	Start int
	End   int
	Owner string
}

// Overlaps reports whether two half-open intervals intersect.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return !(aEnd <= bStart || aStart >= bEnd)
}

// Result is the resolver's verdict. OK=false carries a message naming the
// conflict; Adjusted=true flags a soft warning with the trimmed bounds.
type Result struct {
	OK       bool
	Adjusted bool
	Start    int
	End      int
	Duration int
	Message  string
}

// Window is the daily lunch range excluded from worked durations.
type Window struct {
	Start int
	End   int
}

func conflictMessage(o Interval) string {
	return fmt.Sprintf("conflicts with %q (%s~%s)",
		o.Owner, clock.FormatMinutes(o.Start), clock.FormatMinutes(o.End))
}

// Resolve places [start, end) among the other same-day intervals,
// nudging its boundaries out of partial overlaps. Containment in either
// direction rejects; an interval that degenerates while being nudged
// rejects. On success the returned duration excludes the lunch window,
// floored at one minute.
func Resolve(start, end int, others []Interval, lunch Window) Result {
	if end <= start {
		return Result{Message: "invalid time range"}
	}

	adjusted := false
	for pass := 0; pass < maxAdjustPasses; pass++ {
		if end <= start {
			return Result{Message: "cannot avoid conflict with existing sessions"}
		}

		o, found := firstOverlap(start, end, others)
		if !found {
			return accepted(start, end, adjusted, lunch)
		}

		containsOther := start <= o.Start && end >= o.End
		containedByOther := o.Start <= start && o.End >= end
		if containsOther || containedByOther {
			return Result{Message: conflictMessage(o)}
		}

		if start >= o.Start && start < o.End {
			start = o.End
			adjusted = true
			continue
		}
		if end > o.Start && end <= o.End {
			end = o.Start
			adjusted = true
			continue
		}

		// unreachable given the overlap taxonomy above
		return Result{Message: conflictMessage(o)}
	}

	return Result{Message: "cannot avoid conflict with existing sessions"}
}

// Validate checks [start, end) against the other intervals without any
// adjustment. Used when the session was explicitly moved to a different
// day: any overlap on the target day rejects outright.
func Validate(start, end int, others []Interval, lunch Window) Result {
	if end <= start {
		return Result{Message: "invalid time range"}
	}
	if o, found := firstOverlap(start, end, others); found {
		return Result{Message: conflictMessage(o)}
	}
	return accepted(start, end, false, lunch)
}

// ResolveStartOnly moves only the start boundary forward past overlapping
// intervals, keeping the end pinned. Used when re-anchoring a running
// timer whose end is "now".
func ResolveStartOnly(start, end int, others []Interval, lunch Window) Result {
	if end <= start {
		return Result{Message: "invalid time range"}
	}

	adjusted := false
	for pass := 0; pass < maxAdjustPasses; pass++ {
		if start >= end {
			return Result{Message: "cannot avoid conflict with existing sessions"}
		}
		o, found := firstOverlap(start, end, others)
		if !found {
			return accepted(start, end, adjusted, lunch)
		}
		start = o.End
		adjusted = true
	}
	return Result{Message: "cannot avoid conflict with existing sessions"}
}

func accepted(start, end int, adjusted bool, lunch Window) Result {
	duration := clock.DurationExcludingLunch(start, end, lunch.Start, lunch.End)
	if duration < 1 {
		duration = 1
	}
	res := Result{
		OK:       true,
		Adjusted: adjusted,
		Start:    start,
		End:      end,
		Duration: duration,
	}
	if adjusted {
		res.Message = fmt.Sprintf("time adjusted to %s~%s to avoid overlap",
			clock.FormatMinutes(start), clock.FormatMinutes(end))
	}
	return res
}

// firstOverlap returns the earliest-starting interval that overlaps the
// candidate, scanning deterministically.
func firstOverlap(start, end int, others []Interval) (Interval, bool) {
	best := Interval{}
	found := false
	for _, o := range others {
		if o.End <= o.Start {
			continue
		}
		if !Overlaps(start, end, o.Start, o.End) {
			continue
		}
		if !found || o.Start < best.Start {
			best = o
			found = true
		}
	}
	return best, found
}
