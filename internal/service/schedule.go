package service

import (
	"time"

	"github.com/tourly/tourly-api/internal/model"
)

// defaultTourDuration is used when a tour's duration string does not
// parse as HH:mm. Guides occasionally save free-form durations; a bad
// string must not make the tour unbookable.
const defaultTourDuration = time.Hour

// parseDuration converts an "HH:mm" string into a time.Duration,
// falling back to defaultTourDuration when the string is malformed.
func parseDuration(s string) time.Duration {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return defaultTourDuration
	}
	d := time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute
	if d <= 0 {
		return defaultTourDuration
	}
	return d
}

// tourInterval computes the half-open [start, end) interval a tour
// occupies. ok is false when the tour has no scheduled date or start
// time, in which case the tour takes part in no overlap decisions.
func tourInterval(t model.Tour) (start, end time.Time, ok bool) {
	if t.ScheduledDate == nil || t.StartTime == nil {
		return time.Time{}, time.Time{}, false
	}
	st, err := time.Parse("15:04", *t.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	d := t.ScheduledDate
	start = time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	end = start.Add(parseDuration(t.Duration))
	return start, end, true
}

// intervalsOverlap applies the half-open rule: [a1, a2) and [b1, b2)
// intersect iff a1 < b2 && b1 < a2. Back-to-back tours (one ends
// exactly when the next starts) do not overlap.
func intervalsOverlap(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}
