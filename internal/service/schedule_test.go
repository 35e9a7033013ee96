package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tourly/tourly-api/internal/model"
)

func TestParseDuration(t *testing.T) {
	cases := []struct {
		in   string
		want time.Duration
	}{
		{"02:00", 2 * time.Hour},
		{"01:30", 90 * time.Minute},
		{"00:45", 45 * time.Minute},
		{"00:00", time.Hour}, // zero-length falls back
		{"bogus", time.Hour},
		{"", time.Hour},
		{"2 hours", time.Hour},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseDuration(tc.in), "input %q", tc.in)
	}
}

func scheduledTour(date, start, duration string) model.Tour {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return model.Tour{ScheduledDate: &d, StartTime: &start, Duration: duration}
}

func TestTourInterval(t *testing.T) {
	tour := scheduledTour("2024-06-01", "10:00", "02:00")
	start, end, ok := tourInterval(tour)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), end)
}

func TestTourIntervalMissingSchedule(t *testing.T) {
	_, _, ok := tourInterval(model.Tour{Duration: "02:00"})
	assert.False(t, ok)

	d := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	_, _, ok = tourInterval(model.Tour{ScheduledDate: &d, Duration: "02:00"})
	assert.False(t, ok)

	bad := "25:99"
	_, _, ok = tourInterval(model.Tour{ScheduledDate: &d, StartTime: &bad})
	assert.False(t, ok)
}

func TestIntervalsOverlap(t *testing.T) {
	at := func(h int) time.Time { return time.Date(2024, 6, 1, h, 0, 0, 0, time.UTC) }

	cases := []struct {
		name           string
		a1, a2, b1, b2 time.Time
		want           bool
	}{
		{"contained", at(10), at(12), at(11), at(11).Add(30 * time.Minute), true},
		{"partial", at(10), at(12), at(11), at(14), true},
		{"identical", at(10), at(12), at(10), at(12), true},
		{"back to back", at(10), at(12), at(12), at(14), false},
		{"disjoint", at(10), at(12), at(13), at(15), false},
		{"reversed order", at(13), at(15), at(10), at(12), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, intervalsOverlap(tc.a1, tc.a2, tc.b1, tc.b2))
		})
	}
}

// A tour at 10:00 for two hours must conflict with an existing 11:00
// booking regardless of the other tour's duration.
func TestOverlapRuleMatchesBookingScenario(t *testing.T) {
	newTour := scheduledTour("2024-06-01", "10:00", "02:00")
	held := scheduledTour("2024-06-01", "11:00", "00:30")

	s1, e1, ok := tourInterval(newTour)
	require.True(t, ok)
	s2, e2, ok := tourInterval(held)
	require.True(t, ok)
	assert.True(t, intervalsOverlap(s1, e1, s2, e2))
}
