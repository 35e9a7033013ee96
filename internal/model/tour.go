package model

import "time"

// Tour status values.  Tours are soft-deleted: the status flips to
// DELETED but the row survives because historical bookings reference it.
const (
	TourStatusActive  = "ACTIVE"
	TourStatusDeleted = "DELETED"
)

// Tour mirrors the `tours` table. AvailableSpots is the shared mutable
// counter of the booking engine; it is only ever changed inside a
// transaction that locked the row, and the invariant
// 0 <= AvailableSpots <= MaxGroupSize holds after every commit.
//
// ScheduledDate carries the calendar date; StartTime and Duration are
// "HH:mm" strings (matching how guides enter them). A tour without a
// scheduled date or start time cannot be booked.
type Tour struct {
	ID             uint64
	GuideID        uint64
	Title          string
	Description    string
	Location       string
	Duration       string
	MaxGroupSize   int
	AvailableSpots int
	PricePerPerson float64
	ScheduledDate  *time.Time
	StartTime      *string
	Status         string
	Rating         float64
	ReviewsCount   int
	CreatedAt      time.Time
}

// Bookable reports whether the tour is in a state that admits new
// bookings at all (capacity is checked separately, under the row lock).
func (t Tour) Bookable() bool {
	return t.Status == TourStatusActive && t.ScheduledDate != nil && t.StartTime != nil
}
