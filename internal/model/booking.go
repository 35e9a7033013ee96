package model

import "time"

// Booking status values.  CONFIRMED is the only non-terminal state:
// a booking moves to CANCELLED (manual) or COMPLETED (time-driven
// sweep) and never transitions again.
const (
	BookingStatusConfirmed = "CONFIRMED"
	BookingStatusCancelled = "CANCELLED"
	BookingStatusCompleted = "COMPLETED"
)

// Booking mirrors the `bookings` table. At most one CONFIRMED booking
// may exist per (user, tour) pair.
type Booking struct {
	ID                   uint64
	UserID               uint64
	TourID               uint64
	NumberOfParticipants int
	BookingDate          time.Time
	Status               string
}

// BookingWithTour joins a booking to its tour's schedule, used by the
// overlap check and the completion sweep.
type BookingWithTour struct {
	Booking
	Tour Tour
}
