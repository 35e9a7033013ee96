package model

import "time"

// Notification types emitted by the booking engine and tour lifecycle.
const (
	NotificationNewBooking              = "NEW_BOOKING"
	NotificationBookingCancelledByUser  = "BOOKING_CANCELLED_TRAVELER"
	NotificationBookingCancelledToGuide = "BOOKING_CANCELLED_GUIDE"
	NotificationBookingCompleted        = "BOOKING_COMPLETED"
	NotificationTourCancelled           = "TOUR_CANCELLED"
	NotificationNewTour                 = "NEW_TOUR"
)

// Notification mirrors the `notifications` table. Writes are
// fire-and-forget: a failed insert is logged and never aborts the
// operation that triggered it.
type Notification struct {
	ID        uint64
	UserID    uint64
	Title     string
	Message   string
	Type      string
	RelatedID uint64
	IsRead    bool
	CreatedAt time.Time
}
