// Package queue publishes and consumes booking events over RabbitMQ.
package queue

// BookingConfirmedEvent is published after a reservation commits. It
// carries enough detail for downstream consumers to log or notify
// without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID      uint64  `json:"booking_id"`
	UserID         uint64  `json:"user_id"`
	TourID         uint64  `json:"tour_id"`
	GuideID        uint64  `json:"guide_id"`
	TourTitle      string  `json:"tour_title"`
	Location       string  `json:"location"`
	Participants   int     `json:"participants"`
	PricePerPerson float64 `json:"price_per_person"`
	ScheduledDate  string  `json:"scheduled_date,omitempty"`
	StartTime      string  `json:"start_time,omitempty"`
	ConfirmedAt    string  `json:"confirmed_at"`
}
