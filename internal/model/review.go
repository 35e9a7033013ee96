package model

import "time"

// Review mirrors the `reviews` table. BookingID is unique: a traveler
// reviews a completed booking at most once. Tour and guide aggregates
// are recomputed in full from this table on every insert.
type Review struct {
	ID          uint64
	BookingID   uint64
	ReviewerID  uint64
	GuideID     uint64
	TourID      uint64
	TourRating  int
	GuideRating int
	Comment     string
	CreatedAt   time.Time
}
