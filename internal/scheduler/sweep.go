// Package scheduler runs the periodic booking-completion sweep.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/tourly/tourly-api/internal/service"
)

// Sweeper promotes past-due CONFIRMED bookings to COMPLETED on a fixed
// interval. Each promotion is a compare-and-set, so the sweep is
// idempotent and a booking cancelled concurrently stays CANCELLED.
type Sweeper struct {
	Bookings *service.BookingService
	Interval time.Duration
}

func NewSweeper(bookings *service.BookingService, interval time.Duration) *Sweeper {
	return &Sweeper{Bookings: bookings, Interval: interval}
}

// RunOnce performs a single sweep and returns how many bookings it
// promoted. Per-booking failures are logged and do not stop the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	due, err := s.Bookings.CompletionCandidates(ctx)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, bt := range due {
		ok, err := s.Bookings.CompleteBooking(ctx, bt)
		if err != nil {
			log.Printf("sweep: completing booking %d: %v", bt.ID, err)
			continue
		}
		if ok {
			completed++
		}
	}
	return completed, nil
}

// Run loops RunOnce until ctx is cancelled. An immediate first pass
// catches bookings that came due while the process was down.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	for {
		if n, err := s.RunOnce(ctx); err != nil {
			log.Printf("sweep: %v", err)
		} else if n > 0 {
			log.Printf("sweep: completed %d booking(s)", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
