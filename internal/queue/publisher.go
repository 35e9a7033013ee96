package queue

import (
	"context"
	"encoding/json"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/tourly/tourly-api/internal/model"
)

const bookingQueueName = "booking.confirmed"

// Publisher emits booking events to the broker. Every publish dials a
// fresh connection; event volume is low enough that connection reuse
// is not worth the reconnect bookkeeping. Errors are logged and
// returned so callers can treat publishing as best-effort.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher { return &Publisher{URL: url} }

// PublishBookingConfirmed sends a persistent BookingConfirmedEvent to
// the booking.confirmed queue.
func (p *Publisher) PublishBookingConfirmed(ctx context.Context, b model.Booking, t model.Tour) error {
	ev := BookingConfirmedEvent{
		BookingID:      b.ID,
		UserID:         b.UserID,
		TourID:         t.ID,
		GuideID:        t.GuideID,
		TourTitle:      t.Title,
		Location:       t.Location,
		Participants:   b.NumberOfParticipants,
		PricePerPerson: t.PricePerPerson,
		ConfirmedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if t.ScheduledDate != nil {
		ev.ScheduledDate = t.ScheduledDate.Format("2006-01-02")
	}
	if t.StartTime != nil {
		ev.StartTime = *t.StartTime
	}

	conn, err := amqp.Dial(p.URL)
	if err != nil {
		log.Printf("rabbitmq: dial failed: %v", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Printf("rabbitmq: channel open failed: %v", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(bookingQueueName, true, false, false, false, nil); err != nil {
		log.Printf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", bookingQueueName, false, false, pub); err != nil {
		log.Printf("rabbitmq: publish failed: %v", err)
		return err
	}
	return nil
}
