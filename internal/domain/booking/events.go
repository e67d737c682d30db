package booking

import (
	"time"

	"github.com/google/uuid"
)

// Domain events published after a ledger transition commits. Delivery
// is at-least-once; subscribers must tolerate duplicates.
const (
	TopicBooked    = "bookings.booked"
	TopicCancelled = "bookings.cancelled"
)

type BookedEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (BookedEvent) Topic() string {
	return TopicBooked
}

type CancelledEvent struct {
	BookingID   uuid.UUID `json:"booking_id"`
	ResourceID  uuid.UUID `json:"resource_id"`
	RequesterID uuid.UUID `json:"requester_id"`
	Reason      string    `json:"reason"`
	RefundCents int64     `json:"refund_cents"`
	OccurredAt  time.Time `json:"occurred_at"`
}

func (CancelledEvent) Topic() string {
	return TopicCancelled
}
