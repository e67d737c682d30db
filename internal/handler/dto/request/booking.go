package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	ResourceID  uuid.UUID `json:"resource_id" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
}

type CancelBookingRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func (r CancelBookingRequest) TrimmedReason() string {
	return strings.TrimSpace(r.Reason)
}

type CaptureBookingRequest struct {
	// Nil captures the full authorized amount.
	AmountCents *int64 `json:"amount_cents,omitempty"`
}
