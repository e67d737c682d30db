package request

import (
	"time"
)

// PaymentWebhookRequest is the raw provider payload. Only id, type and
// one correlation key are mandatory; everything else is best-effort.
type PaymentWebhookRequest struct {
	EventID     string    `json:"event_id" binding:"required"`
	Type        string    `json:"type" binding:"required"`
	PaymentID   string    `json:"payment_id"`
	SessionID   string    `json:"session_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	OccurredAt  time.Time `json:"occurred_at"`
}
