package payment

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrUnknownEventKind   = errors.New("unknown payment event kind")
	ErrMissingEventID     = errors.New("payment event id is required")
	ErrMissingCorrelation = errors.New("payment event carries no correlation key")
)

// EventKind is the normalized shape of a provider webhook type.
type EventKind string

const (
	KindAuthorized EventKind = "authorized"
	KindCaptured   EventKind = "captured"
	KindFailed     EventKind = "failed"
	KindRefunded   EventKind = "refunded"
	KindCancelled  EventKind = "cancelled"
)

func (k EventKind) IsValid() bool {
	switch k {
	case KindAuthorized, KindCaptured, KindFailed, KindRefunded, KindCancelled:
		return true
	default:
		return false
	}
}

// providerKinds maps raw provider event types onto the normalized
// kinds. Providers name the same lifecycle steps differently; anything
// not listed is rejected for manual reconciliation.
var providerKinds = map[string]EventKind{
	"authorized":                    KindAuthorized,
	"payment.authorized":            KindAuthorized,
	"payment_intent.succeeded":      KindAuthorized,
	"charge.authorized":             KindAuthorized,
	"captured":                      KindCaptured,
	"payment.captured":              KindCaptured,
	"charge.captured":               KindCaptured,
	"failed":                        KindFailed,
	"payment.failed":                KindFailed,
	"payment_intent.payment_failed": KindFailed,
	"charge.failed":                 KindFailed,
	"refunded":                      KindRefunded,
	"payment.refunded":              KindRefunded,
	"charge.refunded":               KindRefunded,
	"cancelled":                     KindCancelled,
	"payment.cancelled":             KindCancelled,
}

func NormalizeKind(raw string) (EventKind, error) {
	kind, ok := providerKinds[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", ErrUnknownEventKind
	}
	return kind, nil
}

// Correlation matches an inbound event to its booking via the external
// payment id or, before authorization completes, the session id.
type Correlation struct {
	PaymentID string
	SessionID string
}

func (c Correlation) IsEmpty() bool {
	return c.PaymentID == "" && c.SessionID == ""
}

// Event is one normalized inbound payment event. It drives at most one
// ledger transition and is then only remembered by the dedupe index.
type Event struct {
	ExternalEventID string
	Correlation     Correlation
	Kind            EventKind
	AmountCents     int64
	Currency        string
	OccurredAt      time.Time
}

func NewEvent(externalEventID string, corr Correlation, kind EventKind, amountCents int64, currency string, occurredAt time.Time) (Event, error) {
	if strings.TrimSpace(externalEventID) == "" {
		return Event{}, ErrMissingEventID
	}
	if corr.IsEmpty() {
		return Event{}, ErrMissingCorrelation
	}
	if !kind.IsValid() {
		return Event{}, ErrUnknownEventKind
	}
	return Event{
		ExternalEventID: externalEventID,
		Correlation:     corr,
		Kind:            kind,
		AmountCents:     amountCents,
		Currency:        currency,
		OccurredAt:      occurredAt,
	}, nil
}
