package booking

import "errors"

var ErrInvalidTransition = errors.New("invalid lifecycle transition")

type Status string

const (
	StatusPending         Status = "PENDING"
	StatusAwaitingPayment Status = "AWAITING_PAYMENT"
	StatusAuthorized      Status = "AUTHORIZED"
	StatusConfirmed       Status = "CONFIRMED"
	StatusCancelled       Status = "CANCELLED"
	StatusFailed          Status = "FAILED"
	StatusRefunded        Status = "REFUNDED"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAwaitingPayment, StatusAuthorized,
		StatusConfirmed, StatusCancelled, StatusFailed, StatusRefunded:
		return true
	default:
		return false
	}
}

// Terminal states accept no further triggers. CANCELLED is near-terminal:
// it still accepts the refund-processed event.
func (s Status) IsTerminal() bool {
	return s == StatusFailed || s == StatusRefunded
}

// Blocking reports whether a booking in this status holds its resource
// window against new bookings.
func (s Status) Blocking() bool {
	return s != StatusCancelled && s != StatusFailed && s != StatusRefunded
}

func AllStatuses() []Status {
	return []Status{
		StatusPending, StatusAwaitingPayment, StatusAuthorized,
		StatusConfirmed, StatusCancelled, StatusFailed, StatusRefunded,
	}
}

// Trigger is a command or normalized payment event driving one
// lifecycle transition.
type Trigger string

const (
	TriggerAuthorizationRequested Trigger = "authorization_requested"
	TriggerPaymentAuthorized      Trigger = "payment_authorized"
	TriggerCaptured               Trigger = "captured"
	TriggerPaymentFailed          Trigger = "payment_failed"
	TriggerCancel                 Trigger = "cancel"
	TriggerRefundProcessed        Trigger = "refund_processed"
)

func AllTriggers() []Trigger {
	return []Trigger{
		TriggerAuthorizationRequested, TriggerPaymentAuthorized, TriggerCaptured,
		TriggerPaymentFailed, TriggerCancel, TriggerRefundProcessed,
	}
}

// transitions is the single source of truth for the lifecycle.
// Anything absent here is an invalid transition.
var transitions = map[Status]map[Trigger]Status{
	StatusPending: {
		TriggerAuthorizationRequested: StatusAwaitingPayment,
	},
	StatusAwaitingPayment: {
		TriggerPaymentAuthorized: StatusAuthorized,
		TriggerPaymentFailed:     StatusFailed,
	},
	StatusAuthorized: {
		TriggerCaptured:      StatusConfirmed,
		TriggerPaymentFailed: StatusFailed,
		TriggerCancel:        StatusCancelled,
	},
	StatusConfirmed: {
		TriggerCancel: StatusCancelled,
	},
	StatusCancelled: {
		TriggerRefundProcessed: StatusRefunded,
	},
}

// NextStatus resolves the transition table for one (status, trigger)
// pair. The caller decides whether a rejection is a duplicate delivery
// (no-op) or a genuinely contradictory event.
func NextStatus(from Status, trg Trigger) (Status, error) {
	byTrigger, ok := transitions[from]
	if !ok {
		return "", ErrInvalidTransition
	}
	next, ok := byTrigger[trg]
	if !ok {
		return "", ErrInvalidTransition
	}
	return next, nil
}

// CanApply reports whether the trigger is accepted in the given status.
func CanApply(from Status, trg Trigger) bool {
	_, err := NextStatus(from, trg)
	return err == nil
}

// PaymentStatus mirrors the gateway's view of the charge, kept
// alongside the lifecycle status for reconciliation.
type PaymentStatus string

const (
	PaymentStatusUnpaid     PaymentStatus = "unpaid"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

func (p PaymentStatus) String() string {
	return string(p)
}
