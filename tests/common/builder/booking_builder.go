//go:build unit || e2e

package builder

import (
	"time"

	dombooking "booking-core/internal/domain/booking"
	"booking-core/internal/domain/payment"
	"booking-core/internal/domain/resource"
	reqdto "booking-core/internal/handler/dto/request"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingBuilder struct {
	ID          uuid.UUID
	Kind        resource.Kind
	ResourceID  uuid.UUID
	ProviderID  uuid.UUID
	RequesterID uuid.UUID
	StartTime   time.Time
	EndTime     time.Time
	Status      dombooking.Status
	Payment     dombooking.PaymentStatus
	AmountCents int64
	Currency    string

	CapturedCents     *int64
	ExternalPaymentID *string
	ExternalSessionID *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewBookingBuilder() *BookingBuilder {
	now := time.Now()
	start := now.Add(72 * time.Hour).Truncate(time.Hour)
	return &BookingBuilder{
		ID:          uuid.New(),
		Kind:        resource.KindVenue,
		ResourceID:  uuid.New(),
		ProviderID:  uuid.New(),
		RequesterID: uuid.New(),
		StartTime:   start,
		EndTime:     start.Add(2 * time.Hour),
		Status:      dombooking.StatusPending,
		Payment:     dombooking.PaymentStatusUnpaid,
		AmountCents: 20000,
		Currency:    "JPY",
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Build methods
func (b *BookingBuilder) BuildDomain() *dombooking.Booking {
	window, err := dombooking.NewTimeWindow(b.StartTime, b.EndTime)
	if err != nil {
		panic(err)
	}
	amount, err := dombooking.NewMoney(b.AmountCents, b.Currency)
	if err != nil {
		panic(err)
	}
	return dombooking.ReconstructBooking(
		b.ID, b.Kind, b.ResourceID, b.ProviderID, b.RequesterID,
		window, b.Status, b.Payment, amount,
		b.CapturedCents,
		b.ExternalPaymentID, b.ExternalSessionID,
		nil, nil,
		nil, nil, nil,
		b.CreatedAt, b.UpdatedAt,
	)
}

func (b *BookingBuilder) BuildSnapshot() commands.ResourceSnapshot {
	return commands.ResourceSnapshot{
		ID:          b.ResourceID,
		Kind:        b.Kind,
		Name:        "Test Resource",
		ProviderID:  b.ProviderID,
		HourlyCents: 10000,
		Currency:    b.Currency,
	}
}

func (b *BookingBuilder) BuildCreateParams() commands.CreateBookingParams {
	return commands.CreateBookingParams{
		ResourceID:  b.ResourceID,
		RequesterID: b.RequesterID,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
	}
}

func (b *BookingBuilder) BuildCreateRequestDTO() reqdto.CreateBookingRequest {
	return reqdto.CreateBookingRequest{
		ResourceID:  b.ResourceID,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		AmountCents: b.AmountCents,
		Currency:    b.Currency,
	}
}

func (b *BookingBuilder) BuildViewQuery() *queries.BookingView {
	return &queries.BookingView{
		ID:            b.ID,
		Kind:          b.Kind.String(),
		ResourceID:    b.ResourceID,
		ResourceName:  "Test Resource",
		RequesterID:   b.RequesterID,
		StartTime:     b.StartTime,
		EndTime:       b.EndTime,
		Status:        b.Status.String(),
		PaymentStatus: b.Payment.String(),
		AmountCents:   b.AmountCents,
		Currency:      b.Currency,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func (b *BookingBuilder) BuildListItemQuery() *queries.BookingListItem {
	return &queries.BookingListItem{
		ID:           b.ID,
		Kind:         b.Kind.String(),
		ResourceID:   b.ResourceID,
		ResourceName: "Test Resource",
		StartTime:    b.StartTime,
		EndTime:      b.EndTime,
		Status:       b.Status.String(),
		AmountCents:  b.AmountCents,
		Currency:     b.Currency,
		CreatedAt:    b.CreatedAt,
	}
}

func (b *BookingBuilder) BuildPaymentEvent(kind payment.EventKind) payment.Event {
	corr := payment.Correlation{}
	if b.ExternalPaymentID != nil {
		corr.PaymentID = *b.ExternalPaymentID
	}
	if b.ExternalSessionID != nil {
		corr.SessionID = *b.ExternalSessionID
	}
	return payment.Event{
		ExternalEventID: "evt_" + uuid.NewString(),
		Correlation:     corr,
		Kind:            kind,
		AmountCents:     b.AmountCents,
		Currency:        b.Currency,
		OccurredAt:      time.Now(),
	}
}

// Fluent builder methods
func (b *BookingBuilder) WithKind(kind resource.Kind) *BookingBuilder {
	b.Kind = kind
	return b
}

func (b *BookingBuilder) WithResourceID(id uuid.UUID) *BookingBuilder {
	b.ResourceID = id
	return b
}

func (b *BookingBuilder) WithProviderID(id uuid.UUID) *BookingBuilder {
	b.ProviderID = id
	return b
}

func (b *BookingBuilder) WithRequesterID(id uuid.UUID) *BookingBuilder {
	b.RequesterID = id
	return b
}

func (b *BookingBuilder) WithWindow(start, end time.Time) *BookingBuilder {
	b.StartTime = start
	b.EndTime = end
	return b
}

func (b *BookingBuilder) WithStatus(status dombooking.Status) *BookingBuilder {
	b.Status = status
	return b
}

func (b *BookingBuilder) WithPaymentStatus(status dombooking.PaymentStatus) *BookingBuilder {
	b.Payment = status
	return b
}

func (b *BookingBuilder) WithAmount(cents int64, currency string) *BookingBuilder {
	b.AmountCents = cents
	b.Currency = currency
	return b
}

func (b *BookingBuilder) WithExternalPaymentID(id string) *BookingBuilder {
	b.ExternalPaymentID = &id
	return b
}

func (b *BookingBuilder) WithExternalSessionID(id string) *BookingBuilder {
	b.ExternalSessionID = &id
	return b
}

func (b *BookingBuilder) AsAwaitingPayment() *BookingBuilder {
	b.Status = dombooking.StatusAwaitingPayment
	return b
}

func (b *BookingBuilder) AsAuthorized() *BookingBuilder {
	b.Status = dombooking.StatusAuthorized
	b.Payment = dombooking.PaymentStatusAuthorized
	if b.ExternalPaymentID == nil {
		id := "pay_" + uuid.NewString()
		b.ExternalPaymentID = &id
	}
	return b
}

func (b *BookingBuilder) WithCapturedCents(cents int64) *BookingBuilder {
	b.CapturedCents = &cents
	return b
}

func (b *BookingBuilder) AsConfirmed() *BookingBuilder {
	b.AsAuthorized()
	b.Status = dombooking.StatusConfirmed
	b.Payment = dombooking.PaymentStatusCaptured
	if b.CapturedCents == nil {
		b.CapturedCents = &b.AmountCents
	}
	return b
}
