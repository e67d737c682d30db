package response

import (
	"time"

	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type BookingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Kind               string     `json:"kind"`
	ResourceID         uuid.UUID  `json:"resourceId"`
	ResourceName       string     `json:"resourceName"`
	RequesterID        uuid.UUID  `json:"requesterId"`
	StartTime          time.Time  `json:"startTime"`
	EndTime            time.Time  `json:"endTime"`
	Status             string     `json:"status"`
	PaymentStatus      string     `json:"paymentStatus"`
	AmountCents        int64      `json:"amountCents"`
	Currency           string     `json:"currency"`
	ExternalPaymentID  *string    `json:"externalPaymentId,omitempty"`
	RefundCents        *int64     `json:"refundCents,omitempty"`
	RefundProcessedAt  *time.Time `json:"refundProcessedAt,omitempty"`
	CancellationReason *string    `json:"cancellationReason,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type BookingListResponse struct {
	ID           uuid.UUID `json:"id"`
	Kind         string    `json:"kind"`
	ResourceID   uuid.UUID `json:"resourceId"`
	ResourceName string    `json:"resourceName"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Status       string    `json:"status"`
	AmountCents  int64     `json:"amountCents"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
}

type CreateBookingResponse struct {
	ID       uuid.UUID `json:"id"`
	Status   string    `json:"status"`
	Replayed bool      `json:"replayed"`
}

type CancelBookingResponse struct {
	ID          uuid.UUID `json:"id"`
	Status      string    `json:"status"`
	RefundCents int64     `json:"refundCents"`
}

type CaptureBookingResponse struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	CapturedCents int64     `json:"capturedCents"`
}

type WebhookAckResponse struct {
	Outcome string `json:"outcome"`
	Status  string `json:"status,omitempty"`
}

func FromBookingView(view *queries.BookingView) *BookingResponse {
	var resp BookingResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromBookingListItem(item *queries.BookingListItem) *BookingListResponse {
	var resp BookingListResponse
	_ = copier.Copy(&resp, item)
	return &resp
}

func FromCreateResult(result *commands.CreateBookingResult) *CreateBookingResponse {
	return &CreateBookingResponse{
		ID:       result.BookingID,
		Status:   result.Status.String(),
		Replayed: result.IsReplayed,
	}
}

func FromCancelResult(result *commands.CancelBookingResult) *CancelBookingResponse {
	return &CancelBookingResponse{
		ID:          result.BookingID,
		Status:      result.Status.String(),
		RefundCents: result.RefundCents,
	}
}

func FromCaptureResult(result *commands.CaptureBookingResult) *CaptureBookingResponse {
	return &CaptureBookingResponse{
		ID:            result.BookingID,
		Status:        result.Status.String(),
		CapturedCents: result.CapturedCents,
	}
}

func FromIngestResult(result *commands.IngestResult) *WebhookAckResponse {
	return &WebhookAckResponse{
		Outcome: string(result.Outcome),
		Status:  result.Status.String(),
	}
}
