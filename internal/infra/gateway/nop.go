package gateway

import (
	"context"
	"log/slog"

	"booking-core/internal/usecase/commands"

	"github.com/google/uuid"
)

// NopGateway acknowledges everything without calling out. Used for
// local development when no provider sandbox is configured.
type NopGateway struct {
	logger *slog.Logger
}

func NewNopGateway(logger *slog.Logger) *NopGateway {
	return &NopGateway{logger: logger}
}

func (g *NopGateway) Authorize(_ context.Context, req commands.AuthorizeRequest) (*commands.AuthorizeAck, error) {
	sessionID := "sess_" + uuid.NewString()
	g.logger.Info("nop gateway authorized", "booking_id", req.BookingID, "session_id", sessionID)
	return &commands.AuthorizeAck{ExternalSessionID: sessionID}, nil
}

func (g *NopGateway) Capture(_ context.Context, externalPaymentID string, _ *int64) error {
	g.logger.Info("nop gateway captured", "external_payment_id", externalPaymentID)
	return nil
}

func (g *NopGateway) Refund(_ context.Context, externalPaymentID string, amountCents int64, _ string) error {
	g.logger.Info("nop gateway refunded", "external_payment_id", externalPaymentID, "amount_cents", amountCents)
	return nil
}
