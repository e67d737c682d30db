package components

import (
	"log/slog"

	"booking-core/internal/domain/booking"
	"booking-core/internal/infra/gateway"
	"booking-core/internal/pkg/clock"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase"
	"booking-core/internal/usecase/commands"
	"booking-core/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewRefundPolicy,
	NewPaymentGateway,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewBookingCommands,
		commands.NewPaymentEventCommands,
		NewSweepCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewBookingQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

func NewRefundPolicy(cfg config.Config) booking.RefundPolicy {
	return booking.NewCutoffRefundPolicy(cfg.Booking.RefundCutoff, cfg.Booking.LateRefundPercent)
}

// "nop" as the base URL selects the acknowledging stub, for local
// development without a provider sandbox.
func NewPaymentGateway(cfg config.Config, logger *slog.Logger) commands.PaymentGateway {
	if cfg.Payment.GatewayBaseURL == "nop" {
		return gateway.NewNopGateway(logger)
	}
	return gateway.NewPaymentClient(cfg.Payment)
}

func NewSweepCommands(ledger commands.BookingLedger, clk clock.Clock, cfg config.Config) commands.SweepCommands {
	return commands.NewSweepCommands(ledger, clk, cfg.Booking.AuthorizationTimeout)
}
