package components

import (
	"booking-core/internal/handler"
	"booking-core/internal/handler/api"
	"booking-core/internal/handler/middleware"
	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewBookingHandler,
		NewWebhookHandler,
		middleware.NewAuthMiddleware,
	),
	fx.Invoke(handler.NewRouter),
)

func NewWebhookHandler(paymentCommands commands.PaymentEventCommands, cfg config.Config) *api.WebhookHandler {
	return api.NewWebhookHandler(paymentCommands, cfg.Payment.WebhookSecret)
}
