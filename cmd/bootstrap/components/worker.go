package components

import (
	"context"
	"log/slog"
	"time"

	"booking-core/internal/pkg/config"
	"booking-core/internal/usecase/commands"

	"go.uber.org/fx"
)

// WorkerModule runs the background sweep that fails bookings whose
// payment authorization never arrived.
var WorkerModule = fx.Module("worker",
	fx.Invoke(RunSweepWorker),
)

func RunSweepWorker(lc fx.Lifecycle, logger *slog.Logger, cfg config.Config, sweep commands.SweepCommands) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(cfg.Booking.SweepInterval)
				defer ticker.Stop()

				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						expired, err := sweep.ExpireStaleBookings(ctx)
						if err != nil {
							logger.Error("sweep failed", "error", err)
							continue
						}
						if expired > 0 {
							logger.Info("sweep expired stale bookings", "count", expired)
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
