package kafka

import (
	"context"

	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"go.uber.org/fx"
)

// StartConsumeSessions runs the consumer for the lifetime of the app. A
// consumer that fails asks fx to shut the app down.
func StartConsumeSessions(lc fx.Lifecycle, sd fx.Shutdowner, consumer Consumer) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := consumer.Start(ctx); err != nil {
					logger.Errorw(ctx, "kafka consumer stopped", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			return consumer.Stop(stopCtx)
		},
	})
}
