package usecase

import (
	"context"
	"time"

	"github.com/nguyentranbao-ct/storefront/internal/config"
	"go.uber.org/fx"
)

// StartEvictIdleCarts drops idle carts from memory every EvictInterval for
// the lifetime of the app.
func StartEvictIdleCarts(lc fx.Lifecycle, conf *config.Config, uc CartUsecase) {
	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(exited)
				ticker := time.NewTicker(conf.Cart.EvictInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						uc.EvictIdle(ctx)
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-exited:
				return nil
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
		},
	})
}
