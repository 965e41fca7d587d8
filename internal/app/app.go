package app

import (
	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/kafka"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/server"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap/zapcore"
)

func Invoke(funcs ...any) *fx.App {
	conf := config.MustLoad()
	if err := logger.Setup(conf.Log.Level, conf.Log.Dev); err != nil {
		panic(err)
	}
	log := logger.MustNamed("app")
	log.Debugw("config loaded",
		"addr", conf.Server.Addr(),
		"catalog", conf.Catalog.BaseURL,
		"store_backend", conf.Cart.StoreBackend,
		"shipping_fee", conf.Cart.ShippingFee,
		"kafka_enabled", conf.Kafka.Enabled,
	)

	return fx.New(
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.ZapLogger{
				Logger: logger.Base().Named("fx"),
			}
			l.UseLogLevel(zapcore.DebugLevel)
			return l
		}),
		fx.Provide(
			newRegistry,
			newSnapshotRepository,

			catalog.NewClient,

			usecase.NewStorefrontUsecase,
			usecase.NewCartUsecase,

			kafka.NewPublisher,
			kafka.NewMessageHandler,
			kafka.NewConsumer,

			server.NewHandler,
			server.NewCartController,
			server.NewSocketHandler,
			server.NewEcho,
		),
		fx.Supply(conf),
		fx.Invoke(funcs...),
	)
}
