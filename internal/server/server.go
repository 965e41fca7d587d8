package server

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	pkgmdw "github.com/nguyentranbao-ct/storefront/internal/server/middleware"
	"go.uber.org/fx"
)

const (
	cartEventsPath = "/api/v1/cart/events"
	metricsPath    = "/metrics"
)

// NewEcho builds the HTTP router with every storefront route registered.
func NewEcho(
	conf *config.Config,
	handler Controller,
	cartHandler CartController,
	socketHandler *SocketHandler,
) *echo.Echo {
	httpLog := logger.MustNamed("http")

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = pkgmdw.NewValidator()
	e.HTTPErrorHandler = pkgmdw.ErrorHandler(httpLog)

	logConfig := pkgmdw.LogRequestConfig{
		Logger: httpLog,
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/health" || path == metricsPath
		},
		// streaming responses never end, do not buffer them
		ResponseBody: func(c echo.Context) bool {
			return c.Path() != cartEventsPath
		},
	}

	e.Use(pkgmdw.Metrics(metricsPath))
	e.Use(pkgmdw.RequestID())
	e.Use(pkgmdw.SessionID())
	e.Use(pkgmdw.CORS(regexp.MustCompile(conf.Server.CORSOrigins)))
	if conf.Server.StatsdAddr != "" {
		e.Use(pkgmdw.ProfilerWithConfig(pkgmdw.ProfilerConfig{
			Log:     httpLog,
			Address: conf.Server.StatsdAddr,
			Service: "storefront",
		}))
	}
	e.Use(pkgmdw.LogRequest(logConfig))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Errorw(c.Request().Context(), "PANIC RECOVER", "error", err, "stack", string(stack))
			return nil
		},
	}))
	if conf.Server.Pprof {
		pkgmdw.PprofWrap(e, "")
	}

	e.GET("/health", handler.Health)
	e.Any("/socket.io/", socketHandler.Handler())

	api := e.Group("/api/v1")
	api.GET("/products", pkgmdw.WrapHandler(handler.ListProducts))
	api.GET("/products/:id", pkgmdw.WrapHandler(handler.GetProduct))
	api.GET("/categories", pkgmdw.WrapHandler(handler.ListCategories))
	api.GET("/storefront", pkgmdw.WrapHandler(handler.Storefront))

	api.GET("/cart", pkgmdw.WrapHandler(cartHandler.GetCart))
	api.DELETE("/cart", pkgmdw.WrapHandler(cartHandler.ClearCart))
	api.POST("/cart/items", pkgmdw.WrapHandler(cartHandler.AddItem))
	api.POST("/cart/items/:product_id/decrement", pkgmdw.WrapHandler(cartHandler.DecrementItem))
	api.DELETE("/cart/items/:product_id", pkgmdw.WrapHandler(cartHandler.DeleteItem))
	api.GET("/cart/events", cartHandler.Events)
	api.DELETE("/session", pkgmdw.WrapHandler(cartHandler.EndSession))

	return e
}

func StartServer(
	lc fx.Lifecycle,
	sd fx.Shutdowner,
	conf *config.Config,
	e *echo.Echo,
	socketHandler *SocketHandler,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := socketHandler.Serve(); err != nil {
					logger.Warnw(context.Background(), "socket server stopped", "error", err)
				}
			}()
			go func() {
				addr := conf.Server.Addr()
				logger.Infow(context.Background(), "starting HTTP server", "addr", addr)
				if err := e.Start(addr); !errors.Is(err, http.ErrServerClosed) {
					logger.Errorw(context.Background(), "HTTP server failed", "error", err)
					_ = sd.Shutdown(fx.ExitCode(1))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			if err := socketHandler.Close(); err != nil {
				logger.Warnw(ctx, "failed to close socket server", "error", err)
			}
			return e.Shutdown(ctx)
		},
	})
}
