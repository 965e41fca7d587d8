package middleware

import (
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"
	"gopkg.in/alexcesaro/statsd.v2"
)

// ProfilerConfig configures the statsd request timer. Log is optional and
// receives every sent key at debug level.
type ProfilerConfig struct {
	Log     Logger
	Skipper Skipper
	Address string
	Service string
}

// DefaultProfilerConfig sends timings to a local statsd agent.
var DefaultProfilerConfig = ProfilerConfig{
	Skipper: DefaultSkipper,
	Address: ":8125",
	Service: "storefront",
}

func Profiler() echo.MiddlewareFunc {
	return ProfilerWithConfig(DefaultProfilerConfig)
}

func ProfilerWithConfig(config ProfilerConfig) echo.MiddlewareFunc {
	// Defaults
	if config.Skipper == nil {
		config.Skipper = DefaultProfilerConfig.Skipper
	}
	if config.Address == "" {
		config.Address = DefaultProfilerConfig.Address
	}
	if config.Service == "" {
		config.Service = DefaultProfilerConfig.Service
	}

	client, err := statsd.New(statsd.Address(config.Address))
	if err != nil {
		panic(err)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			if config.Skipper(c) {
				return next(c)
			}

			req := c.Request()
			res := c.Response()
			t := client.NewTiming()
			if err = next(c); err != nil {
				c.Error(err)
			}

			s := strings.ToLower(fmt.Sprintf("response.%s.%s.%s.%s",
				config.Service, req.Method, statsdPath(c), normalizeHTTPStatus(res.Status)))
			if config.Log != nil {
				config.Log.Debugw("statsd timing", "key", s)
			}
			t.Send(s)

			return
		}
	}
}

var statsdReplacer = strings.NewReplacer("/", "_", ":", "", ".", "_")

// statsdPath turns a route pattern into a single statsd key segment.
func statsdPath(c echo.Context) string {
	if isNotFoundHandler(c.Handler()) {
		return "not_found"
	}
	path := strings.Trim(c.Path(), "/")
	if path == "" {
		return "root"
	}
	return statsdReplacer.Replace(path)
}
