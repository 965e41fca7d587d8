package middleware

import (
	"reflect"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/pkg/util"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	httpRequestDuration = "http_request_duration_seconds"
	// unmatched paths share one series so scanners cannot blow up cardinality
	notFoundRoute = "/not-found"
)

// Metrics observes request latency by status code, method and route pattern
// and serves the prometheus registry on metricsPath.
func Metrics(metricsPath string) echo.MiddlewareFunc {
	histogram, err := util.GetHistogramVec(httpRequestDuration, "code", "method", "route")
	if err != nil {
		panic(err)
	}
	promHandler := echo.WrapHandler(promhttp.Handler())

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if metricsPath != "" && req.URL.Path == metricsPath {
				return promHandler(c)
			}

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if isNotFoundHandler(c.Handler()) {
				route = notFoundRoute
			}
			histogram.WithLabelValues(strconv.Itoa(c.Response().Status), req.Method, route).
				Observe(time.Since(start).Seconds())
			return err
		}
	}
}

func normalizeHTTPStatus(status int) string {
	switch {
	case status < 200:
		return "1xx"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	}
	return "5xx"
}

func isNotFoundHandler(handler echo.HandlerFunc) bool {
	return reflect.ValueOf(handler).Pointer() == reflect.ValueOf(echo.NotFoundHandler).Pointer()
}
