package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
)

const (
	HeaderSessionID = "X-Session-ID"
	sessionIDKey    = "session_id"
)

// SessionID exposes the caller's shopping session to downstream handlers
// and log lines. It does not reject requests without one; handlers that
// need a session declare it on their request struct.
func SessionID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := strings.TrimSpace(c.Request().Header.Get(HeaderSessionID))
			if id == "" {
				return next(c)
			}

			c.Set(sessionIDKey, id)
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithFields(req.Context(), sessionIDKey, id)))
			return next(c)
		}
	}
}

func GetSessionID(c echo.Context) string {
	id, _ := c.Get(sessionIDKey).(string)
	return id
}
