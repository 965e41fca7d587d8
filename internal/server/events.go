package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/storefront/internal/server/middleware"
)

const sseHeartbeat = 15 * time.Second

// Events streams the session cart as server-sent events: the current cart
// first, then one "cart" event per change until the client disconnects.
// A slow client skips intermediate carts but always receives the latest.
func (h *cartController) Events(c echo.Context) error {
	var req SessionRequest
	if err := pkgmdw.BindAndValidate(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()

	updates := make(chan models.CartView, 1)
	unsubscribe, err := h.cartUsecase.Subscribe(ctx, req.SessionID, func(v models.CartView) {
		latestOnly(updates, v)
	})
	if err != nil {
		return err
	}
	defer unsubscribe()

	current, err := h.cartUsecase.GetCart(ctx, req.SessionID)
	if err != nil {
		return err
	}

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set(echo.HeaderCacheControl, "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)

	if err := writeEvent(res, "cart", current); err != nil {
		return nil
	}

	heartbeat := time.NewTicker(sseHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			logger.Debugw(ctx, "cart event stream closed", "session_id", req.SessionID)
			return nil
		case v := <-updates:
			if err := writeEvent(res, "cart", v); err != nil {
				return nil
			}
		case <-heartbeat.C:
			if _, err := fmt.Fprint(res, ": ping\n\n"); err != nil {
				return nil
			}
			res.Flush()
		}
	}
}

// latestOnly delivers v, replacing a value the reader has not taken yet.
// Callers must be serialized.
func latestOnly(ch chan models.CartView, v models.CartView) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	ch <- v
}

func writeEvent(res *echo.Response, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(res, "event: %s\ndata: %s\n\n", event, payload); err != nil {
		return err
	}
	res.Flush()
	return nil
}
