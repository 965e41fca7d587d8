package server

import (
	"context"
	"strings"

	socketio "github.com/googollee/go-socket.io"
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/storefront/internal/server/middleware"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"go.uber.org/zap"
)

const (
	eventCart      = "cart"
	eventCartError = "cart_error"
)

// SocketHandler pushes cart changes to socket.io clients. A client names its
// session with the X-Session-ID header or the session_id query parameter
// and receives a "cart" event for the current cart and for every change.
type SocketHandler struct {
	server      *socketio.Server
	cartUsecase usecase.CartUsecase
	log         *zap.SugaredLogger
}

type socketSession struct {
	sessionID   string
	unsubscribe func()
}

func NewSocketHandler(cartUsecase usecase.CartUsecase) *SocketHandler {
	handler := &SocketHandler{
		server:      socketio.NewServer(nil),
		cartUsecase: cartUsecase,
		log:         logger.MustNamed("socket"),
	}
	handler.setupEvents()
	return handler
}

func (h *SocketHandler) setupEvents() {
	h.server.OnConnect("/", h.onConnect)
	h.server.OnDisconnect("/", h.onDisconnect)
	h.server.OnError("/", func(s socketio.Conn, e error) {
		if s == nil {
			h.log.Warnw("socket error", "error", e)
			return
		}
		h.log.Warnw("socket error", "socket_id", s.ID(), "error", e)
	})
}

// onConnect subscribes the socket to its session cart. Sockets without a
// usable session id are told why and closed before any cart is opened.
func (h *SocketHandler) onConnect(s socketio.Conn) error {
	sessionID := extractSessionID(s)
	switch {
	case sessionID == "":
		h.log.Infow("socket without session", "socket_id", s.ID())
		s.Emit(eventCartError, "missing session id")
		return s.Close()
	case !pkgmdw.ValidSessionID(sessionID):
		h.log.Infow("socket with invalid session", "socket_id", s.ID())
		s.Emit(eventCartError, "invalid session id")
		return s.Close()
	}

	// subscribe before reading so no change falls between the two
	ctx := context.Background()
	unsubscribe, err := h.cartUsecase.Subscribe(ctx, sessionID, func(v models.CartView) {
		s.Emit(eventCart, v)
	})
	if err != nil {
		h.log.Errorw("failed to open cart for socket", "socket_id", s.ID(), "session_id", sessionID, "error", err)
		return s.Close()
	}
	current, err := h.cartUsecase.GetCart(ctx, sessionID)
	if err != nil {
		unsubscribe()
		h.log.Errorw("failed to read cart for socket", "socket_id", s.ID(), "session_id", sessionID, "error", err)
		return s.Close()
	}

	s.SetContext(&socketSession{sessionID: sessionID, unsubscribe: unsubscribe})
	s.Emit(eventCart, current)
	h.log.Debugw("socket connected", "socket_id", s.ID(), "session_id", sessionID)
	return nil
}

// onDisconnect drops the subscription; the cart itself is released by idle
// eviction once nothing watches it.
func (h *SocketHandler) onDisconnect(s socketio.Conn, reason string) {
	sess, ok := s.Context().(*socketSession)
	if !ok {
		return
	}
	sess.unsubscribe()
	s.SetContext(nil)
	h.log.Debugw("socket disconnected", "socket_id", s.ID(), "session_id", sess.sessionID, "reason", reason)
}

func extractSessionID(s socketio.Conn) string {
	if id := strings.TrimSpace(s.RemoteHeader().Get(pkgmdw.HeaderSessionID)); id != "" {
		return id
	}
	u := s.URL()
	return strings.TrimSpace(u.Query().Get("session_id"))
}

func (h *SocketHandler) Serve() error {
	return h.server.Serve()
}

func (h *SocketHandler) Close() error {
	return h.server.Close()
}

func (h *SocketHandler) Handler() echo.HandlerFunc {
	return echo.WrapHandler(h.server)
}
