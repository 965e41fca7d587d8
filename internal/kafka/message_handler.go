package kafka

import (
	"context"
	"time"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
)

// sessionHandler adapts the cart usecase to the MessageHandler interface.
type sessionHandler struct {
	cartUsecase usecase.CartUsecase
}

func NewMessageHandler(cartUsecase usecase.CartUsecase) MessageHandler {
	return &sessionHandler{cartUsecase: cartUsecase}
}

func (h *sessionHandler) HandleSessionEnded(ctx context.Context, data *models.SessionEndedData) error {
	return Retry(h.cartUsecase.EndSession(ctx, data.SessionID), time.Second)
}
