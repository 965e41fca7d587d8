package server

import (
	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
)

type CartController interface {
	GetCart(c echo.Context, req SessionRequest) (*models.CartView, error)
	AddItem(c echo.Context, req AddItemRequest) (*models.CartView, error)
	DecrementItem(c echo.Context, req CartItemRequest) (*models.CartView, error)
	DeleteItem(c echo.Context, req CartItemRequest) (*models.CartView, error)
	ClearCart(c echo.Context, req SessionRequest) (*models.CartView, error)
	EndSession(c echo.Context, req SessionRequest) error
	Events(c echo.Context) error
}

type SessionRequest struct {
	SessionID string `header:"X-Session-ID" validate:"required,session_id"`
}

type AddItemRequest struct {
	SessionID string `header:"X-Session-ID" validate:"required,session_id"`
	ProductID int    `json:"product_id" validate:"required,gt=0"`
}

// CartItemRequest targets an existing line. Any integer id is accepted; ids
// not in the cart are no-ops.
type CartItemRequest struct {
	SessionID string `header:"X-Session-ID" validate:"required,session_id"`
	ProductID int    `param:"product_id"`
}

type cartController struct {
	cartUsecase usecase.CartUsecase
}

func NewCartController(cartUsecase usecase.CartUsecase) CartController {
	return &cartController{cartUsecase: cartUsecase}
}

func (h *cartController) GetCart(c echo.Context, req SessionRequest) (*models.CartView, error) {
	return h.cartUsecase.GetCart(c.Request().Context(), req.SessionID)
}

func (h *cartController) AddItem(c echo.Context, req AddItemRequest) (*models.CartView, error) {
	view, err := h.cartUsecase.AddProduct(c.Request().Context(), req.SessionID, req.ProductID)
	if err != nil {
		return nil, catalogError(err)
	}
	return view, nil
}

func (h *cartController) DecrementItem(c echo.Context, req CartItemRequest) (*models.CartView, error) {
	return h.cartUsecase.RemoveOne(c.Request().Context(), req.SessionID, req.ProductID)
}

func (h *cartController) DeleteItem(c echo.Context, req CartItemRequest) (*models.CartView, error) {
	return h.cartUsecase.DeleteLine(c.Request().Context(), req.SessionID, req.ProductID)
}

func (h *cartController) ClearCart(c echo.Context, req SessionRequest) (*models.CartView, error) {
	return h.cartUsecase.Clear(c.Request().Context(), req.SessionID)
}

func (h *cartController) EndSession(c echo.Context, req SessionRequest) error {
	return h.cartUsecase.EndSession(c.Request().Context(), req.SessionID)
}
