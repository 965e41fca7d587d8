package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"github.com/shopspring/decimal"
)

type Controller interface {
	Health(c echo.Context) error
	ListProducts(c echo.Context, req ListProductsRequest) ([]models.Product, error)
	GetProduct(c echo.Context, req GetProductRequest) (*models.Product, error)
	ListCategories(c echo.Context, req struct{}) ([]models.Category, error)
	Storefront(c echo.Context, req ListProductsRequest) (*models.Storefront, error)
}

type controller struct {
	storefrontUsecase usecase.StorefrontUsecase
}

func NewHandler(storefrontUsecase usecase.StorefrontUsecase) Controller {
	return &controller{
		storefrontUsecase: storefrontUsecase,
	}
}

func (h *controller) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "storefront",
	})
}

type ListProductsRequest struct {
	CategoryID int    `query:"category_id" validate:"gte=0"`
	MinPrice   string `query:"min_price"`
	MaxPrice   string `query:"max_price"`
	Search     string `query:"q" validate:"max=200"`
}

// Filter converts the query into a catalog filter. Empty values do not
// constrain the result.
func (r ListProductsRequest) Filter() (catalog.Filter, error) {
	var f catalog.Filter
	if r.CategoryID > 0 {
		id := r.CategoryID
		f.CategoryID = &id
	}
	var err error
	if f.MinPrice, err = parsePrice("min_price", r.MinPrice); err != nil {
		return f, err
	}
	if f.MaxPrice, err = parsePrice("max_price", r.MaxPrice); err != nil {
		return f, err
	}
	f.Search = strings.TrimSpace(r.Search)
	return f, nil
}

func parsePrice(name, value string) (*decimal.Decimal, error) {
	if value == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil || d.IsNegative() {
		return nil, echo.NewHTTPError(http.StatusBadRequest, name+" must be a non-negative number")
	}
	return &d, nil
}

func (h *controller) ListProducts(c echo.Context, req ListProductsRequest) ([]models.Product, error) {
	filter, err := req.Filter()
	if err != nil {
		return nil, err
	}
	products, err := h.storefrontUsecase.ListProducts(c.Request().Context(), filter)
	return products, catalogError(err)
}

type GetProductRequest struct {
	ID int `param:"id" validate:"required,gt=0"`
}

func (h *controller) GetProduct(c echo.Context, req GetProductRequest) (*models.Product, error) {
	product, err := h.storefrontUsecase.GetProduct(c.Request().Context(), req.ID)
	return product, catalogError(err)
}

func (h *controller) ListCategories(c echo.Context, _ struct{}) ([]models.Category, error) {
	categories, err := h.storefrontUsecase.ListCategories(c.Request().Context())
	return categories, catalogError(err)
}

func (h *controller) Storefront(c echo.Context, req ListProductsRequest) (*models.Storefront, error) {
	filter, err := req.Filter()
	if err != nil {
		return nil, err
	}
	overview, err := h.storefrontUsecase.Overview(c.Request().Context(), filter)
	return overview, catalogError(err)
}
