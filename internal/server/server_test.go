package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nguyentranbao-ct/storefront/internal/cart"
	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/repo/memory"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCatalog struct {
	products   []models.Product
	categories []models.Category
	err        error
}

func (s *stubCatalog) ListProducts(context.Context) ([]models.Product, error) {
	return s.products, s.err
}

func (s *stubCatalog) ListCategories(context.Context) ([]models.Category, error) {
	return s.categories, s.err
}

func (s *stubCatalog) GetProduct(_ context.Context, id int) (*models.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type noopPublisher struct{}

func (noopPublisher) PublishCartUpdated(context.Context, string, models.Snapshot) error { return nil }

func newTestEcho(t *testing.T, cat *stubCatalog) *echo.Echo {
	t.Helper()
	conf := &config.Config{
		Server: config.ServerConfig{CORSOrigins: "^http://localhost(:[0-9]+)?$"},
		Cart:   config.CartConfig{ShippingFee: decimal.NewFromInt(10), SaveTimeout: time.Second, LoadTimeout: time.Second, IdleTTL: time.Hour},
	}
	registry := cart.NewRegistry()
	t.Cleanup(registry.CloseAll)

	cartUsecase, err := usecase.NewCartUsecase(conf, registry, cat, memory.NewCartRepository(), noopPublisher{})
	require.NoError(t, err)

	return NewEcho(
		conf,
		NewHandler(usecase.NewStorefrontUsecase(cat)),
		NewCartController(cartUsecase),
		NewSocketHandler(cartUsecase),
	)
}

func defaultCatalog() *stubCatalog {
	return &stubCatalog{
		products: []models.Product{
			{ID: 1, Title: "Classic Red Pullover Hoodie", Price: decimal.RequireFromString("9.99"), Category: models.Category{ID: 1, Name: "Clothes"}},
			{ID: 2, Title: "Wireless Mouse", Price: decimal.RequireFromString("5.00"), Category: models.Category{ID: 2, Name: "Electronics"}},
			{ID: 3, Title: "Red Sneakers", Price: decimal.RequireFromString("150"), Category: models.Category{ID: 1, Name: "Clothes"}},
		},
		categories: []models.Category{{ID: 1, Name: "Clothes"}, {ID: 2, Name: "Electronics"}},
	}
}

type envelope[T any] struct {
	Success      bool   `json:"success"`
	Data         T      `json:"data"`
	ErrorCode    string `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

func do[T any](t *testing.T, e *echo.Echo, method, target, session, body string) (int, envelope[T]) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if session != "" {
		req.Header.Set("X-Session-ID", session)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var out envelope[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"healthy"`)
}

func TestListProducts(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())

	tests := []struct {
		name    string
		query   string
		wantIDs []int
	}{
		{"no filter", "", []int{1, 2, 3}},
		{"category", "?category_id=1", []int{1, 3}},
		{"price range", "?min_price=5&max_price=10", []int{1, 2}},
		{"search ignores case", "?q=RED", []int{1, 3}},
		{"nothing matches", "?q=lamp", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out := do[[]models.Product](t, e, http.MethodGet, "/api/v1/products"+tt.query, "", "")
			require.Equal(t, http.StatusOK, code)
			ids := make([]int, 0, len(out.Data))
			for _, p := range out.Data {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	code, out := do[any](t, e, http.MethodGet, "/api/v1/products?min_price=cheap", "", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "min_price must be a non-negative number", out.ErrorMessage)
}

func TestStorefront(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())
	code, out := do[models.Storefront](t, e, http.MethodGet, "/api/v1/storefront?category_id=2", "", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, out.Data.Products, 1)
	assert.Len(t, out.Data.Categories, 2)
	assert.Equal(t, "150", out.Data.MaxPrice.String())
}

func TestGetProduct(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())

	code, out := do[models.Product](t, e, http.MethodGet, "/api/v1/products/2", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Wireless Mouse", out.Data.Title)

	code, miss := do[any](t, e, http.MethodGet, "/api/v1/products/77", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, errCodeNotFound, miss.ErrorCode)
}

func TestCatalogUnavailable(t *testing.T) {
	cat := defaultCatalog()
	cat.err = &catalog.StatusError{Code: http.StatusServiceUnavailable, Path: "/products"}
	e := newTestEcho(t, cat)

	code, out := do[any](t, e, http.MethodGet, "/api/v1/categories", "", "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, errCodeCatalogUnavailable, out.ErrorCode)
	assert.Equal(t, "catalog: /products returned status 503", out.ErrorMessage)

	// the cart is untouched when the product lookup fails
	code, _ = do[any](t, e, http.MethodPost, "/api/v1/cart/items", "s-1", `{"product_id":1}`)
	assert.Equal(t, http.StatusBadGateway, code)
	_, view := do[models.CartView](t, e, http.MethodGet, "/api/v1/cart", "s-1", "")
	assert.Zero(t, view.Data.Count)
}

func TestCartRoutes(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())
	const session = "b1946ac9-2f0c-4d8e-9a39-1d2c6e1f0a77"

	for _, id := range []int{1, 1, 2} {
		code, _ := do[models.CartView](t, e, http.MethodPost, "/api/v1/cart/items", session, `{"product_id":`+strconv.Itoa(id)+`}`)
		require.Equal(t, http.StatusOK, code)
	}

	code, out := do[models.CartView](t, e, http.MethodGet, "/api/v1/cart", session, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 3, out.Data.Count)
	require.Len(t, out.Data.Lines, 2)
	assert.Equal(t, 2, out.Data.Lines[0].Quantity)
	assert.Equal(t, "24.98", out.Data.Totals.Subtotal.String())
	assert.Equal(t, "34.98", out.Data.Totals.Total.String())

	_, out = do[models.CartView](t, e, http.MethodPost, "/api/v1/cart/items/1/decrement", session, "")
	assert.Equal(t, 2, out.Data.Count)

	_, out = do[models.CartView](t, e, http.MethodDelete, "/api/v1/cart/items/2", session, "")
	assert.Equal(t, 1, out.Data.Count)

	// unknown ids are no-ops, zero and negative ids included
	for _, target := range []string{
		"/api/v1/cart/items/999", "/api/v1/cart/items/0", "/api/v1/cart/items/-1",
		"/api/v1/cart/items/0/decrement", "/api/v1/cart/items/-1/decrement",
	} {
		method := http.MethodDelete
		if strings.HasSuffix(target, "/decrement") {
			method = http.MethodPost
		}
		code, out = do[models.CartView](t, e, method, target, session, "")
		assert.Equal(t, http.StatusOK, code, target)
		assert.Equal(t, 1, out.Data.Count, target)
	}

	code, _ = do[any](t, e, http.MethodDelete, "/api/v1/cart/items/abc", session, "")
	assert.Equal(t, http.StatusBadRequest, code)

	_, out = do[models.CartView](t, e, http.MethodDelete, "/api/v1/cart", session, "")
	assert.Zero(t, out.Data.Count)
	assert.Empty(t, out.Data.Lines)
	assert.Equal(t, "0", out.Data.Totals.Total.String())

	code, _ = do[any](t, e, http.MethodDelete, "/api/v1/session", session, "")
	assert.Equal(t, http.StatusOK, code)
}

func TestCartRequiresSession(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())

	code, _ := do[any](t, e, http.MethodGet, "/api/v1/cart", "", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do[any](t, e, http.MethodGet, "/api/v1/cart", "not a/valid id", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do[any](t, e, http.MethodPost, "/api/v1/cart/items", "s-1", `{"product_id":0}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = do[any](t, e, http.MethodPost, "/api/v1/cart/items", "s-1", `{"product_id":404}`)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestCartEvents(t *testing.T) {
	e := newTestEcho(t, defaultCatalog())
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/cart/events", nil)
	require.NoError(t, err)
	req.Header.Set("X-Session-ID", "s-stream")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get(echo.HeaderContentType))

	events := make(chan models.CartView, 4)
	go func() {
		defer close(events)
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			data, ok := strings.CutPrefix(scanner.Text(), "data: ")
			if !ok {
				continue
			}
			var v models.CartView
			if json.Unmarshal([]byte(data), &v) == nil {
				events <- v
			}
		}
	}()

	next := func() models.CartView {
		select {
		case v := <-events:
			return v
		case <-time.After(2 * time.Second):
			t.Fatal("no cart event received")
			return models.CartView{}
		}
	}

	assert.Zero(t, next().Count)

	code, _ := do[models.CartView](t, e, http.MethodPost, "/api/v1/cart/items", "s-stream", `{"product_id":2}`)
	require.Equal(t, http.StatusOK, code)

	v := next()
	assert.Equal(t, 1, v.Count)
	assert.Equal(t, "15", v.Totals.Total.String())
}
