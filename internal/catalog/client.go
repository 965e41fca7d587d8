// Package catalog reads products and categories from the storefront
// catalog REST API.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/pkg/util"
)

var (
	// ErrCanceled is returned when the caller gave up on the request. It is
	// not a failure: the result is simply no longer wanted.
	ErrCanceled = errors.New("catalog: request canceled")
	ErrNotFound = fmt.Errorf("catalog: %w", models.ErrNotFound)
	// ErrUnavailable matches every failure to obtain an answer from the
	// catalog: transport errors and non-2xx statuses.
	ErrUnavailable = errors.New("catalog unavailable")
)

// StatusError is a non-2xx answer from the catalog.
type StatusError struct {
	Code int
	Path string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog: %s returned status %d", e.Path, e.Code)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrUnavailable
}

// IsCanceled reports whether err comes from an abandoned request.
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

type Client interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
}

type client struct {
	http *resty.Client
}

func NewClient(conf *config.Config) Client {
	return NewClientWithResty(util.NewRestyClient(util.RestyOptions{
		BaseURL:    conf.Catalog.BaseURL,
		Timeout:    conf.Catalog.Timeout,
		RetryCount: conf.Catalog.RetryCount,
	}))
}

func NewClientWithResty(c *resty.Client) Client {
	return &client{http: c}
}

func (c *client) ListProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	if err := c.get(ctx, "/products", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

func (c *client) ListCategories(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if err := c.get(ctx, "/categories", &categories); err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (c *client) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	err := c.get(ctx, "/products/"+strconv.Itoa(id), &product)
	var statusErr *StatusError
	if errors.As(err, &statusErr) && (statusErr.Code == http.StatusNotFound || statusErr.Code == http.StatusBadRequest) {
		// the demo API answers 400 for ids it does not know
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *client) get(ctx context.Context, path string, out any) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetResult(out).
		Get(path)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%w: %w", ErrCanceled, ctx.Err())
		}
		return fmt.Errorf("%w: request %s: %w", ErrUnavailable, path, err)
	}
	if resp.IsError() {
		return &StatusError{Code: resp.StatusCode(), Path: path}
	}
	return nil
}
