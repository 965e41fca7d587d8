package server

import (
	"errors"
	"net/http"

	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	pkgmdw "github.com/nguyentranbao-ct/storefront/internal/server/middleware"
)

const (
	errCodeNotFound           = "not_found"
	errCodeCatalogUnavailable = "catalog_unavailable"
)

// catalogError maps a catalog failure to the response the storefront shows.
// Other errors, abandoned requests included, pass through to the error
// handler.
func catalogError(err error) error {
	switch {
	case err == nil:
		return nil
	case catalog.IsCanceled(err):
		return err
	case errors.Is(err, models.ErrNotFound):
		return &pkgmdw.ResponseError{
			Status:       http.StatusNotFound,
			Err:          err,
			ErrorCode:    errCodeNotFound,
			ErrorMessage: "product not found",
		}
	case errors.Is(err, catalog.ErrUnavailable):
		return &pkgmdw.ResponseError{
			Status:       http.StatusBadGateway,
			Err:          err,
			ErrorCode:    errCodeCatalogUnavailable,
			ErrorMessage: err.Error(),
		}
	default:
		return err
	}
}
