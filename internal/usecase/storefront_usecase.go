package usecase

import (
	"context"

	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"golang.org/x/sync/errgroup"
)

type StorefrontUsecase interface {
	ListProducts(ctx context.Context, filter catalog.Filter) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	// Overview fetches products and categories in parallel for the landing
	// page. MaxPrice is computed over the unfiltered product list.
	Overview(ctx context.Context, filter catalog.Filter) (*models.Storefront, error)
}

type storefrontUsecase struct {
	catalog catalog.Client
}

func NewStorefrontUsecase(catalogClient catalog.Client) StorefrontUsecase {
	return &storefrontUsecase{catalog: catalogClient}
}

func (uc *storefrontUsecase) ListProducts(ctx context.Context, filter catalog.Filter) ([]models.Product, error) {
	products, err := uc.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return filter.Apply(products), nil
}

func (uc *storefrontUsecase) ListCategories(ctx context.Context) ([]models.Category, error) {
	return uc.catalog.ListCategories(ctx)
}

func (uc *storefrontUsecase) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	return uc.catalog.GetProduct(ctx, id)
}

func (uc *storefrontUsecase) Overview(ctx context.Context, filter catalog.Filter) (*models.Storefront, error) {
	var (
		products   []models.Product
		categories []models.Category
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		products, err = uc.catalog.ListProducts(egCtx)
		return err
	})
	eg.Go(func() error {
		var err error
		categories, err = uc.catalog.ListCategories(egCtx)
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return &models.Storefront{
		Products:   filter.Apply(products),
		Categories: categories,
		MaxPrice:   catalog.MaxPrice(products),
	}, nil
}
