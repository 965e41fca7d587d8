package usecase

import (
	"context"
	"strconv"
	"sync"

	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/shopspring/decimal"
)

type fakeCatalog struct {
	products      []models.Product
	categories    []models.Category
	productsErr   error
	categoriesErr error
}

func (f *fakeCatalog) ListProducts(context.Context) ([]models.Product, error) {
	return f.products, f.productsErr
}

func (f *fakeCatalog) ListCategories(context.Context) ([]models.Category, error) {
	return f.categories, f.categoriesErr
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, catalog.ErrCanceled
	}
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, catalog.ErrNotFound
}

type fakeRepo struct {
	mu      sync.Mutex
	docs    map[string]models.CartDocument
	saves   int
	loadErr error
	// onLoad and onDelete run before the call touches docs, outside the lock.
	onLoad   func(ctx context.Context, sessionID string) error
	onDelete func(sessionID string)
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{docs: map[string]models.CartDocument{}}
}

func (r *fakeRepo) Load(ctx context.Context, sessionID string) (*models.CartDocument, error) {
	if r.onLoad != nil {
		if err := r.onLoad(ctx, sessionID); err != nil {
			return nil, err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	doc, ok := r.docs[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &doc, nil
}

func (r *fakeRepo) Save(_ context.Context, doc *models.CartDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.docs[doc.SessionID] = *doc
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, sessionID string) error {
	if r.onDelete != nil {
		r.onDelete(sessionID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, sessionID)
	return nil
}

func (r *fakeRepo) get(sessionID string) (models.CartDocument, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[sessionID]
	return doc, ok
}

type publishedEvent struct {
	sessionID string
	count     int
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishCartUpdated(_ context.Context, sessionID string, snap models.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{sessionID: sessionID, count: snap.Count})
	return nil
}

func testProduct(id int, price string, category int) models.Product {
	return models.Product{
		ID:       id,
		Title:    "Product " + strconv.Itoa(id),
		Price:    decimal.RequireFromString(price),
		Category: models.Category{ID: category, Name: "Category"},
	}
}
