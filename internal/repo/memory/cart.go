// Package memory is the snapshot repository used when carts live only as
// long as the process.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
)

var _ usecase.SnapshotRepository = (*CartRepository)(nil)

type CartRepository struct {
	mu   sync.RWMutex
	docs map[string]models.CartDocument
}

func NewCartRepository() *CartRepository {
	return &CartRepository{
		docs: make(map[string]models.CartDocument),
	}
}

func (r *CartRepository) Load(_ context.Context, sessionID string) (*models.CartDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[sessionID]
	if !ok {
		return nil, models.ErrNotFound
	}
	doc.Lines = slices.Clone(doc.Lines)
	return &doc, nil
}

func (r *CartRepository) Save(_ context.Context, doc *models.CartDocument) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *doc
	stored.Lines = slices.Clone(doc.Lines)
	r.docs[doc.SessionID] = stored
	return nil
}

func (r *CartRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.docs, sessionID)
	return nil
}
