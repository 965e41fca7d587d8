package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"go.mongodb.org/mongo-driver/bson"
)

var _ usecase.SnapshotRepository = (*CartRepository)(nil)

// CartRepository keeps one document per shopping session, keyed by the
// session id.
type CartRepository struct {
	carts IRepository[models.CartDocument]
}

func NewCartRepository(db *DB) *CartRepository {
	base := newBaseRepo[models.CartDocument](db.Database)
	return newCartRepository(&base)
}

func newCartRepository(carts IRepository[models.CartDocument]) *CartRepository {
	return &CartRepository{carts: carts}
}

func (r *CartRepository) Load(ctx context.Context, sessionID string) (*models.CartDocument, error) {
	doc, err := r.carts.FindOne(ctx, bson.M{"_id": sessionID})
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("find cart %s: %w", sessionID, err)
	}
	return doc, nil
}

func (r *CartRepository) Save(ctx context.Context, doc *models.CartDocument) error {
	if err := r.carts.ReplaceOne(ctx, bson.M{"_id": doc.SessionID}, *doc, true); err != nil {
		return fmt.Errorf("save cart %s: %w", doc.SessionID, err)
	}
	return nil
}

// Delete removes the session cart. A missing document is not an error.
func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	err := r.carts.DeleteOne(ctx, bson.M{"_id": sessionID})
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("delete cart %s: %w", sessionID, err)
	}
	return nil
}
