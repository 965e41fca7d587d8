package mongodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/storefront/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// baseRepo must keep satisfying IRepository
var _ IRepository[models.CartDocument] = (*baseRepo[models.CartDocument])(nil)

type IEntity interface {
	CollectionName() string
}

type IRepository[E IEntity] interface {
	FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*E, error)
	ReplaceOne(ctx context.Context, filter bson.M, entity E, upsert bool) error
	DeleteOne(ctx context.Context, filter bson.M) error
}

type baseRepo[E IEntity] struct {
	coll *mongo.Collection
}

func newBaseRepo[E IEntity](dbc *mongo.Database) baseRepo[E] {
	var entity E
	return baseRepo[E]{
		coll: dbc.Collection(entity.CollectionName()),
	}
}

func (r *baseRepo[E]) FindOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*E, error) {
	var entity E
	err := r.coll.FindOne(ctx, filter, opts...).Decode(&entity)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &entity, nil
}

func (r *baseRepo[E]) ReplaceOne(ctx context.Context, filter bson.M, entity E, upsert bool) error {
	_, err := r.coll.ReplaceOne(ctx, filter, entity, options.Replace().SetUpsert(upsert))
	if err != nil {
		return fmt.Errorf("replace one: %w", err)
	}
	return nil
}

func (r *baseRepo[E]) DeleteOne(ctx context.Context, filter bson.M) error {
	result, err := r.coll.DeleteOne(ctx, filter)
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
