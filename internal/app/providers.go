package app

import (
	"context"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/storefront/internal/cart"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/repo/memory"
	"github.com/nguyentranbao-ct/storefront/internal/repo/mongodb"
	"github.com/nguyentranbao-ct/storefront/internal/repo/redis"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
	"go.uber.org/fx"
)

const redisReadyAttempts = 5

func newRegistry(lc fx.Lifecycle) *cart.Registry {
	registry := cart.NewRegistry()
	lc.Append(fx.StopHook(registry.CloseAll))
	return registry
}

// newSnapshotRepository picks where session carts are persisted. Only the
// selected backend is connected.
func newSnapshotRepository(lc fx.Lifecycle, cfg *config.Config) (usecase.SnapshotRepository, error) {
	switch cfg.Cart.StoreBackend {
	case config.BackendMongoDB:
		db, err := newMongoDB(lc, cfg)
		if err != nil {
			return nil, err
		}
		return mongodb.NewCartRepository(db), nil
	case config.BackendRedis:
		client := redis.NewClient(cfg.Redis)
		repo := redis.NewCartRepository(client, cfg.Redis)
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return repo.WaitReady(ctx, redisReadyAttempts)
			},
			OnStop: func(context.Context) error {
				return client.Close()
			},
		})
		return repo, nil
	case config.BackendMemory:
		return memory.NewCartRepository(), nil
	default:
		return nil, fmt.Errorf("unknown cart store backend %q", cfg.Cart.StoreBackend)
	}
}

func newMongoDB(lc fx.Lifecycle, cfg *config.Config) (*mongodb.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	db, err := mongodb.NewConnection(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init mongo client: %w", err)
	}

	lc.Append(fx.Hook{
		OnStart: db.Ping,
		OnStop:  db.Close,
	})
	return db, nil
}
