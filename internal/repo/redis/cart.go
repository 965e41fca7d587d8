// Package redis persists session carts as JSON values in Redis.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
	"github.com/nguyentranbao-ct/storefront/internal/usecase"
)

var _ usecase.SnapshotRepository = (*CartRepository)(nil)

// Client is the part of a Redis client the repository uses.
// redis.UniversalClient satisfies it.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
}

var _ Client = (redis.UniversalClient)(nil)

type CartRepository struct {
	client    Client
	keyPrefix string
	ttl       time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		MinIdleConns: 1,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		PoolTimeout:  4 * time.Second,
		IdleTimeout:  180 * time.Second,
	})
}

func NewCartRepository(client Client, cfg config.RedisConfig) *CartRepository {
	return &CartRepository{
		client:    client,
		keyPrefix: cfg.KeyPrefix,
		ttl:       cfg.TTL,
	}
}

func (r *CartRepository) key(sessionID string) string {
	return r.keyPrefix + sessionID
}

// WaitReady pings Redis with exponential backoff until it answers, attempts
// run out or ctx ends.
func (r *CartRepository) WaitReady(ctx context.Context, attempts int) error {
	var err error
	for i := 0; i < attempts; i++ {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = r.client.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return nil
		}

		backoff := time.Duration(100*(1<<uint(i))) * time.Millisecond
		if backoff > 5*time.Second {
			backoff = 5 * time.Second
		}
		logger.Warnw(ctx, "redis not ready", "attempt", i+1, "backoff", backoff, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return fmt.Errorf("redis not ready after %d attempts: %w", attempts, err)
}

func (r *CartRepository) Load(ctx context.Context, sessionID string) (*models.CartDocument, error) {
	val, err := r.client.Get(ctx, r.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get cart %s: %w", sessionID, err)
	}

	var doc models.CartDocument
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse cart data: %w", err)
	}
	return &doc, nil
}

func (r *CartRepository) Save(ctx context.Context, doc *models.CartDocument) error {
	bin, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal cart %s: %w", doc.SessionID, err)
	}
	if err := r.client.Set(ctx, r.key(doc.SessionID), bin, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set cart %s: %w", doc.SessionID, err)
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.key(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del cart %s: %w", sessionID, err)
	}
	return nil
}
