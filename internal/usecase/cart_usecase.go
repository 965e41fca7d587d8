package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentranbao-ct/storefront/internal/cart"
	"github.com/nguyentranbao-ct/storefront/internal/catalog"
	"github.com/nguyentranbao-ct/storefront/internal/config"
	"github.com/nguyentranbao-ct/storefront/internal/logger"
	"github.com/nguyentranbao-ct/storefront/internal/models"
)

type CartUsecase interface {
	GetCart(ctx context.Context, sessionID string) (*models.CartView, error)
	// AddProduct looks productID up in the catalog and adds one unit of it.
	AddProduct(ctx context.Context, sessionID string, productID int) (*models.CartView, error)
	RemoveOne(ctx context.Context, sessionID string, productID int) (*models.CartView, error)
	DeleteLine(ctx context.Context, sessionID string, productID int) (*models.CartView, error)
	Clear(ctx context.Context, sessionID string) (*models.CartView, error)
	// Subscribe calls fn with the cart view after every change of the
	// session cart until the returned function is called.
	Subscribe(ctx context.Context, sessionID string, fn func(models.CartView)) (func(), error)
	// EndSession discards the session cart and its persisted state.
	EndSession(ctx context.Context, sessionID string) error
	// EvictIdle drops carts that were idle for the configured TTL and have
	// no subscriber from memory. It returns how many were dropped.
	EvictIdle(ctx context.Context) int
}

// hooksPerCart is the number of observers open attaches to every store.
const hooksPerCart = 2

type cartUsecase struct {
	registry    *cart.Registry
	pricing     cart.Pricing
	catalog     catalog.Client
	repo        SnapshotRepository
	publisher   EventPublisher
	metrics     *cartMetrics
	saveTimeout time.Duration
	loadTimeout time.Duration
	idleTTL     time.Duration
}

func NewCartUsecase(
	conf *config.Config,
	registry *cart.Registry,
	catalogClient catalog.Client,
	repo SnapshotRepository,
	publisher EventPublisher,
) (CartUsecase, error) {
	metrics, err := newCartMetrics()
	if err != nil {
		return nil, fmt.Errorf("register cart metrics: %w", err)
	}
	return &cartUsecase{
		registry:    registry,
		pricing:     cart.NewPricing(conf.Cart.ShippingFee),
		catalog:     catalogClient,
		repo:        repo,
		publisher:   publisher,
		metrics:     metrics,
		saveTimeout: conf.Cart.SaveTimeout,
		loadTimeout: conf.Cart.LoadTimeout,
		idleTTL:     conf.Cart.IdleTTL,
	}, nil
}

func (uc *cartUsecase) GetCart(ctx context.Context, sessionID string) (*models.CartView, error) {
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return uc.view(sessionID, store.Snapshot()), nil
}

func (uc *cartUsecase) AddProduct(ctx context.Context, sessionID string, productID int) (*models.CartView, error) {
	product, err := uc.catalog.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product %d: %w", productID, err)
	}
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap, changed := store.Add(*product)
	return uc.mutated(sessionID, opAdd, snap, changed), nil
}

func (uc *cartUsecase) RemoveOne(ctx context.Context, sessionID string, productID int) (*models.CartView, error) {
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap, changed := store.RemoveOne(productID)
	return uc.mutated(sessionID, opRemoveOne, snap, changed), nil
}

func (uc *cartUsecase) DeleteLine(ctx context.Context, sessionID string, productID int) (*models.CartView, error) {
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap, changed := store.DeleteLine(productID)
	return uc.mutated(sessionID, opDeleteLine, snap, changed), nil
}

func (uc *cartUsecase) Clear(ctx context.Context, sessionID string) (*models.CartView, error) {
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snap, changed := store.Clear()
	return uc.mutated(sessionID, opClear, snap, changed), nil
}

func (uc *cartUsecase) Subscribe(ctx context.Context, sessionID string, fn func(models.CartView)) (func(), error) {
	store, err := uc.open(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return store.Subscribe(func(snap models.Snapshot) {
		fn(*uc.view(sessionID, snap))
	}), nil
}

// EndSession keeps the session from reopening until the persisted cart is
// gone, so a request racing the end cannot restore it.
func (uc *cartUsecase) EndSession(ctx context.Context, sessionID string) error {
	existed, err := uc.registry.End(sessionID, func() error {
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.saveTimeout)
		defer cancel()
		return uc.repo.Delete(dctx, sessionID)
	})
	uc.metrics.setSessions(uc.registry.Len())
	if err != nil {
		return fmt.Errorf("delete cart of session %s: %w", sessionID, err)
	}
	logger.Infow(ctx, "session ended", "session_id", sessionID, "in_memory", existed)
	return nil
}

func (uc *cartUsecase) EvictIdle(ctx context.Context) int {
	n := uc.registry.EvictIdle(uc.idleTTL, func(s *cart.Store) bool {
		return s.Observers() > hooksPerCart
	})
	if n > 0 {
		uc.metrics.setSessions(uc.registry.Len())
		logger.Debugw(ctx, "evicted idle carts", "count", n, "open", uc.registry.Len())
	}
	return n
}

// open returns the session store, restoring persisted lines and wiring the
// persistence and publishing hooks the first time the session is seen. The
// load is shared by concurrent callers, so it runs detached from ctx under
// its own timeout.
func (uc *cartUsecase) open(ctx context.Context, sessionID string) (*cart.Store, error) {
	store, created, err := uc.registry.Open(ctx, sessionID, func(s *cart.Store) error {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), uc.loadTimeout)
		defer cancel()
		doc, err := uc.repo.Load(lctx, sessionID)
		switch {
		case errors.Is(err, models.ErrNotFound):
		case err != nil:
			return fmt.Errorf("load cart of session %s: %w", sessionID, err)
		default:
			s.Restore(doc.Lines)
		}
		s.Subscribe(uc.saveHook(sessionID))
		s.Subscribe(uc.publishHook(sessionID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if created {
		uc.metrics.setSessions(uc.registry.Len())
		logger.Debugw(ctx, "cart opened", "session_id", sessionID, "count", store.Count())
	}
	return store, nil
}

// Hooks run detached from the request that triggered the mutation so a
// client hanging up does not lose the write.
func (uc *cartUsecase) saveHook(sessionID string) cart.Observer {
	return func(snap models.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), uc.saveTimeout)
		defer cancel()
		doc := &models.CartDocument{
			SessionID: sessionID,
			Lines:     snap.Lines,
			Count:     snap.Count,
			UpdatedAt: time.Now().UTC(),
		}
		if err := uc.repo.Save(ctx, doc); err != nil {
			logger.Errorw(ctx, "failed to save cart", "session_id", sessionID, "error", err)
		}
	}
}

func (uc *cartUsecase) publishHook(sessionID string) cart.Observer {
	return func(snap models.Snapshot) {
		ctx, cancel := context.WithTimeout(context.Background(), uc.saveTimeout)
		defer cancel()
		if err := uc.publisher.PublishCartUpdated(ctx, sessionID, snap); err != nil {
			logger.Warnw(ctx, "failed to publish cart update", "session_id", sessionID, "error", err)
		}
	}
}

// mutated counts op when it changed the cart and renders the result.
func (uc *cartUsecase) mutated(sessionID, op string, snap models.Snapshot, changed bool) *models.CartView {
	if changed {
		uc.metrics.mutation(op)
	}
	return uc.view(sessionID, snap)
}

func (uc *cartUsecase) view(sessionID string, snap models.Snapshot) *models.CartView {
	return &models.CartView{
		SessionID: sessionID,
		Snapshot:  snap,
		Totals:    uc.pricing.Totals(snap),
	}
}
