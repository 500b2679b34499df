package inventory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/events"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// Propagator pushes a post-mutation product snapshot into the search index.
type Propagator interface {
	Push(ctx context.Context, p *catalog.Product)
}

// Publisher emits domain events to the bus.
type Publisher interface {
	Emit(ctx context.Context, topic, key string, payload any)
}

// Ledger owns stock mutations. The store-level AdjustStock guard is what
// keeps the quantity non-negative, even with other processes mutating the
// same row; the per-product mutex on top serializes local callers so their
// index pushes and bus events leave in commit order. The read cache is
// invalidated after every committed mutation so Get never serves a
// pre-mutation quantity for a cache TTL.
type Ledger struct {
	store      catalog.ProductStore
	propagator Propagator
	publisher  Publisher
	cache      catalog.Cache

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLedger(s catalog.ProductStore, propagator Propagator, publisher Publisher, cache catalog.Cache) *Ledger {
	return &Ledger{
		store:      s,
		propagator: propagator,
		publisher:  publisher,
		cache:      cache,
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex guarding a single product's stock. Locks are
// per-product, never global, so mutations of different products proceed in
// parallel.
func (l *Ledger) lockFor(productID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[productID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[productID] = m
	}
	return m
}

// Reserve decrements stock by quantity if enough is available. It returns
// (false, nil) on insufficient stock: that is a normal outcome, not an
// error, and leaves the quantity unchanged. On success it invalidates the
// read cache, pushes the updated snapshot to the search index and emits a
// stock-updated event with the negative delta.
func (l *Ledger) Reserve(ctx context.Context, productID string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, ErrInvalidQuantity
	}

	m := l.lockFor(productID)
	m.Lock()
	defer m.Unlock()

	p, err := l.store.AdjustStock(ctx, productID, -quantity, time.Now())
	if err != nil {
		switch {
		case errors.Is(err, catalog.ErrInsufficientStock):
			return false, nil
		case errors.Is(err, catalog.ErrNotFound):
			return false, ErrProductNotFound
		default:
			return false, err
		}
	}

	l.afterMutation(ctx, p)
	l.publisher.Emit(ctx, events.TopicInventoryEvents, events.KeyStockUpdated, events.StockUpdate{
		ProductID:       productID,
		CurrentStock:    p.StockQuantity,
		QuantityChanged: -quantity,
	})

	return true, nil
}

// Restore unconditionally adds quantity back to stock, compensating a
// removed cart item or a cancelled reservation. There is no upper bound:
// the data model carries no known maximum to cap against.
func (l *Ledger) Restore(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	m := l.lockFor(productID)
	m.Lock()
	defer m.Unlock()

	p, err := l.store.AdjustStock(ctx, productID, quantity, time.Now())
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	l.afterMutation(ctx, p)
	l.publisher.Emit(ctx, events.TopicInventoryEvents, events.KeyStockRestored, events.StockUpdate{
		ProductID:       productID,
		CurrentStock:    p.StockQuantity,
		QuantityChanged: quantity,
	})

	return nil
}

func (l *Ledger) afterMutation(ctx context.Context, p *catalog.Product) {
	if l.cache != nil {
		l.cache.Invalidate(ctx, p.ID)
	}
	l.propagator.Push(ctx, p)
}
