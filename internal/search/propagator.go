package search

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/example/product-catalog/internal/catalog"
)

const (
	defaultMaxAttempts = 5
	defaultRetryDelay  = time.Second
)

type retryItem struct {
	product  *catalog.Product
	attempts int
	nextTry  time.Time
}

// Propagator pushes post-mutation product snapshots into the search index,
// best effort. An index failure never reaches the mutation caller: the
// primary-store write stays committed and the snapshot is queued for retry
// with exponential backoff. Items that exhaust their attempts land on a
// reconciliation backlog instead of being dropped.
type Propagator struct {
	index       catalog.IndexStore
	maxAttempts int
	retryDelay  time.Duration

	mu      sync.Mutex
	backlog []retryItem
	failed  []*catalog.Product
	notify  chan struct{}
}

func NewPropagator(index catalog.IndexStore) *Propagator {
	return NewPropagatorWithRetry(index, defaultMaxAttempts, defaultRetryDelay)
}

// NewPropagatorWithRetry creates a propagator with explicit retry settings.
func NewPropagatorWithRetry(index catalog.IndexStore, maxAttempts int, retryDelay time.Duration) *Propagator {
	if maxAttempts < 1 {
		maxAttempts = defaultMaxAttempts
	}
	if retryDelay <= 0 {
		retryDelay = defaultRetryDelay
	}
	return &Propagator{
		index:       index,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		notify:      make(chan struct{}, 1),
	}
}

// Push writes the snapshot to the search index. It never returns an error;
// failures are logged and queued for retry.
func (sp *Propagator) Push(ctx context.Context, p *catalog.Product) {
	if err := sp.index.Put(ctx, p); err != nil {
		log.Printf("[SyncPropagator] Index write failed for product %s: %v (queued for retry)", p.ID, err)
		sp.enqueue(retryItem{
			product:  p,
			attempts: 1,
			nextTry:  time.Now().Add(sp.retryDelay),
		})
	}
}

// Start runs the retry loop until ctx is cancelled.
func (sp *Propagator) Start(ctx context.Context) {
	go sp.retryLoop(ctx)
}

func (sp *Propagator) retryLoop(ctx context.Context) {
	ticker := time.NewTicker(sp.retryDelay)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-sp.notify:
		case <-ticker.C:
		}
		sp.retryDue(ctx, time.Now())
	}
}

// retryDue re-attempts every queued item whose backoff has elapsed.
func (sp *Propagator) retryDue(ctx context.Context, now time.Time) {
	sp.mu.Lock()
	due := make([]retryItem, 0, len(sp.backlog))
	rest := sp.backlog[:0]
	for _, item := range sp.backlog {
		if item.nextTry.After(now) {
			rest = append(rest, item)
			continue
		}
		due = append(due, item)
	}
	sp.backlog = rest
	sp.mu.Unlock()

	for _, item := range due {
		if err := sp.index.Put(ctx, item.product); err == nil {
			log.Printf("[SyncPropagator] Retry succeeded for product %s (attempt %d)", item.product.ID, item.attempts+1)
			continue
		} else if item.attempts+1 >= sp.maxAttempts {
			log.Printf("[SyncPropagator] Giving up on product %s after %d attempts: %v (manual reconciliation required)",
				item.product.ID, item.attempts+1, err)
			sp.mu.Lock()
			sp.failed = append(sp.failed, item.product)
			sp.mu.Unlock()
			continue
		} else {
			item.attempts++
			// Exponential backoff: delay doubles with each failed attempt.
			item.nextTry = now.Add(sp.retryDelay << (item.attempts - 1))
			sp.enqueue(item)
		}
	}
}

func (sp *Propagator) enqueue(item retryItem) {
	sp.mu.Lock()
	sp.backlog = append(sp.backlog, item)
	sp.mu.Unlock()
	select {
	case sp.notify <- struct{}{}:
	default:
	}
}

// PendingCount returns the number of snapshots awaiting retry.
func (sp *Propagator) PendingCount() int {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	return len(sp.backlog)
}

// Failed returns the snapshots that exhausted their retries and need
// manual reconciliation.
func (sp *Propagator) Failed() []*catalog.Product {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	out := make([]*catalog.Product, len(sp.failed))
	copy(out, sp.failed)
	return out
}
