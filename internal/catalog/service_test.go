package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/example/product-catalog/internal/catalog"
	"github.com/example/product-catalog/internal/events"
	"github.com/example/product-catalog/internal/infrastructure/store/mocks"
)

type fakePropagator struct {
	mu    sync.Mutex
	calls []*Product
}

func (f *fakePropagator) Push(ctx context.Context, p *Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *p
	f.calls = append(f.calls, &clone)
}

type emittedEvent struct {
	Topic   string
	Key     string
	Payload any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (f *fakePublisher) Emit(ctx context.Context, topic, key string, payload any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, emittedEvent{Topic: topic, Key: key, Payload: payload})
}

type fakeCache struct {
	data        map[string]*Product
	sets        []string
	invalidated []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]*Product)}
}

func (f *fakeCache) Get(ctx context.Context, id string) (*Product, bool) {
	p, ok := f.data[id]
	return p, ok
}

func (f *fakeCache) Set(ctx context.Context, p *Product) {
	f.sets = append(f.sets, p.ID)
	f.data[p.ID] = p
}

func (f *fakeCache) Invalidate(ctx context.Context, id string) {
	f.invalidated = append(f.invalidated, id)
	delete(f.data, id)
}

func newTestService() (*Service, *mocks.MockProductStore, *fakePropagator, *fakePublisher, *fakeCache) {
	productStore := mocks.NewMockProductStore()
	propagator := &fakePropagator{}
	publisher := &fakePublisher{}
	cache := newFakeCache()
	svc := NewService(productStore, propagator, publisher, cache)
	return svc, productStore, propagator, publisher, cache
}

// ============================================
// Create Tests
// ============================================

func TestService_Create_AssignsIDAndDefaults(t *testing.T) {
	svc, productStore, propagator, publisher, _ := newTestService()

	created, err := svc.Create(context.Background(), &Product{
		Name:          "Wireless Mouse",
		Brand:         "Acme",
		Price:         2999,
		StockQuantity: 10,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.True(t, created.Active)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)

	stored, ok := productStore.GetData(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Wireless Mouse", stored.Name)

	require.Len(t, propagator.calls, 1)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.TopicProductEvents, publisher.events[0].Topic)
	assert.Equal(t, events.KeyProductCreated, publisher.events[0].Key)
}

func TestService_Create_Validation(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	tests := []struct {
		name    string
		product Product
	}{
		{"empty name", Product{Price: 100, StockQuantity: 1}},
		{"negative price", Product{Name: "X", Price: -1, StockQuantity: 1}},
		{"negative stock", Product{Name: "X", Price: 100, StockQuantity: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), &tt.product)
			assert.ErrorIs(t, err, ErrInvalidProduct)
		})
	}
}

func TestService_Create_StoreFailureReturnsError(t *testing.T) {
	svc, productStore, propagator, publisher, _ := newTestService()
	productStore.SaveErr = errors.New("db down")

	_, err := svc.Create(context.Background(), &Product{Name: "X", Price: 1})

	require.Error(t, err)
	// Nothing propagates when the primary write failed.
	assert.Empty(t, propagator.calls)
	assert.Empty(t, publisher.events)
}

// ============================================
// Update Tests
// ============================================

func TestService_Update_ReplacesDescriptiveFields(t *testing.T) {
	svc, productStore, propagator, publisher, cache := newTestService()
	productStore.SetData(&Product{
		ID: "prod-1", Name: "Old", Price: 100, StockQuantity: 7, Active: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})

	updated, err := svc.Update(context.Background(), "prod-1", &Product{
		Name:  "New",
		Brand: "Acme",
		Price: 200,
		// Stock on the payload must be ignored.
		StockQuantity: 999,
	})

	require.NoError(t, err)
	assert.Equal(t, "New", updated.Name)
	assert.Equal(t, int64(200), updated.Price)
	assert.Equal(t, 7, updated.StockQuantity)

	assert.Equal(t, []string{"prod-1"}, cache.invalidated)
	require.Len(t, propagator.calls, 1)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.KeyProductUpdated, publisher.events[0].Key)
}

func TestService_Update_DoesNotClobberConcurrentReservation(t *testing.T) {
	_, productStore, _, _, _ := newTestService()
	ctx := context.Background()
	productStore.SetData(&Product{
		ID: "prod-1", Name: "Old", Price: 100, StockQuantity: 10, Active: true,
		CreatedAt: time.Now(), UpdatedAt: time.Now(),
	})

	// A reservation lands at the store between an update's read and its
	// write. The catalog upsert must not re-persist the stale quantity.
	snapshot, err := productStore.GetByID(ctx, "prod-1")
	require.NoError(t, err)

	_, err = productStore.AdjustStock(ctx, "prod-1", -4, time.Now())
	require.NoError(t, err)

	snapshot.Name = "New"
	require.NoError(t, productStore.Save(ctx, snapshot))

	stored, ok := productStore.GetData("prod-1")
	require.True(t, ok)
	assert.Equal(t, "New", stored.Name)
	assert.Equal(t, 6, stored.StockQuantity)
}

func TestService_Update_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Update(context.Background(), "missing", &Product{Name: "X", Price: 1})

	assert.ErrorIs(t, err, ErrProductNotFound)
}

// ============================================
// Delete Tests
// ============================================

func TestService_Delete_SoftDeletes(t *testing.T) {
	svc, productStore, propagator, publisher, cache := newTestService()
	productStore.SetData(&Product{ID: "prod-1", Name: "X", Active: true})

	err := svc.Delete(context.Background(), "prod-1")

	require.NoError(t, err)
	stored, ok := productStore.GetData("prod-1")
	require.True(t, ok, "soft delete keeps the row")
	assert.False(t, stored.Active)

	assert.Equal(t, []string{"prod-1"}, cache.invalidated)
	require.Len(t, propagator.calls, 1)
	assert.False(t, propagator.calls[0].Active)
	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.KeyProductDeleted, publisher.events[0].Key)
}

func TestService_Delete_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	err := svc.Delete(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrProductNotFound)
}

// ============================================
// Read Path Tests
// ============================================

func TestService_Get_CacheAside(t *testing.T) {
	svc, productStore, _, _, cache := newTestService()
	productStore.SetData(&Product{ID: "prod-1", Name: "X", Active: true})

	// First read misses the cache and fills it.
	p, err := svc.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Equal(t, "prod-1", p.ID)
	assert.Equal(t, []string{"prod-1"}, cache.sets)
	assert.Len(t, productStore.GetCalls, 1)

	// Second read is served from cache.
	_, err = svc.Get(context.Background(), "prod-1")
	require.NoError(t, err)
	assert.Len(t, productStore.GetCalls, 1)
}

func TestService_Get_UnknownProduct(t *testing.T) {
	svc, _, _, _, _ := newTestService()

	_, err := svc.Get(context.Background(), "missing")

	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestService_Get_NilCache(t *testing.T) {
	productStore := mocks.NewMockProductStore()
	svc := NewService(productStore, &fakePropagator{}, &fakePublisher{}, nil)
	productStore.SetData(&Product{ID: "prod-1", Name: "X", Active: true})

	p, err := svc.Get(context.Background(), "prod-1")

	require.NoError(t, err)
	assert.Equal(t, "prod-1", p.ID)
}

func TestService_GetByIDs_SkipsMissing(t *testing.T) {
	svc, productStore, _, _, _ := newTestService()
	productStore.SetData(&Product{ID: "prod-1", Name: "X", Active: true})

	products, err := svc.GetByIDs(context.Background(), []string{"prod-1", "missing"})

	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "prod-1", products[0].ID)
}

// ============================================
// Pagination Tests
// ============================================

func TestNewPage_Envelope(t *testing.T) {
	products := []*Product{{ID: "p1"}, {ID: "p2"}}

	page := NewPage(products, 1, 2, 5)

	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, int64(5), page.TotalItems)
	assert.Equal(t, 3, page.TotalPages)
	assert.True(t, page.HasNext)
	assert.True(t, page.HasPrevious)
}

func TestNewPage_SinglePage(t *testing.T) {
	page := NewPage([]*Product{{ID: "p1"}}, 0, 12, 1)

	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)
	assert.False(t, page.HasPrevious)
}

func TestNewPage_Empty(t *testing.T) {
	page := NewPage(nil, 0, 12, 0)

	assert.NotNil(t, page.Products)
	assert.Empty(t, page.Products)
	assert.Equal(t, 0, page.TotalPages)
	assert.False(t, page.HasNext)
}
