package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/product-catalog/internal/catalog"
)

// MockProductStore is a mock implementation of catalog.ProductStore for testing
type MockProductStore struct {
	mu   sync.RWMutex
	data map[string]*catalog.Product

	// For tracking calls in tests
	GetCalls    []string
	SaveCalls   []*catalog.Product
	AdjustCalls []int

	// Injectable errors
	GetErr    error
	SaveErr   error
	AdjustErr error
	ListErr   error
}

// NewMockProductStore creates a new MockProductStore
func NewMockProductStore() *MockProductStore {
	return &MockProductStore{
		data:      make(map[string]*catalog.Product),
		GetCalls:  make([]string, 0),
		SaveCalls: make([]*catalog.Product, 0),
	}
}

func (m *MockProductStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetCalls = append(m.GetCalls, id)

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	p, ok := m.data[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	clone := *p
	return &clone, nil
}

func (m *MockProductStore) GetByIDs(ctx context.Context, ids []string) ([]*catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	var products []*catalog.Product
	for _, id := range ids {
		if p, ok := m.data[id]; ok {
			clone := *p
			products = append(products, &clone)
		}
	}
	return products, nil
}

func (m *MockProductStore) Save(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *p
	m.SaveCalls = append(m.SaveCalls, &clone)

	if m.SaveErr != nil {
		return m.SaveErr
	}
	stored := clone
	// An existing row keeps its stock quantity; only AdjustStock moves it.
	if existing, ok := m.data[p.ID]; ok {
		stored.StockQuantity = existing.StockQuantity
	}
	m.data[p.ID] = &stored
	return nil
}

func (m *MockProductStore) AdjustStock(ctx context.Context, id string, delta int, updatedAt time.Time) (*catalog.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AdjustCalls = append(m.AdjustCalls, delta)

	if m.AdjustErr != nil {
		return nil, m.AdjustErr
	}
	p, ok := m.data[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	if p.StockQuantity+delta < 0 {
		return nil, catalog.ErrInsufficientStock
	}
	p.StockQuantity += delta
	p.UpdatedAt = updatedAt
	clone := *p
	return &clone, nil
}

func (m *MockProductStore) ListActive(ctx context.Context, page catalog.PageRequest) (*catalog.Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.ListErr != nil {
		return nil, m.ListErr
	}

	var products []*catalog.Product
	for _, p := range m.data {
		if p.Active {
			clone := *p
			products = append(products, &clone)
		}
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })

	total := int64(len(products))
	start := page.Page * page.Size
	if start > len(products) {
		start = len(products)
	}
	end := start + page.Size
	if end > len(products) {
		end = len(products)
	}
	return catalog.NewPage(products[start:end], page.Page, page.Size, total), nil
}

func (m *MockProductStore) Brands(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	seen := make(map[string]bool)
	var brands []string
	for _, p := range m.data {
		if p.Active && p.Brand != "" && !seen[p.Brand] {
			seen[p.Brand] = true
			brands = append(brands, p.Brand)
		}
	}
	sort.Strings(brands)
	return brands, nil
}

// SetData sets a product directly for testing
func (m *MockProductStore) SetData(p *catalog.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.data[p.ID] = &clone
}

// GetData gets a product directly for testing (without recording the call)
func (m *MockProductStore) GetData(id string) (*catalog.Product, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.data[id]
	if !ok {
		return nil, false
	}
	clone := *p
	return &clone, true
}

// Reset clears all data and recorded calls
func (m *MockProductStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]*catalog.Product)
	m.GetCalls = make([]string, 0)
	m.SaveCalls = make([]*catalog.Product, 0)
	m.AdjustCalls = nil
	m.GetErr = nil
	m.SaveErr = nil
	m.AdjustErr = nil
	m.ListErr = nil
}
