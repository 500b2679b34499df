package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/example/product-catalog/internal/catalog"
)

// MockIndexStore is a mock implementation of catalog.IndexStore for testing.
// Put honors the same last-write-wins rule as the real index: an item
// with an older updated_at never replaces a newer one.
type MockIndexStore struct {
	mu   sync.RWMutex
	data map[string]*catalog.Product

	// For tracking calls in tests
	PutCalls   []*catalog.Product
	QueryCalls []catalog.SearchCriteria

	// Injectable errors
	PutErr   error
	QueryErr error

	// FailFirst makes the first N Put calls fail with PutErr, then succeed
	FailFirst int
	putCount  int
}

// NewMockIndexStore creates a new MockIndexStore
func NewMockIndexStore() *MockIndexStore {
	return &MockIndexStore{
		data:       make(map[string]*catalog.Product),
		PutCalls:   make([]*catalog.Product, 0),
		QueryCalls: make([]catalog.SearchCriteria, 0),
	}
}

func (m *MockIndexStore) Put(ctx context.Context, p *catalog.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *p
	m.PutCalls = append(m.PutCalls, &clone)
	m.putCount++

	if m.PutErr != nil && (m.FailFirst == 0 || m.putCount <= m.FailFirst) {
		return m.PutErr
	}

	if existing, ok := m.data[p.ID]; ok && existing.UpdatedAt.After(p.UpdatedAt) {
		return nil
	}
	stored := clone
	m.data[p.ID] = &stored
	return nil
}

func (m *MockIndexStore) Query(ctx context.Context, criteria catalog.SearchCriteria, page catalog.PageRequest) (*catalog.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.QueryCalls = append(m.QueryCalls, criteria)

	if m.QueryErr != nil {
		return nil, m.QueryErr
	}

	var matched []*catalog.Product
	for _, p := range m.data {
		if matches(p, criteria) {
			clone := *p
			matched = append(matched, &clone)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	total := int64(len(matched))
	start := page.Page * page.Size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return catalog.NewPage(matched[start:end], page.Page, page.Size, total), nil
}

func matches(p *catalog.Product, criteria catalog.SearchCriteria) bool {
	if !p.Active {
		return false
	}
	if criteria.Keyword != "" {
		keyword := strings.ToLower(criteria.Keyword)
		if !strings.Contains(strings.ToLower(p.Name), keyword) &&
			!strings.Contains(strings.ToLower(p.Description), keyword) &&
			!strings.Contains(strings.ToLower(p.Brand), keyword) {
			return false
		}
	}
	if criteria.CategoryID != "" && p.CategoryID != criteria.CategoryID {
		return false
	}
	if criteria.Brand != "" && p.Brand != criteria.Brand {
		return false
	}
	if criteria.MinPrice > 0 && p.Price < criteria.MinPrice {
		return false
	}
	if criteria.MaxPrice > 0 && p.Price > criteria.MaxPrice {
		return false
	}
	if criteria.MaxStock != nil && p.StockQuantity > *criteria.MaxStock {
		return false
	}
	if criteria.ExcludeID != "" && p.ID == criteria.ExcludeID {
		return false
	}
	return true
}

// GetData gets an indexed product directly for testing
func (m *MockIndexStore) GetData(id string) (*catalog.Product, bool) {
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
func (m *MockIndexStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make(map[string]*catalog.Product)
	m.PutCalls = make([]*catalog.Product, 0)
	m.QueryCalls = make([]catalog.SearchCriteria, 0)
	m.PutErr = nil
	m.QueryErr = nil
	m.FailFirst = 0
	m.putCount = 0
}
