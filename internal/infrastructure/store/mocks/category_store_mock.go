package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/example/product-catalog/internal/catalog"
)

// MockCategoryStore is a mock implementation of catalog.CategoryStore for testing
type MockCategoryStore struct {
	mu   sync.RWMutex
	data map[string]*catalog.Category

	// For tracking calls in tests
	SaveCalls   []*catalog.Category
	DeleteCalls []string

	// Injectable errors
	SaveErr  error
	CountErr error
}

// NewMockCategoryStore creates a new MockCategoryStore
func NewMockCategoryStore() *MockCategoryStore {
	return &MockCategoryStore{
		data:        make(map[string]*catalog.Category),
		SaveCalls:   make([]*catalog.Category, 0),
		DeleteCalls: make([]string, 0),
	}
}

func (m *MockCategoryStore) GetByID(ctx context.Context, id string) (*catalog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.data[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (m *MockCategoryStore) Save(ctx context.Context, c *catalog.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	clone := *c
	m.SaveCalls = append(m.SaveCalls, &clone)

	if m.SaveErr != nil {
		return m.SaveErr
	}
	stored := clone
	m.data[c.ID] = &stored
	return nil
}

func (m *MockCategoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)

	if _, ok := m.data[id]; !ok {
		return catalog.ErrNotFound
	}
	delete(m.data, id)
	return nil
}

func (m *MockCategoryStore) List(ctx context.Context) ([]*catalog.Category, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var categories []*catalog.Category
	for _, c := range m.data {
		if c.Active {
			clone := *c
			categories = append(categories, &clone)
		}
	}
	sort.Slice(categories, func(i, j int) bool {
		if categories[i].DisplayOrder != categories[j].DisplayOrder {
			return categories[i].DisplayOrder < categories[j].DisplayOrder
		}
		return categories[i].Name < categories[j].Name
	})
	return categories, nil
}

func (m *MockCategoryStore) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.CountErr != nil {
		return 0, m.CountErr
	}
	return len(m.data), nil
}

// SetData sets a category directly for testing
func (m *MockCategoryStore) SetData(c *catalog.Category) {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *c
	m.data[c.ID] = &clone
}
