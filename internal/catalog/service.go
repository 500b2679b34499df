package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/example/product-catalog/internal/events"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidProduct  = errors.New("invalid product")
)

// Propagator pushes a product snapshot into the search index.
type Propagator interface {
	Push(ctx context.Context, p *Product)
}

// Publisher emits domain events to the bus.
type Publisher interface {
	Emit(ctx context.Context, topic, key string, payload any)
}

// Cache is an optional read cache for product lookups. Implementations
// must degrade to a miss on any backend failure.
type Cache interface {
	Get(ctx context.Context, id string) (*Product, bool)
	Set(ctx context.Context, p *Product)
	Invalidate(ctx context.Context, id string)
}

// Service implements product CRUD against the primary store with
// write-through to the search index and event emission. Index and publish
// failures never roll back a committed primary-store write.
type Service struct {
	store      ProductStore
	propagator Propagator
	publisher  Publisher
	cache      Cache
}

func NewService(s ProductStore, propagator Propagator, publisher Publisher, cache Cache) *Service {
	return &Service{
		store:      s,
		propagator: propagator,
		publisher:  publisher,
		cache:      cache,
	}
}

// Create validates and persists a new product, indexes it and emits
// product-created.
func (s *Service) Create(ctx context.Context, p *Product) (*Product, error) {
	if p.Name == "" || p.Price < 0 || p.StockQuantity < 0 {
		return nil, ErrInvalidProduct
	}

	now := time.Now()
	p.ID = uuid.New().String()
	p.Active = true
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}

	s.propagator.Push(ctx, p)
	s.publisher.Emit(ctx, events.TopicProductEvents, events.KeyProductCreated, p)

	return p, nil
}

// Update replaces the descriptive attributes of an existing product. The
// stock quantity is owned by the inventory ledger and is not touched here.
func (s *Service) Update(ctx context.Context, id string, updated *Product) (*Product, error) {
	if updated.Name == "" || updated.Price < 0 {
		return nil, ErrInvalidProduct
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	p.Name = updated.Name
	p.Description = updated.Description
	p.Brand = updated.Brand
	p.CategoryID = updated.CategoryID
	p.CategoryName = updated.CategoryName
	p.Price = updated.Price
	p.ImageURL = updated.ImageURL
	p.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, p); err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, p.ID)
	}
	s.propagator.Push(ctx, p)
	s.publisher.Emit(ctx, events.TopicProductEvents, events.KeyProductUpdated, p)

	return p, nil
}

// Delete soft-deletes a product. The inactive flag is propagated to the
// index so the product drops out of every read path.
func (s *Service) Delete(ctx context.Context, id string) error {
	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrProductNotFound
		}
		return err
	}

	p.Active = false
	p.UpdatedAt = time.Now()

	if err := s.store.Save(ctx, p); err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Invalidate(ctx, p.ID)
	}
	s.propagator.Push(ctx, p)
	s.publisher.Emit(ctx, events.TopicProductEvents, events.KeyProductDeleted, p)

	return nil
}

// Get returns a product by id, consulting the read cache first.
func (s *Service) Get(ctx context.Context, id string) (*Product, error) {
	if s.cache != nil {
		if p, ok := s.cache.Get(ctx, id); ok {
			return p, nil
		}
	}

	p, err := s.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, p)
	}
	return p, nil
}

// GetByIDs returns the products matching the given ids; missing ids are
// skipped.
func (s *Service) GetByIDs(ctx context.Context, ids []string) ([]*Product, error) {
	return s.store.GetByIDs(ctx, ids)
}

// ListActive returns one page of active products from the primary store.
func (s *Service) ListActive(ctx context.Context, page PageRequest) (*Page, error) {
	return s.store.ListActive(ctx, page)
}

// Brands returns the distinct brands of active products.
func (s *Service) Brands(ctx context.Context) ([]string, error) {
	return s.store.Brands(ctx)
}
