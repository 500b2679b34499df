package catalog

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrInsufficientStock is returned by AdjustStock when a negative delta
// would drive the stock quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// PageRequest describes one page of a query.
type PageRequest struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string
}

// SearchCriteria describes predicates for a search index query. Zero-value
// string fields and non-positive price bounds are ignored; MaxStock is
// applied only when non-nil.
type SearchCriteria struct {
	Keyword    string
	CategoryID string
	Brand      string
	MinPrice   int64
	MaxPrice   int64
	MaxStock   *int
	ExcludeID  string
}

// ProductStore is the transactional system of record for products.
// AdjustStock is the only way to mutate the stock quantity: it applies the
// signed delta atomically at the store level, fails a negative delta with
// ErrInsufficientStock when the quantity would go below zero, and returns
// the post-mutation snapshot. Save never touches the stock quantity of an
// existing row, so catalog updates cannot clobber a concurrent adjustment
// from another process.
type ProductStore interface {
	GetByID(ctx context.Context, id string) (*Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]*Product, error)
	Save(ctx context.Context, p *Product) error
	AdjustStock(ctx context.Context, id string, delta int, updatedAt time.Time) (*Product, error)
	ListActive(ctx context.Context, page PageRequest) (*Page, error)
	Brands(ctx context.Context) ([]string, error)
}

// IndexStore is the search-optimized secondary copy of product data.
// Put must be idempotent: a write carrying a stale UpdatedAt must not
// overwrite a fresher entry.
type IndexStore interface {
	Put(ctx context.Context, p *Product) error
	Query(ctx context.Context, criteria SearchCriteria, page PageRequest) (*Page, error)
}

// CategoryStore holds the category hierarchy.
type CategoryStore interface {
	GetByID(ctx context.Context, id string) (*Category, error)
	Save(ctx context.Context, c *Category) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Category, error)
	Count(ctx context.Context) (int, error)
}
