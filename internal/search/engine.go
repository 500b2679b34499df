package search

import (
	"context"
	"errors"
	"strings"

	"github.com/example/product-catalog/internal/catalog"
)

var ErrProductNotFound = errors.New("product not found")

// Engine builds and runs catalog queries against the search index. Every
// query filters active products only; keyword matching is weighted
// full-text with name ranked above description and brand.
type Engine struct {
	index    catalog.IndexStore
	products catalog.ProductStore
}

func NewEngine(index catalog.IndexStore, products catalog.ProductStore) *Engine {
	return &Engine{index: index, products: products}
}

// Search runs a keyword query. An empty keyword degrades to a plain active
// listing from the primary store; the index is not consulted for the
// "browse all" case.
func (e *Engine) Search(ctx context.Context, keyword string, page catalog.PageRequest) (*catalog.Page, error) {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return e.products.ListActive(ctx, page)
	}
	return e.index.Query(ctx, catalog.SearchCriteria{Keyword: keyword}, page)
}

// AdvancedSearch combines keyword, category and price-range predicates.
func (e *Engine) AdvancedSearch(ctx context.Context, keyword, categoryID string, minPrice, maxPrice int64, page catalog.PageRequest) (*catalog.Page, error) {
	return e.index.Query(ctx, catalog.SearchCriteria{
		Keyword:    strings.TrimSpace(keyword),
		CategoryID: categoryID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
	}, page)
}

func (e *Engine) ByCategory(ctx context.Context, categoryID string, page catalog.PageRequest) (*catalog.Page, error) {
	return e.index.Query(ctx, catalog.SearchCriteria{CategoryID: categoryID}, page)
}

func (e *Engine) ByBrand(ctx context.Context, brand string, page catalog.PageRequest) (*catalog.Page, error) {
	return e.index.Query(ctx, catalog.SearchCriteria{Brand: brand}, page)
}

func (e *Engine) ByPriceRange(ctx context.Context, minPrice, maxPrice int64, page catalog.PageRequest) (*catalog.Page, error) {
	return e.index.Query(ctx, catalog.SearchCriteria{MinPrice: minPrice, MaxPrice: maxPrice}, page)
}

// Similar returns products sharing the reference product's brand and
// category, excluding the reference product itself.
func (e *Engine) Similar(ctx context.Context, productID string, page catalog.PageRequest) (*catalog.Page, error) {
	p, err := e.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return e.index.Query(ctx, catalog.SearchCriteria{
		Brand:      p.Brand,
		CategoryID: p.CategoryID,
		ExcludeID:  p.ID,
	}, page)
}

// LowStock returns active products at or below the given stock threshold.
func (e *Engine) LowStock(ctx context.Context, threshold int, page catalog.PageRequest) (*catalog.Page, error) {
	return e.index.Query(ctx, catalog.SearchCriteria{MaxStock: &threshold}, page)
}
