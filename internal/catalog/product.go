package catalog

import "time"

// Product is the authoritative catalog record. The primary store owns it;
// the search index holds a denormalized, eventually-consistent copy.
type Product struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Brand         string    `json:"brand"`
	CategoryID    string    `json:"category_id"`
	CategoryName  string    `json:"category_name"`
	Price         int64     `json:"price"`
	StockQuantity int       `json:"stock_quantity"`
	ImageURL      string    `json:"image_url,omitempty"`
	Active        bool      `json:"active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Category is a node in the category hierarchy.
type Category struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	ParentID     string    `json:"parent_id,omitempty"`
	DisplayOrder int       `json:"display_order"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is a paginated product result set.
type Page struct {
	Products    []*Product `json:"products"`
	CurrentPage int        `json:"currentPage"`
	TotalItems  int64      `json:"totalItems"`
	TotalPages  int        `json:"totalPages"`
	HasNext     bool       `json:"hasNext"`
	HasPrevious bool       `json:"hasPrevious"`
}

// NewPage builds a Page from one page of products and the overall total.
func NewPage(products []*Product, page, size int, total int64) *Page {
	if products == nil {
		products = []*Product{}
	}
	if size <= 0 {
		size = 1
	}
	totalPages := int((total + int64(size) - 1) / int64(size))
	return &Page{
		Products:    products,
		CurrentPage: page,
		TotalItems:  total,
		TotalPages:  totalPages,
		HasNext:     page+1 < totalPages,
		HasPrevious: page > 0,
	}
}
