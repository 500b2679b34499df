package events

import "time"

// Outbound topics.
const (
	TopicProductEvents   = "product-events"
	TopicInventoryEvents = "inventory-events"
	TopicSearchEvents    = "search-events"
)

// Message keys per topic.
const (
	KeyProductCreated  = "product-created"
	KeyProductUpdated  = "product-updated"
	KeyProductDeleted  = "product-deleted"
	KeyProductViewed   = "product-viewed"
	KeyStockUpdated    = "stock-updated"
	KeyStockRestored   = "stock-restored"
	KeySearchPerformed = "search-performed"
)

// StockUpdate is published on inventory-events after a stock mutation
// commits. QuantityChanged is signed: negative for a reservation, positive
// for a restoration.
type StockUpdate struct {
	ProductID       string `json:"productId"`
	CurrentStock    int    `json:"currentStock"`
	QuantityChanged int    `json:"quantityChanged"`
}

// ProductView is published on product-events when a product detail is read.
type ProductView struct {
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SearchPerformed is published on search-events for keyword searches.
type SearchPerformed struct {
	Keyword      string    `json:"keyword"`
	UserID       string    `json:"userId,omitempty"`
	ResultsCount int       `json:"resultsCount"`
	Timestamp    time.Time `json:"timestamp"`
}
