package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"
)

// Cart event types consumed from the cart-events topic.
const (
	EventItemAdded         = "ITEM_ADDED"
	EventItemUpdated       = "ITEM_UPDATED"
	EventItemRemoved       = "ITEM_REMOVED"
	EventCheckoutInitiated = "CHECKOUT_INITIATED"
)

const defaultProcessingTimeout = 10 * time.Second

// CartEvent is the upstream cart lifecycle payload.
type CartEvent struct {
	EventType string      `json:"eventType"`
	UserID    json.Number `json:"userId"`
	ProductID string      `json:"productId"`
	Quantity  int         `json:"quantity"`
}

// StockLedger is the subset of inventory operations driven by cart events.
type StockLedger interface {
	Reserve(ctx context.Context, productID string, quantity int) (bool, error)
	Restore(ctx context.Context, productID string, quantity int) error
}

// CartEventConsumer translates cart lifecycle events into stock mutations.
// Each message is handled inside its own failure boundary: a malformed
// payload, a failed reservation, or a panic affects only that message and
// the message is considered consumed either way.
type CartEventConsumer struct {
	ledger  StockLedger
	timeout time.Duration
}

func NewCartEventConsumer(ledger StockLedger) *CartEventConsumer {
	return &CartEventConsumer{
		ledger:  ledger,
		timeout: defaultProcessingTimeout,
	}
}

// HandleMessage processes one cart event. It always returns nil so the
// subscription loop never stops on a single message's outcome.
func (c *CartEventConsumer) HandleMessage(ctx context.Context, key, value []byte) error {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[CartConsumer] Panic while processing message (key=%s): %v", key, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var event CartEvent
	if err := json.Unmarshal(value, &event); err != nil {
		log.Printf("[CartConsumer] Malformed cart event (key=%s): %v", key, err)
		return nil
	}

	switch event.EventType {
	case EventItemAdded:
		c.handleItemAdded(ctx, event)
	case EventItemUpdated:
		// The payload carries only the new quantity, not the previously
		// reserved one, so no correct stock delta can be derived here.
		log.Printf("[CartConsumer] Cart item updated: user=%s product=%s quantity=%d", event.UserID, event.ProductID, event.Quantity)
	case EventItemRemoved:
		c.handleItemRemoved(ctx, event)
	case EventCheckoutInitiated:
		log.Printf("[CartConsumer] Checkout initiated: user=%s items=%d", event.UserID, event.Quantity)
	default:
		log.Printf("[CartConsumer] Unknown cart event type: %q", event.EventType)
	}

	return nil
}

func (c *CartEventConsumer) handleItemAdded(ctx context.Context, event CartEvent) {
	reserved, err := c.ledger.Reserve(ctx, event.ProductID, event.Quantity)
	if err != nil {
		log.Printf("[CartConsumer] Error reserving stock for product %s: %v", event.ProductID, err)
		return
	}
	if !reserved {
		log.Printf("[CartConsumer] Failed to reserve stock for product %s, quantity %d: insufficient stock", event.ProductID, event.Quantity)
		return
	}
	log.Printf("[CartConsumer] Stock reserved for product %s, quantity %d", event.ProductID, event.Quantity)
}

func (c *CartEventConsumer) handleItemRemoved(ctx context.Context, event CartEvent) {
	if err := c.ledger.Restore(ctx, event.ProductID, event.Quantity); err != nil {
		log.Printf("[CartConsumer] Error restoring stock for product %s: %v", event.ProductID, err)
		return
	}
	log.Printf("[CartConsumer] Stock restored for product %s, quantity %d", event.ProductID, event.Quantity)
}
