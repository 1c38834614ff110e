// Package events fans product change notifications out to connected admin
// clients. Delivery is best-effort: nothing is persisted and nothing is
// replayed to late subscribers.
package events

import (
	"context"

	"github.com/google/uuid"
)

const (
	TypeProduct = "product"
	KindStock   = "stock"
)

// VariantStock is the per-variant stock carried by a stock event.
type VariantStock struct {
	Color string `json:"color,omitempty"`
	Size  string `json:"size,omitempty"`
	Stock int    `json:"stock"`
}

// Event is pushed to every subscriber as-is.
type Event struct {
	Type         string         `json:"type"`
	Kind         string         `json:"kind"`
	ProductID    uuid.UUID      `json:"productId"`
	CountInStock int            `json:"countInStock"`
	Variants     []VariantStock `json:"variants,omitempty"`
}

// StockEvent builds the stock-change notification for a product.
func StockEvent(productID uuid.UUID, countInStock int, variants []VariantStock) Event {
	return Event{
		Type:         TypeProduct,
		Kind:         KindStock,
		ProductID:    productID,
		CountInStock: countInStock,
		Variants:     variants,
	}
}

// Publisher is injected into components that emit notifications.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
