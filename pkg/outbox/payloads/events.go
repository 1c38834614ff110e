package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/pkg/enums"
)

// OrderPlacedEvent is queued when a checkout persists an order.
type OrderPlacedEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	PaymentFlow     enums.PaymentFlow     `json:"payment_flow"`
	PaymentProvider enums.PaymentProvider `json:"payment_provider,omitempty"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	ExternalOrderID string                `json:"external_order_id,omitempty"`
	ContactEmail    string                `json:"contact_email,omitempty"`
	ItemCount       int                   `json:"item_count"`
	TotalAmount     string                `json:"total_amount"`
	Currency        string                `json:"currency"`
}

// OrderPaidEvent is queued once a provider payment is confirmed.
type OrderPaidEvent struct {
	OrderID         uuid.UUID             `json:"order_id"`
	PaymentProvider enums.PaymentProvider `json:"payment_provider"`
	PaymentStatus   enums.PaymentStatus   `json:"payment_status"`
	ExternalOrderID string                `json:"external_order_id"`
	CustomerClerkID string                `json:"customer_clerk_id,omitempty"`
	TotalAmount     string                `json:"total_amount"`
	Currency        string                `json:"currency"`
}

// OrderFulfillmentChangedEvent records a staff fulfillment transition.
type OrderFulfillmentChangedEvent struct {
	OrderID   uuid.UUID               `json:"order_id"`
	From      enums.FulfillmentStatus `json:"from"`
	To        enums.FulfillmentStatus `json:"to"`
	ChangedAt time.Time               `json:"changed_at"`
}
