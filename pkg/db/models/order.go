package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

// Order is the persisted result of a checkout. ExternalOrderID is the
// payment provider's order/session id and doubles as the idempotency key
// for capture and webhook writes.
type Order struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ExternalOrderID   *string                 `gorm:"column:external_order_id;uniqueIndex:ux_orders_external_order_id"`
	PaymentFlow       enums.PaymentFlow       `gorm:"column:payment_flow;not null"`
	PaymentProvider   enums.PaymentProvider   `gorm:"column:payment_provider;not null;default:''"`
	PaymentStatus     enums.PaymentStatus     `gorm:"column:payment_status;not null"`
	FulfillmentStatus enums.FulfillmentStatus `gorm:"column:fulfillment_status;not null;default:'PENDING'"`
	CustomerClerkID   *string                 `gorm:"column:customer_clerk_id"`
	Contact           types.Contact           `gorm:"column:contact;type:jsonb;not null"`
	Products          types.OrderLines        `gorm:"column:products;type:jsonb;not null"`
	ShippingAddress   types.ShippingAddress   `gorm:"column:shipping_address;type:jsonb;not null"`
	ShippingMethod    enums.ShippingMethod    `gorm:"column:shipping_method;not null;default:'FREE'"`
	ShippingRate      string                  `gorm:"column:shipping_rate;not null;default:''"`
	ShippingAmount    decimal.Decimal         `gorm:"column:shipping_amount;type:numeric(12,2);not null"`
	TotalAmount       decimal.Decimal         `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Notes             *string                 `gorm:"column:notes"`
	Metadata          types.OrderMetadata     `gorm:"column:metadata;type:jsonb;not null"`
	TrackingNumber    *string                 `gorm:"column:tracking_number"`
	Transporter       *string                 `gorm:"column:transporter"`
	WeightGrams       *int                    `gorm:"column:weight_grams"`
	DateMailed        *time.Time              `gorm:"column:date_mailed"`
	ProcessingAt      *time.Time              `gorm:"column:processing_at"`
	ShippedAt         *time.Time              `gorm:"column:shipped_at"`
	DeliveredAt       *time.Time              `gorm:"column:delivered_at"`
	CompletedAt       *time.Time              `gorm:"column:completed_at"`
	CancelledAt       *time.Time              `gorm:"column:cancelled_at"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (Order) TableName() string { return "orders" }

// BeforeCreate assigns the primary key when the caller did not.
func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
