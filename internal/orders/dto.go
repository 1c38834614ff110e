package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const listDateLayout = "2006-01-02"

// LineView is an order line as rendered to clients.
type LineView struct {
	ProductID       *uuid.UUID `json:"productId,omitempty"`
	ProductLegacyID string     `json:"productLegacyId,omitempty"`
	Title           string     `json:"titleSnapshot"`
	Color           string     `json:"color,omitempty"`
	Size            string     `json:"size,omitempty"`
	Quantity        int        `json:"quantity"`
	UnitPrice       float64    `json:"unitPrice"`
}

// AddressView keeps every key present so clients can bind form fields.
type AddressView struct {
	FirstName  *string `json:"firstName"`
	LastName   *string `json:"lastName"`
	Street     *string `json:"street"`
	City       *string `json:"city"`
	State      *string `json:"state"`
	PostalCode *string `json:"postalCode"`
	Country    *string `json:"country"`
	Phone      *string `json:"phone"`
}

// ListItem is one row of the staff order list.
type ListItem struct {
	ID                string                  `json:"_id"`
	Customer          string                  `json:"customer"`
	Products          int                     `json:"products"`
	SubtotalAmount    float64                 `json:"subtotalAmount"`
	TotalAmount       float64                 `json:"totalAmount"`
	PaymentFlow       enums.PaymentFlow       `json:"paymentFlow"`
	PaymentStatus     enums.PaymentStatus     `json:"paymentStatus"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillmentStatus"`
	ShippingMethod    enums.ShippingMethod    `json:"shippingMethod"`
	ShippingRate      *string                 `json:"shippingRate"`
	ShippingAmount    float64                 `json:"shippingAmount"`
	TrackingNumber    *string                 `json:"trackingNumber"`
	Transporter       *string                 `json:"transporter"`
	WeightGrams       *int                    `json:"weightGrams"`
	DateMailed        *string                 `json:"dateMailed"`
	ContactEmail      *string                 `json:"contactEmail"`
	ContactPhone      *string                 `json:"contactPhone"`
	ContactName       *string                 `json:"contactName"`
	Notes             *string                 `json:"notes"`
	ShippingAddress   AddressView             `json:"shippingAddress"`
	ProductLines      []LineView              `json:"productLines"`
	CreatedAt         string                  `json:"createdAt"`
}

// OrderView is the full order document.
type OrderView struct {
	ID                uuid.UUID               `json:"_id"`
	ExternalOrderID   *string                 `json:"externalOrderId"`
	PaymentFlow       enums.PaymentFlow       `json:"paymentFlow"`
	PaymentProvider   enums.PaymentProvider   `json:"paymentProvider,omitempty"`
	PaymentStatus     enums.PaymentStatus     `json:"status"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillmentStatus"`
	CustomerClerkID   *string                 `json:"customerClerkId"`
	Contact           types.Contact           `json:"contact"`
	Products          []LineView              `json:"products"`
	ShippingAddress   types.ShippingAddress   `json:"shippingAddress"`
	ShippingMethod    enums.ShippingMethod    `json:"shippingMethod"`
	ShippingRate      string                  `json:"shippingRate"`
	ShippingAmount    float64                 `json:"shippingAmount"`
	TotalAmount       float64                 `json:"totalAmount"`
	Notes             *string                 `json:"notes"`
	Metadata          types.OrderMetadata     `json:"metadata"`
	TrackingNumber    *string                 `json:"trackingNumber"`
	Transporter       *string                 `json:"transporter"`
	WeightGrams       *int                    `json:"weightGrams"`
	DateMailed        *time.Time              `json:"dateMailed"`
	ProcessingAt      *time.Time              `json:"processingAt,omitempty"`
	ShippedAt         *time.Time              `json:"shippedAt,omitempty"`
	DeliveredAt       *time.Time              `json:"deliveredAt,omitempty"`
	CompletedAt       *time.Time              `json:"completedAt,omitempty"`
	CancelledAt       *time.Time              `json:"cancelledAt,omitempty"`
	CreatedAt         time.Time               `json:"createdAt"`
	UpdatedAt         time.Time               `json:"updatedAt"`
}

// CustomerView is the customer attached to an order detail.
type CustomerView struct {
	ID      uuid.UUID `json:"_id"`
	ClerkID *string   `json:"clerkId"`
	Email   string    `json:"email"`
	Name    string    `json:"name"`
}

// Detail pairs an order with its customer, if linked.
type Detail struct {
	Order    OrderView     `json:"orderDetails"`
	Customer *CustomerView `json:"customer"`
}

func newOrderView(o *models.Order) OrderView {
	return OrderView{
		ID:                o.ID,
		ExternalOrderID:   o.ExternalOrderID,
		PaymentFlow:       o.PaymentFlow,
		PaymentProvider:   o.PaymentProvider,
		PaymentStatus:     o.PaymentStatus,
		FulfillmentStatus: o.FulfillmentStatus,
		CustomerClerkID:   o.CustomerClerkID,
		Contact:           o.Contact,
		Products:          lineViews(o.Products),
		ShippingAddress:   o.ShippingAddress,
		ShippingMethod:    o.ShippingMethod,
		ShippingRate:      o.ShippingRate,
		ShippingAmount:    o.ShippingAmount.InexactFloat64(),
		TotalAmount:       o.TotalAmount.InexactFloat64(),
		Notes:             o.Notes,
		Metadata:          o.Metadata,
		TrackingNumber:    o.TrackingNumber,
		Transporter:       o.Transporter,
		WeightGrams:       o.WeightGrams,
		DateMailed:        o.DateMailed,
		ProcessingAt:      o.ProcessingAt,
		ShippedAt:         o.ShippedAt,
		DeliveredAt:       o.DeliveredAt,
		CompletedAt:       o.CompletedAt,
		CancelledAt:       o.CancelledAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func newCustomerView(c *models.Customer) *CustomerView {
	if c == nil {
		return nil
	}
	return &CustomerView{ID: c.ID, ClerkID: c.ClerkID, Email: c.Email, Name: c.Name}
}

func lineViews(lines types.OrderLines) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineView{
			ProductID:       l.ProductID,
			ProductLegacyID: l.LegacyProductID,
			Title:           l.Title,
			Color:           l.Color,
			Size:            l.Size,
			Quantity:        l.Quantity,
			UnitPrice:       l.UnitPrice.InexactFloat64(),
		})
	}
	return out
}

func addressView(a types.ShippingAddress) AddressView {
	return AddressView{
		FirstName:  optional(a.FirstName),
		LastName:   optional(a.LastName),
		Street:     optional(a.Street),
		City:       optional(a.City),
		State:      optional(a.State),
		PostalCode: optional(a.PostalCode),
		Country:    optional(a.Country),
		Phone:      optional(a.Phone),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
