package orders

import (
	"strings"
	"time"

	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const unknownCustomer = "Unknown"

// CollapseLines merges duplicate lines (same product, size and color),
// keeping the largest quantity. Lines with no quantity are dropped.
func CollapseLines(lines types.OrderLines) types.OrderLines {
	out := make(types.OrderLines, 0, len(lines))
	index := map[string]int{}
	for _, line := range lines {
		if line.Quantity <= 0 {
			continue
		}
		key := collapseKey(line)
		if i, ok := index[key]; ok {
			if line.Quantity > out[i].Quantity {
				out[i].Quantity = line.Quantity
			}
			continue
		}
		index[key] = len(out)
		out = append(out, line)
	}
	return out
}

func collapseKey(line types.OrderLine) string {
	ref := line.ProductRef()
	if ref == "" {
		ref = line.Title
	}
	return strings.Join([]string{
		normalizePart(ref),
		normalizePart(line.Size),
		normalizePart(line.Color),
	}, "|")
}

func normalizePart(v string) string {
	return strings.ToLower(strings.TrimSpace(v))
}

// customerLabel picks the best display name for the order's buyer.
func customerLabel(order *models.Order, customer *models.Customer) string {
	var name, email string
	if customer != nil {
		name = strings.TrimSpace(customer.Name)
		email = strings.ToLower(strings.TrimSpace(customer.Email))
	}
	clerkID := ""
	if order.CustomerClerkID != nil {
		clerkID = *order.CustomerClerkID
	}
	for _, candidate := range []string{
		name,
		email,
		strings.TrimSpace(order.Contact.Name),
		strings.ToLower(strings.TrimSpace(order.Contact.Email)),
		order.ShippingAddress.FullName(),
		clerkID,
	} {
		if candidate != "" {
			return candidate
		}
	}
	return unknownCustomer
}

// project builds the list row. Totals are recomputed from the collapsed
// lines so historical rows with duplicated lines render consistently.
func project(order *models.Order, customer *models.Customer) ListItem {
	lines := CollapseLines(order.Products)
	items := make([]pricing.Item, 0, len(lines))
	for _, l := range lines {
		items = append(items, pricing.Item{UnitPrice: l.UnitPrice, Quantity: l.Quantity})
	}
	subtotal := pricing.Subtotal(items)
	total := pricing.Round(subtotal.Add(order.ShippingAmount))

	method := order.ShippingMethod
	if !method.IsValid() {
		method = pricing.InferMethod(order.ShippingRate)
	}

	var dateMailed *string
	if order.DateMailed != nil && !order.DateMailed.IsZero() {
		formatted := order.DateMailed.UTC().Format(time.RFC3339)
		dateMailed = &formatted
	}

	createdAt := ""
	if !order.CreatedAt.IsZero() {
		createdAt = order.CreatedAt.UTC().Format(listDateLayout)
	}

	return ListItem{
		ID:                order.ID.String(),
		Customer:          customerLabel(order, customer),
		Products:          len(lines),
		SubtotalAmount:    subtotal.InexactFloat64(),
		TotalAmount:       total.InexactFloat64(),
		PaymentFlow:       order.PaymentFlow,
		PaymentStatus:     order.PaymentStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		ShippingMethod:    method,
		ShippingRate:      optional(order.ShippingRate),
		ShippingAmount:    order.ShippingAmount.InexactFloat64(),
		TrackingNumber:    order.TrackingNumber,
		Transporter:       order.Transporter,
		WeightGrams:       order.WeightGrams,
		DateMailed:        dateMailed,
		ContactEmail:      optional(order.Contact.Email),
		ContactPhone:      optional(order.Contact.Phone),
		ContactName:       optional(order.Contact.Name),
		Notes:             order.Notes,
		ShippingAddress:   addressView(order.ShippingAddress),
		ProductLines:      lineViews(lines),
		CreatedAt:         createdAt,
	}
}
