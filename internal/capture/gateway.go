// Package capture confirms provider payments and turns them into orders.
// The storefront capture call and the provider webhooks share one path keyed
// by the provider's order id, so replays converge on the same row.
package capture

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

// Gateway is one payment provider as seen by the capture flow.
type Gateway interface {
	Provider() enums.PaymentProvider
	// Capture asks the provider to settle the order. It reports true when the
	// provider confirms the money moved, including an earlier capture.
	Capture(ctx context.Context, externalID string) (bool, error)
	// Fetch returns the provider's authoritative view of the order.
	Fetch(ctx context.Context, externalID string) (*ProviderOrder, error)
}

// ProviderOrder is a provider order mapped onto local vocabulary.
type ProviderOrder struct {
	ExternalID   string
	Status       string
	Completed    bool
	ClerkID      string
	ShippingRate string
	Shipping     types.ShippingAddress
	Lines        types.OrderLines
	Total        decimal.Decimal
	PayerEmail   string
	PayerName    string
	PayerPhone   string
}

// lineDescriptor is the JSON attached to provider items at checkout.
type lineDescriptor struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Size      string `json:"size"`
}

func parseDescriptor(raw string) lineDescriptor {
	var d lineDescriptor
	_ = json.Unmarshal([]byte(raw), &d)
	return d
}

// orderLine builds a persisted line. Catalog ids become ProductID; any other
// reference is kept as a legacy id.
func orderLine(productRef, title, color, size string, qty int, unit decimal.Decimal) types.OrderLine {
	if qty <= 0 {
		qty = 1
	}
	line := types.OrderLine{
		Color:     attribute(color),
		Size:      attribute(size),
		Quantity:  qty,
		UnitPrice: pricing.Round(unit),
		Title:     strings.TrimSpace(title),
	}
	ref := strings.TrimSpace(productRef)
	if id, err := uuid.Parse(ref); err == nil {
		line.ProductID = &id
	} else {
		line.LegacyProductID = ref
	}
	return line
}

func attribute(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, "n/a") {
		return ""
	}
	return v
}

func shippingRateOrDefault(rate string) string {
	if rate = strings.TrimSpace(rate); rate != "" {
		return rate
	}
	return pricing.RateFreeDelivery
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return parts[0], ""
	default:
		return parts[0], strings.Join(parts[1:], " ")
	}
}
