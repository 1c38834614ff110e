package capture

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

type paypalOrders interface {
	CaptureOrder(ctx context.Context, orderID string) (*paypal.Order, error)
	GetOrder(ctx context.Context, orderID string) (*paypal.Order, error)
}

// PayPalGateway captures and reads PayPal checkout orders.
type PayPalGateway struct {
	client paypalOrders
}

func NewPayPalGateway(client paypalOrders) *PayPalGateway {
	return &PayPalGateway{client: client}
}

func (g *PayPalGateway) Provider() enums.PaymentProvider { return enums.PaymentProviderPayPal }

func (g *PayPalGateway) Capture(ctx context.Context, externalID string) (bool, error) {
	order, err := g.client.CaptureOrder(ctx, externalID)
	if errors.Is(err, paypal.ErrAlreadyCaptured) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return order != nil, nil
}

func (g *PayPalGateway) Fetch(ctx context.Context, externalID string) (*ProviderOrder, error) {
	order, err := g.client.GetOrder(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return mapPayPalOrder(order, externalID), nil
}

func mapPayPalOrder(order *paypal.Order, fallbackID string) *ProviderOrder {
	out := &ProviderOrder{
		ExternalID:   order.ID,
		Status:       order.Status,
		Completed:    order.Status == paypal.StatusCompleted || order.HasCompletedCapture(),
		ShippingRate: shippingRateOrDefault(""),
	}
	if out.ExternalID == "" {
		out.ExternalID = fallbackID
	}
	if order.Payer != nil {
		out.PayerEmail = strings.ToLower(strings.TrimSpace(order.Payer.EmailAddress))
		if order.Payer.Name != nil {
			out.PayerName = strings.TrimSpace(strings.Join(nonEmpty(order.Payer.Name.GivenName, order.Payer.Name.Surname), " "))
		}
	}
	if len(order.PurchaseUnits) == 0 {
		return out
	}

	unit := order.PurchaseUnits[0]
	out.ClerkID = strings.TrimSpace(unit.ReferenceID)
	var custom struct {
		ShippingRate string `json:"shippingRate"`
	}
	if json.Unmarshal([]byte(unit.CustomID), &custom) == nil {
		out.ShippingRate = shippingRateOrDefault(custom.ShippingRate)
	}
	out.Total, _ = decimal.NewFromString(unit.Amount.Value)

	if unit.Shipping != nil {
		if unit.Shipping.Address != nil {
			addr := unit.Shipping.Address
			out.Shipping = types.ShippingAddress{
				Street:     addr.AddressLine1,
				City:       addr.AdminArea2,
				State:      addr.AdminArea1,
				PostalCode: addr.PostalCode,
				Country:    addr.CountryCode,
			}
		}
		if unit.Shipping.Name != nil {
			out.Shipping.FirstName, out.Shipping.LastName = splitName(unit.Shipping.Name.FullName)
		}
	}

	out.Lines = make(types.OrderLines, 0, len(unit.Items))
	for _, item := range unit.Items {
		desc := parseDescriptor(item.Description)
		ref := desc.ProductID
		if ref == "" {
			ref = item.SKU
		}
		qty, _ := strconv.Atoi(strings.TrimSpace(item.Quantity))
		price, _ := decimal.NewFromString(item.UnitAmount.Value)
		out.Lines = append(out.Lines, orderLine(ref, item.Name, desc.Color, desc.Size, qty, price))
	}
	return out
}

func nonEmpty(values ...string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
