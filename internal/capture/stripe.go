package capture

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

type stripeSessions interface {
	GetCheckoutSession(ctx context.Context, id string) (*stripe.CheckoutSession, error)
}

// StripeGateway reads hosted Checkout Sessions. Stripe captures card payments
// itself, so Capture never reports success and Fetch decides.
type StripeGateway struct {
	client stripeSessions
}

func NewStripeGateway(client stripeSessions) *StripeGateway {
	return &StripeGateway{client: client}
}

func (g *StripeGateway) Provider() enums.PaymentProvider { return enums.PaymentProviderStripe }

func (g *StripeGateway) Capture(context.Context, string) (bool, error) {
	return false, nil
}

func (g *StripeGateway) Fetch(ctx context.Context, externalID string) (*ProviderOrder, error) {
	session, err := g.client.GetCheckoutSession(ctx, externalID)
	if err != nil {
		return nil, err
	}
	return mapStripeSession(session, externalID), nil
}

func mapStripeSession(session *stripe.CheckoutSession, fallbackID string) *ProviderOrder {
	paid := session.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid
	out := &ProviderOrder{
		ExternalID:   session.ID,
		Status:       strings.ToUpper(string(session.PaymentStatus)),
		Completed:    paid,
		ClerkID:      strings.TrimSpace(session.ClientReferenceID),
		ShippingRate: shippingRateOrDefault(session.Metadata["shippingRate"]),
		Total:        decimal.New(session.AmountTotal, -2),
	}
	if paid {
		out.Status = string(enums.PaymentStatusCompleted)
	}
	if out.ExternalID == "" {
		out.ExternalID = fallbackID
	}
	if out.ClerkID == "" {
		out.ClerkID = strings.TrimSpace(session.Metadata["clerkId"])
	}

	if details := session.CustomerDetails; details != nil {
		out.PayerEmail = strings.ToLower(strings.TrimSpace(details.Email))
		out.PayerName = strings.TrimSpace(details.Name)
		out.PayerPhone = strings.TrimSpace(details.Phone)
	}
	if info := session.CollectedInformation; info != nil && info.ShippingDetails != nil {
		out.Shipping = stripeAddress(info.ShippingDetails.Name, info.ShippingDetails.Address)
	} else if details := session.CustomerDetails; details != nil {
		out.Shipping = stripeAddress(details.Name, details.Address)
	}
	out.Shipping.Phone = out.PayerPhone

	if session.LineItems == nil {
		return out
	}
	out.Lines = make(types.OrderLines, 0, len(session.LineItems.Data))
	for _, item := range session.LineItems.Data {
		if item == nil || item.Price == nil {
			continue
		}
		var metadata map[string]string
		title := item.Description
		if product := item.Price.Product; product != nil {
			metadata = product.Metadata
			if title == "" {
				title = product.Name
			}
		}
		if metadata["isShipping"] == "true" {
			continue
		}
		unit := decimal.New(item.Price.UnitAmount, -2)
		out.Lines = append(out.Lines, orderLine(metadata["productId"], title, metadata["color"], metadata["size"], int(item.Quantity), unit))
	}
	return out
}

func stripeAddress(name string, addr *stripe.Address) types.ShippingAddress {
	first, last := splitName(name)
	out := types.ShippingAddress{FirstName: first, LastName: last}
	if addr == nil {
		return out
	}
	out.Street = strings.TrimSpace(strings.Join(nonEmpty(addr.Line1, addr.Line2), ", "))
	out.City = addr.City
	out.State = addr.State
	out.PostalCode = addr.PostalCode
	out.Country = addr.Country
	return out
}
