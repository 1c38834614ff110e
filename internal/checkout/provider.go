package checkout

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/milosbg/mbg-admin-backend/internal/cart"
	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
)

const (
	ReasonMissingCartOrCustomer = "MISSING_CART_OR_CUSTOMER"
	ReasonInvalidItem           = "INVALID_ITEM"
	ReasonMissingStoreURL       = "MISSING_STORE_URL"
	ReasonMissingApproveLink    = "MISSING_APPROVE_LINK"
	ReasonMissingRedirectURL    = "MISSING_REDIRECT_URL"

	successPath = "/payment_success"
	cancelPath  = "/the-hoop"
)

// stripeShippingCountries limits where the hosted Stripe page ships.
var stripeShippingCountries = []string{"FR", "BE", "DE", "ES", "IT", "LU", "NL", "PT", "CH"}

// lineDescriptor travels with provider items so capture can rebuild order lines.
type lineDescriptor struct {
	ProductID string `json:"productId"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type providerCart struct {
	lines   []cart.Line
	clerkID string
	option  pricing.ShippingOption
	totals  pricing.Totals
}

func (s *Service) prepareProviderCart(req Request) (*providerCart, error) {
	lines := cart.NormalizeAndMerge(req.Payload)
	clerkID := req.Customer.ClerkID.String()
	if len(lines) == 0 || clerkID == "" {
		return nil, validationError(ReasonMissingCartOrCustomer, "Not Enough Data To Checkout")
	}
	option := pricing.ParseShippingOption(req.ShippingOption.String())
	totals, err := pricing.Compute(cart.PricingItems(lines), option)
	if err != nil {
		return nil, err
	}
	return &providerCart{lines: lines, clerkID: clerkID, option: option, totals: totals}, nil
}

func (s *Service) storeURL() (string, error) {
	store := strings.TrimRight(strings.TrimSpace(s.storefront.StoreURL), "/")
	if store == "" {
		return "", pkgerrors.New(pkgerrors.CodeInternal, "Missing storefront URL configuration").
			WithReason(ReasonMissingStoreURL)
	}
	return store, nil
}

// StartPayPal creates a PayPal order and returns its approval link. The
// order row is written when the payment is captured.
func (s *Service) StartPayPal(ctx context.Context, req Request) (*Result, error) {
	result, err := s.startPayPal(ctx, req)
	if err != nil {
		s.metrics.Checkout(FlowPayPal, outcomeFor(err))
		return nil, err
	}
	s.metrics.Checkout(FlowPayPal, metrics.OutcomePending)
	return result, nil
}

func (s *Service) startPayPal(ctx context.Context, req Request) (*Result, error) {
	pc, err := s.prepareProviderCart(req)
	if err != nil {
		return nil, err
	}
	if s.paypal == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paypal is not configured")
	}
	store, err := s.storeURL()
	if err != nil {
		return nil, err
	}

	customID, err := json.Marshal(map[string]string{"shippingRate": pc.option.RateID})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode custom id")
	}
	items := make([]paypal.Item, 0, len(pc.lines))
	for _, line := range pc.lines {
		description, err := json.Marshal(lineDescriptor{ProductID: line.ProductID, Size: line.Size, Color: line.Color})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode item description")
		}
		items = append(items, paypal.Item{
			Name:        line.Title,
			UnitAmount:  eur(line.Price),
			Quantity:    strconv.Itoa(line.Quantity),
			SKU:         line.ProductID,
			Description: string(description),
		})
	}

	total := eur(pc.totals.Total)
	itemTotal := eur(pc.totals.ItemSubtotal)
	shipping := eur(pc.totals.ShippingAmount)
	order, err := s.paypal.CreateOrder(ctx, paypal.CreateOrderRequest{
		Intent: "CAPTURE",
		PurchaseUnits: []paypal.PurchaseUnit{{
			ReferenceID: pc.clerkID,
			CustomID:    string(customID),
			Amount: paypal.Amount{
				CurrencyCode: total.CurrencyCode,
				Value:        total.Value,
				Breakdown:    &paypal.Breakdown{ItemTotal: &itemTotal, Shipping: &shipping},
			},
			Items:    items,
			Shipping: &paypal.Shipping{Method: pc.option.Label},
		}},
		ApplicationContext: &paypal.ApplicationContext{
			BrandName:          s.storefront.BrandName,
			LandingPage:        "NO_PREFERENCE",
			UserAction:         "PAY_NOW",
			ShippingPreference: "GET_FROM_FILE",
			ReturnURL:          store + successPath,
			CancelURL:          store + cancelPath,
		},
	})
	if err != nil {
		return nil, err
	}
	approve := order.ApproveURL()
	if approve == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "No approve link from PayPal").
			WithReason(ReasonMissingApproveLink)
	}
	s.info(ctx, "checkout.paypal.order_created", map[string]any{
		"paypal_order_id": order.ID,
		"clerk_id":        pc.clerkID,
		"total":           total.Value,
	})

	result := resultFor(pc.totals, pc.option)
	result.ApproveURL = &approve
	result.OrderID = order.ID
	return result, nil
}

// StartStripe creates a hosted Stripe Checkout Session. Amounts are sent in
// cents and the shipping charge becomes its own line item.
func (s *Service) StartStripe(ctx context.Context, req Request) (*Result, error) {
	result, err := s.startStripe(ctx, req)
	if err != nil {
		s.metrics.Checkout(FlowStripe, outcomeFor(err))
		return nil, err
	}
	s.metrics.Checkout(FlowStripe, metrics.OutcomePending)
	return result, nil
}

func (s *Service) startStripe(ctx context.Context, req Request) (*Result, error) {
	pc, err := s.prepareProviderCart(req)
	if err != nil {
		return nil, err
	}

	currency := strings.ToLower(pricing.Currency.String())
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(pc.lines)+1)
	for _, line := range pc.lines {
		amount := pricing.ToMinorUnits(line.Price)
		if amount <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "INVALID_ITEM_AMOUNT").
				WithReason(ReasonInvalidItem).
				WithDetails(map[string]any{"code": ReasonInvalidItem, "item": line})
		}
		metadata := map[string]string{}
		if line.ProductID != "" {
			metadata["productId"] = line.ProductID
		}
		if line.Size != "" {
			metadata["size"] = line.Size
		}
		if line.Color != "" {
			metadata["color"] = line.Color
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(amount),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(line.Title),
					Metadata: metadata,
				},
			},
			Quantity: stripe.Int64(int64(line.Quantity)),
		})
	}
	if shipping := pricing.ToMinorUnits(pc.option.Amount); shipping > 0 {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(currency),
				UnitAmount: stripe.Int64(shipping),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:     stripe.String(pc.option.Label),
					Metadata: map[string]string{"isShipping": "true", "shippingRate": pc.option.RateID},
				},
			},
			Quantity: stripe.Int64(1),
		})
	}

	store, err := s.storeURL()
	if err != nil {
		return nil, err
	}
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe is not configured")
	}

	params := &stripe.CheckoutSessionParams{
		Mode:                     stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:               stripe.String(store + successPath + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:                stripe.String(store + cancelPath),
		LineItems:                lineItems,
		ClientReferenceID:        stripe.String(pc.clerkID),
		BillingAddressCollection: stripe.String(string(stripe.CheckoutSessionBillingAddressCollectionRequired)),
		ShippingAddressCollection: &stripe.CheckoutSessionShippingAddressCollectionParams{
			AllowedCountries: stripe.StringSlice(stripeShippingCountries),
		},
		PhoneNumberCollection: &stripe.CheckoutSessionPhoneNumberCollectionParams{Enabled: stripe.Bool(true)},
		AutomaticTax:          &stripe.CheckoutSessionAutomaticTaxParams{Enabled: stripe.Bool(false)},
		AllowPromotionCodes:   stripe.Bool(true),
	}
	params.AddMetadata("shippingRate", pc.option.RateID)
	params.AddMetadata("clerkId", pc.clerkID)

	session, err := s.stripe.CreateCheckoutSession(ctx, params)
	if err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "Stripe session missing redirect URL").
			WithReason(ReasonMissingRedirectURL)
	}
	s.info(ctx, "checkout.stripe.session_created", map[string]any{
		"session_id": session.ID,
		"clerk_id":   pc.clerkID,
		"total":      pricing.Format(pc.totals.Total),
	})

	approve := session.URL
	result := resultFor(pc.totals, pc.option)
	result.ApproveURL = &approve
	result.OrderID = session.ID
	return result, nil
}

func eur(amount decimal.Decimal) paypal.Money {
	return paypal.Money{CurrencyCode: pricing.Currency.String(), Value: pricing.Format(amount)}
}
