package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/milosbg/mbg-admin-backend/internal/cart"
	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox/payloads"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const (
	ReasonMissingCartItems    = "MISSING_CART_ITEMS"
	ReasonMissingContactEmail = "MISSING_CONTACT_EMAIL"
	ReasonMissingShipping     = "MISSING_SHIPPING"
	ReasonEmptyOrderLines     = "EMPTY_ORDER_LINES"
	ReasonPersistenceFailed   = "ORDER_PERSISTENCE_FAILED"

	stepStock    = "stock_reservation"
	stepCustomer = "customer_link"
	stepOutbox   = "outbox_emit"
)

func validationError(reason, message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithReason(reason).
		WithDetails(map[string]any{"code": reason})
}

// StartManual persists a manual-payment order. Validation stops at the
// first failure. Stock, customer and outbox steps run after the order is
// stored and never fail the checkout.
func (s *Service) StartManual(ctx context.Context, req Request) (*Result, error) {
	result, err := s.startManual(ctx, req)
	if err != nil {
		s.metrics.Checkout(FlowManual, outcomeFor(err))
		return nil, err
	}
	s.metrics.Checkout(FlowManual, metrics.OutcomeSuccess)
	return result, nil
}

func (s *Service) startManual(ctx context.Context, req Request) (*Result, error) {
	lines := cart.NormalizeAndMerge(req.Payload)
	if len(lines) == 0 {
		return nil, validationError(ReasonMissingCartItems, "Cart is empty.")
	}
	contact, err := normalizeContact(req)
	if err != nil {
		return nil, err
	}
	shipping, err := normalizeShipping(req.ShippingAddress)
	if err != nil {
		return nil, err
	}
	orderLines := cart.OrderLines(lines)
	if len(orderLines) == 0 {
		return nil, validationError(ReasonEmptyOrderLines, "Unable to build order lines.")
	}

	option := pricing.ParseShippingOption(req.ShippingOption.String())
	totals, err := pricing.Compute(cart.PricingItems(lines), option)
	if err != nil {
		return nil, err
	}

	contact.Name = shipping.FullName()
	clerkID := req.Customer.ClerkID.String()
	order := &models.Order{
		PaymentFlow:       enums.PaymentFlowManual,
		PaymentStatus:     enums.PaymentFlowManual.InitialPaymentStatus(),
		FulfillmentStatus: enums.FulfillmentStatusPending,
		Contact:           contact,
		Products:          orderLines,
		ShippingAddress:   shipping,
		ShippingMethod:    option.Method,
		ShippingRate:      option.RateID,
		ShippingAmount:    totals.ShippingAmount,
		TotalAmount:       totals.Total,
		Metadata:          req.Metadata.toModel(),
	}
	if clerkID != "" {
		order.CustomerClerkID = &clerkID
	}
	if notes := req.Notes.String(); notes != "" {
		order.Notes = &notes
	}

	if _, err := s.orders.Create(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "Failed to create order.").
			WithReason(ReasonPersistenceFailed).
			WithDetails(map[string]any{"code": ReasonPersistenceFailed})
	}
	s.info(ctx, "checkout.manual.order_created", map[string]any{
		"order_id": order.ID.String(),
		"clerk_id": clerkID,
		"total":    pricing.Format(totals.Total),
		"lines":    len(orderLines),
	})

	if s.stock != nil {
		s.bestEffort(ctx, stepStock, order.ID, s.stock.Decrement(ctx, orderLines))
	}

	if s.customers != nil {
		name := req.Customer.Name.String()
		if name == "" {
			name = shipping.FullName()
		}
		email := req.Customer.Email.String()
		if email == "" {
			email = contact.Email
		}
		identity := customers.Identity{ClerkID: clerkID, Email: email, Name: name}
		s.bestEffort(ctx, stepCustomer, order.ID, s.customers.Link(ctx, identity, order.ID))
	}

	if s.events != nil {
		s.bestEffort(ctx, stepOutbox, order.ID, s.events.EmitOnce(ctx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Kind: outbox.ActorStorefront, ID: clerkID},
			Data: payloads.OrderPlacedEvent{
				OrderID:       order.ID,
				PaymentFlow:   order.PaymentFlow,
				PaymentStatus: order.PaymentStatus,
				ContactEmail:  contact.Email,
				ItemCount:     len(orderLines),
				TotalAmount:   pricing.Format(totals.Total),
				Currency:      pricing.Currency.String(),
			},
		}))
	}

	orderID := order.ID.String()
	message := fmt.Sprintf("ORDER %s CREATED. WE WILL REACH OUT WITH PAYMENT INSTRUCTIONS.", orderID)
	result := resultFor(totals, option)
	result.OrderID = orderID
	result.Reference = &orderID
	result.Message = &message
	return result, nil
}

func resultFor(totals pricing.Totals, option pricing.ShippingOption) *Result {
	return &Result{
		Currency:       pricing.Currency.String(),
		Total:          totals.Total.InexactFloat64(),
		ItemTotal:      totals.ItemSubtotal.InexactFloat64(),
		ShippingAmount: totals.ShippingAmount.InexactFloat64(),
		ShippingRate:   option.RateID,
	}
}

// normalizeContact prefers contact.email over customer.email.
func normalizeContact(req Request) (types.Contact, error) {
	email := req.Contact.Email.String()
	if email == "" {
		email = req.Customer.Email.String()
	}
	if email == "" {
		return types.Contact{}, validationError(ReasonMissingContactEmail, "Contact email is required.")
	}
	return types.Contact{Email: normalizeEmail(email), Phone: req.Contact.Phone.String()}, nil
}

var requiredShippingFields = []struct {
	reason  string
	message string
	value   func(*ShippingInput) Text
}{
	{"MISSING_SHIPPING_FIRST_NAME", "Shipping first name is required.", func(s *ShippingInput) Text { return s.FirstName }},
	{"MISSING_SHIPPING_LAST_NAME", "Shipping last name is required.", func(s *ShippingInput) Text { return s.LastName }},
	{"MISSING_SHIPPING_ADDRESS", "Shipping address is required.", func(s *ShippingInput) Text { return s.Address }},
	{"MISSING_SHIPPING_CITY", "Shipping city is required.", func(s *ShippingInput) Text { return s.City }},
	{"MISSING_SHIPPING_POSTAL_CODE", "Shipping postal code is required.", func(s *ShippingInput) Text { return s.PostalCode }},
	{"MISSING_SHIPPING_COUNTRY", "Shipping country is required.", func(s *ShippingInput) Text { return s.Country }},
}

func normalizeShipping(in *ShippingInput) (types.ShippingAddress, error) {
	if in == nil {
		return types.ShippingAddress{}, validationError(ReasonMissingShipping, "Shipping details are required.")
	}
	for _, field := range requiredShippingFields {
		if field.value(in) == "" {
			return types.ShippingAddress{}, validationError(field.reason, field.message)
		}
	}
	return types.ShippingAddress{
		FirstName:  in.FirstName.String(),
		LastName:   in.LastName.String(),
		Street:     in.Address.String(),
		City:       in.City.String(),
		State:      in.State.String(),
		PostalCode: in.PostalCode.String(),
		Country:    in.Country.String(),
		Phone:      in.Phone.String(),
	}, nil
}

func outcomeFor(err error) string {
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeFailure
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
