// Package checkout starts orders from storefront carts: the manual flow
// persists an order immediately, the provider flows hand the buyer to
// PayPal or Stripe and persist on capture.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"

	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/internal/orders"
	"github.com/milosbg/mbg-admin-backend/pkg/config"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const (
	FlowManual = "manual"
	FlowPayPal = "paypal"
	FlowStripe = "stripe"
)

type stockReserver interface {
	Decrement(ctx context.Context, lines types.OrderLines) error
}

type customerLinker interface {
	Link(ctx context.Context, identity customers.Identity, orderID uuid.UUID) error
}

type eventEmitter interface {
	EmitOnce(ctx context.Context, event outbox.DomainEvent) error
}

type paypalOrders interface {
	CreateOrder(ctx context.Context, req paypal.CreateOrderRequest) (*paypal.Order, error)
}

type stripeSessions interface {
	CreateCheckoutSession(ctx context.Context, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type ServiceParams struct {
	Orders     orders.Repository
	Stock      stockReserver
	Customers  customerLinker
	Events     eventEmitter
	PayPal     paypalOrders
	Stripe     stripeSessions
	Storefront config.StorefrontConfig
	Metrics    *metrics.Pipeline
	Logger     *logger.Logger
}

type Service struct {
	orders     orders.Repository
	stock      stockReserver
	customers  customerLinker
	events     eventEmitter
	paypal     paypalOrders
	stripe     stripeSessions
	storefront config.StorefrontConfig
	metrics    *metrics.Pipeline
	logg       *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	return &Service{
		orders:     params.Orders,
		stock:      params.Stock,
		customers:  params.Customers,
		events:     params.Events,
		paypal:     params.PayPal,
		stripe:     params.Stripe,
		storefront: params.Storefront,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// bestEffort logs and counts a failed side effect. The caller carries on.
func (s *Service) bestEffort(ctx context.Context, step string, orderID uuid.UUID, err error) {
	if err == nil {
		return
	}
	s.metrics.BestEffortFailure(step)
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithStep(s.logg.WithOrderID(ctx, orderID.String()), step)
	s.logg.WarnErr(ctx, fmt.Sprintf("checkout %s failed", step), err)
}

func (s *Service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, fields), msg)
	}
}
