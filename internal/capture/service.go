package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/internal/pricing"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox/payloads"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const (
	ReasonMissingOrderID      = "MISSING_ORDER_ID"
	ReasonCaptureNotCompleted = "CAPTURE_NOT_COMPLETED"
	ReasonUnsupportedProvider = "UNSUPPORTED_PROVIDER"
	ReasonProviderFetchFailed = "PROVIDER_FETCH_FAILED"
	ReasonOrderPersistFailed  = "ORDER_PERSISTENCE_FAILED"

	defaultFetchTimeout = 20 * time.Second

	stepStock    = "stock_reservation"
	stepCustomer = "customer_link"
	stepOutbox   = "outbox_emit"
)

type orderWriter interface {
	UpsertCaptured(ctx context.Context, order *models.Order) (*models.Order, error)
}

type stockReserver interface {
	Decrement(ctx context.Context, lines types.OrderLines) error
}

type customerLinker interface {
	Link(ctx context.Context, identity customers.Identity, orderID uuid.UUID) error
}

type eventEmitter interface {
	EmitOnce(ctx context.Context, event outbox.DomainEvent) error
}

type ServiceParams struct {
	Orders       orderWriter
	Stock        stockReserver
	Customers    customerLinker
	Events       eventEmitter
	Gateways     []Gateway
	FetchTimeout time.Duration
	Metrics      *metrics.Pipeline
	Logger       *logger.Logger
}

type Service struct {
	orders       orderWriter
	stock        stockReserver
	customers    customerLinker
	events       eventEmitter
	gateways     map[enums.PaymentProvider]Gateway
	fetchTimeout time.Duration
	metrics      *metrics.Pipeline
	logg         *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, errors.New("orders repository required")
	}
	gateways := make(map[enums.PaymentProvider]Gateway, len(params.Gateways))
	for _, g := range params.Gateways {
		if g != nil {
			gateways[g.Provider()] = g
		}
	}
	timeout := params.FetchTimeout
	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	return &Service{
		orders:       params.Orders,
		stock:        params.Stock,
		customers:    params.Customers,
		events:       params.Events,
		gateways:     gateways,
		fetchTimeout: timeout,
		metrics:      params.Metrics,
		logg:         params.Logger,
	}, nil
}

// Result is the capture response body. MongoOrderID keeps the field name
// storefront clients read; it carries the internal order id.
type Result struct {
	OK            bool   `json:"ok"`
	Status        string `json:"status"`
	PayPalOrderID string `json:"paypalOrderId"`
	MongoOrderID  string `json:"mongoOrderId"`
}

// Capture settles the provider order, then records it.
func (s *Service) Capture(ctx context.Context, provider enums.PaymentProvider, externalID string) (*Result, error) {
	return s.run(ctx, provider, externalID, true)
}

// Reconcile records a provider order without asking the provider to
// capture. Webhooks use it once the provider reports the payment.
func (s *Service) Reconcile(ctx context.Context, provider enums.PaymentProvider, externalID string) (*Result, error) {
	return s.run(ctx, provider, externalID, false)
}

func (s *Service) run(ctx context.Context, provider enums.PaymentProvider, externalID string, capture bool) (*Result, error) {
	result, err := s.process(ctx, provider, externalID, capture)
	switch {
	case err == nil:
		s.metrics.Capture(provider.String(), metrics.OutcomeSuccess)
	case pkgerrors.IsCode(err, pkgerrors.CodeValidation):
		s.metrics.Capture(provider.String(), metrics.OutcomeRejected)
	case pkgerrors.IsCode(err, pkgerrors.CodeConflict):
		s.metrics.Capture(provider.String(), metrics.OutcomePending)
	default:
		s.metrics.Capture(provider.String(), metrics.OutcomeFailure)
	}
	return result, err
}

func (s *Service) process(ctx context.Context, provider enums.PaymentProvider, externalID string, capture bool) (*Result, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required").
			WithReason(ReasonMissingOrderID)
	}
	gateway, ok := s.gateways[provider]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("%s is not configured", provider)).
			WithReason(ReasonUnsupportedProvider)
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"provider": provider.String(), "external_order_id": externalID})
	}

	captureOK := false
	var captureErr error
	if capture {
		captureOK, captureErr = gateway.Capture(ctx, externalID)
		if captureErr != nil && s.logg != nil {
			s.logg.WarnErr(ctx, "capture.provider_capture_failed", captureErr)
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	providerOrder, err := gateway.Fetch(fetchCtx, externalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Failed to fetch provider order").
			WithReason(ReasonProviderFetchFailed)
	}

	if !captureOK && !providerOrder.Completed {
		fields := map[string]any{"status": providerOrder.Status, "capture": nil}
		if captureErr != nil {
			fields["capture"] = captureErr.Error()
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "Payment capture is not completed").
			WithReason(ReasonCaptureNotCompleted).
			WithFields(fields)
	}

	order := s.buildOrder(provider, providerOrder)
	stored, err := s.orders.UpsertCaptured(ctx, order)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "Failed to record order").
			WithReason(ReasonOrderPersistFailed)
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, stored.ID.String())
		s.logg.Info(ctx, "capture.order_recorded")
	}

	s.afterCapture(ctx, provider, providerOrder, stored)

	return &Result{
		OK:            true,
		Status:        providerOrder.Status,
		PayPalOrderID: providerOrder.ExternalID,
		MongoOrderID:  stored.ID.String(),
	}, nil
}

func (s *Service) buildOrder(provider enums.PaymentProvider, po *ProviderOrder) *models.Order {
	status := enums.ProviderPaymentStatus(po.Status)
	if po.Completed {
		status = enums.PaymentStatusCompleted
	}
	externalID := po.ExternalID
	option := pricing.OptionFor(pricing.InferMethod(po.ShippingRate))
	order := &models.Order{
		ExternalOrderID: &externalID,
		PaymentFlow:     enums.PaymentFlowProvider,
		PaymentProvider: provider,
		PaymentStatus:   status,
		Contact:         types.Contact{Email: po.PayerEmail, Phone: po.PayerPhone, Name: po.PayerName},
		Products:        po.Lines,
		ShippingAddress: po.Shipping,
		ShippingMethod:  option.Method,
		ShippingRate:    po.ShippingRate,
		ShippingAmount:  option.Amount,
		TotalAmount:     pricing.Round(po.Total),
	}
	if order.Products == nil {
		order.Products = types.OrderLines{}
	}
	if po.ClerkID != "" {
		clerkID := po.ClerkID
		order.CustomerClerkID = &clerkID
	}
	return order
}

// afterCapture runs the side effects of a recorded payment. None of them can
// fail the capture.
func (s *Service) afterCapture(ctx context.Context, provider enums.PaymentProvider, po *ProviderOrder, order *models.Order) {
	if s.stock != nil {
		s.bestEffort(ctx, stepStock, s.stock.Decrement(ctx, po.Lines))
	}
	if s.customers != nil {
		identity := customers.Identity{ClerkID: po.ClerkID, Email: po.PayerEmail, Name: po.PayerName}
		s.bestEffort(ctx, stepCustomer, s.customers.Link(ctx, identity, order.ID))
	}
	if s.events != nil {
		s.bestEffort(ctx, stepOutbox, s.events.EmitOnce(ctx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         &outbox.ActorRef{Kind: outbox.ActorProvider, ID: provider.String()},
			Data: payloads.OrderPaidEvent{
				OrderID:         order.ID,
				PaymentProvider: provider,
				PaymentStatus:   order.PaymentStatus,
				ExternalOrderID: po.ExternalID,
				CustomerClerkID: po.ClerkID,
				TotalAmount:     pricing.Format(order.TotalAmount),
				Currency:        pricing.Currency.String(),
			},
		}))
	}
}

func (s *Service) bestEffort(ctx context.Context, step string, err error) {
	if err == nil {
		return
	}
	s.metrics.BestEffortFailure(step)
	if s.logg != nil {
		s.logg.WarnErr(s.logg.WithStep(ctx, step), fmt.Sprintf("capture %s failed", step), err)
	}
}
