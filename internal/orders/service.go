package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgdb "github.com/milosbg/mbg-admin-backend/pkg/db"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox/payloads"
)

const transitionAttempts = 3

var errTransitionRaced = errors.New("fulfillment status changed concurrently")

// Service owns staff-facing order reads and edits.
type Service struct {
	repo      Repository
	customers CustomerLookup
	tx        txRunner
	events    EventEmitter
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams groups the collaborators of Service.
type ServiceParams struct {
	Repo      Repository
	Customers CustomerLookup
	Tx        txRunner
	Events    EventEmitter
	Logger    *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("orders repository required")
	}
	if params.Tx == nil {
		return nil, errors.New("transaction runner required")
	}
	return &Service{
		repo:      params.Repo,
		customers: params.Customers,
		tx:        params.Tx,
		events:    params.Events,
		logg:      params.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// List returns the staff list projection, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]ListItem, error) {
	rows, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list orders")
	}
	byClerk, byEmail := s.customersFor(ctx, rows)

	items := make([]ListItem, 0, len(rows))
	for i := range rows {
		order := &rows[i]
		var customer *models.Customer
		if order.CustomerClerkID != nil {
			customer = byClerk[*order.CustomerClerkID]
		}
		if customer == nil {
			customer = byEmail[normalizeEmail(order.Contact.Email)]
		}
		items = append(items, project(order, customer))
	}
	return items, nil
}

// customersFor batch-loads the customers referenced by rows. Lookup errors
// degrade the labels instead of failing the list.
func (s *Service) customersFor(ctx context.Context, rows []models.Order) (map[string]*models.Customer, map[string]*models.Customer) {
	if s.customers == nil || len(rows) == 0 {
		return nil, nil
	}
	clerkIDs := make([]string, 0, len(rows))
	emails := make([]string, 0, len(rows))
	for _, order := range rows {
		if order.CustomerClerkID != nil && *order.CustomerClerkID != "" {
			clerkIDs = append(clerkIDs, *order.CustomerClerkID)
			continue
		}
		if email := normalizeEmail(order.Contact.Email); email != "" {
			emails = append(emails, email)
		}
	}

	byClerk, err := s.customers.FindByClerkIDs(ctx, clerkIDs)
	if err != nil {
		s.warn(ctx, "orders.list.customers_by_clerk_failed", err)
	}
	byEmail, err := s.customers.FindGuestsByEmails(ctx, emails)
	if err != nil {
		s.warn(ctx, "orders.list.customers_by_email_failed", err)
	}
	return byClerk, byEmail
}

// Get loads a single order.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*OrderView, error) {
	order, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	view := newOrderView(order)
	return &view, nil
}

// Detail loads an order together with its linked customer. ref is the
// internal id or, failing that, the provider order id.
func (s *Service) Detail(ctx context.Context, ref string) (*Detail, error) {
	order, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &Detail{
		Order:    newOrderView(order),
		Customer: newCustomerView(s.customerFor(ctx, order)),
	}, nil
}

func (s *Service) customerFor(ctx context.Context, order *models.Order) *models.Customer {
	if s.customers == nil {
		return nil
	}
	if order.CustomerClerkID != nil && *order.CustomerClerkID != "" {
		customer, err := s.customers.FindByClerkID(ctx, *order.CustomerClerkID)
		if err == nil {
			return customer
		}
		if !pkgdb.IsNotFound(err) {
			s.warn(ctx, "orders.detail.customer_lookup_failed", err)
		}
	}
	email := normalizeEmail(order.Contact.Email)
	if email == "" {
		return nil
	}
	customer, err := s.customers.FindGuestByEmail(ctx, email)
	if err != nil {
		if !pkgdb.IsNotFound(err) {
			s.warn(ctx, "orders.detail.customer_lookup_failed", err)
		}
		return nil
	}
	return customer
}

// ListForCustomer returns the orders placed under a clerk id.
func (s *Service) ListForCustomer(ctx context.Context, clerkID string) ([]OrderView, error) {
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "clerk id required").WithReason("MISSING_CLERK_ID")
	}
	rows, err := s.repo.ListByClerkID(ctx, clerkID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list customer orders")
	}
	out := make([]OrderView, 0, len(rows))
	for i := range rows {
		out = append(out, newOrderView(&rows[i]))
	}
	return out, nil
}

// UpdateFulfillment applies a staff transition. Re-applying the current
// status is a no-op. A concurrent edit is retried against the fresh row so
// the transition table is checked against what is actually stored.
func (s *Service) UpdateFulfillment(ctx context.Context, id uuid.UUID, raw string) (enums.FulfillmentStatus, error) {
	next, err := enums.ParseFulfillmentStatus(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid fulfillment status").WithReason("INVALID_STATUS")
	}
	if s.logg != nil {
		ctx = s.logg.WithOrderID(ctx, id.String())
	}

	for attempt := 0; attempt < transitionAttempts; attempt++ {
		order, err := s.load(ctx, id)
		if err != nil {
			return "", err
		}
		current := order.FulfillmentStatus
		if current == next {
			return current, nil
		}
		if !current.CanTransition(next) {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "illegal fulfillment transition").
				WithReason("ILLEGAL_TRANSITION").
				WithDetails(map[string]any{"from": current, "to": next})
		}

		err = s.transition(ctx, id, current, next)
		if errors.Is(err, errTransitionRaced) {
			continue
		}
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update fulfillment status")
		}
		s.info(ctx, "orders.fulfillment.updated", map[string]any{"from": current, "to": next})
		return next, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeConflict, "order changed while updating").WithReason("CONCURRENT_UPDATE")
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, from, to enums.FulfillmentStatus) error {
	at := s.now()
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := s.repo.WithTx(tx).TransitionFulfillment(ctx, id, from, to, at)
		if err != nil {
			return err
		}
		if !ok {
			return errTransitionRaced
		}
		if s.events == nil {
			return nil
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderFulfillmentChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   id,
			Actor:         &outbox.ActorRef{Kind: outbox.ActorStaff},
			OccurredAt:    at,
			Data: payloads.OrderFulfillmentChangedEvent{
				OrderID:   id,
				From:      from,
				To:        to,
				ChangedAt: at,
			},
		})
	})
}

// UpdatePayment sets the payment status of a manual order. Provider orders
// are driven by their provider and reject staff edits.
func (s *Service) UpdatePayment(ctx context.Context, id uuid.UUID, raw string) (enums.PaymentStatus, error) {
	status, err := enums.PaymentStatusFor(enums.PaymentFlowManual, raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status").WithReason("INVALID_STATUS")
	}
	order, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}
	if order.PaymentFlow != enums.PaymentFlowManual {
		return "", pkgerrors.New(pkgerrors.CodeConflict, "payment status is managed by the payment provider").
			WithReason("PROVIDER_MANAGED_PAYMENT")
	}
	if err := s.repo.UpdatePaymentStatus(ctx, id, status); err != nil {
		if pkgdb.IsNotFound(err) {
			return "", pkgerrors.New(pkgerrors.CodeConflict, "payment status is managed by the payment provider").
				WithReason("PROVIDER_MANAGED_PAYMENT")
		}
		return "", pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update payment status")
	}
	return status, nil
}

// ShippingPatch is the raw shipping edit sent by staff.
type ShippingPatch struct {
	ShippingMethod *string `json:"shippingMethod"`
	TrackingNumber *string `json:"trackingNumber"`
	Transporter    *string `json:"transporter"`
	DateMailed     *string `json:"dateMailed"`
	WeightGrams    *int    `json:"weightGrams"`
}

// ToUpdate keeps the valid fields of the patch. Unknown methods, negative
// weights and unparseable dates are dropped.
func (p ShippingPatch) ToUpdate() ShippingUpdate {
	var update ShippingUpdate
	if p.ShippingMethod != nil {
		if method, err := enums.ParseShippingMethod(*p.ShippingMethod); err == nil {
			update.ShippingMethod = &method
		}
	}
	if p.TrackingNumber != nil {
		tracking := strings.TrimSpace(*p.TrackingNumber)
		update.TrackingNumber = &tracking
	}
	if p.Transporter != nil {
		if carrier := strings.TrimSpace(*p.Transporter); carrier != "" {
			update.Transporter = &carrier
		} else {
			update.ClearCarrier = true
		}
	}
	if p.DateMailed != nil {
		if mailed, ok := parseDate(*p.DateMailed); ok {
			update.DateMailed = &mailed
		}
	}
	if p.WeightGrams != nil && *p.WeightGrams >= 0 {
		weight := *p.WeightGrams
		update.WeightGrams = &weight
	}
	return update
}

var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", listDateLayout}

func parseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// UpdateShipping applies the valid fields of patch.
func (s *Service) UpdateShipping(ctx context.Context, id uuid.UUID, patch ShippingPatch) error {
	update := patch.ToUpdate()
	if update.IsEmpty() {
		return pkgerrors.New(pkgerrors.CodeValidation, "no valid shipping fields").WithReason("NO_VALID_FIELDS")
	}
	if err := s.repo.UpdateShipping(ctx, id, update); err != nil {
		if pkgdb.IsNotFound(err) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithReason("ORDER_NOT_FOUND")
		}
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update shipping")
	}
	return nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithReason("ORDER_NOT_FOUND")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order")
	}
	return order, nil
}

func (s *Service) lookup(ctx context.Context, ref string) (*models.Order, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required").WithReason("MISSING_ORDER_ID")
	}
	if id, err := uuid.Parse(ref); err == nil {
		order, err := s.load(ctx, id)
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
			return order, err
		}
	}
	order, err := s.repo.FindByExternalID(ctx, ref)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found").WithReason("ORDER_NOT_FOUND")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load order")
	}
	return order, nil
}

func (s *Service) warn(ctx context.Context, msg string, err error) {
	if s.logg != nil {
		s.logg.WarnErr(ctx, msg, err)
	}
}

func (s *Service) info(ctx context.Context, msg string, fields map[string]any) {
	if s.logg != nil {
		s.logg.Info(s.logg.WithFields(ctx, fields), msg)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
