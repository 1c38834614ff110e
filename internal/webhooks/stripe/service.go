package stripewebhook

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"

	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

type reconciler interface {
	Reconcile(ctx context.Context, provider enums.PaymentProvider, externalID string) (*capture.Result, error)
}

type Service struct {
	capture reconciler
}

func NewService(c reconciler) (*Service, error) {
	if c == nil {
		return nil, errors.New("capture service required")
	}
	return &Service{capture: c}, nil
}

// HandleEvent records paid Checkout Sessions and reports whether the event
// was acted on. A completed session still awaiting an async payment is
// acknowledged; its async_payment_succeeded event records it later.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) (bool, error) {
	if event == nil || event.Data == nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		if event.GetObjectValue("payment_status") != string(stripe.CheckoutSessionPaymentStatusPaid) {
			return false, nil
		}
	case stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded:
	default:
		return false, nil
	}

	sessionID := event.GetObjectValue("id")
	if sessionID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "session id missing").
			WithReason("MISSING_ORDER_ID")
	}
	if _, err := s.capture.Reconcile(ctx, enums.PaymentProviderStripe, sessionID); err != nil {
		return false, err
	}
	return true, nil
}
