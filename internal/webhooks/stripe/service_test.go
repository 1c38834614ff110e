package stripewebhook

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v84"

	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
)

type stubCapture struct {
	ids []string
	err error
}

func (s *stubCapture) Reconcile(_ context.Context, provider enums.PaymentProvider, id string) (*capture.Result, error) {
	if provider != enums.PaymentProviderStripe {
		return nil, errors.New("wrong provider")
	}
	s.ids = append(s.ids, id)
	return &capture.Result{OK: true}, s.err
}

func sessionEvent(eventType stripe.EventType, object map[string]any) *stripe.Event {
	return &stripe.Event{ID: "evt_1", Type: eventType, Data: &stripe.EventData{Object: object}}
}

func TestService_HandleCompletedPaidSession(t *testing.T) {
	capt := &stubCapture{}
	svc, err := NewService(capt)
	if err != nil {
		t.Fatalf("setup service: %v", err)
	}

	handled, err := svc.HandleEvent(context.Background(), sessionEvent(stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":             "cs_test_1",
		"payment_status": "paid",
	}))
	if err != nil {
		t.Fatalf("handle event: %v", err)
	}
	if !handled || len(capt.ids) != 1 || capt.ids[0] != "cs_test_1" {
		t.Fatalf("expected session reconciled, got handled=%v ids=%v", handled, capt.ids)
	}
}

func TestService_HandleCompletedUnpaidSessionIsAcknowledged(t *testing.T) {
	capt := &stubCapture{}
	svc, _ := NewService(capt)

	handled, err := svc.HandleEvent(context.Background(), sessionEvent(stripe.EventTypeCheckoutSessionCompleted, map[string]any{
		"id":             "cs_test_2",
		"payment_status": "unpaid",
	}))
	if err != nil || handled {
		t.Fatalf("expected no-op, got handled=%v err=%v", handled, err)
	}
	if len(capt.ids) != 0 {
		t.Fatalf("unexpected reconcile %v", capt.ids)
	}
}

func TestService_HandleAsyncPaymentSucceeded(t *testing.T) {
	capt := &stubCapture{}
	svc, _ := NewService(capt)

	handled, err := svc.HandleEvent(context.Background(), sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, map[string]any{
		"id": "cs_test_3",
	}))
	if err != nil || !handled {
		t.Fatalf("expected reconcile, got handled=%v err=%v", handled, err)
	}
}

func TestService_IgnoresOtherEvents(t *testing.T) {
	svc, _ := NewService(&stubCapture{})
	handled, err := svc.HandleEvent(context.Background(), sessionEvent(stripe.EventTypeInvoicePaid, map[string]any{"id": "in_1"}))
	if err != nil || handled {
		t.Fatalf("expected ignored event, got handled=%v err=%v", handled, err)
	}
}

func TestService_PropagatesReconcileFailure(t *testing.T) {
	svc, _ := NewService(&stubCapture{err: errors.New("db down")})
	_, err := svc.HandleEvent(context.Background(), sessionEvent(stripe.EventTypeCheckoutSessionAsyncPaymentSucceeded, map[string]any{"id": "cs_4"}))
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_RequiresEventData(t *testing.T) {
	svc, _ := NewService(&stubCapture{})
	if _, err := svc.HandleEvent(context.Background(), &stripe.Event{}); err == nil {
		t.Fatalf("expected validation error")
	}
}
