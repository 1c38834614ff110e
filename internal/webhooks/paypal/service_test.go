package paypalwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
)

type stubVerifier struct {
	ok  bool
	err error
}

func (s stubVerifier) VerifyWebhookSignature(context.Context, paypal.WebhookHeaders, json.RawMessage) (bool, error) {
	return s.ok, s.err
}

type stubCapture struct {
	ids []string
	err error
}

func (s *stubCapture) Reconcile(_ context.Context, provider enums.PaymentProvider, id string) (*capture.Result, error) {
	if provider != enums.PaymentProviderPayPal {
		return nil, errors.New("wrong provider")
	}
	s.ids = append(s.ids, id)
	return &capture.Result{OK: true}, s.err
}

const completedEvent = `{
	"id": "WH-1",
	"event_type": "PAYMENT.CAPTURE.COMPLETED",
	"resource": {"id": "CAP-9", "supplementary_data": {"related_ids": {"order_id": "PP-77"}}}
}`

func TestVerifyRejectsBadSignature(t *testing.T) {
	svc, err := NewService(stubVerifier{ok: false}, &stubCapture{})
	require.NoError(t, err)

	_, err = svc.Verify(context.Background(), paypal.WebhookHeaders{}, []byte(completedEvent))
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	svc, _ = NewService(stubVerifier{err: errors.New("paypal down")}, &stubCapture{})
	_, err = svc.Verify(context.Background(), paypal.WebhookHeaders{}, []byte(completedEvent))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestHandleCaptureCompletedUsesRelatedOrderID(t *testing.T) {
	capt := &stubCapture{}
	svc, err := NewService(stubVerifier{ok: true}, capt)
	require.NoError(t, err)

	event, err := svc.Verify(context.Background(), paypal.WebhookHeaders{}, []byte(completedEvent))
	require.NoError(t, err)
	handled, err := svc.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, []string{"PP-77"}, capt.ids)
}

func TestHandleFallsBackToResourceID(t *testing.T) {
	event := &Event{EventType: EventCaptureCompleted}
	event.Resource.ID = "CAP-1"
	assert.Equal(t, "CAP-1", event.OrderID())
}

func TestHandleIgnoresOtherEvents(t *testing.T) {
	capt := &stubCapture{}
	svc, _ := NewService(stubVerifier{ok: true}, capt)
	handled, err := svc.HandleEvent(context.Background(), &Event{ID: "WH-2", EventType: "CHECKOUT.ORDER.APPROVED"})
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Empty(t, capt.ids)
}

func TestHandlePropagatesReconcileFailure(t *testing.T) {
	capt := &stubCapture{err: errors.New("db down")}
	svc, _ := NewService(stubVerifier{ok: true}, capt)
	var event Event
	require.NoError(t, json.Unmarshal([]byte(completedEvent), &event))
	_, err := svc.HandleEvent(context.Background(), &event)
	assert.Error(t, err)
}

func TestHeadersFrom(t *testing.T) {
	h := http.Header{}
	h.Set("PayPal-Transmission-Id", "t1")
	h.Set("PayPal-Transmission-Sig", "sig")
	got := HeadersFrom(h)
	assert.Equal(t, "t1", got.TransmissionID)
	assert.Equal(t, "sig", got.TransmissionSig)
}
