package paypalwebhook

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
)

const EventCaptureCompleted = "PAYMENT.CAPTURE.COMPLETED"

type verifier interface {
	VerifyWebhookSignature(ctx context.Context, headers paypal.WebhookHeaders, event json.RawMessage) (bool, error)
}

type reconciler interface {
	Reconcile(ctx context.Context, provider enums.PaymentProvider, externalID string) (*capture.Result, error)
}

// Event is the subset of a PayPal webhook delivery the handler reads.
type Event struct {
	ID        string   `json:"id"`
	EventType string   `json:"event_type"`
	Resource  resource `json:"resource"`
}

type resource struct {
	ID                string `json:"id"`
	SupplementaryData struct {
		RelatedIDs struct {
			OrderID string `json:"order_id"`
		} `json:"related_ids"`
	} `json:"supplementary_data"`
}

// OrderID prefers the related checkout order over the capture id.
func (e Event) OrderID() string {
	if id := strings.TrimSpace(e.Resource.SupplementaryData.RelatedIDs.OrderID); id != "" {
		return id
	}
	return strings.TrimSpace(e.Resource.ID)
}

type Service struct {
	verifier verifier
	capture  reconciler
}

func NewService(v verifier, c reconciler) (*Service, error) {
	if v == nil {
		return nil, errors.New("paypal verifier required")
	}
	if c == nil {
		return nil, errors.New("capture service required")
	}
	return &Service{verifier: v, capture: c}, nil
}

// HeadersFrom reads the transmission headers PayPal signs.
func HeadersFrom(h http.Header) paypal.WebhookHeaders {
	return paypal.WebhookHeaders{
		TransmissionID:   h.Get("paypal-transmission-id"),
		TransmissionTime: h.Get("paypal-transmission-time"),
		CertURL:          h.Get("paypal-cert-url"),
		AuthAlgo:         h.Get("paypal-auth-algo"),
		TransmissionSig:  h.Get("paypal-transmission-sig"),
	}
}

// Verify checks the delivery with PayPal and decodes it. Unverified
// deliveries are rejected with a validation error and never processed.
func (s *Service) Verify(ctx context.Context, headers paypal.WebhookHeaders, body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid webhook body").
			WithReason("INVALID_WEBHOOK")
	}
	ok, err := s.verifier.VerifyWebhookSignature(ctx, headers, json.RawMessage(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "webhook verification failed").
			WithReason("INVALID_SIGNATURE")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook signature rejected").
			WithReason("INVALID_SIGNATURE")
	}
	return &event, nil
}

// HandleEvent reports whether the event was acted on. Types other than a
// completed capture are acknowledged without side effects.
func (s *Service) HandleEvent(ctx context.Context, event *Event) (bool, error) {
	if event == nil || event.EventType != EventCaptureCompleted {
		return false, nil
	}
	orderID := event.OrderID()
	if orderID == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "order id missing from capture event").
			WithReason("MISSING_ORDER_ID")
	}
	if _, err := s.capture.Reconcile(ctx, enums.PaymentProviderPayPal, orderID); err != nil {
		return false, err
	}
	return true, nil
}
