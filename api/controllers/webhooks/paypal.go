package webhooks

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	paypalwebhook "github.com/milosbg/mbg-admin-backend/internal/webhooks/paypal"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
)

const providerPayPal = "paypal"

type PayPalWebhookService interface {
	Verify(ctx context.Context, headers paypal.WebhookHeaders, body []byte) (*paypalwebhook.Event, error)
	HandleEvent(ctx context.Context, event *paypalwebhook.Event) (bool, error)
}

// PayPalWebhook verifies a PayPal delivery and reconciles completed captures.
func PayPalWebhook(svc PayPalWebhookService, guard Guard, m webhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
			return
		}

		headers := paypalwebhook.HeadersFrom(r.Header)
		event, err := svc.Verify(ctx, headers, payload)
		if err != nil {
			record(m, providerPayPal, metrics.OutcomeRejected)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		deliveryID := strings.TrimSpace(event.ID)
		if deliveryID == "" {
			deliveryID = strings.TrimSpace(headers.TransmissionID)
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"webhook_event_id": deliveryID, "event_type": event.EventType})
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, deliveryID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			record(m, providerPayPal, metrics.OutcomeDuplicate)
			responses.WriteSuccess(w, ackResponse{Received: true})
			return
		}

		handled, err := svc.HandleEvent(ctx, event)
		if err != nil {
			_ = guard.Delete(ctx, deliveryID)
			record(m, providerPayPal, metrics.OutcomeFailure)
			responses.WriteError(ctx, logg, w, processingError(err))
			return
		}

		outcome := metrics.OutcomeIgnored
		if handled {
			outcome = metrics.OutcomeSuccess
		}
		record(m, providerPayPal, outcome)
		if logg != nil {
			logg.Info(ctx, "webhook.paypal.processed")
		}
		responses.WriteSuccess(w, ackResponse{Received: true, Handled: handled})
	}
}

func record(m webhookMetrics, provider, outcome string) {
	if m != nil {
		m.Webhook(provider, outcome)
	}
}
