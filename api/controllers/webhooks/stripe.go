package webhooks

import (
	"context"
	"io"
	"net/http"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/metrics"
)

const providerStripe = "stripe"

type StripeWebhookService interface {
	HandleEvent(ctx context.Context, event *stripe.Event) (bool, error)
}

type stripeClient interface {
	SigningSecret() string
}

// StripeWebhook verifies a Stripe delivery and reconciles paid Checkout Sessions.
func StripeWebhook(svc StripeWebhookService, client stripeClient, guard Guard, m webhookMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if client == nil || client.SigningSecret() == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stripe webhook secret not configured"))
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

		sigHeader := r.Header.Get("Stripe-Signature")
		if sigHeader == "" {
			record(m, providerStripe, metrics.OutcomeRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "stripe signature missing").
				WithReason("INVALID_SIGNATURE"))
			return
		}

		event, err := webhook.ConstructEventWithOptions(payload, sigHeader, client.SigningSecret(), webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		})
		if err != nil {
			record(m, providerStripe, metrics.OutcomeRejected)
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "verify signature").
				WithReason("INVALID_SIGNATURE"))
			return
		}
		if logg != nil {
			ctx = logg.WithFields(ctx, map[string]any{"webhook_event_id": event.ID, "event_type": string(event.Type)})
		}

		alreadyProcessed, err := guard.CheckAndMark(ctx, event.ID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			record(m, providerStripe, metrics.OutcomeDuplicate)
			responses.WriteSuccess(w, ackResponse{Received: true})
			return
		}

		handled, err := svc.HandleEvent(ctx, &event)
		if err != nil {
			_ = guard.Delete(ctx, event.ID)
			record(m, providerStripe, metrics.OutcomeFailure)
			responses.WriteError(ctx, logg, w, processingError(err))
			return
		}

		outcome := metrics.OutcomeIgnored
		if handled {
			outcome = metrics.OutcomeSuccess
		}
		record(m, providerStripe, outcome)
		if logg != nil {
			logg.Info(ctx, "webhook.stripe.processed")
		}
		responses.WriteSuccess(w, ackResponse{Received: true, Handled: handled})
	}
}
