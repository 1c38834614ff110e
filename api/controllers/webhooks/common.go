package webhooks

import (
	"context"

	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
)

// Guard short-circuits duplicate deliveries.
type Guard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type webhookMetrics interface {
	Webhook(provider, outcome string)
}

type ackResponse struct {
	Received bool `json:"received"`
	Handled  bool `json:"handled"`
}

// processingError keeps validation failures as-is and turns everything else
// into a 500 so the provider redelivers.
func processingError(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "webhook processing failed").
		WithReason("WEBHOOK_PROCESSING_FAILED")
}
