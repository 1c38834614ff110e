package controllers

import (
	"context"
	"net/http"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/api/validators"
	"github.com/milosbg/mbg-admin-backend/internal/capture"
	checkoutsvc "github.com/milosbg/mbg-admin-backend/internal/checkout"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

// CaptureService is implemented by *capture.Service.
type CaptureService interface {
	Capture(ctx context.Context, provider enums.PaymentProvider, externalID string) (*capture.Result, error)
}

type captureRequest struct {
	OrderID checkoutsvc.Text `json:"orderId"`
}

// Capture captures an approved provider order and records it. The order id
// is checked by the service so a blank id keeps its MISSING_ORDER_ID reason.
func Capture(svc CaptureService, provider enums.PaymentProvider, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("capture service unavailable", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var body captureRequest
		if err := validators.DecodeLenientJSON(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Capture(r.Context(), provider, body.OrderID.String())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
