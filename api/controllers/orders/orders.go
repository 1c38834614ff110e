package orders

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/api/validators"
	internalorders "github.com/milosbg/mbg-admin-backend/internal/orders"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

const maxListLimit = 500

// Service is implemented by *orders.Service.
type Service interface {
	List(ctx context.Context, limit int) ([]internalorders.ListItem, error)
	Get(ctx context.Context, id uuid.UUID) (*internalorders.OrderView, error)
	Detail(ctx context.Context, ref string) (*internalorders.Detail, error)
	ListForCustomer(ctx context.Context, clerkID string) ([]internalorders.OrderView, error)
	UpdateFulfillment(ctx context.Context, id uuid.UUID, raw string) (enums.FulfillmentStatus, error)
	UpdatePayment(ctx context.Context, id uuid.UUID, raw string) (enums.PaymentStatus, error)
	UpdateShipping(ctx context.Context, id uuid.UUID, patch internalorders.ShippingPatch) error
}

type statusRequest struct {
	Status string `json:"status" validate:"required"`
}

type fulfillmentResponse struct {
	OK                bool                    `json:"ok"`
	FulfillmentStatus enums.FulfillmentStatus `json:"fulfillmentStatus"`
}

type paymentResponse struct {
	OK     bool                `json:"ok"`
	Status enums.PaymentStatus `json:"status"`
}

// List returns the back-office order table, newest first.
func List(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 0, maxListLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, err := svc.List(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, items)
	}
}

// Get returns one order by internal id.
func Get(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		view, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, view)
	}
}

// UpdateStatus moves an order through the fulfillment table.
func UpdateStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.UpdateFulfillment(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, fulfillmentResponse{OK: true, FulfillmentStatus: status})
	}
}

// UpdatePayment sets the payment status of a manual order.
func UpdatePayment(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body statusRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := svc.UpdatePayment(r.Context(), id, body.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, paymentResponse{OK: true, Status: status})
	}
}

// UpdateShipping applies a partial shipping edit.
func UpdateShipping(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var patch internalorders.ShippingPatch
		if err := validators.DecodeLenientJSON(r, &patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.UpdateShipping(r.Context(), id, patch); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, nil)
	}
}

// StorefrontDetail returns an order and its customer to the storefront.
func StorefrontDetail(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		ref, err := validators.PathParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		detail, err := svc.Detail(r.Context(), ref)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, detail)
	}
}

// CustomerOrders lists the orders placed under a clerk id.
func CustomerOrders(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		clerkID, err := validators.PathParam(r, "clerkId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views, err := svc.ListForCustomer(r.Context(), clerkID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, views)
	}
}
