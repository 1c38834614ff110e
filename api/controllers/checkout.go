package controllers

import (
	"context"
	"net/http"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/api/validators"
	checkoutsvc "github.com/milosbg/mbg-admin-backend/internal/checkout"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

type checkoutFlow func(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Result, error)

// CheckoutService is implemented by *checkout.Service.
type CheckoutService interface {
	StartManual(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Result, error)
	StartPayPal(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Result, error)
	StartStripe(ctx context.Context, req checkoutsvc.Request) (*checkoutsvc.Result, error)
}

// ManualCheckout records a storefront order that is paid out of band.
func ManualCheckout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("checkout service unavailable", logg)
	}
	return runCheckout(svc.StartManual, logg)
}

// PayPalCheckout creates a PayPal order and returns its approval link.
func PayPalCheckout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("checkout service unavailable", logg)
	}
	return runCheckout(svc.StartPayPal, logg)
}

// StripeCheckout creates a Stripe Checkout session.
func StripeCheckout(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("checkout service unavailable", logg)
	}
	return runCheckout(svc.StartStripe, logg)
}

func runCheckout(flow checkoutFlow, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutsvc.Request
		if err := validators.DecodeLenientJSON(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := flow(r.Context(), req)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func unavailable(msg string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, msg))
	}
}
