package main

import (
	"context"

	"github.com/milosbg/mbg-admin-backend/internal/capture"
	"github.com/milosbg/mbg-admin-backend/pkg/config"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/paypal"
	"github.com/milosbg/mbg-admin-backend/pkg/stripe"
)

// providerClients holds the payment clients that could be built from the
// environment. A nil client means the provider is not configured and its
// routes answer with a 500.
type providerClients struct {
	paypal *paypal.Client
	stripe *stripe.Client
}

func buildProviders(ctx context.Context, cfg *config.Config, logg *logger.Logger) providerClients {
	var out providerClients

	pp, err := paypal.NewClient(cfg.PayPal)
	if err != nil {
		logg.WarnErr(ctx, "paypal not configured", err)
	} else {
		out.paypal = pp
	}

	sc, err := stripe.NewClient(ctx, cfg.Stripe, logg)
	if err != nil {
		logg.WarnErr(ctx, "stripe not configured", err)
	} else {
		out.stripe = sc
	}
	return out
}

func (p providerClients) gateways() []capture.Gateway {
	var gateways []capture.Gateway
	if p.paypal != nil {
		gateways = append(gateways, capture.NewPayPalGateway(p.paypal))
	}
	if p.stripe != nil {
		gateways = append(gateways, capture.NewStripeGateway(p.stripe))
	}
	return gateways
}
