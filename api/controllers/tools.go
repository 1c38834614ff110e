package controllers

import (
	"context"
	"net/http"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/internal/customers"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

type customerTool func(ctx context.Context) (customers.Report, error)

// CustomerTools is implemented by *customers.Resolver.
type CustomerTools interface {
	Backfill(ctx context.Context) (customers.Report, error)
	Enrich(ctx context.Context) (customers.Report, error)
	Repair(ctx context.Context) (customers.Report, error)
}

type toolResponse struct {
	OK bool `json:"ok"`
	customers.Report
}

func BackfillCustomers(svc CustomerTools, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("customer tools unavailable", logg)
	}
	return runTool("backfill", svc.Backfill, logg)
}

func EnrichCustomers(svc CustomerTools, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("customer tools unavailable", logg)
	}
	return runTool("enrich", svc.Enrich, logg)
}

func RepairCustomers(svc CustomerTools, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("customer tools unavailable", logg)
	}
	return runTool("repair", svc.Repair, logg)
}

func runTool(name string, tool customerTool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithStep(ctx, "customers."+name)
		}
		report, err := tool(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "customer "+name+" failed"))
			return
		}
		if logg != nil {
			logg.Info(logg.WithFields(ctx, map[string]any{
				"created":  report.Created,
				"linked":   report.Linked,
				"enriched": report.Enriched,
				"updated":  report.Updated,
				"failed":   report.Failed,
			}), "customers.tool.completed")
		}
		responses.WriteSuccess(w, toolResponse{OK: true, Report: report})
	}
}
