package cron

import (
	"context"
	"errors"
	"fmt"

	"github.com/milosbg/mbg-admin-backend/internal/customers"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

type customerEnricher interface {
	Enrich(ctx context.Context) (customers.Report, error)
}

// customerEnrichJob fills missing customer names and emails from the
// identity provider, the same pass staff can trigger by hand.
type customerEnrichJob struct {
	logg     *logger.Logger
	enricher customerEnricher
}

func NewCustomerEnrichJob(logg *logger.Logger, enricher customerEnricher) (Job, error) {
	if logg == nil {
		return nil, errors.New("logger required")
	}
	if enricher == nil {
		return nil, errors.New("customer enricher required")
	}
	return &customerEnrichJob{logg: logg, enricher: enricher}, nil
}

func (j *customerEnrichJob) Name() string { return "customer-enrich" }

func (j *customerEnrichJob) Run(ctx context.Context) error {
	report, err := j.enricher.Enrich(ctx)
	if err != nil {
		return fmt.Errorf("customer enrich: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"checked":  report.Checked,
		"enriched": report.Enriched,
		"failed":   report.Failed,
	}), "customer enrichment complete")
	return nil
}
