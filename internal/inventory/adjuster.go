// Package inventory applies order lines to product stock. Writes are single
// conditional statements clamped at zero; each touched product emits a stock
// event afterwards.
package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/milosbg/mbg-admin-backend/internal/events"
	pkgdb "github.com/milosbg/mbg-admin-backend/pkg/db"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	pkgerrors "github.com/milosbg/mbg-admin-backend/pkg/errors"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

const notApplicable = "n/a"

type store interface {
	DecrementVariant(ctx context.Context, productID uuid.UUID, color, size string, qty int) (bool, error)
	DecrementAggregate(ctx context.Context, productID uuid.UUID, qty int) (bool, error)
	SyncCountFromVariants(ctx context.Context, productID uuid.UUID) error
	Snapshot(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	ReplaceVariantStock(ctx context.Context, productID uuid.UUID, variants []VariantStock) (*models.Product, error)
	SetCount(ctx context.Context, productID uuid.UUID, count int) error
}

// Adjuster applies stock changes and notifies subscribers.
type Adjuster struct {
	store     store
	publisher events.Publisher
	logg      *logger.Logger
}

func NewAdjuster(store store, publisher events.Publisher, logg *logger.Logger) *Adjuster {
	return &Adjuster{store: store, publisher: publisher, logg: logg}
}

// Decrement applies every line independently. Lines without a catalog id are
// skipped. The returned error aggregates per-line failures; callers treat it
// as best-effort.
func (a *Adjuster) Decrement(ctx context.Context, lines types.OrderLines) error {
	var errs error
	touched := make([]uuid.UUID, 0, len(lines))
	seen := map[uuid.UUID]bool{}

	for _, line := range lines {
		if line.ProductID == nil || *line.ProductID == uuid.Nil || line.Quantity <= 0 {
			continue
		}
		productID := *line.ProductID
		if err := a.decrementLine(ctx, productID, line); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("product %s: %w", productID, err))
			continue
		}
		if !seen[productID] {
			seen[productID] = true
			touched = append(touched, productID)
		}
	}

	for _, productID := range touched {
		a.notify(ctx, productID)
	}
	return errs
}

func (a *Adjuster) decrementLine(ctx context.Context, productID uuid.UUID, line types.OrderLine) error {
	color := attribute(line.Color)
	size := attribute(line.Size)

	if color != "" || size != "" {
		matched, err := a.store.DecrementVariant(ctx, productID, color, size, line.Quantity)
		if err != nil {
			return err
		}
		if matched {
			return a.store.SyncCountFromVariants(ctx, productID)
		}
	}

	matched, err := a.store.DecrementAggregate(ctx, productID, line.Quantity)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("product not found")
	}
	return nil
}

// StockUpdate is a staff stock edit. Exactly one of the fields is expected.
type StockUpdate struct {
	CountInStock *int
	Variants     []VariantStock
}

// SetStock applies a staff stock edit. When the product has variants the
// aggregate is always derived from them, so a bare count is rejected.
func (a *Adjuster) SetStock(ctx context.Context, productID uuid.UUID, update StockUpdate) (*models.Product, error) {
	if len(update.Variants) == 0 && update.CountInStock == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock or variants is required").
			WithReason("MISSING_STOCK")
	}
	for _, v := range update.Variants {
		if v.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant stock must be >= 0").
				WithReason("INVALID_STOCK")
		}
	}

	current, err := a.store.Snapshot(ctx, productID)
	if err != nil {
		if pkgdb.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load product")
	}

	var product *models.Product
	if len(update.Variants) > 0 {
		product, err = a.store.ReplaceVariantStock(ctx, productID, update.Variants)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update variant stock")
		}
	} else {
		if len(current.Variants) > 0 {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "stock is derived from variants").
				WithReason("STOCK_DERIVED_FROM_VARIANTS")
		}
		if *update.CountInStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "countInStock must be >= 0").
				WithReason("INVALID_STOCK")
		}
		if err := a.store.SetCount(ctx, productID, *update.CountInStock); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update stock")
		}
		current.CountInStock = *update.CountInStock
		product = current
	}

	a.publish(ctx, product)
	return product, nil
}

func (a *Adjuster) notify(ctx context.Context, productID uuid.UUID) {
	product, err := a.store.Snapshot(ctx, productID)
	if err != nil {
		a.warn(ctx, "load product for stock event", err)
		return
	}
	a.publish(ctx, product)
}

func (a *Adjuster) publish(ctx context.Context, product *models.Product) {
	if a.publisher == nil || product == nil {
		return
	}
	if err := a.publisher.Publish(ctx, SnapshotEvent(product)); err != nil {
		a.warn(ctx, "publish stock event", err)
	}
}

func (a *Adjuster) warn(ctx context.Context, msg string, err error) {
	if a.logg == nil {
		return
	}
	a.logg.WarnErr(a.logg.WithStep(ctx, "inventory"), msg, err)
}

// SnapshotEvent converts a product row into its stock event.
func SnapshotEvent(product *models.Product) events.Event {
	variants := make([]events.VariantStock, 0, len(product.Variants))
	for _, v := range product.Variants {
		variants = append(variants, events.VariantStock{Color: v.Color, Size: v.Size, Stock: v.Stock})
	}
	if len(variants) == 0 {
		variants = nil
	}
	return events.StockEvent(product.ID, product.CountInStock, variants)
}

func attribute(v string) string {
	v = strings.TrimSpace(v)
	if strings.EqualFold(v, notApplicable) {
		return ""
	}
	return v
}
