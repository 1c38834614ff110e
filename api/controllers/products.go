package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/api/responses"
	"github.com/milosbg/mbg-admin-backend/api/validators"
	"github.com/milosbg/mbg-admin-backend/internal/events"
	"github.com/milosbg/mbg-admin-backend/internal/inventory"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

// StockSetter is implemented by *inventory.Adjuster.
type StockSetter interface {
	SetStock(ctx context.Context, productID uuid.UUID, update inventory.StockUpdate) (*models.Product, error)
}

type stockRequest struct {
	CountInStock *int                  `json:"countInStock" validate:"omitempty,min=0"`
	Variants     []variantStockRequest `json:"variants" validate:"omitempty,dive"`
}

type variantStockRequest struct {
	Color string `json:"color"`
	Size  string `json:"size"`
	Stock int    `json:"stock" validate:"min=0"`
}

type stockResponse struct {
	OK bool `json:"ok"`
	events.Event
}

// UpdateStock replaces a product's stock. With variants the aggregate count
// is derived from them.
func UpdateStock(svc StockSetter, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailable("inventory service unavailable", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body stockRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		update := inventory.StockUpdate{CountInStock: body.CountInStock}
		for _, v := range body.Variants {
			update.Variants = append(update.Variants, inventory.VariantStock{
				Color: validators.SanitizeString(v.Color, 64),
				Size:  validators.SanitizeString(v.Size, 64),
				Stock: v.Stock,
			})
		}

		product, err := svc.SetStock(r.Context(), productID, update)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockResponse{OK: true, Event: inventory.SnapshotEvent(product)})
	}
}
