package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/internal/repo"
	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
)

const (
	decrementVariantSQL = `UPDATE product_variants
SET stock = CASE WHEN stock - ? < 0 THEN 0 ELSE stock - ? END
WHERE id = (
	SELECT id FROM product_variants
	WHERE product_id = ?
	  AND (? = '' OR lower(color) = lower(?))
	  AND (? = '' OR lower(size) = lower(?))
	ORDER BY position
	LIMIT 1
)`

	decrementAggregateSQL = `UPDATE products
SET count_in_stock = CASE WHEN count_in_stock - ? < 0 THEN 0 ELSE count_in_stock - ? END,
	updated_at = ?
WHERE id = ?`

	syncCountSQL = `UPDATE products
SET count_in_stock = (SELECT COALESCE(SUM(stock), 0) FROM product_variants WHERE product_id = ?),
	updated_at = ?
WHERE id = ?`
)

// Repository issues the single-statement stock writes. Every write clamps at
// zero in SQL so concurrent decrements never need a lock.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// DecrementVariant lowers the first variant matching color/size (blank
// matches anything). It reports whether a variant row matched.
func (r *Repository) DecrementVariant(ctx context.Context, productID uuid.UUID, color, size string, qty int) (bool, error) {
	color = strings.TrimSpace(color)
	size = strings.TrimSpace(size)
	res := r.DB(ctx).Exec(decrementVariantSQL, qty, qty, productID, color, color, size, size)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DecrementAggregate lowers the product-level count directly.
func (r *Repository) DecrementAggregate(ctx context.Context, productID uuid.UUID, qty int) (bool, error) {
	res := r.DB(ctx).Exec(decrementAggregateSQL, qty, qty, time.Now().UTC(), productID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SyncCountFromVariants sets count_in_stock to the sum of variant stock.
func (r *Repository) SyncCountFromVariants(ctx context.Context, productID uuid.UUID) error {
	return syncCount(r.DB(ctx), productID)
}

func syncCount(db *gorm.DB, productID uuid.UUID) error {
	return db.Exec(syncCountSQL, productID, time.Now().UTC(), productID).Error
}

// Snapshot loads the product with its variants in display order.
func (r *Repository) Snapshot(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	return loadProduct(r.DB(ctx), productID)
}

func loadProduct(db *gorm.DB, productID uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := db.
		Preload("Variants", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }).
		First(&product, "id = ?", productID).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// VariantStock is a staff-supplied stock value for one color/size pair.
type VariantStock struct {
	Color string
	Size  string
	Stock int
}

// ReplaceVariantStock writes the given stock values, inserting unknown
// variants after the existing ones, then re-derives the product count.
func (r *Repository) ReplaceVariantStock(ctx context.Context, productID uuid.UUID, variants []VariantStock) (*models.Product, error) {
	var out *models.Product
	err := r.Transaction(ctx, func(tx *gorm.DB) error {
		product, err := loadProduct(tx, productID)
		if err != nil {
			return err
		}
		next := 0
		for _, v := range product.Variants {
			if v.Position >= next {
				next = v.Position + 1
			}
		}
		for _, in := range variants {
			stock := in.Stock
			if stock < 0 {
				stock = 0
			}
			existing := findVariant(product.Variants, in.Color, in.Size)
			if existing != nil {
				if err := tx.Model(&models.ProductVariant{}).
					Where("id = ?", existing.ID).
					Update("stock", stock).Error; err != nil {
					return err
				}
				existing.Stock = stock
				continue
			}
			created := models.ProductVariant{
				ProductID: productID,
				Position:  next,
				Color:     strings.TrimSpace(in.Color),
				Size:      strings.TrimSpace(in.Size),
				Stock:     stock,
			}
			if err := tx.Create(&created).Error; err != nil {
				return err
			}
			product.Variants = append(product.Variants, created)
			next++
		}
		if err := syncCount(tx, productID); err != nil {
			return err
		}
		out, err = loadProduct(tx, productID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SetCount overwrites the aggregate count of a product without variants.
func (r *Repository) SetCount(ctx context.Context, productID uuid.UUID, count int) error {
	res := r.DB(ctx).Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{"count_in_stock": count, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func findVariant(variants []models.ProductVariant, color, size string) *models.ProductVariant {
	for i := range variants {
		if strings.EqualFold(strings.TrimSpace(variants[i].Color), strings.TrimSpace(color)) &&
			strings.EqualFold(strings.TrimSpace(variants[i].Size), strings.TrimSpace(size)) {
			return &variants[i]
		}
	}
	return nil
}
