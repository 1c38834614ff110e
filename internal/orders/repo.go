package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
)

const maxListLimit = 500

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// capturedColumns are overwritten when a capture replays. id, created_at and
// fulfillment_status are only written on insert.
var capturedColumns = []string{
	"payment_flow",
	"payment_provider",
	"payment_status",
	"customer_clerk_id",
	"products",
	"shipping_address",
	"shipping_method",
	"shipping_rate",
	"shipping_amount",
	"total_amount",
	"updated_at",
}

// UpsertCaptured writes the captured snapshot keyed by external order id and
// returns the stored row.
func (r *repository) UpsertCaptured(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ExternalOrderID == nil || *order.ExternalOrderID == "" {
		return nil, gorm.ErrMissingWhereClause
	}
	order.FulfillmentStatus = enums.FulfillmentStatusPending
	order.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_order_id"}},
		DoUpdates: clause.AssignmentColumns(capturedColumns),
	}).Create(order).Error
	if err != nil {
		return nil, err
	}
	return r.FindByExternalID(ctx, *order.ExternalOrderID)
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByExternalID(ctx context.Context, externalID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).Where("external_order_id = ?", externalID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// List returns orders newest first. A limit of 0 means no limit; values are
// clamped to [0, 500].
func (r *repository) List(ctx context.Context, limit int) ([]models.Order, error) {
	query := r.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit = clampLimit(limit); limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *repository) ListByClerkID(ctx context.Context, clerkID string) ([]models.Order, error) {
	var orders []models.Order
	err := r.db.WithContext(ctx).
		Where("customer_clerk_id = ?", clerkID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// TransitionFulfillment moves the order from one status to the next only if
// it is still in from. The status timestamp is written once.
func (r *repository) TransitionFulfillment(ctx context.Context, id uuid.UUID, from, to enums.FulfillmentStatus, at time.Time) (bool, error) {
	updates := map[string]any{
		"fulfillment_status": to,
		"updated_at":         at,
	}
	if column := timestampColumn(to); column != "" {
		updates[column] = gorm.Expr("COALESCE("+column+", ?)", at)
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND fulfillment_status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_flow = ?", id, enums.PaymentFlowManual).
		Updates(map[string]any{"payment_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repository) UpdateShipping(ctx context.Context, id uuid.UUID, update ShippingUpdate) error {
	updates := map[string]any{"updated_at": time.Now().UTC()}
	if update.ShippingMethod != nil {
		updates["shipping_method"] = *update.ShippingMethod
	}
	if update.TrackingNumber != nil {
		updates["tracking_number"] = *update.TrackingNumber
	}
	if update.Transporter != nil {
		updates["transporter"] = *update.Transporter
	} else if update.ClearCarrier {
		updates["transporter"] = nil
	}
	if update.DateMailed != nil {
		updates["date_mailed"] = *update.DateMailed
	}
	if update.WeightGrams != nil {
		updates["weight_grams"] = *update.WeightGrams
	}
	res := r.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func timestampColumn(status enums.FulfillmentStatus) string {
	switch status {
	case enums.FulfillmentStatusProcessing:
		return "processing_at"
	case enums.FulfillmentStatusShipped:
		return "shipped_at"
	case enums.FulfillmentStatusDelivered:
		return "delivered_at"
	case enums.FulfillmentStatusCompleted:
		return "completed_at"
	case enums.FulfillmentStatusCancelled:
		return "cancelled_at"
	default:
		return ""
	}
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}
