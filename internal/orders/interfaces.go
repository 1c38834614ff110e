package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/enums"
	"github.com/milosbg/mbg-admin-backend/pkg/outbox"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	UpsertCaptured(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByExternalID(ctx context.Context, externalID string) (*models.Order, error)
	List(ctx context.Context, limit int) ([]models.Order, error)
	ListByClerkID(ctx context.Context, clerkID string) ([]models.Order, error)
	TransitionFulfillment(ctx context.Context, id uuid.UUID, from, to enums.FulfillmentStatus, at time.Time) (bool, error)
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
	UpdateShipping(ctx context.Context, id uuid.UUID, update ShippingUpdate) error
}

// ShippingUpdate carries the staff-editable shipping fields. Nil fields are
// left untouched.
type ShippingUpdate struct {
	ShippingMethod *enums.ShippingMethod
	TrackingNumber *string
	Transporter    *string
	ClearCarrier   bool
	DateMailed     *time.Time
	WeightGrams    *int
}

// IsEmpty reports whether the update carries no field.
func (u ShippingUpdate) IsEmpty() bool {
	return u.ShippingMethod == nil && u.TrackingNumber == nil && u.Transporter == nil &&
		!u.ClearCarrier && u.DateMailed == nil && u.WeightGrams == nil
}

// CustomerLookup resolves the customer rows shown next to orders. Batch
// lookups return maps keyed by clerk id and lowercase email.
type CustomerLookup interface {
	FindByClerkID(ctx context.Context, clerkID string) (*models.Customer, error)
	FindGuestByEmail(ctx context.Context, email string) (*models.Customer, error)
	FindByClerkIDs(ctx context.Context, clerkIDs []string) (map[string]*models.Customer, error)
	FindGuestsByEmails(ctx context.Context, emails []string) (map[string]*models.Customer, error)
}

// EventEmitter writes domain events inside the caller's transaction.
type EventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}
