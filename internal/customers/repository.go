package customers

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/milosbg/mbg-admin-backend/pkg/db/models"
	"github.com/milosbg/mbg-admin-backend/pkg/types"
)

// Repository persists customers and their order links. Identity columns are
// only written on insert; name and email are only overwritten by non-empty
// values.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func keepNonEmpty(column string) clause.Expr {
	return gorm.Expr("CASE WHEN excluded." + column + " <> '' THEN excluded." + column + " ELSE customers." + column + " END")
}

// UpsertByClerkID creates or refreshes the customer keyed by clerkID. created
// reports whether the row was inserted by this call.
func (r *Repository) UpsertByClerkID(ctx context.Context, clerkID, email, name string) (*models.Customer, bool, error) {
	row := models.Customer{ID: uuid.New(), ClerkID: &clerkID, Email: email, Name: name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "clerk_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"email":      keepNonEmpty("email"),
			"name":       keepNonEmpty("name"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, false, err
	}
	stored, err := r.FindByClerkID(ctx, clerkID)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == row.ID, nil
}

// UpsertGuest creates or refreshes the guest customer keyed by email.
func (r *Repository) UpsertGuest(ctx context.Context, email, name string) (*models.Customer, bool, error) {
	row := models.Customer{ID: uuid.New(), Email: email, Name: name}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:     []clause.Column{{Name: "email"}},
		TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "clerk_id IS NULL"}}},
		DoUpdates: clause.Assignments(map[string]any{
			"name":       keepNonEmpty("name"),
			"updated_at": time.Now().UTC(),
		}),
	}).Create(&row).Error
	if err != nil {
		return nil, false, err
	}
	stored, err := r.FindGuestByEmail(ctx, email)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ID == row.ID, nil
}

// LinkOrder records the customer/order pair. linked is false when the pair
// already existed.
func (r *Repository) LinkOrder(ctx context.Context, customerID, orderID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.CustomerOrder{CustomerID: customerID, OrderID: orderID})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *Repository) FindByClerkID(ctx context.Context, clerkID string) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).Where("clerk_id = ?", clerkID).First(&customer).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) FindGuestByEmail(ctx context.Context, email string) (*models.Customer, error) {
	var customer models.Customer
	err := r.db.WithContext(ctx).
		Where("clerk_id IS NULL AND email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *Repository) FindByClerkIDs(ctx context.Context, clerkIDs []string) (map[string]*models.Customer, error) {
	out := map[string]*models.Customer{}
	if len(clerkIDs) == 0 {
		return out, nil
	}
	var rows []models.Customer
	if err := r.db.WithContext(ctx).Where("clerk_id IN ?", clerkIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].ClerkID != nil {
			out[*rows[i].ClerkID] = &rows[i]
		}
	}
	return out, nil
}

func (r *Repository) FindGuestsByEmails(ctx context.Context, emails []string) (map[string]*models.Customer, error) {
	out := map[string]*models.Customer{}
	if len(emails) == 0 {
		return out, nil
	}
	var rows []models.Customer
	if err := r.db.WithContext(ctx).Where("clerk_id IS NULL AND email IN ?", emails).Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].Email] = &rows[i]
	}
	return out, nil
}

// ListMissingProfile returns customers with a clerk id but no name or email.
func (r *Repository) ListMissingProfile(ctx context.Context) ([]models.Customer, error) {
	var rows []models.Customer
	err := r.db.WithContext(ctx).
		Where("clerk_id IS NOT NULL AND clerk_id <> '' AND (name = '' OR email = '')").
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateProfile fills name and email with the non-empty values given.
func (r *Repository) UpdateProfile(ctx context.Context, id uuid.UUID, email, name string) (bool, error) {
	updates := map[string]any{}
	if email != "" {
		updates["email"] = email
	}
	if name != "" {
		updates["name"] = name
	}
	if len(updates) == 0 {
		return false, nil
	}
	updates["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// OrderIdentity is the buyer identity stored on an order.
type OrderIdentity struct {
	OrderID uuid.UUID     `gorm:"column:id"`
	ClerkID string        `gorm:"column:customer_clerk_id"`
	Contact types.Contact `gorm:"column:contact"`
}

// OrdersWithClerkID lists every order carrying a clerk id, oldest first.
func (r *Repository) OrdersWithClerkID(ctx context.Context) ([]OrderIdentity, error) {
	var rows []OrderIdentity
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("id", "customer_clerk_id", "contact").
		Where("customer_clerk_id IS NOT NULL AND customer_clerk_id <> ''").
		Order("created_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
