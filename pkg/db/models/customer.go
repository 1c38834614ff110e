package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Customer is keyed by ClerkID when known, otherwise by lowercase Email
// among guest rows.
type Customer struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ClerkID   *string   `gorm:"column:clerk_id;uniqueIndex:ux_customers_clerk_id"`
	Email     string    `gorm:"column:email;not null;default:''"`
	Name      string    `gorm:"column:name;not null;default:''"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Customer) TableName() string { return "customers" }

func (c *Customer) BeforeCreate(*gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CustomerOrder links an order to a customer at most once.
type CustomerOrder struct {
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;primaryKey"`
	OrderID    uuid.UUID `gorm:"column:order_id;type:uuid;primaryKey"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (CustomerOrder) TableName() string { return "customer_orders" }
