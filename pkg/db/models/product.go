package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog entry. When variants exist CountInStock is the sum
// of their stock.
type Product struct {
	ID           uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Title        string           `gorm:"column:title;not null"`
	Price        decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	CountInStock int              `gorm:"column:count_in_stock;not null;default:0"`
	FetchToStore bool             `gorm:"column:fetch_to_store;not null;default:true"`
	Variants     []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// ProductVariant is a color/size combination with its own stock.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null"`
	Position  int       `gorm:"column:position;not null;default:0"`
	Color     string    `gorm:"column:color;not null;default:''"`
	Size      string    `gorm:"column:size;not null;default:''"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
}

func (ProductVariant) TableName() string { return "product_variants" }

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
