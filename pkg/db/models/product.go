package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is a catalog listing. Only the fields order intake needs are mapped.
type Product struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	StoreID    uuid.UUID        `gorm:"column:store_id;type:uuid;not null;index"`
	Name       string           `gorm:"column:name;not null"`
	Price      decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	IsArchived bool             `gorm:"column:is_archived;not null;default:false"`
	Variants   []ProductVariant `gorm:"foreignKey:ProductID"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	return nil
}

// ProductVariant is one size/color combination of a product.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Size      string    `gorm:"column:size;not null;default:''"`
	Color     string    `gorm:"column:color;not null;default:''"`
	SKU       *string   `gorm:"column:sku"`
	Stock     int       `gorm:"column:stock;not null;default:0"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (v *ProductVariant) BeforeCreate(*gorm.DB) error {
	ensureID(&v.ID)
	return nil
}
