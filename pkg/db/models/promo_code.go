package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// PromoCode is a store-scoped discount code. Code is stored upper-cased.
type PromoCode struct {
	ID             uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	StoreID        uuid.UUID          `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_promo_codes_store_code"`
	Code           string             `gorm:"column:code;not null;uniqueIndex:idx_promo_codes_store_code"`
	DiscountType   enums.DiscountType `gorm:"column:discount_type;type:text;not null"`
	DiscountValue  decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null"`
	StartDate      time.Time          `gorm:"column:start_date;not null"`
	EndDate        time.Time          `gorm:"column:end_date;not null"`
	MaxUses        *int               `gorm:"column:max_uses"`
	MaxUsesPerUser *int               `gorm:"column:max_uses_per_user"`
	UsageCount     int                `gorm:"column:usage_count;not null;default:0"`
	IsActive       bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PromoCode) BeforeCreate(*gorm.DB) error {
	ensureID(&p.ID)
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	return nil
}

// PromoRedemption records one use of a promo code by an order.
type PromoRedemption struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PromoCodeID uuid.UUID `gorm:"column:promo_code_id;type:uuid;not null;index"`
	OrderID     uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex"`
	CustomerID  *string   `gorm:"column:customer_id"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *PromoRedemption) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}
