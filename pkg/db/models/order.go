package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// Order is a storefront checkout. Rows are never hard-deleted; Paid only moves
// from false to true.
type Order struct {
	ID                uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	StoreID           uuid.UUID                 `gorm:"column:store_id;type:uuid;not null;index"`
	CustomerID        *string                   `gorm:"column:customer_id"`
	TotalAmount       decimal.Decimal           `gorm:"column:total_amount;type:numeric(12,2);not null"`
	DiscountAmount    decimal.Decimal           `gorm:"column:discount_amount;type:numeric(12,2);not null;default:0"`
	Currency          enums.Currency            `gorm:"column:currency;type:text;not null;default:'INR'"`
	GatewayOrderRef   *string                   `gorm:"column:gateway_order_ref;uniqueIndex"`
	GatewayPaymentRef *string                   `gorm:"column:gateway_payment_ref"`
	PaymentMethod     string                    `gorm:"column:payment_method;not null;default:''"`
	Paid              bool                      `gorm:"column:paid;not null;default:false"`
	PaidAt            *time.Time                `gorm:"column:paid_at"`
	ConfirmedBy       *enums.ConfirmationSource `gorm:"column:confirmed_by;type:text"`
	OrderStatus       enums.OrderStatus         `gorm:"column:order_status;type:text;not null;default:'PENDING'"`
	Name              string                    `gorm:"column:name;not null;default:''"`
	Email             string                    `gorm:"column:email;not null;default:''"`
	Phone             string                    `gorm:"column:phone;not null"`
	AlternatePhone    *string                   `gorm:"column:alternate_phone"`
	Address           string                    `gorm:"column:address;not null"`
	TrackingID        *string                   `gorm:"column:tracking_id"`
	InvoiceURL        *string                   `gorm:"column:invoice_url"`
	PromoCodeID       *uuid.UUID                `gorm:"column:promo_code_id;type:uuid"`
	Items             []OrderItem               `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	ensureID(&o.ID)
	return nil
}

// OrderItem is one cart line, with a snapshot of the product it referenced.
type OrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	VariantID   uuid.UUID       `gorm:"column:variant_id;type:uuid;not null"`
	ProductName string          `gorm:"column:product_name;not null;default:''"`
	Size        string          `gorm:"column:size;not null;default:''"`
	Color       string          `gorm:"column:color;not null;default:''"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	ensureID(&i.ID)
	return nil
}
