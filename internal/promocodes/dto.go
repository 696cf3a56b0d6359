package promocodes

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
)

// PromoCodeDTO is the storefront view of an active code.
type PromoCodeDTO struct {
	ID             uuid.UUID          `json:"id"`
	Code           string             `json:"code"`
	DiscountType   enums.DiscountType `json:"discountType"`
	DiscountValue  decimal.Decimal    `json:"discountValue"`
	StartDate      time.Time          `json:"startDate"`
	EndDate        time.Time          `json:"endDate"`
	MaxUses        *int               `json:"maxUses,omitempty"`
	MaxUsesPerUser *int               `json:"maxUsesPerUser,omitempty"`
	UsageCount     int                `json:"usageCount"`
}

// FromModel maps a promo code row to its DTO.
func FromModel(m models.PromoCode) PromoCodeDTO {
	return PromoCodeDTO{
		ID:             m.ID,
		Code:           m.Code,
		DiscountType:   m.DiscountType,
		DiscountValue:  m.DiscountValue,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		MaxUses:        m.MaxUses,
		MaxUsesPerUser: m.MaxUsesPerUser,
		UsageCount:     m.UsageCount,
	}
}

// QuoteInput asks what a code would take off a subtotal.
type QuoteInput struct {
	StoreID    uuid.UUID
	Code       string
	CustomerID *string
	Subtotal   decimal.Decimal
}

// Quote is the discount a code yields for a subtotal.
type Quote struct {
	PromoCodeID  uuid.UUID          `json:"promoCodeId"`
	Code         string             `json:"code"`
	DiscountType enums.DiscountType `json:"discountType"`
	Subtotal     decimal.Decimal    `json:"subtotal"`
	Discount     decimal.Decimal    `json:"discount"`
	Total        decimal.Decimal    `json:"total"`
}

// RedeemInput records one use of a quoted code by an order.
type RedeemInput struct {
	PromoCodeID uuid.UUID
	OrderID     uuid.UUID
	CustomerID  *string
}
