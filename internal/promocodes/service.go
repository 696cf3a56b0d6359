package promocodes

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

var hundred = decimal.NewFromInt(100)

// Service exposes promo code reads, quotes and redemption.
type Service interface {
	ListActive(ctx context.Context, storeID uuid.UUID) ([]PromoCodeDTO, error)
	Quote(ctx context.Context, input QuoteInput) (*Quote, error)
	Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error
}

type service struct {
	repo Repository
	now  func() time.Time
}

// NewService builds a promo code service. A nil clock defaults to time.Now.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("promo code repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

func (s *service) ListActive(ctx context.Context, storeID uuid.UUID) ([]PromoCodeDTO, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "store id required")
	}
	codes, err := s.repo.ListActive(ctx, storeID, s.now().UTC())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list active promo codes")
	}
	out := make([]PromoCodeDTO, 0, len(codes))
	for _, code := range codes {
		out = append(out, FromModel(code))
	}
	return out, nil
}

// Quote checks that the code is usable right now by the customer and computes
// its discount. It does not consume a use.
func (s *service) Quote(ctx context.Context, input QuoteInput) (*Quote, error) {
	code := strings.TrimSpace(input.Code)
	if code == "" {
		return nil, invalidCode("is required")
	}
	if input.Subtotal.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subtotal must not be negative").
			WithDetails([]pkgerrors.FieldError{{Field: "subtotal", Message: "must be greater than or equal to 0"}})
	}

	promo, err := s.repo.FindByCode(ctx, input.StoreID, code)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "promo code not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load promo code")
	}

	now := s.now().UTC()
	switch {
	case !promo.IsActive:
		return nil, invalidCode("is not active")
	case now.Before(promo.StartDate):
		return nil, invalidCode("is not active yet")
	case now.After(promo.EndDate):
		return nil, invalidCode("has expired")
	}

	if promo.MaxUses != nil && promo.UsageCount >= *promo.MaxUses {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code usage limit reached")
	}
	if promo.MaxUsesPerUser != nil && input.CustomerID != nil && *input.CustomerID != "" {
		used, err := s.repo.CountRedemptions(ctx, promo.ID, *input.CustomerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count promo redemptions")
		}
		if used >= int64(*promo.MaxUsesPerUser) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "promo code already used by this customer")
		}
	}

	discount := Discount(promo.DiscountType, promo.DiscountValue, input.Subtotal)
	return &Quote{
		PromoCodeID:  promo.ID,
		Code:         promo.Code,
		DiscountType: promo.DiscountType,
		Subtotal:     input.Subtotal,
		Discount:     discount,
		Total:        input.Subtotal.Sub(discount),
	}, nil
}

// Redeem consumes one use inside the caller's transaction. The global cap is
// enforced by a conditional increment so concurrent checkouts cannot overrun it.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, input RedeemInput) error {
	repo := s.repo.WithTx(tx)
	ok, err := repo.IncrementUsage(ctx, input.PromoCodeID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment promo usage")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "promo code usage limit reached")
	}
	redemption := &models.PromoRedemption{
		PromoCodeID: input.PromoCodeID,
		OrderID:     input.OrderID,
		CustomerID:  input.CustomerID,
	}
	if err := repo.CreateRedemption(ctx, redemption); err != nil {
		if db.IsUniqueViolation(err, "") {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already redeemed a promo code")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record promo redemption")
	}
	return nil
}

// Discount computes the amount a code takes off subtotal, never more than the
// subtotal itself. Percentage discounts round half away from zero to cents.
func Discount(kind enums.DiscountType, value, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.Sign() <= 0 || value.Sign() <= 0 {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch kind {
	case enums.DiscountTypePercentage:
		discount = subtotal.Mul(value).Div(hundred).Round(2)
	case enums.DiscountTypeFixed:
		discount = value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(subtotal) {
		return subtotal
	}
	return discount
}

func invalidCode(message string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, "promo code "+message).
		WithDetails([]pkgerrors.FieldError{{Field: "promoCode", Message: message}})
}
