package promocodes

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

// Repository persists promo codes and their redemptions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListActive(ctx context.Context, storeID uuid.UUID, now time.Time) ([]models.PromoCode, error)
	FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.PromoCode, error)
	CountRedemptions(ctx context.Context, promoCodeID uuid.UUID, customerID string) (int64, error)
	IncrementUsage(ctx context.Context, promoCodeID uuid.UUID) (bool, error)
	CreateRedemption(ctx context.Context, redemption *models.PromoRedemption) error
	DeactivateExpired(ctx context.Context, now time.Time, limit int) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to promo code operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListActive returns codes that are switched on and whose window contains now.
func (r *repository) ListActive(ctx context.Context, storeID uuid.UUID, now time.Time) ([]models.PromoCode, error) {
	var codes []models.PromoCode
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND is_active = ? AND start_date <= ? AND end_date >= ?", storeID, true, now, now).
		Order("end_date ASC").
		Find(&codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

func (r *repository) FindByCode(ctx context.Context, storeID uuid.UUID, code string) (*models.PromoCode, error) {
	var promo models.PromoCode
	err := r.db.WithContext(ctx).
		Where("store_id = ? AND code = ?", storeID, strings.ToUpper(strings.TrimSpace(code))).
		First(&promo).Error
	if err != nil {
		return nil, err
	}
	return &promo, nil
}

func (r *repository) CountRedemptions(ctx context.Context, promoCodeID uuid.UUID, customerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PromoRedemption{}).
		Where("promo_code_id = ? AND customer_id = ?", promoCodeID, customerID).
		Count(&count).Error
	return count, err
}

// IncrementUsage bumps usage_count unless the global cap is already reached.
// It reports false when the cap blocked the update.
func (r *repository) IncrementUsage(ctx context.Context, promoCodeID uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id = ? AND (max_uses IS NULL OR usage_count < max_uses)", promoCodeID).
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) CreateRedemption(ctx context.Context, redemption *models.PromoRedemption) error {
	return r.db.WithContext(ctx).Create(redemption).Error
}

// DeactivateExpired switches off up to limit active codes whose end date has passed.
func (r *repository) DeactivateExpired(ctx context.Context, now time.Time, limit int) (int64, error) {
	ids := r.db.
		Model(&models.PromoCode{}).
		Select("id").
		Where("is_active = ? AND end_date < ?", true, now).
		Limit(limit)
	res := r.db.WithContext(ctx).
		Model(&models.PromoCode{}).
		Where("id IN (?)", ids).
		Update("is_active", false)
	return res.RowsAffected, res.Error
}
