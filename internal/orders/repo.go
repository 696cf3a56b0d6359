package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	"github.com/angelmondragon/shopconsole-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Create inserts the order row and then its items. Callers run it inside a
// transaction so a failed item insert leaves nothing behind.
func (r *repository) Create(ctx context.Context, order *models.Order) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	for i := range order.Items {
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(&order.Items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByIDInStore(ctx context.Context, storeID, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("id = ? AND store_id = ?", id, storeID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByGatewayOrderRef(ctx context.Context, ref string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items", orderItemsByCreation).
		Where("gateway_order_ref = ?", ref).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// AttachGatewayOrderRef sets the remote order reference once. A second call for
// the same order is a no-op.
func (r *repository) AttachGatewayOrderRef(ctx context.Context, id uuid.UUID, ref string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND gateway_order_ref IS NULL", id).
		Update("gateway_order_ref", ref).Error
}

// MarkPaid flips paid to true only while it is still false and reports whether
// this call performed the transition. The status moves to PROCESSING only from
// PENDING; a non-empty method or payment ref overwrites, an empty one keeps the
// stored value.
func (r *repository) MarkPaid(ctx context.Context, input MarkPaidInput) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = ?", input.OrderID, false).
		Updates(map[string]any{
			"paid":                true,
			"paid_at":             input.PaidAt,
			"confirmed_by":        input.Source,
			"order_status":        gorm.Expr("CASE WHEN order_status = ? THEN ? ELSE order_status END", enums.OrderStatusPending, enums.OrderStatusProcessing),
			"payment_method":      gorm.Expr("COALESCE(NULLIF(?, ''), payment_method)", input.PaymentMethod),
			"gateway_payment_ref": gorm.Expr("COALESCE(NULLIF(?, ''), gateway_payment_ref)", input.PaymentRef),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// RecordUnpaidAttempt stores the method and payment ref of a non-captured
// payment. Paid orders are left untouched.
func (r *repository) RecordUnpaidAttempt(ctx context.Context, id uuid.UUID, paymentRef, method string) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]any{
			"payment_method":      gorm.Expr("COALESCE(NULLIF(?, ''), payment_method)", method),
			"gateway_payment_ref": gorm.Expr("COALESCE(NULLIF(?, ''), gateway_payment_ref)", paymentRef),
		}).Error
}

// FillPaymentMethod sets the method only when none has been recorded yet.
func (r *repository) FillPaymentMethod(ctx context.Context, id uuid.UUID, method string) error {
	if method == "" {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND payment_method = ?", id, "").
		Update("payment_method", method).Error
}

// UpdateStatus moves an order from one status to another and reports false
// when the stored status was no longer from.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND order_status = ?", id, from).
		Update("order_status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *repository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// List returns one page ordered newest first plus the cursor of the last row
// when more rows follow.
func (r *repository) List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("store_id = ?", params.StoreID)
	if params.Status != nil {
		query = query.Where("order_status = ?", *params.Status)
	}
	if params.Paid != nil {
		query = query.Where("paid = ?", *params.Paid)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var rows []models.Order
	if err := query.Order("created_at DESC, id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[limit-1]
		return rows, &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}, nil
	}
	return rows, nil, nil
}

// FindStaleCheckouts returns pending, unpaid orders created before cutoff that
// never received a gateway order.
func (r *repository) FindStaleCheckouts(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Where(staleCheckoutClause, false, enums.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// CancelStaleCheckout cancels the order if it still matches the stale criteria.
func (r *repository) CancelStaleCheckout(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", id).
		Where(staleCheckoutClause, false, enums.OrderStatusPending, cutoff).
		Update("order_status", enums.OrderStatusCancelled)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

const staleCheckoutClause = "paid = ? AND order_status = ? AND gateway_order_ref IS NULL AND created_at < ?"

func orderItemsByCreation(db *gorm.DB) *gorm.DB {
	return db.Order("created_at ASC, id ASC")
}
