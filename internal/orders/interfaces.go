package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	"github.com/angelmondragon/shopconsole-backend/pkg/pagination"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindByIDInStore(ctx context.Context, storeID, id uuid.UUID) (*models.Order, error)
	FindByGatewayOrderRef(ctx context.Context, ref string) (*models.Order, error)
	AttachGatewayOrderRef(ctx context.Context, id uuid.UUID, ref string) error
	MarkPaid(ctx context.Context, input MarkPaidInput) (bool, error)
	RecordUnpaidAttempt(ctx context.Context, id uuid.UUID, paymentRef, method string) error
	FillPaymentMethod(ctx context.Context, id uuid.UUID, method string) error
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.OrderStatus) (bool, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) error
	List(ctx context.Context, params ListParams) ([]models.Order, *pagination.Cursor, error)
	FindStaleCheckouts(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
	CancelStaleCheckout(ctx context.Context, id uuid.UUID, cutoff time.Time) (bool, error)
}

// MarkPaidInput is the compare-and-set applied when a captured payment is confirmed.
type MarkPaidInput struct {
	OrderID       uuid.UUID
	PaymentRef    string
	PaymentMethod string
	Source        enums.ConfirmationSource
	PaidAt        time.Time
}

// ListParams filters the admin order list.
type ListParams struct {
	StoreID uuid.UUID
	Status  *enums.OrderStatus
	Paid    *bool
	Limit   int
	Cursor  *pagination.Cursor
}
