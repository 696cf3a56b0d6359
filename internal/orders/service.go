package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/internal/catalog"
	"github.com/angelmondragon/shopconsole-backend/internal/promocodes"
	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/money"
	"github.com/angelmondragon/shopconsole-backend/pkg/pagination"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
	"github.com/angelmondragon/shopconsole-backend/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service covers order intake, the gateway order bridge and admin order management.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	List(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*types.ListResult[OrderDTO], error)
	Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error)
	UpdateTracking(ctx context.Context, storeID, orderID uuid.UUID, trackingID string) (*OrderDTO, error)
	AttachInvoice(ctx context.Context, storeID, orderID uuid.UUID, invoiceURL string) (*OrderDTO, error)
}

// ServiceParams wires the order service. Gateway may be nil when payment
// credentials are not configured; gateway-backed operations then fail with
// UPSTREAM_CONFIGURATION_ERROR.
type ServiceParams struct {
	Repo     Repository
	Catalog  catalog.Repository
	Promos   promocodes.Service
	Tx       txRunner
	Gateway  razorpay.Gateway
	Currency enums.Currency
	Logger   *logger.Logger
}

type service struct {
	repo     Repository
	catalog  catalog.Repository
	promos   promocodes.Service
	tx       txRunner
	gateway  razorpay.Gateway
	currency enums.Currency
	logg     *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	if params.Promos == nil {
		return nil, fmt.Errorf("promo code service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	currency := params.Currency
	if currency == "" {
		currency = enums.CurrencyINR
	}
	return &service{
		repo:     params.Repo,
		catalog:  params.Catalog,
		promos:   params.Promos,
		tx:       params.Tx,
		gateway:  params.Gateway,
		currency: currency,
		logg:     params.Logger,
	}, nil
}

// CreateOrder validates the cart against the catalog, persists the pending
// order in one transaction and then opens a gateway order for it. A gateway
// failure keeps the persisted order and returns UPSTREAM_ERROR.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstreamConfig, "payment gateway credentials are not configured")
	}
	if err := validateCreateInput(input); err != nil {
		return nil, err
	}
	ctx = s.logg.WithStoreID(ctx, input.StoreID.String())

	items := make([]models.OrderItem, 0, len(input.OrderItems))
	subtotal := decimal.Zero
	for i, line := range input.OrderItems {
		product, err := s.catalog.FindProductInStore(ctx, input.StoreID, line.ProductID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", line.ProductID)).
					WithDetails([]pkgerrors.FieldError{{Field: fmt.Sprintf("orderItems[%d].productId", i), Message: "product not found in store"}})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
		}
		variant, err := s.catalog.FindVariantForProduct(ctx, product.ID, line.VariantID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("variant %s not found for product %s", line.VariantID, product.ID)).
					WithDetails([]pkgerrors.FieldError{{Field: fmt.Sprintf("orderItems[%d].variantId", i), Message: "variant not found for product"}})
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}

		total := line.LineTotal()
		subtotal = subtotal.Add(total)
		items = append(items, models.OrderItem{
			ProductID:   product.ID,
			VariantID:   variant.ID,
			ProductName: product.Name,
			Size:        variant.Size,
			Color:       variant.Color,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  total,
		})
	}

	discount := decimal.Zero
	var quote *promocodes.Quote
	if code := strings.TrimSpace(input.PromoCode); code != "" {
		q, err := s.promos.Quote(ctx, promocodes.QuoteInput{
			StoreID:    input.StoreID,
			Code:       code,
			CustomerID: input.CustomerID,
			Subtotal:   subtotal,
		})
		if err != nil {
			return nil, err
		}
		quote = q
		discount = q.Discount
	}

	expected := subtotal.Sub(discount)
	if !input.TotalAmount.Equal(expected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "totalAmount does not match order items").
			WithDetails([]pkgerrors.FieldError{{Field: "totalAmount", Message: "must equal " + expected.StringFixed(2)}})
	}
	amountMinor, err := money.ToMinorUnits(input.TotalAmount, s.currency)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "totalAmount is not a valid amount").
			WithDetails([]pkgerrors.FieldError{{Field: "totalAmount", Message: err.Error()}})
	}

	order := &models.Order{
		StoreID:        input.StoreID,
		CustomerID:     input.CustomerID,
		TotalAmount:    input.TotalAmount,
		DiscountAmount: discount,
		Currency:       s.currency,
		OrderStatus:    enums.OrderStatusPending,
		Name:           strings.TrimSpace(input.Name),
		Email:          strings.TrimSpace(input.Email),
		Phone:          strings.TrimSpace(input.Phone),
		AlternatePhone: input.AlternatePhone,
		Address:        strings.TrimSpace(input.Address),
		Items:          items,
	}
	if quote != nil {
		order.PromoCodeID = &quote.PromoCodeID
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		if quote != nil {
			return s.promos.Redeem(ctx, tx, promocodes.RedeemInput{
				PromoCodeID: quote.PromoCodeID,
				OrderID:     order.ID,
				CustomerID:  input.CustomerID,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())
	remote, err := s.gateway.CreateOrder(ctx, razorpay.CreateOrderInput{
		Amount:   amountMinor,
		Currency: string(s.currency),
		Receipt:  order.ID.String(),
		Notes: map[string]string{
			"order_id": order.ID.String(),
			"store_id": order.StoreID.String(),
		},
	})
	if err != nil {
		s.logg.Error(ctx, "orders.gateway_order_failed", err)
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment gateway order creation failed")
	}

	if err := s.repo.AttachGatewayOrderRef(ctx, order.ID, remote.ID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach gateway order reference")
	}
	order.GatewayOrderRef = &remote.ID

	ctx = s.logg.WithPaymentRefs(ctx, remote.ID, "")
	s.logg.Info(ctx, "orders.created")

	return &CreateOrderResult{
		Order:               FromModel(*order),
		GatewayOrderDetails: remote,
	}, nil
}

func (s *service) List(ctx context.Context, storeID uuid.UUID, filters ListFilters, params pagination.Params) (*types.ListResult[OrderDTO], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor").
			WithDetails([]pkgerrors.FieldError{{Field: "cursor", Message: "is invalid"}})
	}
	rows, next, err := s.repo.List(ctx, ListParams{
		StoreID: storeID,
		Status:  filters.Status,
		Paid:    filters.Paid,
		Limit:   params.Limit,
		Cursor:  cursor,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	result := &types.ListResult[OrderDTO]{Items: make([]OrderDTO, 0, len(rows))}
	for _, row := range rows {
		result.Items = append(result.Items, FromModel(row))
	}
	if next != nil {
		result.NextCursor = pagination.EncodeCursor(*next)
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, storeID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*order)
	return &dto, nil
}

// UpdateStatus applies an admin status change. Setting the current status
// again is a no-op; PROCESSING additionally requires a paid order.
func (s *service) UpdateStatus(ctx context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus) (*OrderDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status").
			WithDetails([]pkgerrors.FieldError{{Field: "status", Message: "is invalid"}})
	}
	order, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if order.OrderStatus == status {
		dto := FromModel(*order)
		return &dto, nil
	}
	if !order.OrderStatus.CanTransitionTo(status) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("cannot move order from %s to %s", order.OrderStatus, status)).
			WithDetails(map[string]any{"from": order.OrderStatus, "to": status})
	}
	if status == enums.OrderStatusProcessing && !order.Paid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order must be paid before processing").
			WithDetails(map[string]any{"from": order.OrderStatus, "to": status})
	}

	moved, err := s.repo.UpdateStatus(ctx, order.ID, order.OrderStatus, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !moved {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order status changed concurrently")
	}

	ctx = s.logg.WithFields(s.logg.WithOrderID(ctx, order.ID.String()), map[string]any{
		"from_status": order.OrderStatus,
		"to_status":   status,
	})
	s.logg.Info(ctx, "orders.status_updated")
	return s.Get(ctx, storeID, orderID)
}

func (s *service) UpdateTracking(ctx context.Context, storeID, orderID uuid.UUID, trackingID string) (*OrderDTO, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id required").
			WithDetails([]pkgerrors.FieldError{{Field: "trackingId", Message: "is required"}})
	}
	order, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateFields(ctx, order.ID, map[string]any{"tracking_id": trackingID}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update tracking id")
	}
	return s.Get(ctx, storeID, orderID)
}

// AttachInvoice stores invoiceURL on the order. With an empty URL a gateway
// invoice is issued for the paid order and its short link is stored instead.
func (s *service) AttachInvoice(ctx context.Context, storeID, orderID uuid.UUID, invoiceURL string) (*OrderDTO, error) {
	order, err := s.load(ctx, storeID, orderID)
	if err != nil {
		return nil, err
	}

	invoiceURL = strings.TrimSpace(invoiceURL)
	if invoiceURL == "" {
		if s.gateway == nil {
			return nil, pkgerrors.New(pkgerrors.CodeUpstreamConfig, "payment gateway credentials are not configured")
		}
		if !order.Paid {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invoice requires a paid order")
		}
		amount, err := money.ToMinorUnits(order.TotalAmount, order.Currency)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "convert order amount")
		}
		invoice, err := s.gateway.CreateInvoice(ctx, razorpay.InvoiceInput{
			Receipt:       order.ID.String(),
			CustomerName:  order.Name,
			CustomerEmail: order.Email,
			CustomerPhone: order.Phone,
			Description:   "Order " + order.ID.String(),
			Amount:        amount,
			Currency:      string(order.Currency),
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "payment gateway invoice creation failed")
		}
		invoiceURL = invoice.ShortURL
	}

	if err := s.repo.UpdateFields(ctx, order.ID, map[string]any{"invoice_url": invoiceURL}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update invoice url")
	}
	return s.Get(ctx, storeID, orderID)
}

func (s *service) load(ctx context.Context, storeID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByIDInStore(ctx, storeID, orderID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// validateCreateInput reports every invalid field at once.
func validateCreateInput(input CreateOrderInput) error {
	var fields []pkgerrors.FieldError
	add := func(field, message string) {
		fields = append(fields, pkgerrors.FieldError{Field: field, Message: message})
	}

	if input.StoreID == uuid.Nil {
		add("storeId", "is required")
	}
	if input.TotalAmount.IsNegative() {
		add("totalAmount", "must be greater than or equal to 0")
	}
	if strings.TrimSpace(input.Phone) == "" {
		add("phone", "is required")
	}
	if strings.TrimSpace(input.Address) == "" {
		add("address", "is required")
	}
	if len(input.OrderItems) == 0 {
		add("orderItems", "must contain at least 1 item(s)")
	}
	for i, line := range input.OrderItems {
		prefix := fmt.Sprintf("orderItems[%d].", i)
		if line.ProductID == uuid.Nil {
			add(prefix+"productId", "is required")
		}
		if line.VariantID == uuid.Nil {
			add(prefix+"variantId", "is required")
		}
		if line.Quantity <= 0 {
			add(prefix+"quantity", "must be greater than 0")
		}
		if line.UnitPrice.IsNegative() {
			add(prefix+"unitPrice", "must be greater than or equal to 0")
		}
		if line.TotalPrice != nil && line.TotalPrice.IsNegative() {
			add(prefix+"totalPrice", "must be greater than or equal to 0")
		}
	}

	if len(fields) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(fields)
}
