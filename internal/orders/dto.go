package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
)

// CreateOrderInput is a storefront cart submitted for checkout.
type CreateOrderInput struct {
	StoreID        uuid.UUID
	CustomerID     *string
	TotalAmount    decimal.Decimal
	OrderItems     []OrderItemInput
	Phone          string
	AlternatePhone *string
	Address        string
	Name           string
	Email          string
	PromoCode      string
}

// OrderItemInput is one cart line. TotalPrice, when set, overrides quantity * unit price.
type OrderItemInput struct {
	ProductID  uuid.UUID
	VariantID  uuid.UUID
	Quantity   int
	UnitPrice  decimal.Decimal
	TotalPrice *decimal.Decimal
}

// LineTotal returns the explicit total when present, otherwise quantity * unit price.
func (i OrderItemInput) LineTotal() decimal.Decimal {
	if i.TotalPrice != nil {
		return *i.TotalPrice
	}
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CreateOrderResult pairs the persisted order with the gateway order the
// storefront opens its payment widget against.
type CreateOrderResult struct {
	Order               OrderDTO              `json:"order"`
	GatewayOrderDetails *razorpay.RemoteOrder `json:"gatewayOrderDetails"`
}

// ListFilters narrows the admin order list.
type ListFilters struct {
	Status *enums.OrderStatus
	Paid   *bool
}

// OrderDTO is the API view of an order.
type OrderDTO struct {
	ID                uuid.UUID                 `json:"id"`
	StoreID           uuid.UUID                 `json:"storeId"`
	CustomerID        *string                   `json:"customerId,omitempty"`
	TotalAmount       decimal.Decimal           `json:"totalAmount"`
	DiscountAmount    decimal.Decimal           `json:"discountAmount"`
	Currency          enums.Currency            `json:"currency"`
	GatewayOrderRef   *string                   `json:"gatewayOrderRef,omitempty"`
	GatewayPaymentRef *string                   `json:"gatewayPaymentRef,omitempty"`
	PaymentMethod     string                    `json:"paymentMethod"`
	Paid              bool                      `json:"paid"`
	PaidAt            *time.Time                `json:"paidAt,omitempty"`
	ConfirmedBy       *enums.ConfirmationSource `json:"confirmedBy,omitempty"`
	OrderStatus       enums.OrderStatus         `json:"orderStatus"`
	Name              string                    `json:"name"`
	Email             string                    `json:"email"`
	Phone             string                    `json:"phone"`
	AlternatePhone    *string                   `json:"alternatePhone,omitempty"`
	Address           string                    `json:"address"`
	TrackingID        *string                   `json:"trackingId,omitempty"`
	InvoiceURL        *string                   `json:"invoiceUrl,omitempty"`
	PromoCodeID       *uuid.UUID                `json:"promoCodeId,omitempty"`
	Items             []OrderItemDTO            `json:"orderItems,omitempty"`
	CreatedAt         time.Time                 `json:"createdAt"`
	UpdatedAt         time.Time                 `json:"updatedAt"`
}

// OrderItemDTO is the API view of an order line.
type OrderItemDTO struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"productId"`
	VariantID   uuid.UUID       `json:"variantId"`
	ProductName string          `json:"productName"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

// FromModel maps an order row, with any preloaded items, to its DTO.
func FromModel(m models.Order) OrderDTO {
	dto := OrderDTO{
		ID:                m.ID,
		StoreID:           m.StoreID,
		CustomerID:        m.CustomerID,
		TotalAmount:       m.TotalAmount,
		DiscountAmount:    m.DiscountAmount,
		Currency:          m.Currency,
		GatewayOrderRef:   m.GatewayOrderRef,
		GatewayPaymentRef: m.GatewayPaymentRef,
		PaymentMethod:     m.PaymentMethod,
		Paid:              m.Paid,
		PaidAt:            m.PaidAt,
		ConfirmedBy:       m.ConfirmedBy,
		OrderStatus:       m.OrderStatus,
		Name:              m.Name,
		Email:             m.Email,
		Phone:             m.Phone,
		AlternatePhone:    m.AlternatePhone,
		Address:           m.Address,
		TrackingID:        m.TrackingID,
		InvoiceURL:        m.InvoiceURL,
		PromoCodeID:       m.PromoCodeID,
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
	if len(m.Items) > 0 {
		dto.Items = make([]OrderItemDTO, 0, len(m.Items))
		for _, item := range m.Items {
			dto.Items = append(dto.Items, OrderItemDTO{
				ID:          item.ID,
				ProductID:   item.ProductID,
				VariantID:   item.VariantID,
				ProductName: item.ProductName,
				Size:        item.Size,
				Color:       item.Color,
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				TotalPrice:  item.TotalPrice,
			})
		}
	}
	return dto
}
