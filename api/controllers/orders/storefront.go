package orders

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/api/validators"
	internalorders "github.com/angelmondragon/shopconsole-backend/internal/orders"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type createOrderRequest struct {
	StoreID        string             `json:"storeId" validate:"required,uuid"`
	CustomerID     *string            `json:"customerId" validate:"omitempty,max=191"`
	TotalAmount    decimal.Decimal    `json:"totalAmount" validate:"gt=0"`
	OrderItems     []orderItemRequest `json:"orderItems" validate:"required,min=1,dive"`
	Phone          string             `json:"phone" validate:"required,max=32"`
	AlternatePhone *string            `json:"alternatePhone" validate:"omitempty,max=32"`
	Address        string             `json:"address" validate:"required,max=500"`
	Name           string             `json:"name" validate:"omitempty,max=200"`
	Email          string             `json:"email" validate:"omitempty,email"`
	PromoCode      string             `json:"promoCode" validate:"omitempty,max=64"`
}

type orderItemRequest struct {
	ProductID  string           `json:"productId" validate:"required,uuid"`
	VariantID  string           `json:"variantId" validate:"required,uuid"`
	Quantity   int              `json:"quantity" validate:"gt=0"`
	UnitPrice  decimal.Decimal  `json:"unitPrice" validate:"gte=0"`
	TotalPrice *decimal.Decimal `json:"totalPrice" validate:"omitempty,gte=0"`
}

func (r createOrderRequest) toInput() internalorders.CreateOrderInput {
	input := internalorders.CreateOrderInput{
		StoreID:        uuid.MustParse(r.StoreID),
		CustomerID:     trimOptional(r.CustomerID),
		TotalAmount:    r.TotalAmount,
		Phone:          validators.SanitizeString(r.Phone, 32),
		AlternatePhone: trimOptional(r.AlternatePhone),
		Address:        validators.SanitizeString(r.Address, 500),
		Name:           validators.SanitizeString(r.Name, 200),
		Email:          strings.TrimSpace(r.Email),
		PromoCode:      strings.TrimSpace(r.PromoCode),
		OrderItems:     make([]internalorders.OrderItemInput, 0, len(r.OrderItems)),
	}
	for _, item := range r.OrderItems {
		input.OrderItems = append(input.OrderItems, internalorders.OrderItemInput{
			ProductID:  uuid.MustParse(item.ProductID),
			VariantID:  uuid.MustParse(item.VariantID),
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice,
			TotalPrice: item.TotalPrice,
		})
	}
	return input
}

// Create persists a storefront checkout and opens its gateway order. Unknown
// fields from the storefront cart are ignored; every schema violation is
// reported at once.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		var req createOrderRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.Struct(&req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateOrder(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
