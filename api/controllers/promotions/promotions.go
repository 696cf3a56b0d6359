package promotions

import (
	"net/http"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/api/validators"
	"github.com/angelmondragon/shopconsole-backend/internal/promocodes"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

// Active lists the store's promo codes that can be applied right now.
func Active(svc promocodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		codes, err := svc.ListActive(r.Context(), storeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"promotions": codes})
	}
}

type validateRequest struct {
	Code       string          `json:"code" validate:"required,max=64"`
	CustomerID *string         `json:"customerId" validate:"omitempty,max=191"`
	Subtotal   decimal.Decimal `json:"subtotal" validate:"gte=0"`
}

// Validate previews the discount a code gives for a cart subtotal.
func Validate(svc promocodes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req validateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quote, err := svc.Quote(r.Context(), promocodes.QuoteInput{
			StoreID:    storeID,
			Code:       strings.TrimSpace(req.Code),
			CustomerID: req.CustomerID,
			Subtotal:   req.Subtotal,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, quote)
	}
}
