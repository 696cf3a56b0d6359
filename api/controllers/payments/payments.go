package payments

import (
	"net/http"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/api/validators"
	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	internalpayments "github.com/angelmondragon/shopconsole-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

// verifyRequest accepts both the current field names and the gateway
// checkout callback names older storefronts still post.
type verifyRequest struct {
	OrderRef   string `json:"orderRef"`
	OrderID    string `json:"orderId"`
	PaymentRef string `json:"paymentRef"`
	Signature  string `json:"signature"`

	LegacyOrderRef   string `json:"razorpay_order_id"`
	LegacyPaymentRef string `json:"razorpay_payment_id"`
	LegacySignature  string `json:"razorpay_signature"`
	LegacyOrderID    string `json:"orderid"`
}

func (r verifyRequest) toInput() internalpayments.ClientVerification {
	return internalpayments.ClientVerification{
		OrderRef:   firstNonEmpty(r.OrderRef, r.LegacyOrderRef),
		OrderID:    firstNonEmpty(r.OrderID, r.LegacyOrderID),
		PaymentRef: firstNonEmpty(r.PaymentRef, r.LegacyPaymentRef),
		Signature:  firstNonEmpty(r.Signature, r.LegacySignature),
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Verify checks the storefront's signed payment confirmation and marks the
// order paid.
func Verify(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payment service unavailable"))
			return
		}

		var req verifyRequest
		if err := validators.DecodeLenientJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.VerifyClient(r.Context(), req.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type confirmManualRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required,max=64"`
}

type confirmManualResponse struct {
	Order   orders.OrderDTO          `json:"order"`
	Outcome internalpayments.Outcome `json:"outcome"`
}

// ConfirmManual lets a store owner mark an order paid by hand, for cash or
// bank transfers the gateway never sees.
func ConfirmManual(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		orderID, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}

		var req confirmManualRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}

		result, err := svc.ConfirmManual(r.Context(), storeID, orderID, req.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		responses.WriteSuccess(w, confirmManualResponse{Order: result.Order, Outcome: result.Outcome})
	}
}
