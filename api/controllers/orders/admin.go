package orders

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/api/validators"
	internalorders "github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	"github.com/angelmondragon/shopconsole-backend/pkg/pagination"
)

// List returns a keyset page of the store's orders, newest first.
func List(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}

		filters, err := buildListFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), storeID, filters, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func buildListFilters(r *http.Request) (internalorders.ListFilters, error) {
	var filters internalorders.ListFilters
	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter").
				WithDetails([]pkgerrors.FieldError{{Field: "status", Message: "must be one of PENDING PROCESSING SHIPPED DELIVERED CANCELLED"}})
		}
		filters.Status = &status
	}
	paid, err := validators.ParseQueryBool(r, "paid")
	if err != nil {
		return filters, err
	}
	filters.Paid = paid
	return filters, nil
}

// Detail returns one order with its items.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, orderID, err := parseOrderRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		order, err := svc.Get(r.Context(), storeID, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PROCESSING SHIPPED DELIVERED CANCELLED"`
}

// UpdateStatus moves an order along its fulfilment lifecycle.
func UpdateStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, orderID, err := parseOrderRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		var req updateStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		order, err := svc.UpdateStatus(r.Context(), storeID, orderID, enums.OrderStatus(req.Status))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type updateTrackingRequest struct {
	TrackingID string `json:"trackingId" validate:"required,max=128"`
}

func UpdateTracking(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, orderID, err := parseOrderRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		var req updateTrackingRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		order, err := svc.UpdateTracking(r.Context(), storeID, orderID, strings.TrimSpace(req.TrackingID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}

type attachInvoiceRequest struct {
	InvoiceURL string `json:"invoiceUrl" validate:"omitempty,url,max=2048"`
}

// AttachInvoice stores the given invoice link, or asks the gateway to issue
// one when the body omits it.
func AttachInvoice(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, orderID, err := parseOrderRoute(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
			return
		}
		var req attachInvoiceRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, validators.ForAdmin(err))
				return
			}
		}
		order, err := svc.AttachInvoice(r.Context(), storeID, orderID, strings.TrimSpace(req.InvoiceURL))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, order)
	}
}
