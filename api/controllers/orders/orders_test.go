package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalorders "github.com/angelmondragon/shopconsole-backend/internal/orders"
	"github.com/angelmondragon/shopconsole-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/pagination"
	"github.com/angelmondragon/shopconsole-backend/pkg/razorpay"
	"github.com/angelmondragon/shopconsole-backend/pkg/types"
)

type stubOrderService struct {
	created       *internalorders.CreateOrderInput
	createErr     error
	listFilters   internalorders.ListFilters
	listParams    pagination.Params
	getErr        error
	updatedStatus enums.OrderStatus
	invoiceURL    *string
}

func (s *stubOrderService) CreateOrder(_ context.Context, input internalorders.CreateOrderInput) (*internalorders.CreateOrderResult, error) {
	s.created = &input
	if s.createErr != nil {
		return nil, s.createErr
	}
	return &internalorders.CreateOrderResult{
		Order:               internalorders.OrderDTO{ID: uuid.New(), StoreID: input.StoreID, TotalAmount: input.TotalAmount},
		GatewayOrderDetails: &razorpay.RemoteOrder{ID: "order_1", Amount: 250000, Currency: "INR"},
	}, nil
}

func (s *stubOrderService) List(_ context.Context, _ uuid.UUID, filters internalorders.ListFilters, params pagination.Params) (*types.ListResult[internalorders.OrderDTO], error) {
	s.listFilters = filters
	s.listParams = params
	return &types.ListResult[internalorders.OrderDTO]{Items: []internalorders.OrderDTO{}}, nil
}

func (s *stubOrderService) Get(_ context.Context, storeID, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return &internalorders.OrderDTO{ID: orderID, StoreID: storeID}, nil
}

func (s *stubOrderService) UpdateStatus(_ context.Context, storeID, orderID uuid.UUID, status enums.OrderStatus) (*internalorders.OrderDTO, error) {
	s.updatedStatus = status
	return &internalorders.OrderDTO{ID: orderID, StoreID: storeID, OrderStatus: status}, nil
}

func (s *stubOrderService) UpdateTracking(_ context.Context, storeID, orderID uuid.UUID, trackingID string) (*internalorders.OrderDTO, error) {
	return &internalorders.OrderDTO{ID: orderID, StoreID: storeID, TrackingID: &trackingID}, nil
}

func (s *stubOrderService) AttachInvoice(_ context.Context, storeID, orderID uuid.UUID, invoiceURL string) (*internalorders.OrderDTO, error) {
	s.invoiceURL = &invoiceURL
	return &internalorders.OrderDTO{ID: orderID, StoreID: storeID}, nil
}

type errorBody struct {
	Error struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details []pkgerrors.FieldError `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestCreateMapsPayload(t *testing.T) {
	svc := &stubOrderService{}
	storeID := uuid.New()
	productID, variantID := uuid.New(), uuid.New()
	body := `{
		"storeId": "` + storeID.String() + `",
		"totalAmount": 2500,
		"phone": " +919999999999 ",
		"address": "12 MG Road",
		"email": "asha@example.com",
		"cartId": "ignored",
		"orderItems": [{"productId": "` + productID.String() + `", "variantId": "` + variantID.String() + `", "quantity": 2, "unitPrice": "1250.00"}]
	}`

	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NotNil(t, svc.created)
	assert.Equal(t, storeID, svc.created.StoreID)
	assert.True(t, decimal.NewFromInt(2500).Equal(svc.created.TotalAmount))
	assert.Equal(t, "+919999999999", svc.created.Phone)
	require.Len(t, svc.created.OrderItems, 1)
	assert.Equal(t, productID, svc.created.OrderItems[0].ProductID)
	assert.Nil(t, svc.created.OrderItems[0].TotalPrice)

	var resp struct {
		Data struct {
			GatewayOrderDetails struct {
				ID     string `json:"id"`
				Amount int64  `json:"amount"`
			} `json:"gatewayOrderDetails"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "order_1", resp.Data.GatewayOrderDetails.ID)
	assert.EqualValues(t, 250000, resp.Data.GatewayOrderDetails.Amount)
}

func TestCreateReportsEveryViolation(t *testing.T) {
	svc := &stubOrderService{}
	body := `{"storeId":"nope","totalAmount":0,"orderItems":[{"productId":"x","variantId":"` + uuid.NewString() + `","quantity":0,"unitPrice":-1}]}`

	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.created, "service must not be called")
	got := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeValidation), got.Error.Code)
	fields := make([]string, 0, len(got.Error.Details))
	for _, d := range got.Error.Details {
		fields = append(fields, d.Field)
	}
	assert.ElementsMatch(t, []string{
		"storeId",
		"totalAmount",
		"phone",
		"address",
		"orderItems[0].productId",
		"orderItems[0].quantity",
		"orderItems[0].unitPrice",
	}, fields)
}

func TestCreateSurfacesUpstreamFailure(t *testing.T) {
	svc := &stubOrderService{createErr: pkgerrors.New(pkgerrors.CodeUpstream, "payment gateway order creation failed")}
	body := `{"storeId":"` + uuid.NewString() + `","totalAmount":10,"phone":"1","address":"a","orderItems":[{"productId":"` + uuid.NewString() + `","variantId":"` + uuid.NewString() + `","quantity":1,"unitPrice":10}]}`

	rec := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body)))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeUpstream), decodeError(t, rec).Error.Code)
}

func adminRouter(svc internalorders.Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/stores/{storeId}/orders", func(r chi.Router) {
		r.Get("/", List(svc, nil))
		r.Get("/{orderId}", Detail(svc, nil))
		r.Patch("/{orderId}/status", UpdateStatus(svc, nil))
		r.Patch("/{orderId}/tracking", UpdateTracking(svc, nil))
		r.Post("/{orderId}/invoice", AttachInvoice(svc, nil))
	})
	return r
}

func TestListParsesFilters(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	url := "/stores/" + uuid.NewString() + "/orders/?status=processing&paid=true&limit=10&cursor=abc"
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.listFilters.Status)
	assert.Equal(t, enums.OrderStatusProcessing, *svc.listFilters.Status)
	require.NotNil(t, svc.listFilters.Paid)
	assert.True(t, *svc.listFilters.Paid)
	assert.Equal(t, pagination.Params{Limit: 10, Cursor: "abc"}, svc.listParams)
}

func TestListRejectsBadQuery(t *testing.T) {
	rec := httptest.NewRecorder()
	url := "/stores/" + uuid.NewString() + "/orders/?paid=maybe"
	adminRouter(&stubOrderService{}).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "paid must be true or false", decodeError(t, rec).Error.Message)
}

func TestUpdateStatusValidation(t *testing.T) {
	svc := &stubOrderService{}
	base := "/stores/" + uuid.NewString() + "/orders/" + uuid.NewString() + "/status"

	rec := httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"status":"LOST"}`)))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeError(t, rec).Error.Message, "status must be one of")

	rec = httptest.NewRecorder()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, base, strings.NewReader(`{"status":"SHIPPED"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, enums.OrderStatusShipped, svc.updatedStatus)
}

func TestDetailNotFound(t *testing.T) {
	svc := &stubOrderService{getErr: pkgerrors.New(pkgerrors.CodeOrderNotFound, "order not found")}
	rec := httptest.NewRecorder()
	url := "/stores/" + uuid.NewString() + "/orders/" + uuid.NewString()
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, url, nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, string(pkgerrors.CodeOrderNotFound), decodeError(t, rec).Error.Code)
}

func TestAttachInvoiceWithoutBodyUsesGateway(t *testing.T) {
	svc := &stubOrderService{}
	rec := httptest.NewRecorder()
	url := "/stores/" + uuid.NewString() + "/orders/" + uuid.NewString() + "/invoice"
	adminRouter(svc).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, nil))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.invoiceURL)
	assert.Equal(t, "", *svc.invoiceURL)
}
