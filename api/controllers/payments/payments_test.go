package payments

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/shopconsole-backend/internal/orders"
	internalpayments "github.com/angelmondragon/shopconsole-backend/internal/payments"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

type stubPaymentService struct {
	verified  *internalpayments.ClientVerification
	verifyErr error
	method    string
}

func (s *stubPaymentService) ApplyPaymentConfirmation(context.Context, internalpayments.Confirmation) (*internalpayments.Result, error) {
	return nil, nil
}

func (s *stubPaymentService) ResolveOrder(context.Context, string, string) (*models.Order, error) {
	return nil, nil
}

func (s *stubPaymentService) VerifyClient(_ context.Context, input internalpayments.ClientVerification) (*internalpayments.VerifyResult, error) {
	s.verified = &input
	if s.verifyErr != nil {
		return nil, s.verifyErr
	}
	return &internalpayments.VerifyResult{Status: internalpayments.OutcomePaid, OrderID: uuid.New()}, nil
}

func (s *stubPaymentService) ConfirmManual(_ context.Context, storeID, orderID uuid.UUID, method string) (*internalpayments.Result, error) {
	s.method = method
	return &internalpayments.Result{
		Order:        orders.OrderDTO{ID: orderID, StoreID: storeID, Paid: true, PaymentMethod: method},
		Outcome:      internalpayments.OutcomePaid,
		Transitioned: true,
	}, nil
}

func TestVerifyAcceptsCurrentFieldNames(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"orderRef":"order_1","paymentRef":"pay_1","signature":"abc"}`

	rec := httptest.NewRecorder()
	Verify(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, internalpayments.ClientVerification{OrderRef: "order_1", PaymentRef: "pay_1", Signature: "abc"}, *svc.verified)

	var resp struct {
		Data struct {
			Status string `json:"status"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "paid", resp.Data.Status)
}

func TestVerifyAcceptsLegacyAliases(t *testing.T) {
	svc := &stubPaymentService{}
	body := `{"razorpay_order_id":"order_9","razorpay_payment_id":"pay_9","razorpay_signature":"sig","orderid":"local-1"}`

	rec := httptest.NewRecorder()
	Verify(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(body)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, internalpayments.ClientVerification{
		OrderRef:   "order_9",
		OrderID:    "local-1",
		PaymentRef: "pay_9",
		Signature:  "sig",
	}, *svc.verified)
}

func TestVerifySignatureMismatch(t *testing.T) {
	svc := &stubPaymentService{verifyErr: pkgerrors.New(pkgerrors.CodeSignatureInvalid, "payment signature mismatch")}

	rec := httptest.NewRecorder()
	Verify(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"orderRef":"o","paymentRef":"p","signature":"s"}`)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeSignatureInvalid))
}

func TestVerifyRejectsMalformedBody(t *testing.T) {
	svc := &stubPaymentService{}
	rec := httptest.NewRecorder()
	Verify(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/payments/verify", strings.NewReader(`{"orderRef":`)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.verified)
}

func TestConfirmManual(t *testing.T) {
	svc := &stubPaymentService{}
	r := chi.NewRouter()
	r.Patch("/stores/{storeId}/orders/{orderId}/payment", ConfirmManual(svc, nil))
	url := "/stores/" + uuid.NewString() + "/orders/" + uuid.NewString() + "/payment"

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{"paymentMethod":"cash"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cash", svc.method)
	assert.Contains(t, rec.Body.String(), `"outcome":"paid"`)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, url, strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "paymentMethod is required")
}
