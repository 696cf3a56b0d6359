package webhooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	razorpaywebhook "github.com/angelmondragon/shopconsole-backend/internal/webhooks/razorpay"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

type stubWebhookService struct {
	delivery *razorpaywebhook.Delivery
	err      error
}

func (s *stubWebhookService) Handle(_ context.Context, delivery razorpaywebhook.Delivery) (*razorpaywebhook.Result, error) {
	s.delivery = &delivery
	if s.err != nil {
		return nil, s.err
	}
	return &razorpaywebhook.Result{Status: "paid", Event: "payment.captured"}, nil
}

func TestRazorpayWebhookPassesRawBody(t *testing.T) {
	svc := &stubWebhookService{}
	body := `{"event":"payment.captured",  "payload":{}}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", strings.NewReader(body))
	req.Header.Set("X-Razorpay-Signature", " deadbeef ")
	req.Header.Set("X-Razorpay-Event-Id", "evt_1")

	rec := httptest.NewRecorder()
	RazorpayWebhook(svc, nil).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NotNil(t, svc.delivery)
	assert.Equal(t, body, string(svc.delivery.Body))
	assert.Equal(t, "deadbeef", svc.delivery.Signature)
	assert.Equal(t, "evt_1", svc.delivery.EventID)
	assert.Contains(t, rec.Body.String(), `"status":"paid"`)
}

func TestRazorpayWebhookRejectsOversizedPayload(t *testing.T) {
	svc := &stubWebhookService{}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", strings.NewReader(strings.Repeat("a", maxPayloadBytes+1)))

	rec := httptest.NewRecorder()
	RazorpayWebhook(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.delivery)
}

func TestRazorpayWebhookMapsServiceErrors(t *testing.T) {
	svc := &stubWebhookService{err: pkgerrors.New(pkgerrors.CodeSignatureInvalid, "webhook signature mismatch")}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/razorpay", strings.NewReader(`{}`))

	rec := httptest.NewRecorder()
	RazorpayWebhook(svc, nil).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), string(pkgerrors.CodeSignatureInvalid))
}
