package subscribers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	internalsubscribers "github.com/angelmondragon/shopconsole-backend/internal/subscribers"
)

type stubSubscriberService struct {
	seen map[string]bool
}

func (s *stubSubscriberService) Subscribe(_ context.Context, _ uuid.UUID, email string) (*internalsubscribers.Result, error) {
	if s.seen == nil {
		s.seen = map[string]bool{}
	}
	already := s.seen[email]
	s.seen[email] = true
	return &internalsubscribers.Result{Subscribed: true, AlreadySubscribed: already}, nil
}

func TestSubscribe(t *testing.T) {
	svc := &stubSubscriberService{}
	r := chi.NewRouter()
	r.Post("/stores/{storeId}/subscribers", Subscribe(svc, nil))
	url := "/stores/" + uuid.NewString() + "/subscribers"

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"email":"a@example.com"}`)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.JSONEq(t, `{"data":{"subscribed":true,"alreadySubscribed":false}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"email":"a@example.com"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"subscribed":true,"alreadySubscribed":true}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, url, strings.NewReader(`{"email":"not-an-email"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "must be a valid email")
}
