package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: make(map[string]string)}
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if v, ok := f.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	str, _ := value.(string)
	f.data[key] = str
	return nil
}

func (f *fakeStore) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.data[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	f.data[key] = str
	return true, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("fake:%s:%s", scope, id)
}

func orderRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", strings.NewReader(body))
	req.RemoteAddr = "10.0.0.1:1234"
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	return req
}

func TestIdempotencyPassesThroughWithoutHeader(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
	}))

	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{"a":1}`, ""))
	}
	if calls != 2 {
		t.Fatalf("expected handler to run twice, ran %d", calls)
	}
	if len(store.data) != 0 {
		t.Fatalf("nothing should be stored without a key")
	}
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, orderRequest(`{"a":1}`, "abc"))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", first.Code)
	}

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, orderRequest(`{"a":1}`, "abc"))
	if replay.Code != http.StatusCreated {
		t.Fatalf("expected replay status 201 got %d", replay.Code)
	}
	if replay.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("expected content-type preserved")
	}
	if replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replay marker header")
	}
	if strings.TrimSpace(replay.Body.String()) != `{"ok":true}` {
		t.Fatalf("unexpected replay body %s", replay.Body.String())
	}
	if calls != 1 {
		t.Fatalf("handler executed %d times, expected 1", calls)
	}
}

func TestIdempotencyDetectsBodyChange(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{"a":1}`, "xyz"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, orderRequest(`{"a":2}`, "xyz"))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodeIdempotency) {
		t.Fatalf("expected %s got %s", pkgerrors.CodeIdempotency, payload.Error.Code)
	}
}

func TestIdempotencyDoesNotStoreServerErrors(t *testing.T) {
	store := newFakeStore()
	var calls int
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))

	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{"a":1}`, "retry"))
	handler.ServeHTTP(httptest.NewRecorder(), orderRequest(`{"a":1}`, "retry"))
	if calls != 2 {
		t.Fatalf("expected retry after server error, handler ran %d times", calls)
	}
}

func TestIdempotencyRejectsConcurrentDuplicate(t *testing.T) {
	store := newFakeStore()
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	handler := Idempotency(store, time.Hour, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		w.WriteHeader(http.StatusCreated)
	}))

	done := make(chan int)
	go func() {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, orderRequest(`{"a":1}`, "dup"))
		done <- resp.Code
	}()
	<-entered

	dup := httptest.NewRecorder()
	handler.ServeHTTP(dup, orderRequest(`{"a":1}`, "dup"))
	if dup.Code != http.StatusConflict {
		t.Fatalf("expected 409 for in-flight duplicate, got %d", dup.Code)
	}

	close(release)
	if code := <-done; code != http.StatusCreated {
		t.Fatalf("expected first request to finish with 201, got %d", code)
	}

	replay := httptest.NewRecorder()
	handler.ServeHTTP(replay, orderRequest(`{"a":1}`, "dup"))
	if replay.Code != http.StatusCreated || replay.Header().Get("Idempotent-Replayed") != "true" {
		t.Fatalf("expected replayed 201, got %d", replay.Code)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 1 {
		t.Fatalf("handler ran %d times, expected 1", calls)
	}
}

func TestIdempotencyRejectsOversizedBody(t *testing.T) {
	store := newFakeStore()
	handler := Idempotency(store, time.Hour, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, orderRequest(strings.Repeat("a", maxIdempotentBody+1), "big"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
	if len(store.data) != 0 {
		t.Fatalf("oversized request must not reserve a key")
	}
}
