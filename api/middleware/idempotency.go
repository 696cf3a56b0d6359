package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/shopconsole-backend/pkg/redis"
)

const (
	idempotencyHeader     = "Idempotency-Key"
	defaultIdempotencyTTL = 24 * time.Hour
	maxInFlightTTL        = 2 * time.Minute
	maxIdempotencyKeyLen  = 200
	maxIdempotentBody     = 1 << 20
)

type idempotencyRecord struct {
	Status      int               `json:"status"`
	Body        string            `json:"body"`
	Headers     map[string]string `json:"headers,omitempty"`
	RequestHash string            `json:"request_hash"`
	InFlight    bool              `json:"in_flight,omitempty"`
}

// Idempotency replays the stored response when a request repeats its
// Idempotency-Key with the same body. Requests without the header pass through.
// The key is reserved before the handler runs, so a concurrent duplicate gets
// 409 instead of a second order. Server errors release the key so the client
// can retry them.
func Idempotency(store pkgredis.IdempotencyStore, ttl time.Duration, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	inFlightTTL := ttl
	if inFlightTTL > maxInFlightTTL {
		inFlightTTL = maxInFlightTTL
	}
	return func(next http.Handler) http.Handler {
		if store == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idempotencyKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if idempotencyKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(idempotencyKey) > maxIdempotencyKeyLen {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key is too long").
					WithDetails([]pkgerrors.FieldError{{Field: idempotencyHeader, Message: "must be at most 200 characters"}}))
				return
			}

			body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxIdempotentBody))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body too large"))
					return
				}
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			requestHash := hashBody(body)
			key := store.IdempotencyKey(buildScope(r), idempotencyKey)

			reservation, _ := json.Marshal(idempotencyRecord{RequestHash: requestHash, InFlight: true})
			acquired, reserveErr := store.SetNX(r.Context(), key, string(reservation), inFlightTTL)
			if reserveErr != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, reserveErr, "reserve idempotency key"))
				return
			}
			if !acquired {
				replayOrReject(w, r, store, key, requestHash, logg)
				return
			}

			rec := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			// The request context may be cancelled once the response is out.
			persistCtx := context.WithoutCancel(r.Context())
			status := defaultStatus(rec.status)
			if status >= http.StatusInternalServerError {
				if delErr := store.Del(persistCtx, key); delErr != nil {
					logError(persistCtx, logg, "idempotency.release_failed", delErr)
				}
				return
			}
			record := idempotencyRecord{
				Status:      status,
				Body:        base64.StdEncoding.EncodeToString(rec.body.Bytes()),
				RequestHash: requestHash,
			}
			if ct := rec.Header().Get("Content-Type"); ct != "" {
				record.Headers = map[string]string{"Content-Type": ct}
			}
			payload, marshalErr := json.Marshal(record)
			if marshalErr != nil {
				logError(persistCtx, logg, "idempotency.marshal_failed", marshalErr)
				return
			}
			if setErr := store.Set(persistCtx, key, string(payload), ttl); setErr != nil {
				logError(persistCtx, logg, "idempotency.persist_failed", setErr)
			}
		})
	}
}

func replayOrReject(w http.ResponseWriter, r *http.Request, store pkgredis.IdempotencyStore, key, requestHash string, logg *logger.Logger) {
	stored, err := store.Get(r.Context(), key)
	if errors.Is(err, redis.Nil) {
		// The holder released the key between our SetNX and Get.
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
		return
	}
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
		return
	}
	record, err := decodeRecord(stored)
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.InFlight {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is still in progress"))
		return
	}
	w.Header().Set("Idempotent-Replayed", "true")
	writeStoredResponse(w, record)
}

// buildScope keeps keys from different callers and routes apart.
func buildScope(r *http.Request) string {
	return strings.Join([]string{
		UserIDFromContext(r.Context()),
		clientIP(r),
		r.Method,
		r.URL.Path,
	}, "|")
}

func decodeRecord(payload string) (*idempotencyRecord, error) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func writeStoredResponse(w http.ResponseWriter, record *idempotencyRecord) {
	if ct, ok := record.Headers["Content-Type"]; ok && ct != "" {
		w.Header().Set("Content-Type", ct)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func defaultStatus(value int) int {
	if value == 0 {
		return http.StatusOK
	}
	return value
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (r *responseCapture) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *responseCapture) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func logError(ctx context.Context, logg *logger.Logger, msg string, err error) {
	if logg == nil || err == nil {
		return
	}
	logg.Error(ctx, msg, err)
}
