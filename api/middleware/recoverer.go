package middleware

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

// Recoverer turns handler panics into a 500 envelope and logs the route and
// the store and order it was serving. http.ErrAbortHandler is re-raised.
func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				err := fmt.Errorf("panic: %v", rec)
				ctx := r.Context()
				if logg != nil {
					ctx = logg.WithFields(ctx, panicFields(r, rec))
					logg.Error(ctx, "panic.recovered", err)
				}
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func panicFields(r *http.Request, rec any) map[string]any {
	fields := map[string]any{
		"panic":  fmt.Sprint(rec),
		"method": r.Method,
		"path":   r.URL.Path,
	}
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return fields
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		fields["route"] = pattern
	}
	if storeID := rctx.URLParam("storeId"); storeID != "" {
		fields["store_id"] = storeID
	}
	if orderID := rctx.URLParam("orderId"); orderID != "" {
		fields["order_id"] = orderID
	}
	return fields
}
