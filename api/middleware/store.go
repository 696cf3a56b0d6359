package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type storeAuthorizer interface {
	Authorize(ctx context.Context, userID string, storeID uuid.UUID) (*stores.StoreDTO, error)
}

// StoreOwner resolves {storeId} from the route and rejects callers who do not
// own that store. It must run after Auth.
func StoreOwner(authz storeAuthorizer, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			storeID, err := uuid.Parse(chi.URLParam(r, "storeId"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid store id").
					WithDetails([]pkgerrors.FieldError{{Field: "storeId", Message: "must be a valid UUID"}}))
				return
			}
			store, err := authz.Authorize(r.Context(), UserIDFromContext(r.Context()), storeID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithStoreID(r.Context(), store.ID.String())
			if logg != nil {
				ctx = logg.WithStoreID(ctx, store.ID.String())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
