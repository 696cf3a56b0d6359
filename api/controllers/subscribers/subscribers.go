package subscribers

import (
	"net/http"

	"github.com/angelmondragon/shopconsole-backend/api/responses"
	"github.com/angelmondragon/shopconsole-backend/api/validators"
	internalsubscribers "github.com/angelmondragon/shopconsole-backend/internal/subscribers"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

type subscribeRequest struct {
	Email string `json:"email" validate:"required,email,max=320"`
}

// Subscribe adds an email to the store's newsletter list. Subscribing twice
// is reported, not rejected.
func Subscribe(svc internalsubscribers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeID, err := validators.ParseUUIDParam(r, "storeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req subscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Subscribe(r.Context(), storeID, req.Email)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
