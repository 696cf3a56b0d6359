package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").
			WithDetails([]pkgerrors.FieldError{{Field: key, Message: "must be numeric"}})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").
			WithDetails([]pkgerrors.FieldError{{Field: key, Message: fmt.Sprintf("must be between %d and %d", min, max)}})
	}
	return value, nil
}

// ParseQueryBool parses an optional boolean query parameter.
func ParseQueryBool(r *http.Request, key string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be boolean").
			WithDetails([]pkgerrors.FieldError{{Field: key, Message: "must be true or false"}})
	}
	return &value, nil
}

// ParseUUIDParam reads a chi route parameter as a UUID.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeMissingParameters, key+" is required").
			WithDetails([]pkgerrors.FieldError{{Field: key, Message: "is required"}})
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key).
			WithDetails([]pkgerrors.FieldError{{Field: key, Message: "must be a valid UUID"}})
	}
	return id, nil
}
