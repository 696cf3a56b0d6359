package orders

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/api/validators"
)

func parseOrderRoute(r *http.Request) (uuid.UUID, uuid.UUID, error) {
	storeID, err := validators.ParseUUIDParam(r, "storeId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	orderID, err := validators.ParseUUIDParam(r, "orderId")
	if err != nil {
		return uuid.Nil, uuid.Nil, err
	}
	return storeID, orderID, nil
}
