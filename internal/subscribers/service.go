package subscribers

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/internal/stores"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
	"github.com/angelmondragon/shopconsole-backend/pkg/logger"
)

// Result is returned for every successful signup, repeated or not.
type Result struct {
	Subscribed        bool `json:"subscribed"`
	AlreadySubscribed bool `json:"alreadySubscribed"`
}

// Service handles storefront newsletter signups.
type Service interface {
	Subscribe(ctx context.Context, storeID uuid.UUID, email string) (*Result, error)
}

type service struct {
	repo   Repository
	stores stores.Service
	logg   *logger.Logger
}

func NewService(repo Repository, storeSvc stores.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("subscriber repository required")
	}
	if storeSvc == nil {
		return nil, fmt.Errorf("store service required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, stores: storeSvc, logg: logg}, nil
}

// Subscribe records email for the store. Emails compare case-insensitively and
// a repeat signup succeeds with AlreadySubscribed set.
func (s *service) Subscribe(ctx context.Context, storeID uuid.UUID, email string) (*Result, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required").
			WithDetails([]pkgerrors.FieldError{{Field: "email", Message: "is required"}})
	}
	if _, err := s.stores.GetByID(ctx, storeID); err != nil {
		return nil, err
	}

	created, err := s.repo.Insert(ctx, &models.Subscriber{StoreID: storeID, Email: email})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save subscriber")
	}
	if created {
		s.logg.Info(s.logg.WithStoreID(ctx, storeID.String()), "subscribers.created")
	}
	return &Result{Subscribed: true, AlreadySubscribed: !created}, nil
}
