package stores

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/shopconsole-backend/pkg/db"
	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/shopconsole-backend/pkg/errors"
)

type storeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

// StoreDTO is the minimal store view shared with other services.
type StoreDTO struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	OwnerID string    `json:"ownerId"`
}

// Service exposes store lookups and the owner check used by admin routes.
type Service interface {
	GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error)
	Authorize(ctx context.Context, userID string, storeID uuid.UUID) (*StoreDTO, error)
}

type service struct {
	repo storeRepository
}

// NewService builds a store service with the provided repository.
func NewService(repo storeRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("store repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*StoreDTO, error) {
	store, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load store")
	}
	return &StoreDTO{ID: store.ID, Name: store.Name, OwnerID: store.OwnerID}, nil
}

// Authorize returns the store when userID owns it. Unknown stores are
// NOT_FOUND and stores owned by someone else are FORBIDDEN.
func (s *service) Authorize(ctx context.Context, userID string, storeID uuid.UUID) (*StoreDTO, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	store, err := s.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store does not belong to user")
	}
	return store, nil
}
