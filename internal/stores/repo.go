package stores

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

// Repository handles store persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to store operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads a store by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}
