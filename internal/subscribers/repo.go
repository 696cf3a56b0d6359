package subscribers

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/shopconsole-backend/pkg/db/models"
)

// Repository persists newsletter signups.
type Repository interface {
	Insert(ctx context.Context, subscriber *models.Subscriber) (bool, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to subscriber operations.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Insert adds the subscriber unless the store already has that email. It
// reports whether a row was written.
func (r *repository) Insert(ctx context.Context, subscriber *models.Subscriber) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "store_id"}, {Name: "email"}},
			DoNothing: true,
		}).
		Create(subscriber)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
