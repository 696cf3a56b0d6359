package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Subscriber is a newsletter signup for one store.
type Subscriber struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"column:store_id;type:uuid;not null;uniqueIndex:idx_subscribers_store_email"`
	Email     string    `gorm:"column:email;not null;uniqueIndex:idx_subscribers_store_email"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (s *Subscriber) BeforeCreate(*gorm.DB) error {
	ensureID(&s.ID)
	return nil
}
