package model

import (
	"time"

	"github.com/google/uuid"
)

// Store is a point of sale. Sale numbers are scoped per store+day and
// invoice correlatives per store+series.
type Store struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Code      string    `gorm:"uniqueIndex;not null"`
	Name      string    `gorm:"not null"`
	Address   *string
	Phone     *string
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
