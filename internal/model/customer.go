package model

import (
	"time"

	"github.com/google/uuid"
)

// Customer identifies the buyer on a sale. DocumentType/DocumentNumber
// (DNI, RUC, …) are what the fiscal gateway requires to issue a document.
type Customer struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DocumentType   string    `gorm:"type:varchar(10);not null"`
	DocumentNumber string    `gorm:"index;not null"`
	Name           string    `gorm:"not null"`
	Email          *string
	Phone          *string
	Address        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
