package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashRegister is a per-store cash drawer session.
// At most one open session per store at any time.
// Status: "open" | "closed"
type CashRegister struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID       uuid.UUID       `gorm:"type:uuid;index;not null"`
	UserID        uuid.UUID       `gorm:"type:uuid;not null"`
	OpeningAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// Closing fields are set on close:
	//   ExpectedAmount = OpeningAmount + Σ completed cash sales since OpenedAt
	//   Difference     = ClosingAmount − ExpectedAmount (negative = shortage)
	ClosingAmount  *decimal.Decimal `gorm:"type:decimal(12,2)"`
	ExpectedAmount *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Difference     *decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status         string           `gorm:"type:varchar(10);not null;default:'open'"`
	Notes          *string
	OpenedAt       time.Time `gorm:"not null"`
	ClosedAt       *time.Time

	Store *Store `gorm:"foreignKey:StoreID"`
	User  *User  `gorm:"foreignKey:UserID"`
}
