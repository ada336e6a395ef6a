package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentRecord is an append-only payment log entry for a sale.
// Records are never updated or deleted.
type PaymentRecord struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID        uuid.UUID       `gorm:"type:uuid;index;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(20);not null"`
	Reference     *string         `gorm:"type:varchar(100)"`
	Notes         *string
	CreatedAt     time.Time

	Sale *Sale `gorm:"foreignKey:SaleID"`
}
