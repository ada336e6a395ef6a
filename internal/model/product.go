package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product is the catalog entry the sale path reads and writes.
// Stock is mutated ONLY inside a sale or cancellation transaction —
// never adjust it outside those paths.
type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID     uuid.UUID `gorm:"type:uuid;index;not null"`
	SKU         string    `gorm:"uniqueIndex;not null;column:sku"`
	Name        string    `gorm:"index;not null"`
	Description *string
	CostPrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	SalePrice   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	// TaxRate is a percentage (e.g. 18.00 for IGV)
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null;default:18"`
	Stock     int             `gorm:"not null;default:0"`
	MinStock  int             `gorm:"not null;default:5"`
	IsActive  bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
