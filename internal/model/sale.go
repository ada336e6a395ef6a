package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale is a completed POS transaction. Created atomically with its items;
// immutable once completed except for the status transition to "cancelled"
// and the append-only notes trail.
// Status: "completed" | "cancelled"
type Sale struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	StoreID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_store_sale_number;not null"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null"`
	// CustomerID is optional: quick anonymous sales carry no customer but
	// cannot be invoiced later.
	CustomerID *uuid.UUID `gorm:"type:uuid;index"`
	// SaleNumber format: YYYYMMDD-NNNN, sequence scoped per store+day.
	SaleNumber string          `gorm:"uniqueIndex:idx_store_sale_number;not null"`
	Subtotal   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Discount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	// PaymentMethod: "cash" | "card" | "yape" | "plin" | "transfer"
	PaymentMethod    string  `gorm:"type:varchar(20);not null"`
	PaymentReference *string `gorm:"type:varchar(100)"`
	Status           string  `gorm:"type:varchar(20);not null;default:'completed'"`
	Notes            *string
	CreatedAt        time.Time `gorm:"index"`
	UpdatedAt        time.Time

	Items    []SaleItem `gorm:"foreignKey:SaleID"`
	Customer *Customer  `gorm:"foreignKey:CustomerID"`
	User     *User      `gorm:"foreignKey:UserID"`
	Store    *Store     `gorm:"foreignKey:StoreID"`
}

// SaleItem is an append-only line of a sale. UnitPrice and TaxRate are
// snapshots so historical sales are unaffected by later product edits.
type SaleItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID    uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity  int             `gorm:"not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TaxRate   decimal.Decimal `gorm:"type:decimal(5,2);not null"`
	Discount  decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt time.Time

	Product *Product `gorm:"foreignKey:ProductID"`
}
