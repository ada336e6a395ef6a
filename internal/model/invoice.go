package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice stores an electronic fiscal document issued for a sale.
// At most one invoice per sale (unique index on SaleID); the correlative
// (Sequence) is unique and monotonic within (store, series).
// InvoiceType: "boleta" | "factura" | "nota_credito" | "nota_debito"
// Status: "accepted" | "cancelled"
type Invoice struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SaleID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null"`
	StoreID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_store_series_seq;not null"`
	CustomerID uuid.UUID `gorm:"type:uuid;index;not null"`
	InvoiceType string   `gorm:"type:varchar(20);not null"`
	Series      string   `gorm:"type:varchar(10);uniqueIndex:idx_store_series_seq;not null"`
	Sequence    int64    `gorm:"uniqueIndex:idx_store_series_seq;not null"`
	// FullNumber format: SERIES-NNNNNNNN (sequence zero-padded to 8)
	FullNumber string    `gorm:"not null"`
	IssueDate  time.Time `gorm:"not null"`

	// Amounts mirrored from the sale at issue time
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	TaxAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Total     decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Status string `gorm:"type:varchar(20);not null;default:'accepted'"`
	// GatewayResponse keeps the fiscal gateway's full reply for audit.
	GatewayResponse []byte  `gorm:"type:jsonb"`
	CDR             *string `gorm:"column:cdr"`
	XMLURL          *string `gorm:"column:xml_url"`
	PDFURL          *string `gorm:"column:pdf_url"`
	HashCode        *string
	QRCode          *string `gorm:"column:qr_code"`
	Notes           *string
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Sale     *Sale     `gorm:"foreignKey:SaleID"`
	Customer *Customer `gorm:"foreignKey:CustomerID"`
	Store    *Store    `gorm:"foreignKey:StoreID"`
}
