package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// CustomerData creates (or matches by document number) a customer inline
// with the sale when no CustomerID is provided.
type CustomerData struct {
	DocumentType   string  `json:"document_type"   validate:"required,oneof=dni ruc ce passport"`
	DocumentNumber string  `json:"document_number" validate:"required,min=8,max=15"`
	Name           string  `json:"name"            validate:"required,min=2"`
	Email          *string `json:"email"           validate:"omitempty,email"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
}

type SaleItemRequest struct {
	ProductID string          `json:"product_id" validate:"required,uuid"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"required"`
	Discount  decimal.Decimal `json:"discount"   validate:"min=0"`
}

type CreateSaleRequest struct {
	StoreID      string            `json:"store_id"      validate:"required,uuid"`
	CustomerID   *string           `json:"customer_id"   validate:"omitempty,uuid"`
	CustomerData *CustomerData     `json:"customer_data" validate:"omitempty"`
	Items        []SaleItemRequest `json:"items"         validate:"required,min=1,dive"`
	PaymentMethod    string  `json:"payment_method"    validate:"required,oneof=cash card yape plin transfer"`
	PaymentReference *string `json:"payment_reference"`
	// Discount applies at order level, after per-line discounts.
	Discount decimal.Decimal `json:"discount" validate:"min=0"`
	Notes    *string         `json:"notes"`
	// ReceiptEmail: optional — when present, a PDF receipt is mailed asynchronously.
	ReceiptEmail *string `json:"receipt_email" validate:"omitempty,email"`
}

type CancelSaleRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// SaleFilter is bound from the query string of GET /v1/stores/:store_id/sales.
type SaleFilter struct {
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Product   string          `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Discount  decimal.Decimal `json:"discount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Total     decimal.Decimal `json:"total"`
}

type CustomerResponse struct {
	ID             string  `json:"id"`
	DocumentType   string  `json:"document_type"`
	DocumentNumber string  `json:"document_number"`
	Name           string  `json:"name"`
	Email          *string `json:"email,omitempty"`
}

type SaleResponse struct {
	ID               string             `json:"id"`
	StoreID          string             `json:"store_id"`
	SaleNumber       string             `json:"sale_number"`
	Items            []SaleItemResponse `json:"items"`
	Customer         *CustomerResponse  `json:"customer,omitempty"`
	Operator         string             `json:"operator"`
	Subtotal         decimal.Decimal    `json:"subtotal"`
	TaxAmount        decimal.Decimal    `json:"tax_amount"`
	Discount         decimal.Decimal    `json:"discount"`
	Total            decimal.Decimal    `json:"total"`
	PaymentMethod    string             `json:"payment_method"`
	PaymentReference *string            `json:"payment_reference,omitempty"`
	Status           string             `json:"status"`
	Notes            *string            `json:"notes,omitempty"`
	CreatedAt        string             `json:"created_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type SaleListResponse struct {
	Sales      []SaleResponse `json:"sales"`
	Pagination Pagination     `json:"pagination"`
}
