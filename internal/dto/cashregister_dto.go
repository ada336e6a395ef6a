package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OpenCashRegisterRequest struct {
	StoreID       string          `json:"store_id"       validate:"required,uuid"`
	OpeningAmount decimal.Decimal `json:"opening_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type CloseCashRegisterRequest struct {
	RegisterID    string          `json:"register_id"    validate:"required,uuid"`
	ClosingAmount decimal.Decimal `json:"closing_amount" validate:"min=0"`
	Notes         *string         `json:"notes"`
}

type CreatePaymentRecordRequest struct {
	SaleID        string          `json:"sale_id"        validate:"required,uuid"`
	Amount        decimal.Decimal `json:"amount"         validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=cash card yape plin transfer"`
	Reference     *string         `json:"reference"`
	Notes         *string         `json:"notes"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CashRegisterResponse struct {
	ID            string          `json:"id"`
	StoreID       string          `json:"store_id"`
	Operator      string          `json:"operator"`
	OpeningAmount decimal.Decimal `json:"opening_amount"`
	// Closing fields are nil while the session is open.
	ClosingAmount  *decimal.Decimal `json:"closing_amount,omitempty"`
	ExpectedAmount *decimal.Decimal `json:"expected_amount,omitempty"`
	Difference     *decimal.Decimal `json:"difference,omitempty"`
	Status         string           `json:"status"`
	Notes          *string          `json:"notes,omitempty"`
	OpenedAt       string           `json:"opened_at"`
	ClosedAt       *string          `json:"closed_at,omitempty"`
}

// CashRegisterDetailResponse adds the completed sales inside the session window.
type CashRegisterDetailResponse struct {
	CashRegisterResponse
	Sales []SaleResponse `json:"sales"`
}

type PaymentRecordResponse struct {
	ID            string          `json:"id"`
	SaleID        string          `json:"sale_id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     *string         `json:"reference,omitempty"`
	Notes         *string         `json:"notes,omitempty"`
	CreatedAt     string          `json:"created_at"`
}
