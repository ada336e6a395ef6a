package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateInvoiceRequest struct {
	SaleID      string `json:"sale_id"      validate:"required,uuid"`
	InvoiceType string `json:"invoice_type" validate:"required,oneof=boleta factura nota_credito nota_debito"`
	Series      string `json:"series"       validate:"required,min=3,max=10"`
}

type CancelInvoiceRequest struct {
	Reason string `json:"reason" validate:"required,min=5"`
}

// InvoiceFilter is bound from the query string of GET /v1/stores/:store_id/invoices.
type InvoiceFilter struct {
	Status    string `form:"status"     validate:"omitempty,oneof=accepted cancelled"`
	StartDate string `form:"start_date"` // YYYY-MM-DD
	EndDate   string `form:"end_date"`   // YYYY-MM-DD
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceResponse struct {
	ID          string          `json:"id"`
	SaleID      string          `json:"sale_id"`
	StoreID     string          `json:"store_id"`
	InvoiceType string          `json:"invoice_type"`
	Series      string          `json:"series"`
	Sequence    int64           `json:"sequence"`
	FullNumber  string          `json:"full_number"`
	IssueDate   string          `json:"issue_date"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
	Status      string          `json:"status"`
	XMLURL      *string         `json:"xml_url,omitempty"`
	PDFURL      *string         `json:"pdf_url,omitempty"`
	HashCode    *string         `json:"hash_code,omitempty"`
	QRCode      *string         `json:"qr_code,omitempty"`
	Notes       *string         `json:"notes,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

type InvoiceListResponse struct {
	Invoices   []InvoiceResponse `json:"invoices"`
	Pagination Pagination        `json:"pagination"`
}
