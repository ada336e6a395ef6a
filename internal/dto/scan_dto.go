package dto

import "github.com/shopspring/decimal"

// ─── Scanner pairing sessions ────────────────────────────────────────────────

type ScanBarcodeRequest struct {
	Barcode string `json:"barcode" validate:"required,min=3"`
}

type ScanSessionResponse struct {
	SessionID      string  `json:"session_id"`
	Exists         bool    `json:"exists"`
	Connected      bool    `json:"connected"`
	WasNotified    bool    `json:"was_notified"`
	ScannedBarcode *string `json:"scanned_barcode"`
}

// ScannedProduct is the catalog summary returned after a barcode scan.
type ScannedProduct struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku"`
	Name      string          `json:"name"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Stock     int             `json:"stock"`
}

type ScanResultResponse struct {
	Exists  bool            `json:"exists"`
	Barcode string          `json:"barcode"`
	Product *ScannedProduct `json:"product,omitempty"`
}
