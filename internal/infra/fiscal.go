package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// FiscalItem is one sale line inside a fiscal document request.
type FiscalItem struct {
	Descripcion    string  `json:"descripcion"`
	Cantidad       int     `json:"cantidad"`
	PrecioUnitario float64 `json:"precio_unitario"`
	Subtotal       float64 `json:"subtotal"`
	IGV            float64 `json:"igv"`
	Total          float64 `json:"total"`
}

// FiscalRequest is sent to the fiscal gateway to obtain an authorized document.
type FiscalRequest struct {
	TipoComprobante string       `json:"tipo_comprobante"` // boleta | factura | nota_credito | nota_debito
	Serie           string       `json:"serie"`
	Numero          int64        `json:"numero"`
	FechaEmision    string       `json:"fecha_emision"` // YYYY-MM-DD
	ClienteTipoDoc  string       `json:"cliente_tipo_doc,omitempty"`
	ClienteNumDoc   string       `json:"cliente_num_doc,omitempty"`
	ClienteNombre   string       `json:"cliente_nombre,omitempty"`
	Subtotal        float64      `json:"subtotal"`
	IGV             float64      `json:"igv"`
	Total           float64      `json:"total"`
	Items           []FiscalItem `json:"items"`
}

// FiscalDocument carries the artifacts returned by the gateway for an
// accepted document. URL fields point at gateway-hosted copies; the *Content
// fields hold base64 payloads when the gateway inlines them.
type FiscalDocument struct {
	Serie      string `json:"serie"`
	Numero     int64  `json:"numero"`
	XML        string `json:"xml"`
	PDF        string `json:"pdf"`
	CDR        string `json:"cdr"`
	Hash       string `json:"hash"`
	QR         string `json:"qr"`
	XMLContent string `json:"xmlContent,omitempty"`
	PDFContent string `json:"pdfContent,omitempty"`
	CDRContent string `json:"cdrContent,omitempty"`
}

// FiscalResponse is the gateway envelope.
type FiscalResponse struct {
	Success     bool            `json:"success"`
	Comprobante *FiscalDocument `json:"comprobante,omitempty"`
	Error       string          `json:"error,omitempty"`
	Raw         json.RawMessage `json:"-"`
}

// FiscalClient talks to the external electronic-invoicing gateway. The gateway
// handles signing and tax-authority submission; this backend only persists the
// returned artifacts.
type FiscalClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	httpClient *http.Client
}

func NewFiscalClient(baseURL, apiKey, apiSecret string) *FiscalClient {
	return &FiscalClient{
		baseURL:    baseURL,
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emit sends the document to the gateway and returns the authorized result.
// A non-2xx status or success=false both count as gateway failure.
func (c *FiscalClient) Emit(ctx context.Context, payload FiscalRequest) (*FiscalResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("fiscal: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generar-comprobante", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("fiscal: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.apiSecret != "" {
		req.Header.Set("X-API-Secret", c.apiSecret)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fiscal: gateway unreachable: %w", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	var result FiscalResponse
	if err := json.NewDecoder(io.TeeReader(resp.Body, &buf)).Decode(&result); err != nil {
		return nil, fmt.Errorf("fiscal: decode response: %w", err)
	}
	result.Raw = json.RawMessage(buf.Bytes())

	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return nil, fmt.Errorf("fiscal: gateway returned %d: %s", resp.StatusCode, result.Error)
		}
		return nil, fmt.Errorf("fiscal: gateway returned %d", resp.StatusCode)
	}
	if !result.Success {
		return nil, fmt.Errorf("fiscal: gateway rejected document: %s", result.Error)
	}
	return &result, nil
}
