package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/infra"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FiscalGateway abstracts the external invoicing API so unit tests can stub it.
type FiscalGateway interface {
	Emit(ctx context.Context, payload infra.FiscalRequest) (*infra.FiscalResponse, error)
}

// MediaStore abstracts the artifact upload API.
type MediaStore interface {
	Upload(ctx context.Context, fileName string, content []byte, folder string, tags string) (string, error)
}

type InvoicingService interface {
	CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, id uuid.UUID, reason string) (*dto.InvoiceResponse, error)
	GetInvoiceByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error)
	GetStoreInvoices(ctx context.Context, storeID uuid.UUID, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error)
}

type invoicingService struct {
	repo     repository.InvoiceRepository
	saleRepo repository.SaleRepository
	gateway  FiscalGateway
	media    MediaStore
	cb       *infra.CircuitBreaker
}

func NewInvoicingService(
	repo repository.InvoiceRepository,
	saleRepo repository.SaleRepository,
	gateway FiscalGateway,
	media MediaStore,
	cb *infra.CircuitBreaker,
) InvoicingService {
	return &invoicingService{
		repo:     repo,
		saleRepo: saleRepo,
		gateway:  gateway,
		media:    media,
		cb:       cb,
	}
}

// ── CreateInvoice ─────────────────────────────────────────────────────────────
// Issues a fiscal document for a completed sale:
//   1. Validate the sale: exists, completed, identified customer, not yet invoiced
//   2. Assign the correlative: MAX(sequence)+1 within (store, series)
//   3. Call the fiscal gateway through the circuit breaker — the gateway must
//      accept BEFORE anything is persisted; on failure no invoice row exists
//      and the correlative is never consumed
//   4. Persist the invoice with the gateway artifacts inside the tx
//   5. Best-effort: mirror the inlined artifacts to the media store after commit
//
// The whole validate-number-persist sequence runs in one transaction so two
// concurrent requests for the same sale or series serialize on the unique
// indexes instead of double-issuing.

func (s *invoicingService) CreateInvoice(ctx context.Context, req dto.CreateInvoiceRequest) (*dto.InvoiceResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, apperr.Invalid("sale_id inválido")
	}

	sale, err := s.saleRepo.FindByID(ctx, saleID)
	if err != nil {
		return nil, apperr.NotFound("venta no encontrada")
	}
	if sale.Status != "completed" {
		return nil, apperr.Conflict("solo se puede facturar una venta completada")
	}
	if sale.CustomerID == nil || sale.Customer == nil {
		return nil, apperr.Invalid("la venta no tiene cliente identificado; no se puede emitir comprobante")
	}

	var invoice model.Invoice

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if _, err := s.repo.FindBySaleIDTx(tx, saleID); err == nil {
			return apperr.Conflict("la venta ya tiene un comprobante emitido")
		}

		last, err := s.repo.LastSequenceTx(tx, sale.StoreID, req.Series)
		if err != nil {
			return err
		}
		sequence := last + 1
		fullNumber := fmt.Sprintf("%s-%08d", req.Series, sequence)
		issueDate := time.Now()

		// Gateway call happens inside the tx on purpose: a gateway rejection
		// aborts before any row is written, and the row lock from the
		// sequence read keeps a concurrent issuer from reusing the number.
		fiscalReq := buildFiscalRequest(sale, req.InvoiceType, req.Series, sequence, issueDate)

		var fiscalResp *infra.FiscalResponse
		cbErr := s.cb.Execute(func() error {
			resp, err := s.gateway.Emit(ctx, fiscalReq)
			if err != nil {
				return err
			}
			fiscalResp = resp
			return nil
		})
		if cbErr != nil {
			return apperr.Upstream("el servicio de facturación no está disponible", cbErr)
		}

		invoice = model.Invoice{
			SaleID:          saleID,
			StoreID:         sale.StoreID,
			CustomerID:      *sale.CustomerID,
			InvoiceType:     req.InvoiceType,
			Series:          req.Series,
			Sequence:        sequence,
			FullNumber:      fullNumber,
			IssueDate:       issueDate,
			Subtotal:        sale.Subtotal,
			TaxAmount:       sale.TaxAmount,
			Total:           sale.Total,
			Status:          "accepted",
			GatewayResponse: fiscalResp.Raw,
		}
		if doc := fiscalResp.Comprobante; doc != nil {
			invoice.XMLURL = nonEmpty(doc.XML)
			invoice.PDFURL = nonEmpty(doc.PDF)
			invoice.CDR = nonEmpty(doc.CDR)
			invoice.HashCode = nonEmpty(doc.Hash)
			invoice.QRCode = nonEmpty(doc.QR)
		}

		return s.repo.CreateTx(tx, &invoice)
	})
	if txErr != nil {
		return nil, txErr
	}

	// Mirror the gateway artifacts to media storage; failures keep the gateway URLs.
	s.mirrorArtifacts(ctx, &invoice)

	return invoiceToResponse(&invoice), nil
}

// mirrorArtifacts uploads every gateway-inlined artifact (PDF, XML, CDR) to
// the media store and replaces the URLs with the hosted copies. Strictly
// best-effort: any artifact that fails keeps its gateway URL.
func (s *invoicingService) mirrorArtifacts(ctx context.Context, inv *model.Invoice) {
	if s.media == nil || inv.GatewayResponse == nil {
		return
	}
	var resp infra.FiscalResponse
	if err := json.Unmarshal(inv.GatewayResponse, &resp); err != nil || resp.Comprobante == nil {
		return
	}
	doc := resp.Comprobante
	folder := fmt.Sprintf("invoices/%s", inv.StoreID)

	changed := false
	if url, ok := s.mirrorOne(ctx, inv, doc.PDFContent, inv.FullNumber+".pdf", folder, "pdf"); ok {
		inv.PDFURL = &url
		changed = true
	}
	if url, ok := s.mirrorOne(ctx, inv, doc.XMLContent, inv.FullNumber+".xml", folder, "xml"); ok {
		inv.XMLURL = &url
		changed = true
	}
	if url, ok := s.mirrorOne(ctx, inv, doc.CDRContent, inv.FullNumber+"-cdr.zip", folder, "cdr"); ok {
		inv.CDR = &url
		changed = true
	}
	if !changed {
		return
	}
	if err := s.repo.Update(ctx, inv); err != nil {
		log.Warn().Err(err).Str("invoice", inv.FullNumber).Msg("invoicing: failed to persist media urls")
	}
}

func (s *invoicingService) mirrorOne(ctx context.Context, inv *model.Invoice, b64, fileName, folder, kind string) (string, bool) {
	if b64 == "" {
		return "", false
	}
	content, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		log.Warn().Err(err).Str("invoice", inv.FullNumber).Str("artifact", kind).Msg("invoicing: bad artifact content from gateway")
		return "", false
	}
	tags := fmt.Sprintf("%s,%s,sunat", inv.FullNumber, kind)
	url, err := s.media.Upload(ctx, fileName, content, folder, tags)
	if err != nil {
		log.Warn().Err(err).Str("invoice", inv.FullNumber).Str("artifact", kind).Msg("invoicing: media upload failed, keeping gateway url")
		return "", false
	}
	return url, true
}

func buildFiscalRequest(sale *model.Sale, invoiceType, series string, sequence int64, issueDate time.Time) infra.FiscalRequest {
	items := make([]infra.FiscalItem, 0, len(sale.Items))
	for _, item := range sale.Items {
		name := ""
		if item.Product != nil {
			name = item.Product.Name
		}
		items = append(items, infra.FiscalItem{
			Descripcion:    name,
			Cantidad:       item.Quantity,
			PrecioUnitario: item.UnitPrice.InexactFloat64(),
			Subtotal:       item.Subtotal.InexactFloat64(),
			IGV:            item.Total.Sub(item.Subtotal).InexactFloat64(),
			Total:          item.Total.InexactFloat64(),
		})
	}

	req := infra.FiscalRequest{
		TipoComprobante: invoiceType,
		Serie:           series,
		Numero:          sequence,
		FechaEmision:    issueDate.Format("2006-01-02"),
		Subtotal:        sale.Subtotal.InexactFloat64(),
		IGV:             sale.TaxAmount.InexactFloat64(),
		Total:           sale.Total.InexactFloat64(),
		Items:           items,
	}
	if sale.Customer != nil {
		req.ClienteTipoDoc = sale.Customer.DocumentType
		req.ClienteNumDoc = sale.Customer.DocumentNumber
		req.ClienteNombre = sale.Customer.Name
	}
	return req
}

// ── CancelInvoice ─────────────────────────────────────────────────────────────

// CancelInvoice marks the document cancelled locally and records the reason.
// TODO: send the "comunicación de baja" to the gateway so the tax authority
// registers the cancellation too.
func (s *invoicingService) CancelInvoice(ctx context.Context, id uuid.UUID, reason string) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("comprobante no encontrado")
	}
	if inv.Status == "cancelled" {
		return nil, apperr.Conflict("el comprobante ya está anulado")
	}

	notes := fmt.Sprintf("ANULADO: %s", reason)
	if inv.Notes != nil && *inv.Notes != "" {
		notes = *inv.Notes + "\n" + notes
	}

	// Guarded write: a concurrent cancel that committed after the read above
	// makes this a no-op instead of appending the reason twice.
	affected, err := s.repo.MarkCancelled(ctx, id, &notes)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, apperr.Conflict("el comprobante ya está anulado")
	}

	inv.Status = "cancelled"
	inv.Notes = &notes
	return invoiceToResponse(inv), nil
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *invoicingService) GetInvoiceByID(ctx context.Context, id uuid.UUID) (*dto.InvoiceResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("comprobante no encontrado")
	}
	return invoiceToResponse(inv), nil
}

func (s *invoicingService) GetStoreInvoices(ctx context.Context, storeID uuid.UUID, filter dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	invoices, total, err := s.repo.List(ctx, storeID, filter)
	if err != nil {
		return nil, err
	}

	items := make([]dto.InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		items = append(items, *invoiceToResponse(&invoices[i]))
	}
	totalPages := int((total + int64(filter.Limit) - 1) / int64(filter.Limit))
	return &dto.InvoiceListResponse{
		Invoices: items,
		Pagination: dto.Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: totalPages,
		},
	}, nil
}

func invoiceToResponse(inv *model.Invoice) *dto.InvoiceResponse {
	return &dto.InvoiceResponse{
		ID:          inv.ID.String(),
		SaleID:      inv.SaleID.String(),
		StoreID:     inv.StoreID.String(),
		InvoiceType: inv.InvoiceType,
		Series:      inv.Series,
		Sequence:    inv.Sequence,
		FullNumber:  inv.FullNumber,
		IssueDate:   inv.IssueDate.Format("2006-01-02"),
		Subtotal:    inv.Subtotal,
		TaxAmount:   inv.TaxAmount,
		Total:       inv.Total,
		Status:      inv.Status,
		XMLURL:      inv.XMLURL,
		PDFURL:      inv.PDFURL,
		HashCode:    inv.HashCode,
		QRCode:      inv.QRCode,
		Notes:       inv.Notes,
		CreatedAt:   inv.CreatedAt.Format(time.RFC3339),
	}
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
