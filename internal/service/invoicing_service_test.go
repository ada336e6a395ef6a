package service_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/infra"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"
	"github.com/Yeferson-gm/test-crazy-b/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubInvoiceRepo struct {
	invoices map[uuid.UUID]*model.Invoice
	bySale   map[uuid.UUID]*model.Invoice
}

func newStubInvoiceRepo() *stubInvoiceRepo {
	return &stubInvoiceRepo{
		invoices: make(map[uuid.UUID]*model.Invoice),
		bySale:   make(map[uuid.UUID]*model.Invoice),
	}
}

func (r *stubInvoiceRepo) CreateTx(_ *gorm.DB, inv *model.Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	r.invoices[inv.ID] = inv
	r.bySale[inv.SaleID] = inv
	return nil
}

func (r *stubInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return inv, nil
}

func (r *stubInvoiceRepo) FindBySaleIDTx(_ *gorm.DB, saleID uuid.UUID) (*model.Invoice, error) {
	inv, ok := r.bySale[saleID]
	if !ok {
		return nil, errors.New("not found")
	}
	return inv, nil
}

func (r *stubInvoiceRepo) LastSequenceTx(_ *gorm.DB, storeID uuid.UUID, series string) (int64, error) {
	var max int64
	for _, inv := range r.invoices {
		if inv.StoreID == storeID && inv.Series == series && inv.Sequence > max {
			max = inv.Sequence
		}
	}
	return max, nil
}

func (r *stubInvoiceRepo) Update(_ context.Context, inv *model.Invoice) error {
	r.invoices[inv.ID] = inv
	return nil
}

func (r *stubInvoiceRepo) MarkCancelled(_ context.Context, id uuid.UUID, notes *string) (int64, error) {
	inv, ok := r.invoices[id]
	if !ok || inv.Status == "cancelled" {
		return 0, nil
	}
	inv.Status = "cancelled"
	inv.Notes = notes
	return 1, nil
}

func (r *stubInvoiceRepo) List(_ context.Context, storeID uuid.UUID, _ dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var out []model.Invoice
	for _, inv := range r.invoices {
		if inv.StoreID == storeID {
			out = append(out, *inv)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubInvoiceRepo) DB() *gorm.DB { return nil }

var _ repository.InvoiceRepository = (*stubInvoiceRepo)(nil)

// stubGateway records requests and returns a canned response or error.
type stubGateway struct {
	resp    *infra.FiscalResponse
	err     error
	calls   int
	lastReq infra.FiscalRequest
}

func (g *stubGateway) Emit(_ context.Context, payload infra.FiscalRequest) (*infra.FiscalResponse, error) {
	g.calls++
	g.lastReq = payload
	if g.err != nil {
		return nil, g.err
	}
	return g.resp, nil
}

var _ service.FiscalGateway = (*stubGateway)(nil)

// stubMedia records uploads and returns a fixed URL.
type stubMedia struct {
	url        string
	err        error
	uploads    int
	names      []string
	lastName   string
	lastFolder string
	lastTags   string
}

func (m *stubMedia) Upload(_ context.Context, fileName string, _ []byte, folder, tags string) (string, error) {
	m.uploads++
	m.names = append(m.names, fileName)
	m.lastName = fileName
	m.lastFolder = folder
	m.lastTags = tags
	if m.err != nil {
		return "", m.err
	}
	return m.url + "/" + fileName, nil
}

var _ service.MediaStore = (*stubMedia)(nil)

// ── Helpers ───────────────────────────────────────────────────────────────────

func acceptedFiscalResponse(series string, seq int64) *infra.FiscalResponse {
	doc := infra.FiscalDocument{
		Serie:      series,
		Numero:     seq,
		XML:        "https://gateway.test/xml",
		PDF:        "https://gateway.test/pdf",
		Hash:       "hash-abc123",
		QR:         "qr-data",
		PDFContent: base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 fake")),
	}
	resp := &infra.FiscalResponse{Success: true, Comprobante: &doc}
	raw, _ := json.Marshal(resp)
	resp.Raw = raw
	return resp
}

// seedCompletedSale stores a completed sale with an identified customer.
func seedCompletedSale(saleRepo *stubSaleRepo, storeID uuid.UUID) *model.Sale {
	customerID := uuid.New()
	sale := &model.Sale{
		ID:         uuid.New(),
		StoreID:    storeID,
		UserID:     uuid.New(),
		CustomerID: &customerID,
		SaleNumber: fmt.Sprintf("%s-%04d", time.Now().Format("20060102"), len(saleRepo.sales)+1),
		Subtotal:   decimal.NewFromInt(40),
		TaxAmount:  decimal.RequireFromString("7.20"),
		Total:      decimal.RequireFromString("47.20"),
		PaymentMethod: "cash",
		Status:        "completed",
		CreatedAt:     time.Now(),
		Customer: &model.Customer{
			ID:             customerID,
			DocumentType:   "dni",
			DocumentNumber: "12345678",
			Name:           "Juan Pérez",
		},
		Items: []model.SaleItem{{
			ID:        uuid.New(),
			ProductID: uuid.New(),
			Quantity:  2,
			UnitPrice: decimal.NewFromInt(20),
			TaxRate:   decimal.NewFromInt(18),
			Subtotal:  decimal.NewFromInt(40),
			Total:     decimal.RequireFromString("47.20"),
		}},
	}
	saleRepo.sales[sale.ID] = sale
	return sale
}

func buildInvoicingSvc(gw *stubGateway, media *stubMedia) (service.InvoicingService, *stubInvoiceRepo, *stubSaleRepo) {
	repo := newStubInvoiceRepo()
	saleRepo := newStubSaleRepo()
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	// A typed nil would slip past the service's nil check on the interface.
	var mediaStore service.MediaStore
	if media != nil {
		mediaStore = media
	}
	svc := service.NewInvoicingService(repo, saleRepo, gw, mediaStore, cb)
	return svc, repo, saleRepo
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateInvoice_CorrelativoYNumeroCompleto(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	media := &stubMedia{url: "https://media.test/invoices/doc.pdf"}
	svc, repo, saleRepo := buildInvoicingSvc(gw, media)

	storeID := uuid.New()
	sale := seedCompletedSale(saleRepo, storeID)

	resp, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID:      sale.ID.String(),
		InvoiceType: "boleta",
		Series:      "B001",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), resp.Sequence)
	assert.Equal(t, "B001-00000001", resp.FullNumber)
	assert.Equal(t, "accepted", resp.Status)
	assert.Len(t, repo.invoices, 1)

	// Gateway payload mirrors the sale
	assert.Equal(t, "boleta", gw.lastReq.TipoComprobante)
	assert.Equal(t, "B001", gw.lastReq.Serie)
	assert.Equal(t, int64(1), gw.lastReq.Numero)
	assert.Equal(t, "12345678", gw.lastReq.ClienteNumDoc)
	assert.InDelta(t, 47.20, gw.lastReq.Total, 0.001)

	// PDF mirrored to the media store
	assert.Equal(t, 1, media.uploads)
	assert.Equal(t, "B001-00000001.pdf", media.lastName)
	assert.Equal(t, "invoices/"+storeID.String(), media.lastFolder)
	assert.Equal(t, "B001-00000001,pdf,sunat", media.lastTags)
	require.NotNil(t, resp.PDFURL)
	assert.Equal(t, media.url+"/B001-00000001.pdf", *resp.PDFURL)
}

func TestCreateInvoice_CorrelativoIncrementa(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 0)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)
	storeID := uuid.New()

	first, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: seedCompletedSale(saleRepo, storeID).ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)
	second, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: seedCompletedSale(saleRepo, storeID).ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.Sequence)
	assert.Equal(t, int64(2), second.Sequence)
	assert.Equal(t, "B001-00000002", second.FullNumber)
}

func TestCreateInvoice_SeriesIndependientes(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("", 0)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)
	storeID := uuid.New()

	boleta, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: seedCompletedSale(saleRepo, storeID).ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)
	factura, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: seedCompletedSale(saleRepo, storeID).ID.String(), InvoiceType: "factura", Series: "F001",
	})
	require.NoError(t, err)

	// Each series keeps its own correlative
	assert.Equal(t, int64(1), boleta.Sequence)
	assert.Equal(t, int64(1), factura.Sequence)
}

func TestCreateInvoice_VentaYaFacturada(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)
	sale := seedCompletedSale(saleRepo, uuid.New())

	req := dto.CreateInvoiceRequest{SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001"}
	_, err := svc.CreateInvoice(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CreateInvoice(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	// The duplicate must be rejected before reaching the gateway
	assert.Equal(t, 1, gw.calls)
}

func TestCreateInvoice_GatewayRechaza(t *testing.T) {
	gw := &stubGateway{err: errors.New("fiscal: gateway rejected document: RUC invalido")}
	svc, repo, saleRepo := buildInvoicingSvc(gw, nil)
	sale := seedCompletedSale(saleRepo, uuid.New())

	_, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "factura", Series: "F001",
	})
	assert.True(t, apperr.Is(err, apperr.KindUpstream))

	// Nothing persisted: the correlative was never consumed
	assert.Empty(t, repo.invoices)
}

func TestCreateInvoice_VentaSinCliente(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)

	sale := seedCompletedSale(saleRepo, uuid.New())
	sale.CustomerID = nil
	sale.Customer = nil

	_, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	assert.Zero(t, gw.calls)
}

func TestCreateInvoice_VentaAnulada(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)

	sale := seedCompletedSale(saleRepo, uuid.New())
	sale.Status = "cancelled"

	_, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestCreateInvoice_CircuitoAbierto(t *testing.T) {
	gw := &stubGateway{err: errors.New("fiscal: gateway unreachable")}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)
	storeID := uuid.New()

	// Five consecutive failures trip the breaker open
	for i := 0; i < 5; i++ {
		sale := seedCompletedSale(saleRepo, storeID)
		_, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
			SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
		})
		require.Error(t, err)
	}
	require.Equal(t, 5, gw.calls)

	// Sixth request fast-fails without touching the gateway
	sale := seedCompletedSale(saleRepo, storeID)
	_, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	assert.True(t, apperr.Is(err, apperr.KindUpstream))
	assert.ErrorIs(t, err, infra.ErrCircuitOpen)
	assert.Equal(t, 5, gw.calls)
}

func TestCreateInvoice_EspejaTodosLosArtefactos(t *testing.T) {
	resp := acceptedFiscalResponse("B001", 1)
	resp.Comprobante.XMLContent = base64.StdEncoding.EncodeToString([]byte("<Invoice/>"))
	resp.Comprobante.CDRContent = base64.StdEncoding.EncodeToString([]byte("PK cdr fake"))
	raw, _ := json.Marshal(resp)
	resp.Raw = raw

	gw := &stubGateway{resp: resp}
	media := &stubMedia{url: "https://media.test"}
	svc, repo, saleRepo := buildInvoicingSvc(gw, media)
	sale := seedCompletedSale(saleRepo, uuid.New())

	created, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)

	// Every inlined artifact is mirrored, not only the PDF
	assert.Equal(t, 3, media.uploads)
	assert.ElementsMatch(t, []string{
		"B001-00000001.pdf",
		"B001-00000001.xml",
		"B001-00000001-cdr.zip",
	}, media.names)

	require.NotNil(t, created.PDFURL)
	assert.Equal(t, "https://media.test/B001-00000001.pdf", *created.PDFURL)
	require.NotNil(t, created.XMLURL)
	assert.Equal(t, "https://media.test/B001-00000001.xml", *created.XMLURL)

	stored := repo.invoices[uuid.MustParse(created.ID)]
	require.NotNil(t, stored.CDR)
	assert.Equal(t, "https://media.test/B001-00000001-cdr.zip", *stored.CDR)
}

func TestCreateInvoice_MediaFallaNoRompe(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	media := &stubMedia{err: errors.New("media store unavailable")}
	svc, repo, saleRepo := buildInvoicingSvc(gw, media)
	sale := seedCompletedSale(saleRepo, uuid.New())

	resp, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)
	assert.Len(t, repo.invoices, 1)

	// Gateway URL kept when the mirror upload fails
	require.NotNil(t, resp.PDFURL)
	assert.Equal(t, "https://gateway.test/pdf", *resp.PDFURL)
}

func TestCancelInvoice(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	svc, _, saleRepo := buildInvoicingSvc(gw, nil)
	sale := seedCompletedSale(saleRepo, uuid.New())

	created, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelInvoice(context.Background(), uuid.MustParse(created.ID), "datos del cliente errados")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.Notes)
	assert.Contains(t, *cancelled.Notes, "ANULADO: datos del cliente errados")

	// Already cancelled
	_, err = svc.CancelInvoice(context.Background(), uuid.MustParse(created.ID), "otra vez")
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

// staleInvoiceRepo serves a detached snapshot from FindByID so the stored
// record can change underneath the caller like a concurrent transaction would.
type staleInvoiceRepo struct {
	*stubInvoiceRepo
	snapshot *model.Invoice
}

func (r *staleInvoiceRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Invoice, error) {
	if r.snapshot != nil && r.snapshot.ID == id {
		return r.snapshot, nil
	}
	return r.stubInvoiceRepo.FindByID(context.Background(), id)
}

func TestCancelInvoice_AnulacionConcurrente(t *testing.T) {
	gw := &stubGateway{resp: acceptedFiscalResponse("B001", 1)}
	svc, repo, saleRepo := buildInvoicingSvc(gw, nil)
	sale := seedCompletedSale(saleRepo, uuid.New())

	created, err := svc.CreateInvoice(context.Background(), dto.CreateInvoiceRequest{
		SaleID: sale.ID.String(), InvoiceType: "boleta", Series: "B001",
	})
	require.NoError(t, err)

	invID := uuid.MustParse(created.ID)
	_, err = svc.CancelInvoice(context.Background(), invID, "datos errados")
	require.NoError(t, err)

	// A second caller still holds the pre-cancel state of the document.
	stored := repo.invoices[invID]
	snapshot := *stored
	snapshot.Status = "accepted"
	snapshot.Notes = nil

	stale := &staleInvoiceRepo{stubInvoiceRepo: repo, snapshot: &snapshot}
	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	svc2 := service.NewInvoicingService(stale, saleRepo, gw, nil, cb)

	_, err = svc2.CancelInvoice(context.Background(), invID, "intento tardío")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// The losing cancel must not rewrite the notes trail
	require.NotNil(t, stored.Notes)
	assert.Contains(t, *stored.Notes, "datos errados")
	assert.NotContains(t, *stored.Notes, "intento tardío")
}
