package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
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

// stubProductRepo is an in-memory ProductRepository for testing.
type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newStubProductRepo() *stubProductRepo {
	return &stubProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (r *stubProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return p, nil
}

func (r *stubProductRepo) FindBySKU(_ context.Context, storeID uuid.UUID, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.StoreID == storeID && p.SKU == sku && p.IsActive {
			return p, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubProductRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Product, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubProductRepo) DecrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) (int64, error) {
	p, ok := r.products[id]
	if !ok || !p.IsActive || p.Stock < qty {
		return 0, nil
	}
	p.Stock -= qty
	return 1, nil
}

func (r *stubProductRepo) IncrementStockTx(_ *gorm.DB, id uuid.UUID, qty int) error {
	p, ok := r.products[id]
	if !ok {
		return errors.New("not found")
	}
	p.Stock += qty
	return nil
}

var _ repository.ProductRepository = (*stubProductRepo)(nil)

func seedProduct(r *stubProductRepo, storeID uuid.UUID, name, sku string, price float64, stock int) *model.Product {
	p := &model.Product{
		ID:        uuid.New(),
		StoreID:   storeID,
		SKU:       sku,
		Name:      name,
		SalePrice: decimal.NewFromFloat(price),
		TaxRate:   decimal.NewFromInt(18),
		Stock:     stock,
		IsActive:  true,
	}
	r.products[p.ID] = p
	return p
}

// stubCustomerRepo keeps customers keyed by id and document number.
type stubCustomerRepo struct {
	customers map[uuid.UUID]*model.Customer
}

func newStubCustomerRepo() *stubCustomerRepo {
	return &stubCustomerRepo{customers: make(map[uuid.UUID]*model.Customer)}
}

func (r *stubCustomerRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return c, nil
}

func (r *stubCustomerRepo) FindByDocumentTx(_ *gorm.DB, documentNumber string) (*model.Customer, error) {
	for _, c := range r.customers {
		if c.DocumentNumber == documentNumber {
			return c, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubCustomerRepo) CreateTx(_ *gorm.DB, c *model.Customer) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.customers[c.ID] = c
	return nil
}

var _ repository.CustomerRepository = (*stubCustomerRepo)(nil)

// stubSaleRepo is an in-memory SaleRepository. cashSum feeds the register
// reconciliation tests; customers, when wired, emulates the Customer join
// that FindByID preloads against a real database.
type stubSaleRepo struct {
	sales     map[uuid.UUID]*model.Sale
	cashSum   decimal.Decimal
	customers *stubCustomerRepo
}

func newStubSaleRepo() *stubSaleRepo {
	return &stubSaleRepo{sales: make(map[uuid.UUID]*model.Sale)}
}

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	r.sales[s.ID] = s
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return nil, errors.New("not found")
	}
	if s.Customer == nil && s.CustomerID != nil && r.customers != nil {
		s.Customer = r.customers.customers[*s.CustomerID]
	}
	return s, nil
}

func (r *stubSaleRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubSaleRepo) CountByStoreAndDayTx(_ *gorm.DB, storeID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	for _, s := range r.sales {
		if s.StoreID == storeID && !s.CreatedAt.Before(from) && s.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

func (r *stubSaleRepo) UpdateStatusNotesTx(_ *gorm.DB, id uuid.UUID, status string, notes *string) (int64, error) {
	s, ok := r.sales[id]
	if !ok || s.Status == status {
		return 0, nil
	}
	s.Status = status
	s.Notes = notes
	return 1, nil
}

func (r *stubSaleRepo) List(_ context.Context, storeID uuid.UUID, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.StoreID == storeID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) SumCompletedCashSinceTx(_ *gorm.DB, _ uuid.UUID, _ time.Time) (decimal.Decimal, error) {
	return r.cashSum, nil
}

func (r *stubSaleRepo) ListForWindow(_ context.Context, storeID uuid.UUID, from time.Time, to *time.Time) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.StoreID == storeID && s.Status == "completed" && !s.CreatedAt.Before(from) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── SaleService factory for tests ────────────────────────────────────────────

func buildSaleSvc() (service.SaleService, *stubSaleRepo, *stubProductRepo, *stubCustomerRepo) {
	saleRepo := newStubSaleRepo()
	productRepo := newStubProductRepo()
	customerRepo := newStubCustomerRepo()
	saleRepo.customers = customerRepo
	svc := service.NewSaleService(saleRepo, productRepo, customerRepo, nil)
	return svc, saleRepo, productRepo, customerRepo
}

func saleItem(p *model.Product, qty int) dto.SaleItemRequest {
	return dto.SaleItemRequest{
		ProductID: p.ID.String(),
		Quantity:  qty,
		UnitPrice: p.SalePrice,
	}
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestCreateSale_Totales(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Arroz 5kg", "SKU-0001", 20, 10)

	// 20.00 × 2 = 40.00 subtotal, IGV 18% = 7.20, total 47.20
	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 2)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, "40", resp.Subtotal.String())
	assert.Equal(t, "7.2", resp.TaxAmount.String())
	assert.Equal(t, "47.2", resp.Total.String())
	assert.Equal(t, "completed", resp.Status)

	// Daily correlative: first sale of the day for the store
	assert.Equal(t, fmt.Sprintf("%s-0001", time.Now().Format("20060102")), resp.SaleNumber)

	// Stock decremented 10 → 8
	assert.Equal(t, 8, productRepo.products[p.ID].Stock)
}

func TestCreateSale_NumeroCorrelativoPorDia(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Azúcar 1kg", "SKU-0002", 5, 100)

	req := dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
	}
	first, err := svc.CreateSale(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	second, err := svc.CreateSale(context.Background(), uuid.New(), req)
	require.NoError(t, err)

	day := time.Now().Format("20060102")
	assert.Equal(t, day+"-0001", first.SaleNumber)
	assert.Equal(t, day+"-0002", second.SaleNumber)
}

func TestCreateSale_RedondeoPorLinea(t *testing.T) {
	svc, saleRepo, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	a := seedProduct(productRepo, storeID, "Caramelo", "SKU-0003", 0.95, 50)
	b := seedProduct(productRepo, storeID, "Chicle", "SKU-0004", 1.01, 50)

	// línea A: 0.95 × 3 = 2.85, IGV 0.513 → 0.51
	// línea B: 1.01 × 1 = 1.01, IGV 0.1818 → 0.18
	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(a, 3), saleItem(b, 1)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, "3.86", resp.Subtotal.String())
	assert.Equal(t, "0.69", resp.TaxAmount.String())
	assert.Equal(t, "4.55", resp.Total.String())

	// The stored totals must reconcile exactly against the stored lines.
	stored := saleRepo.sales[uuid.MustParse(resp.ID)]
	lineSubtotal := decimal.Zero
	lineTax := decimal.Zero
	for _, item := range stored.Items {
		lineSubtotal = lineSubtotal.Add(item.Subtotal)
		lineTax = lineTax.Add(item.Total.Sub(item.Subtotal))
	}
	assert.True(t, stored.Subtotal.Equal(lineSubtotal), "subtotal no reconcilia")
	assert.True(t, stored.TaxAmount.Equal(lineTax), "IGV no reconcilia")
}

func TestCreateSale_DescuentoGlobal(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Aceite 1L", "SKU-0005", 20, 10)

	// Discount reduces the subtotal only; tax stays as computed per line.
	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 2)},
		PaymentMethod: "cash",
		Discount:      decimal.NewFromInt(5),
	})
	require.NoError(t, err)

	assert.Equal(t, "35", resp.Subtotal.String())
	assert.Equal(t, "7.2", resp.TaxAmount.String())
	assert.Equal(t, "42.2", resp.Total.String())
}

func TestCreateSale_DescuentoMayorQueSubtotal(t *testing.T) {
	svc, saleRepo, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Sal 1kg", "SKU-0006", 2, 10)

	_, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
		Discount:      decimal.NewFromInt(100),
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
	assert.Empty(t, saleRepo.sales)
}

func TestCreateSale_StockInsuficiente(t *testing.T) {
	svc, saleRepo, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Vino 750ml", "SKU-0007", 35, 2)

	_, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 5)},
		PaymentMethod: "card",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorContains(t, err, "stock insuficiente")

	// Nothing persisted, stock untouched
	assert.Empty(t, saleRepo.sales)
	assert.Equal(t, 2, productRepo.products[p.ID].Stock)
}

func TestCreateSale_ProductoInactivo(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Descontinuado", "SKU-0008", 10, 10)
	p.IsActive = false

	_, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
	})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorContains(t, err, "inactivo")
}

func TestCreateSale_ClienteExistentePorDocumento(t *testing.T) {
	svc, saleRepo, productRepo, customerRepo := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Leche 1L", "SKU-0009", 4.5, 20)

	existing := &model.Customer{
		ID:             uuid.New(),
		DocumentType:   "dni",
		DocumentNumber: "45678912",
		Name:           "María Quispe",
	}
	customerRepo.customers[existing.ID] = existing

	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID: storeID.String(),
		CustomerData: &dto.CustomerData{
			DocumentType:   "dni",
			DocumentNumber: "45678912",
			Name:           "Maria Quispe H.",
		},
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// Matched by document number — no duplicate customer created
	assert.Len(t, customerRepo.customers, 1)
	stored := saleRepo.sales[uuid.MustParse(resp.ID)]
	require.NotNil(t, stored.CustomerID)
	assert.Equal(t, existing.ID, *stored.CustomerID)
}

func TestCreateSale_ClienteNuevoInline(t *testing.T) {
	svc, _, productRepo, customerRepo := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Pan integral", "SKU-0010", 8, 20)

	_, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID: storeID.String(),
		CustomerData: &dto.CustomerData{
			DocumentType:   "ruc",
			DocumentNumber: "20123456789",
			Name:           "Bodega San Juan SAC",
		},
		Items:         []dto.SaleItemRequest{saleItem(p, 2)},
		PaymentMethod: "transfer",
	})
	require.NoError(t, err)
	assert.Len(t, customerRepo.customers, 1)
}

func TestCreateSale_RespuestaIncluyeCliente(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Queso fresco", "SKU-0014", 12, 20)

	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID: storeID.String(),
		CustomerData: &dto.CustomerData{
			DocumentType:   "dni",
			DocumentNumber: "71234568",
			Name:           "Rosa Huamán",
		},
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	// The response reflects the persisted sale, customer included.
	require.NotNil(t, resp.Customer)
	assert.Equal(t, "71234568", resp.Customer.DocumentNumber)
	assert.Equal(t, "Rosa Huamán", resp.Customer.Name)
	assert.Equal(t, "Queso fresco", resp.Items[0].Product)
}

func TestCancelSale_RestauraStock(t *testing.T) {
	svc, saleRepo, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Whisky 750ml", "SKU-0011", 90, 10)

	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 3)},
		PaymentMethod: "card",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, productRepo.products[p.ID].Stock)

	cancelled, err := svc.CancelSale(context.Background(), uuid.MustParse(resp.ID), "error de precio")
	require.NoError(t, err)

	assert.Equal(t, "cancelled", cancelled.Status)
	require.NotNil(t, cancelled.Notes)
	assert.Contains(t, *cancelled.Notes, "CANCELADA: error de precio")

	// Stock restored 7 → 10
	assert.Equal(t, 10, productRepo.products[p.ID].Stock)
	assert.Equal(t, "cancelled", saleRepo.sales[uuid.MustParse(resp.ID)].Status)
}

func TestCancelSale_YaAnulada(t *testing.T) {
	svc, _, productRepo, _ := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Gaseosa 1.5L", "SKU-0012", 6, 10)

	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 1)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	_, err = svc.CancelSale(context.Background(), uuid.MustParse(resp.ID), "cliente se arrepintió")
	require.NoError(t, err)

	_, err = svc.CancelSale(context.Background(), uuid.MustParse(resp.ID), "segundo intento")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// Stock must not be restored twice
	assert.Equal(t, 10, productRepo.products[p.ID].Stock)
}

func TestCancelSale_NoExiste(t *testing.T) {
	svc, _, _, _ := buildSaleSvc()
	_, err := svc.CancelSale(context.Background(), uuid.New(), "no importa")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

// staleSaleRepo serves a detached snapshot from the reads, so the stored
// record can change underneath the caller like a concurrent transaction would.
type staleSaleRepo struct {
	*stubSaleRepo
	snapshot *model.Sale
}

func (r *staleSaleRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	if r.snapshot != nil && r.snapshot.ID == id {
		return r.snapshot, nil
	}
	return r.stubSaleRepo.FindByID(context.Background(), id)
}

func (r *staleSaleRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	return r.FindByID(context.Background(), id)
}

func TestCancelSale_CancelacionConcurrente(t *testing.T) {
	svc, saleRepo, productRepo, customerRepo := buildSaleSvc()
	storeID := uuid.New()
	p := seedProduct(productRepo, storeID, "Ron 1L", "SKU-0015", 45, 10)

	resp, err := svc.CreateSale(context.Background(), uuid.New(), dto.CreateSaleRequest{
		StoreID:       storeID.String(),
		Items:         []dto.SaleItemRequest{saleItem(p, 3)},
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	saleID := uuid.MustParse(resp.ID)
	_, err = svc.CancelSale(context.Background(), saleID, "error de precio")
	require.NoError(t, err)
	assert.Equal(t, 10, productRepo.products[p.ID].Stock)

	// A second caller still holds the pre-cancel state of the sale.
	stored := saleRepo.sales[saleID]
	snapshot := *stored
	snapshot.Status = "completed"
	snapshot.Notes = nil

	stale := &staleSaleRepo{stubSaleRepo: saleRepo, snapshot: &snapshot}
	svc2 := service.NewSaleService(stale, productRepo, customerRepo, nil)

	_, err = svc2.CancelSale(context.Background(), saleID, "intento tardío")
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	// The losing cancel must not restore stock again nor rewrite the notes.
	assert.Equal(t, 10, productRepo.products[p.ID].Stock)
	require.NotNil(t, stored.Notes)
	assert.Contains(t, *stored.Notes, "error de precio")
	assert.NotContains(t, *stored.Notes, "intento tardío")
}
