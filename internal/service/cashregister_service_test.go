package service_test

import (
	"context"
	"errors"
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

type stubRegisterRepo struct {
	registers map[uuid.UUID]*model.CashRegister
}

func newStubRegisterRepo() *stubRegisterRepo {
	return &stubRegisterRepo{registers: make(map[uuid.UUID]*model.CashRegister)}
}

func (r *stubRegisterRepo) Create(_ context.Context, reg *model.CashRegister) error {
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	r.registers[reg.ID] = reg
	return nil
}

func (r *stubRegisterRepo) FindOpenByStore(_ context.Context, storeID uuid.UUID) (*model.CashRegister, error) {
	for _, reg := range r.registers {
		if reg.StoreID == storeID && reg.Status == "open" {
			return reg, nil
		}
	}
	return nil, errors.New("not found")
}

func (r *stubRegisterRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CashRegister, error) {
	reg, ok := r.registers[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return reg, nil
}

func (r *stubRegisterRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubRegisterRepo) UpdateTx(_ *gorm.DB, reg *model.CashRegister) error {
	r.registers[reg.ID] = reg
	return nil
}

func (r *stubRegisterRepo) History(_ context.Context, storeID uuid.UUID, _, _ int) ([]model.CashRegister, int64, error) {
	var out []model.CashRegister
	for _, reg := range r.registers {
		if reg.StoreID == storeID {
			out = append(out, *reg)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubRegisterRepo) DB() *gorm.DB { return nil }

var _ repository.CashRegisterRepository = (*stubRegisterRepo)(nil)

type stubPaymentRepo struct {
	records []model.PaymentRecord
}

func (r *stubPaymentRepo) Create(_ context.Context, p *model.PaymentRecord) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.CreatedAt = time.Now()
	r.records = append(r.records, *p)
	return nil
}

func (r *stubPaymentRepo) ListBySale(_ context.Context, saleID uuid.UUID) ([]model.PaymentRecord, error) {
	var out []model.PaymentRecord
	for _, rec := range r.records {
		if rec.SaleID == saleID {
			out = append(out, rec)
		}
	}
	return out, nil
}

var _ repository.PaymentRecordRepository = (*stubPaymentRepo)(nil)

func buildRegisterSvc() (service.CashRegisterService, *stubRegisterRepo, *stubSaleRepo, *stubPaymentRepo) {
	regRepo := newStubRegisterRepo()
	saleRepo := newStubSaleRepo()
	paymentRepo := &stubPaymentRepo{}
	svc := service.NewCashRegisterService(regRepo, saleRepo, paymentRepo)
	return svc, regRepo, saleRepo, paymentRepo
}

// ── Tests ─────────────────────────────────────────────────────────────────────

func TestOpenRegister_SoloUnaCajaPorTienda(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	storeID := uuid.New()

	req := dto.OpenCashRegisterRequest{
		StoreID:       storeID.String(),
		OpeningAmount: decimal.NewFromInt(100),
	}
	first, err := svc.OpenRegister(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, "open", first.Status)
	assert.Equal(t, "100", first.OpeningAmount.String())

	_, err = svc.OpenRegister(context.Background(), uuid.New(), req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorContains(t, err, "caja abierta")

	// A different store can still open its own register
	_, err = svc.OpenRegister(context.Background(), uuid.New(), dto.OpenCashRegisterRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: decimal.NewFromInt(50),
	})
	assert.NoError(t, err)
}

func TestOpenRegister_MontoNegativo(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	_, err := svc.OpenRegister(context.Background(), uuid.New(), dto.OpenCashRegisterRequest{
		StoreID:       uuid.New().String(),
		OpeningAmount: decimal.NewFromInt(-10),
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}

func TestCloseRegister_Arqueo(t *testing.T) {
	svc, _, saleRepo, _ := buildRegisterSvc()
	storeID := uuid.New()

	opened, err := svc.OpenRegister(context.Background(), uuid.New(), dto.OpenCashRegisterRequest{
		StoreID:       storeID.String(),
		OpeningAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	// 80.00 in completed cash sales during the session:
	// expected = 100 + 80 = 180; declared 175 → difference −5 (faltante)
	saleRepo.cashSum = decimal.NewFromInt(80)

	closed, err := svc.CloseRegister(context.Background(), dto.CloseCashRegisterRequest{
		RegisterID:    opened.ID,
		ClosingAmount: decimal.NewFromInt(175),
	})
	require.NoError(t, err)

	assert.Equal(t, "closed", closed.Status)
	require.NotNil(t, closed.ExpectedAmount)
	assert.Equal(t, "180", closed.ExpectedAmount.String())
	require.NotNil(t, closed.Difference)
	assert.Equal(t, "-5", closed.Difference.String())
	assert.NotNil(t, closed.ClosedAt)
}

func TestCloseRegister_YaCerrada(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	storeID := uuid.New()

	opened, err := svc.OpenRegister(context.Background(), uuid.New(), dto.OpenCashRegisterRequest{
		StoreID:       storeID.String(),
		OpeningAmount: decimal.NewFromInt(100),
	})
	require.NoError(t, err)

	req := dto.CloseCashRegisterRequest{
		RegisterID:    opened.ID,
		ClosingAmount: decimal.NewFromInt(100),
	}
	_, err = svc.CloseRegister(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.CloseRegister(context.Background(), req)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
	assert.ErrorContains(t, err, "ya está cerrada")
}

func TestCloseRegister_NoExiste(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	_, err := svc.CloseRegister(context.Background(), dto.CloseCashRegisterRequest{
		RegisterID:    uuid.New().String(),
		ClosingAmount: decimal.NewFromInt(100),
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestGetCurrentRegister_SinCajaAbierta(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	_, err := svc.GetCurrentRegister(context.Background(), uuid.New())
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreatePaymentRecord(t *testing.T) {
	svc, _, saleRepo, _ := buildRegisterSvc()

	sale := seedCompletedSale(saleRepo, uuid.New())

	rec, err := svc.CreatePaymentRecord(context.Background(), dto.CreatePaymentRecordRequest{
		SaleID:        sale.ID.String(),
		Amount:        decimal.RequireFromString("47.20"),
		PaymentMethod: "yape",
	})
	require.NoError(t, err)
	assert.Equal(t, "yape", rec.PaymentMethod)

	payments, err := svc.GetSalePayments(context.Background(), sale.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "47.2", payments[0].Amount.String())
}

func TestCreatePaymentRecord_VentaNoExiste(t *testing.T) {
	svc, _, _, _ := buildRegisterSvc()
	_, err := svc.CreatePaymentRecord(context.Background(), dto.CreatePaymentRecordRequest{
		SaleID:        uuid.New().String(),
		Amount:        decimal.NewFromInt(10),
		PaymentMethod: "cash",
	})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCreatePaymentRecord_MontoCero(t *testing.T) {
	svc, _, saleRepo, _ := buildRegisterSvc()
	sale := seedCompletedSale(saleRepo, uuid.New())

	_, err := svc.CreatePaymentRecord(context.Background(), dto.CreatePaymentRecordRequest{
		SaleID:        sale.ID.String(),
		Amount:        decimal.Zero,
		PaymentMethod: "cash",
	})
	assert.True(t, apperr.Is(err, apperr.KindInvalid))
}
