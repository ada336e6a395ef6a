package service

import (
	"context"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/apperr"
	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"
	"github.com/Yeferson-gm/test-crazy-b/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CashRegisterService interface {
	OpenRegister(ctx context.Context, userID uuid.UUID, req dto.OpenCashRegisterRequest) (*dto.CashRegisterResponse, error)
	CloseRegister(ctx context.Context, req dto.CloseCashRegisterRequest) (*dto.CashRegisterResponse, error)
	GetCurrentRegister(ctx context.Context, storeID uuid.UUID) (*dto.CashRegisterDetailResponse, error)
	GetRegisterByID(ctx context.Context, id uuid.UUID) (*dto.CashRegisterDetailResponse, error)
	GetHistory(ctx context.Context, storeID uuid.UUID, page, limit int) ([]dto.CashRegisterResponse, int64, error)
	CreatePaymentRecord(ctx context.Context, req dto.CreatePaymentRecordRequest) (*dto.PaymentRecordResponse, error)
	GetSalePayments(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentRecordResponse, error)
}

type cashRegisterService struct {
	repo        repository.CashRegisterRepository
	saleRepo    repository.SaleRepository
	paymentRepo repository.PaymentRecordRepository
}

func NewCashRegisterService(
	repo repository.CashRegisterRepository,
	saleRepo repository.SaleRepository,
	paymentRepo repository.PaymentRecordRepository,
) CashRegisterService {
	return &cashRegisterService{
		repo:        repo,
		saleRepo:    saleRepo,
		paymentRepo: paymentRepo,
	}
}

// ── OpenRegister ──────────────────────────────────────────────────────────────

// OpenRegister starts a cash session for the store. At most one session can be
// open per store; the partial unique index backs this guard under concurrency.
func (s *cashRegisterService) OpenRegister(ctx context.Context, userID uuid.UUID, req dto.OpenCashRegisterRequest) (*dto.CashRegisterResponse, error) {
	storeID, err := uuid.Parse(req.StoreID)
	if err != nil {
		return nil, apperr.Invalid("store_id inválido")
	}
	if req.OpeningAmount.IsNegative() {
		return nil, apperr.Invalid("el monto de apertura no puede ser negativo")
	}

	if _, err := s.repo.FindOpenByStore(ctx, storeID); err == nil {
		return nil, apperr.Conflict("la tienda ya tiene una caja abierta")
	}

	reg := model.CashRegister{
		StoreID:       storeID,
		UserID:        userID,
		OpeningAmount: req.OpeningAmount,
		Status:        "open",
		Notes:         req.Notes,
		OpenedAt:      time.Now(),
	}
	if err := s.repo.Create(ctx, &reg); err != nil {
		return nil, err
	}
	return registerToResponse(&reg), nil
}

// ── CloseRegister ─────────────────────────────────────────────────────────────

// CloseRegister reconciles and closes the session in one transaction:
//   expected  = opening + Σ completed cash sales since OpenedAt
//   difference = declared closing − expected (negative = shortage)
func (s *cashRegisterService) CloseRegister(ctx context.Context, req dto.CloseCashRegisterRequest) (*dto.CashRegisterResponse, error) {
	regID, err := uuid.Parse(req.RegisterID)
	if err != nil {
		return nil, apperr.Invalid("register_id inválido")
	}
	if req.ClosingAmount.IsNegative() {
		return nil, apperr.Invalid("el monto de cierre no puede ser negativo")
	}

	var reg *model.CashRegister

	txErr := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		r, err := s.findRegister(ctx, tx, regID)
		if err != nil {
			return apperr.NotFound("caja no encontrada")
		}
		if r.Status != "open" {
			return apperr.Conflict("la caja ya está cerrada")
		}

		cashTotal, err := s.saleRepo.SumCompletedCashSinceTx(tx, r.StoreID, r.OpenedAt)
		if err != nil {
			return err
		}

		expected := r.OpeningAmount.Add(cashTotal)
		difference := req.ClosingAmount.Sub(expected)
		now := time.Now()

		r.ClosingAmount = &req.ClosingAmount
		r.ExpectedAmount = &expected
		r.Difference = &difference
		r.Status = "closed"
		r.ClosedAt = &now
		if req.Notes != nil {
			r.Notes = req.Notes
		}

		if err := s.repo.UpdateTx(tx, r); err != nil {
			return err
		}
		reg = r
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}
	return registerToResponse(reg), nil
}

func (s *cashRegisterService) findRegister(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	if tx != nil {
		return s.repo.FindByIDTx(tx, id)
	}
	return s.repo.FindByID(ctx, id)
}

// ── Queries ───────────────────────────────────────────────────────────────────

func (s *cashRegisterService) GetCurrentRegister(ctx context.Context, storeID uuid.UUID) (*dto.CashRegisterDetailResponse, error) {
	reg, err := s.repo.FindOpenByStore(ctx, storeID)
	if err != nil {
		return nil, apperr.NotFound("la tienda no tiene una caja abierta")
	}
	return s.registerDetail(ctx, reg)
}

func (s *cashRegisterService) GetRegisterByID(ctx context.Context, id uuid.UUID) (*dto.CashRegisterDetailResponse, error) {
	reg, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.NotFound("caja no encontrada")
	}
	return s.registerDetail(ctx, reg)
}

// registerDetail attaches the completed sales inside the session window.
func (s *cashRegisterService) registerDetail(ctx context.Context, reg *model.CashRegister) (*dto.CashRegisterDetailResponse, error) {
	sales, err := s.saleRepo.ListForWindow(ctx, reg.StoreID, reg.OpenedAt, reg.ClosedAt)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		items = append(items, *saleToResponse(&sales[i]))
	}
	return &dto.CashRegisterDetailResponse{
		CashRegisterResponse: *registerToResponse(reg),
		Sales:                items,
	}, nil
}

func (s *cashRegisterService) GetHistory(ctx context.Context, storeID uuid.UUID, page, limit int) ([]dto.CashRegisterResponse, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	regs, total, err := s.repo.History(ctx, storeID, page, limit)
	if err != nil {
		return nil, 0, err
	}
	items := make([]dto.CashRegisterResponse, 0, len(regs))
	for i := range regs {
		items = append(items, *registerToResponse(&regs[i]))
	}
	return items, total, nil
}

// ── Payment records ───────────────────────────────────────────────────────────

func (s *cashRegisterService) CreatePaymentRecord(ctx context.Context, req dto.CreatePaymentRecordRequest) (*dto.PaymentRecordResponse, error) {
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, apperr.Invalid("sale_id inválido")
	}
	if !req.Amount.IsPositive() {
		return nil, apperr.Invalid("el monto debe ser mayor que cero")
	}
	if _, err := s.saleRepo.FindByID(ctx, saleID); err != nil {
		return nil, apperr.NotFound("venta no encontrada")
	}

	rec := model.PaymentRecord{
		SaleID:        saleID,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Reference:     req.Reference,
		Notes:         req.Notes,
	}
	if err := s.paymentRepo.Create(ctx, &rec); err != nil {
		return nil, err
	}
	return paymentToResponse(&rec), nil
}

func (s *cashRegisterService) GetSalePayments(ctx context.Context, saleID uuid.UUID) ([]dto.PaymentRecordResponse, error) {
	records, err := s.paymentRepo.ListBySale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	items := make([]dto.PaymentRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, *paymentToResponse(&records[i]))
	}
	return items, nil
}

func registerToResponse(r *model.CashRegister) *dto.CashRegisterResponse {
	operator := ""
	if r.User != nil {
		operator = r.User.FirstName + " " + r.User.LastName
	}
	resp := &dto.CashRegisterResponse{
		ID:             r.ID.String(),
		StoreID:        r.StoreID.String(),
		Operator:       operator,
		OpeningAmount:  r.OpeningAmount,
		ClosingAmount:  r.ClosingAmount,
		ExpectedAmount: r.ExpectedAmount,
		Difference:     r.Difference,
		Status:         r.Status,
		Notes:          r.Notes,
		OpenedAt:       r.OpenedAt.Format(time.RFC3339),
	}
	if r.ClosedAt != nil {
		closed := r.ClosedAt.Format(time.RFC3339)
		resp.ClosedAt = &closed
	}
	return resp
}

func paymentToResponse(p *model.PaymentRecord) *dto.PaymentRecordResponse {
	return &dto.PaymentRecordResponse{
		ID:            p.ID.String(),
		SaleID:        p.SaleID.String(),
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		Reference:     p.Reference,
		Notes:         p.Notes,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}
