package repository

import (
	"context"

	"github.com/Yeferson-gm/test-crazy-b/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRecordRepository interface {
	Create(ctx context.Context, p *model.PaymentRecord) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.PaymentRecord, error)
}

type paymentRecordRepo struct{ db *gorm.DB }

func NewPaymentRecordRepository(db *gorm.DB) PaymentRecordRepository {
	return &paymentRecordRepo{db: db}
}

func (r *paymentRecordRepo) Create(ctx context.Context, p *model.PaymentRecord) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *paymentRecordRepo) ListBySale(ctx context.Context, saleID uuid.UUID) ([]model.PaymentRecord, error) {
	var records []model.PaymentRecord
	err := r.db.WithContext(ctx).Where("sale_id = ?", saleID).Order("created_at ASC").Find(&records).Error
	return records, err
}
