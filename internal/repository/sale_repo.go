package repository

import (
	"context"
	"time"

	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleRepository interface {
	CreateTx(tx *gorm.DB, s *model.Sale) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error)
	// CountByStoreAndDayTx counts all sales of the store created inside [from, to).
	CountByStoreAndDayTx(tx *gorm.DB, storeID uuid.UUID, from, to time.Time) (int64, error)
	// UpdateStatusNotesTx writes status+notes only when the sale is not
	// already in that status; returns the number of rows affected.
	UpdateStatusNotesTx(tx *gorm.DB, id uuid.UUID, status string, notes *string) (int64, error)
	List(ctx context.Context, storeID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error)
	// SumCompletedCashSinceTx totals completed cash sales of the store since the given instant.
	SumCompletedCashSinceTx(tx *gorm.DB, storeID uuid.UUID, since time.Time) (decimal.Decimal, error)
	ListForWindow(ctx context.Context, storeID uuid.UUID, from time.Time, to *time.Time) ([]model.Sale, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

type saleRepo struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) SaleRepository { return &saleRepo{db: db} }

func (r *saleRepo) DB() *gorm.DB { return r.db }

func (r *saleRepo) CreateTx(tx *gorm.DB, s *model.Sale) error {
	return tx.Create(s).Error
}

func (r *saleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := r.db.WithContext(ctx).
		Preload("Items.Product").Preload("Customer").Preload("User").Preload("Store").
		First(&s, id).Error
	return &s, err
}

func (r *saleRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	err := tx.Preload("Items").First(&s, id).Error
	return &s, err
}

func (r *saleRepo) CountByStoreAndDayTx(tx *gorm.DB, storeID uuid.UUID, from, to time.Time) (int64, error) {
	var n int64
	err := tx.Model(&model.Sale{}).
		Where("store_id = ? AND created_at >= ? AND created_at < ?", storeID, from, to).
		Count(&n).Error
	return n, err
}

func (r *saleRepo) UpdateStatusNotesTx(tx *gorm.DB, id uuid.UUID, status string, notes *string) (int64, error) {
	res := tx.Model(&model.Sale{}).
		Where("id = ? AND status <> ?", id, status).
		Updates(map[string]interface{}{
			"status": status,
			"notes":  notes,
		})
	return res.RowsAffected, res.Error
}

func (r *saleRepo) List(ctx context.Context, storeID uuid.UUID, filter dto.SaleFilter) ([]model.Sale, int64, error) {
	var sales []model.Sale
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Sale{}).Where("store_id = ?", storeID)

	if filter.StartDate != "" {
		q = q.Where("DATE(created_at) >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("DATE(created_at) <= ?", filter.EndDate)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Preload("Items.Product").Preload("Customer").Preload("User").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&sales).Error

	return sales, total, err
}

func (r *saleRepo) SumCompletedCashSinceTx(tx *gorm.DB, storeID uuid.UUID, since time.Time) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := tx.Model(&model.Sale{}).
		Where("store_id = ? AND status = 'completed' AND payment_method = 'cash' AND created_at >= ?", storeID, since).
		Select("COALESCE(SUM(total), 0)").Scan(&sum).Error
	if err != nil || !sum.Valid {
		return decimal.Zero, err
	}
	return sum.Decimal, nil
}

func (r *saleRepo) ListForWindow(ctx context.Context, storeID uuid.UUID, from time.Time, to *time.Time) ([]model.Sale, error) {
	var sales []model.Sale
	q := r.db.WithContext(ctx).
		Where("store_id = ? AND status = 'completed' AND created_at >= ?", storeID, from)
	if to != nil {
		q = q.Where("created_at <= ?", *to)
	}
	err := q.Preload("Items.Product").Preload("User").Order("created_at ASC").Find(&sales).Error
	return sales, err
}
