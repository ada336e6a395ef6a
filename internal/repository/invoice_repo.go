package repository

import (
	"context"

	"github.com/Yeferson-gm/test-crazy-b/internal/dto"
	"github.com/Yeferson-gm/test-crazy-b/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceRepository interface {
	CreateTx(tx *gorm.DB, inv *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindBySaleIDTx(tx *gorm.DB, saleID uuid.UUID) (*model.Invoice, error)
	// LastSequenceTx returns the highest sequence assigned for (store, series), 0 when none.
	LastSequenceTx(tx *gorm.DB, storeID uuid.UUID, series string) (int64, error)
	Update(ctx context.Context, inv *model.Invoice) error
	// MarkCancelled flips the document to cancelled only when it is not
	// already; returns the number of rows affected.
	MarkCancelled(ctx context.Context, id uuid.UUID, notes *string) (int64, error)
	List(ctx context.Context, storeID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error)
	DB() *gorm.DB
}

type invoiceRepo struct{ db *gorm.DB }

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository { return &invoiceRepo{db: db} }

func (r *invoiceRepo) DB() *gorm.DB { return r.db }

func (r *invoiceRepo) CreateTx(tx *gorm.DB, inv *model.Invoice) error {
	return tx.Create(inv).Error
}

func (r *invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := r.db.WithContext(ctx).Preload("Sale.Items.Product").Preload("Customer").First(&inv, id).Error
	return &inv, err
}

func (r *invoiceRepo) FindBySaleIDTx(tx *gorm.DB, saleID uuid.UUID) (*model.Invoice, error) {
	var inv model.Invoice
	err := tx.Where("sale_id = ?", saleID).First(&inv).Error
	return &inv, err
}

func (r *invoiceRepo) LastSequenceTx(tx *gorm.DB, storeID uuid.UUID, series string) (int64, error) {
	var seq int64
	err := tx.Model(&model.Invoice{}).
		Where("store_id = ? AND series = ?", storeID, series).
		Select("COALESCE(MAX(sequence), 0)").Scan(&seq).Error
	return seq, err
}

func (r *invoiceRepo) Update(ctx context.Context, inv *model.Invoice) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *invoiceRepo) MarkCancelled(ctx context.Context, id uuid.UUID, notes *string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Invoice{}).
		Where("id = ? AND status <> 'cancelled'", id).
		Updates(map[string]interface{}{"status": "cancelled", "notes": notes})
	return res.RowsAffected, res.Error
}

func (r *invoiceRepo) List(ctx context.Context, storeID uuid.UUID, filter dto.InvoiceFilter) ([]model.Invoice, int64, error) {
	var invoices []model.Invoice
	var total int64
	offset := (filter.Page - 1) * filter.Limit

	q := r.db.WithContext(ctx).Model(&model.Invoice{}).Where("store_id = ?", storeID)

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.StartDate != "" {
		q = q.Where("DATE(issue_date) >= ?", filter.StartDate)
	}
	if filter.EndDate != "" {
		q = q.Where("DATE(issue_date) <= ?", filter.EndDate)
	}

	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := q.Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&invoices).Error

	return invoices, total, err
}
