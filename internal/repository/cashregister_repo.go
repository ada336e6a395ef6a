package repository

import (
	"context"

	"github.com/Yeferson-gm/test-crazy-b/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CashRegisterRepository interface {
	Create(ctx context.Context, reg *model.CashRegister) error
	FindOpenByStore(ctx context.Context, storeID uuid.UUID) (*model.CashRegister, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error)
	UpdateTx(tx *gorm.DB, reg *model.CashRegister) error
	History(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.CashRegister, int64, error)
	DB() *gorm.DB
}

type cashRegisterRepo struct{ db *gorm.DB }

func NewCashRegisterRepository(db *gorm.DB) CashRegisterRepository { return &cashRegisterRepo{db: db} }

func (r *cashRegisterRepo) DB() *gorm.DB { return r.db }

func (r *cashRegisterRepo) Create(ctx context.Context, reg *model.CashRegister) error {
	return r.db.WithContext(ctx).Create(reg).Error
}

func (r *cashRegisterRepo) FindOpenByStore(ctx context.Context, storeID uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).Where("store_id = ? AND status = 'open'", storeID).First(&reg).Error
	return &reg, err
}

func (r *cashRegisterRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := r.db.WithContext(ctx).Preload("User").First(&reg, id).Error
	return &reg, err
}

func (r *cashRegisterRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.CashRegister, error) {
	var reg model.CashRegister
	err := tx.First(&reg, id).Error
	return &reg, err
}

func (r *cashRegisterRepo) UpdateTx(tx *gorm.DB, reg *model.CashRegister) error {
	return tx.Save(reg).Error
}

func (r *cashRegisterRepo) History(ctx context.Context, storeID uuid.UUID, page, limit int) ([]model.CashRegister, int64, error) {
	var regs []model.CashRegister
	var total int64
	offset := (page - 1) * limit

	q := r.db.WithContext(ctx).Model(&model.CashRegister{}).Where("store_id = ?", storeID)
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Preload("User").Order("opened_at DESC").Offset(offset).Limit(limit).Find(&regs).Error
	return regs, total, err
}
