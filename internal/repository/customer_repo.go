package repository

import (
	"context"

	"github.com/Yeferson-gm/test-crazy-b/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CustomerRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	FindByDocumentTx(tx *gorm.DB, documentNumber string) (*model.Customer, error)
	CreateTx(tx *gorm.DB, c *model.Customer) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var c model.Customer
	err := r.db.WithContext(ctx).First(&c, id).Error
	return &c, err
}

func (r *customerRepo) FindByDocumentTx(tx *gorm.DB, documentNumber string) (*model.Customer, error) {
	var c model.Customer
	err := tx.Where("document_number = ?", documentNumber).First(&c).Error
	return &c, err
}

func (r *customerRepo) CreateTx(tx *gorm.DB, c *model.Customer) error {
	return tx.Create(c).Error
}
