package repository

import (
	"context"

	"payment-orchestrator/models"

	"gorm.io/gorm"
)

// OrderPaymentRepository persists the order payment audit trail.
// Entries are only ever inserted; history is never edited.
type OrderPaymentRepository interface {
	Create(ctx context.Context, payment *models.OrderPayment) error
	ListByOrderNumber(ctx context.Context, orderNumber string) ([]models.OrderPayment, error)
	FindByID(ctx context.Context, id string) (*models.OrderPayment, error)
}

type gormOrderPaymentRepo struct {
	db *gorm.DB
}

func NewGormOrderPaymentRepo(db *gorm.DB) OrderPaymentRepository {
	return &gormOrderPaymentRepo{db: db}
}

func (r *gormOrderPaymentRepo) Create(ctx context.Context, payment *models.OrderPayment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormOrderPaymentRepo) ListByOrderNumber(ctx context.Context, orderNumber string) ([]models.OrderPayment, error) {
	var payments []models.OrderPayment
	if err := r.db.WithContext(ctx).
		Where("order_number = ?", orderNumber).
		Order("created_at asc").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *gormOrderPaymentRepo) FindByID(ctx context.Context, id string) (*models.OrderPayment, error) {
	var payment models.OrderPayment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&payment).Error; err != nil {
		return nil, err
	}
	return &payment, nil
}
