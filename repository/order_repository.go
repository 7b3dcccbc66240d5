package repository

import (
	"context"

	"payment-orchestrator/models"

	"gorm.io/gorm"
)

// OrderRepository loads order aggregates and records shipment status
// transitions. Orders are created by checkout, not here.
type OrderRepository interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	UpdateShipmentStatus(ctx context.Context, shipmentNumber, status string) error
}

type gormOrderRepo struct {
	db       *gorm.DB
	payments OrderPaymentRepository
}

func NewGormOrderRepo(db *gorm.DB, payments OrderPaymentRepository) OrderRepository {
	return &gormOrderRepo{db: db, payments: payments}
}

// FindByOrderNumber loads the order with its shipments and hydrates the
// payment audit trail in append order.
func (r *gormOrderRepo) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Shipments").
		Preload("Shipments.Skus").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		return nil, err
	}

	payments, err := r.payments.ListByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	for i := range payments {
		order.AppendPayment(&payments[i])
	}
	return &order, nil
}

func (r *gormOrderRepo) UpdateShipmentStatus(ctx context.Context, shipmentNumber, status string) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderShipment{}).
		Where("shipment_number = ?", shipmentNumber).
		Update("status", status).Error
}
