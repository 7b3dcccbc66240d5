package repository

import (
	"context"

	"payment-orchestrator/models"

	"gorm.io/gorm"
)

// GormGiftCertificateStore is the persistent ledger.TransactionStore:
// certificates and their append-only transaction lists in Postgres.
type GormGiftCertificateStore struct {
	db *gorm.DB
}

func NewGormGiftCertificateStore(db *gorm.DB) *GormGiftCertificateStore {
	return &GormGiftCertificateStore{db: db}
}

func (r *GormGiftCertificateStore) FindCertificate(ctx context.Context, code string) (*models.GiftCertificate, error) {
	var cert models.GiftCertificate
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&cert).Error; err != nil {
		return nil, err
	}
	return &cert, nil
}

func (r *GormGiftCertificateStore) ListTransactions(ctx context.Context, certificateCode string) ([]models.GiftCertificateTransaction, error) {
	var txns []models.GiftCertificateTransaction
	if err := r.db.WithContext(ctx).
		Where("certificate_code = ?", certificateCode).
		Order("created_at asc").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

func (r *GormGiftCertificateStore) AppendTransaction(ctx context.Context, txn *models.GiftCertificateTransaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}
