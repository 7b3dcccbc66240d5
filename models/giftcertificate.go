package models

import (
	"time"

	"github.com/google/uuid"
)

// GiftCertificate is a stored-value instrument. The purchase amount is
// immutable; the current balance is always derived from the transaction
// ledger, never stored.
type GiftCertificate struct {
	ID                  uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Code                string    `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	PurchaseAmountMinor int64     `gorm:"not null" json:"purchase_amount_minor"`
	Currency            string    `gorm:"type:varchar(10);not null" json:"currency"`
	CreatedAt           time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// PurchaseAmount returns the fixed purchase amount as Money.
func (g *GiftCertificate) PurchaseAmount() Money {
	return NewMoney(g.PurchaseAmountMinor, g.Currency)
}

// GiftCertificateTransaction is one append-only ledger entry scoped to a
// certificate. Entries are correlated by authorization code, not by time.
type GiftCertificateTransaction struct {
	ID                uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CertificateCode   string    `gorm:"type:varchar(64);not null;index" json:"certificate_code"`
	TransactionType   string    `gorm:"type:varchar(32);not null" json:"transaction_type"` // AUTHORIZATION_TRANSACTION | CAPTURE_TRANSACTION | REVERSE_AUTHORIZATION
	AmountMinor       int64     `gorm:"not null" json:"amount_minor"`
	AuthorizationCode string    `gorm:"type:varchar(128);not null;index" json:"authorization_code"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}
