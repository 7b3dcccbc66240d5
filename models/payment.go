package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentType identifies the payment method a customer selected.
type PaymentType string

const (
	PaymentTypeToken           PaymentType = "TOKEN"
	PaymentTypePayPalExpress   PaymentType = "PAYPAL_EXPRESS"
	PaymentTypeGiftCertificate PaymentType = "GIFT_CERTIFICATE"
)

// PaymentGatewayType identifies which gateway adapter services a payment type.
type PaymentGatewayType string

const (
	GatewayTypeCreditCard      PaymentGatewayType = "CREDITCARD"
	GatewayTypePayPal          PaymentGatewayType = "PAYPAL_EXPRESS"
	GatewayTypeGiftCertificate PaymentGatewayType = "GIFT_CERTIFICATE"
)

// Transaction types recorded on the payment audit trail.
const (
	OrderTransaction         = "ORDER_TRANSACTION"
	AuthorizationTransaction = "AUTHORIZATION_TRANSACTION"
	CaptureTransaction       = "CAPTURE_TRANSACTION"
	ReverseAuthorization     = "REVERSE_AUTHORIZATION"
)

// Payment statuses. A payment is written once; only its status moves,
// and only when the gateway responds.
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusApproved = "APPROVED"
	PaymentStatusFailed   = "FAILED"
)

// OrderPayment is one entry on an order's payment audit trail.
// ShipmentNumber is nil for order-scope payments.
type OrderPayment struct {
	ID                  uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber         string             `gorm:"type:varchar(64);not null;index" json:"order_number"`
	ShipmentNumber      *string            `gorm:"type:varchar(64);index" json:"shipment_number,omitempty"`
	TransactionType     string             `gorm:"type:varchar(32);not null" json:"transaction_type"`
	Status              string             `gorm:"type:varchar(16);not null" json:"status"`
	AmountMinor         int64              `gorm:"not null" json:"amount_minor"`
	Currency            string             `gorm:"type:varchar(10);not null" json:"currency"`
	AuthorizationCode   string             `gorm:"type:varchar(128);index" json:"authorization_code"`
	PaymentType         PaymentType        `gorm:"type:varchar(32);not null" json:"payment_type"`
	GatewayType         PaymentGatewayType `gorm:"type:varchar(32);not null" json:"gateway_type"`
	GiftCertificateCode *string            `gorm:"type:varchar(64)" json:"gift_certificate_code,omitempty"`
	Token               *string            `gorm:"type:varchar(256)" json:"-"`                      // tokenized card reference, never rendered
	ReferenceID         *string            `gorm:"type:varchar(256)" json:"reference_id,omitempty"` // processor-side id (e.g. Stripe PaymentIntent)
	CreatedAt           time.Time          `gorm:"autoCreateTime" json:"created_at"`
}

// Amount returns the payment amount as Money.
func (p *OrderPayment) Amount() Money {
	return NewMoney(p.AmountMinor, p.Currency)
}

// IsApproved reports whether the gateway approved this payment.
func (p *OrderPayment) IsApproved() bool {
	return p.Status == PaymentStatusApproved
}

// CloneForFollowUp copies method/routing fields into a fresh payment of the
// given transaction type, carrying the same authorization code.
func (p *OrderPayment) CloneForFollowUp(transactionType string, amountMinor int64) *OrderPayment {
	return &OrderPayment{
		OrderNumber:         p.OrderNumber,
		ShipmentNumber:      p.ShipmentNumber,
		TransactionType:     transactionType,
		Status:              PaymentStatusPending,
		AmountMinor:         amountMinor,
		Currency:            p.Currency,
		AuthorizationCode:   p.AuthorizationCode,
		PaymentType:         p.PaymentType,
		GatewayType:         p.GatewayType,
		GiftCertificateCode: p.GiftCertificateCode,
		Token:               p.Token,
		ReferenceID:         p.ReferenceID,
	}
}

// Result codes for one orchestration call.
const (
	ResultCodeOK     = "OK"
	ResultCodeFailed = "FAILED"
)

// PaymentResult is the transient outcome of one orchestrator operation:
// a result code plus every payment the call produced, in order. Callers
// inspect it and, on FAILED, hand the processed payments back to
// RollBackPayments. It is never persisted.
type PaymentResult struct {
	ResultCode        string          `json:"result_code"`
	ProcessedPayments []*OrderPayment `json:"processed_payments"`
}

// NewPaymentResult derives the result code from the processed payments:
// OK iff every produced payment was approved.
func NewPaymentResult(payments []*OrderPayment) *PaymentResult {
	code := ResultCodeOK
	for _, p := range payments {
		if !p.IsApproved() {
			code = ResultCodeFailed
			break
		}
	}
	return &PaymentResult{ResultCode: code, ProcessedPayments: payments}
}

// OK reports whether every processed payment was approved.
func (r *PaymentResult) OK() bool {
	return r.ResultCode == ResultCodeOK
}
