package models

import "time"

// PaymentEvent is published to Kafka/SNS whenever the orchestrator
// finishes an operation that moves money.
type PaymentEvent struct {
	Type           string    `json:"type"` // e.g. "payments_initialized", "shipment_captured", "order_payments_cancelled"
	OrderNumber    string    `json:"order_number"`
	ShipmentNumber string    `json:"shipment_number,omitempty"`
	ResultCode     string    `json:"result_code"` // OK | FAILED
	AmountMinor    int64     `json:"amount_minor"`
	Currency       string    `json:"currency"`
	Timestamp      time.Time `json:"timestamp"` // UTC event time
}

// PaymentInitRequest arrives on the payment-request SQS queue when
// checkout places an order.
type PaymentInitRequest struct {
	OrderNumber     string      `json:"order_number"`
	PaymentType     PaymentType `json:"payment_type"`
	Token           string      `json:"token,omitempty"`            // tokenized card reference
	CertificateCode string      `json:"certificate_code,omitempty"` // gift certificate code
	IdempotencyKey  string      `json:"idempotency_key,omitempty"`
}
