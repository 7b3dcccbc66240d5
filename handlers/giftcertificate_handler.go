package handlers

import (
	"context"

	"payment-orchestrator/gateways"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// giftCertificateHandler services stored-value payments. Authorization
// is split per shipment, holds land on the certificate's ledger.
type giftCertificateHandler struct {
	logger *zap.Logger
}

func newGiftCertificateHandler(logger *zap.Logger) *giftCertificateHandler {
	return &giftCertificateHandler{logger: logger}
}

func (h *giftCertificateHandler) PaymentType() models.PaymentType {
	return models.PaymentTypeGiftCertificate
}

func (h *giftCertificateHandler) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypeGiftCertificate
}

func (h *giftCertificateHandler) OrderScoped() bool { return false }

// Stored value cannot be refunded to an external instrument.
func (h *giftCertificateHandler) SupportsRefund() bool { return false }

func (h *giftCertificateHandler) GenerateAuthorizeOrderPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order) []*models.OrderPayment {
	var payments []*models.OrderPayment
	for i := range order.Shipments {
		payments = append(payments, authorizeShipment(ctx, gw, template, order, &order.Shipments[i], h.logger)...)
	}
	return payments
}

func (h *giftCertificateHandler) GenerateAuthorizeShipmentPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order, shipment *models.OrderShipment) []*models.OrderPayment {
	return authorizeShipment(ctx, gw, template, order, shipment, h.logger)
}
