package handlers

import (
	"context"

	"payment-orchestrator/gateways"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// tokenHandler services tokenized card payments. Authorization is split
// per shipment so each shipment settles independently as it releases.
type tokenHandler struct {
	logger *zap.Logger
}

func newTokenHandler(logger *zap.Logger) *tokenHandler {
	return &tokenHandler{logger: logger}
}

func (h *tokenHandler) PaymentType() models.PaymentType {
	return models.PaymentTypeToken
}

func (h *tokenHandler) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypeCreditCard
}

func (h *tokenHandler) OrderScoped() bool { return false }

// Card captures support standalone refunds.
func (h *tokenHandler) SupportsRefund() bool { return true }

// GenerateAuthorizeOrderPayments falls back to one authorization per
// shipment; tokenized cards have no order-scope grammar.
func (h *tokenHandler) GenerateAuthorizeOrderPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order) []*models.OrderPayment {
	var payments []*models.OrderPayment
	for i := range order.Shipments {
		payments = append(payments, authorizeShipment(ctx, gw, template, order, &order.Shipments[i], h.logger)...)
	}
	return payments
}

func (h *tokenHandler) GenerateAuthorizeShipmentPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order, shipment *models.OrderShipment) []*models.OrderPayment {
	return authorizeShipment(ctx, gw, template, order, shipment, h.logger)
}
