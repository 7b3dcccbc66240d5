package handlers

import (
	"context"

	"payment-orchestrator/gateways"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// payPalHandler services PayPal Express payments. Authorization happens
// once at order scope: an ORDER_TRANSACTION for the order total followed
// by a single AUTHORIZATION_TRANSACTION covering all shipments.
type payPalHandler struct {
	logger *zap.Logger
}

func newPayPalHandler(logger *zap.Logger) *payPalHandler {
	return &payPalHandler{logger: logger}
}

func (h *payPalHandler) PaymentType() models.PaymentType {
	return models.PaymentTypePayPalExpress
}

func (h *payPalHandler) GatewayType() models.PaymentGatewayType {
	return models.GatewayTypePayPal
}

func (h *payPalHandler) OrderScoped() bool { return true }

// Express checkout has no standalone refund grammar here.
func (h *payPalHandler) SupportsRefund() bool { return false }

func (h *payPalHandler) GenerateAuthorizeOrderPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order) []*models.OrderPayment {
	total := order.Total()

	orderPayment := newPaymentFromTemplate(template, order, models.OrderTransaction, total.AmountMinor)
	authPayment := newPaymentFromTemplate(template, order, models.AuthorizationTransaction, total.AmountMinor)

	err := gw.PreAuthorize(ctx, authPayment, &order.BillingAddress)
	if err != nil {
		orderPayment.Status = models.PaymentStatusFailed
		authPayment.Status = models.PaymentStatusFailed
		h.logger.Warn("Order authorization declined",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	} else {
		orderPayment.Status = models.PaymentStatusApproved
		authPayment.Status = models.PaymentStatusApproved
		// the order record mirrors the authorization it precedes
		orderPayment.AuthorizationCode = authPayment.AuthorizationCode
		orderPayment.ReferenceID = authPayment.ReferenceID
	}

	return []*models.OrderPayment{orderPayment, authPayment}
}

// GenerateAuthorizeShipmentPayments issues a shipment-scoped
// authorization, used when a shipment splits off an already-initialized
// order and needs its own hold.
func (h *payPalHandler) GenerateAuthorizeShipmentPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order, shipment *models.OrderShipment) []*models.OrderPayment {
	return authorizeShipment(ctx, gw, template, order, shipment, h.logger)
}
