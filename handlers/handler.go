package handlers

import (
	"context"
	"fmt"

	"payment-orchestrator/gateways"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// PaymentHandler decides, per payment method, whether authorization
// happens at order scope or per shipment, and builds the OrderPayment
// records for a requested operation. Gateway declines and transport
// failures come back as FAILED payment status, never as errors.
type PaymentHandler interface {
	PaymentType() models.PaymentType
	GatewayType() models.PaymentGatewayType

	// OrderScoped reports whether authorization is taken once for the
	// whole order rather than split per shipment.
	OrderScoped() bool

	// SupportsRefund reports whether captures taken with this method can
	// be refunded standalone.
	SupportsRefund() bool

	// GenerateAuthorizeOrderPayments produces the order-scope records:
	// an ORDER_TRANSACTION for the order total followed by one
	// AUTHORIZATION_TRANSACTION covering all shipments.
	GenerateAuthorizeOrderPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order) []*models.OrderPayment

	// GenerateAuthorizeShipmentPayments produces one authorization sized
	// to the shipment's total. Electronic shipments settle immediately:
	// the handler synthesizes an approved capture instead.
	GenerateAuthorizeShipmentPayments(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order, shipment *models.OrderShipment) []*models.OrderPayment
}

// Factory maps each payment type to its handler. The table is closed:
// adding a method means adding a handler here, not subclassing.
type Factory struct {
	byType map[models.PaymentType]PaymentHandler
}

// NewFactory builds the handler table.
func NewFactory(logger *zap.Logger) *Factory {
	table := map[models.PaymentType]PaymentHandler{
		models.PaymentTypeToken:           newTokenHandler(logger),
		models.PaymentTypePayPalExpress:   newPayPalHandler(logger),
		models.PaymentTypeGiftCertificate: newGiftCertificateHandler(logger),
	}
	return &Factory{byType: table}
}

// HandlerFor resolves the handler for a payment type.
func (f *Factory) HandlerFor(paymentType models.PaymentType) (PaymentHandler, error) {
	h, ok := f.byType[paymentType]
	if !ok {
		return nil, fmt.Errorf("no payment handler for payment type %s", paymentType)
	}
	return h, nil
}

// newPaymentFromTemplate copies method and routing fields from the
// template into a fresh pending record.
func newPaymentFromTemplate(template *models.OrderPayment, order *models.Order, transactionType string, amountMinor int64) *models.OrderPayment {
	return &models.OrderPayment{
		OrderNumber:         order.OrderNumber,
		TransactionType:     transactionType,
		Status:              models.PaymentStatusPending,
		AmountMinor:         amountMinor,
		Currency:            order.Currency,
		PaymentType:         template.PaymentType,
		GatewayType:         template.GatewayType,
		GiftCertificateCode: template.GiftCertificateCode,
		Token:               template.Token,
	}
}

// authorizeShipment runs the shipment-scope authorization shared by the
// shipment-scoped handlers: a preauthorization for physical shipments, an
// immediate sale (approved capture, no follow-up release) for electronic
// ones.
func authorizeShipment(ctx context.Context, gw gateways.PaymentGateway, template *models.OrderPayment, order *models.Order, shipment *models.OrderShipment, logger *zap.Logger) []*models.OrderPayment {
	total := shipment.Total(order.Currency)
	if total == nil {
		return nil
	}

	payment := newPaymentFromTemplate(template, order, models.AuthorizationTransaction, total.AmountMinor)
	shipmentNumber := shipment.ShipmentNumber
	payment.ShipmentNumber = &shipmentNumber

	var err error
	if shipment.IsElectronic() {
		payment.TransactionType = models.CaptureTransaction
		err = gw.Sale(ctx, payment, &order.BillingAddress)
	} else {
		err = gw.PreAuthorize(ctx, payment, &order.BillingAddress)
	}

	if err != nil {
		payment.Status = models.PaymentStatusFailed
		logger.Warn("Shipment authorization declined",
			zap.String("order_number", order.OrderNumber),
			zap.String("shipment_number", shipment.ShipmentNumber),
			zap.String("payment_type", string(template.PaymentType)),
			zap.Error(err),
		)
	} else {
		payment.Status = models.PaymentStatusApproved
	}
	return []*models.OrderPayment{payment}
}
