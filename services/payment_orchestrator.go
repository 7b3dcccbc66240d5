package services

import (
	"context"
	"encoding/json"
	"time"

	"payment-orchestrator/gateways"
	"payment-orchestrator/handlers"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// OrderPaymentStore persists the payment audit trail. The gorm
// implementation lives in the repository package.
type OrderPaymentStore interface {
	Create(ctx context.Context, payment *models.OrderPayment) error
	ListByOrderNumber(ctx context.Context, orderNumber string) ([]models.OrderPayment, error)
}

// OrderStore loads orders and records shipment status transitions.
type OrderStore interface {
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	UpdateShipmentStatus(ctx context.Context, shipmentNumber, status string) error
}

// EventPublisher pushes payment events downstream (Kafka/SNS).
type EventPublisher interface {
	SendPaymentEvent(event models.PaymentEvent) error
}

// PaymentOrchestrator is the payment state machine for an order's
// lifecycle: initialize on checkout, adjust as shipment totals move,
// capture on release, cancel, and compensate failed batches. Each
// operation runs synchronously end to end; callers keep one in-flight
// orchestration per order.
type PaymentOrchestrator interface {
	InitializePayments(ctx context.Context, order *models.Order, template, fallback *models.OrderPayment) (*models.PaymentResult, error)
	AdjustShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error)
	InitializeNewShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment, template *models.OrderPayment) (*models.PaymentResult, error)
	ProcessShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error)
	CancelShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error)
	CancelOrderPayments(ctx context.Context, order *models.Order) (*models.PaymentResult, error)
	RollBackPayments(ctx context.Context, order *models.Order, processed []*models.OrderPayment)
	IsOrderPaymentRefundable(payment *models.OrderPayment) bool
}

type paymentOrchestratorImpl struct {
	handlers  *handlers.Factory
	registry  *gateways.Registry
	payments  OrderPaymentStore
	orders    OrderStore
	skuLookup ProductSkuLookup
	publisher EventPublisher
	logger    *zap.Logger
}

// NewPaymentOrchestrator wires the orchestrator. publisher and skuLookup
// may be nil; the corresponding steps are skipped.
func NewPaymentOrchestrator(
	factory *handlers.Factory,
	registry *gateways.Registry,
	payments OrderPaymentStore,
	orders OrderStore,
	skuLookup ProductSkuLookup,
	publisher EventPublisher,
	logger *zap.Logger,
) PaymentOrchestrator {
	return &paymentOrchestratorImpl{
		handlers:  factory,
		registry:  registry,
		payments:  payments,
		orders:    orders,
		skuLookup: skuLookup,
		publisher: publisher,
		logger:    logger,
	}
}

// resolve returns the handler for the payment type and the gateway
// registered for it on the order's store.
func (s *paymentOrchestratorImpl) resolve(order *models.Order, paymentType models.PaymentType) (handlers.PaymentHandler, gateways.PaymentGateway, error) {
	handler, err := s.handlers.HandlerFor(paymentType)
	if err != nil {
		return nil, nil, err
	}
	gw, err := s.registry.Resolve(order.StoreCode, handler.GatewayType())
	if err != nil {
		return nil, nil, err
	}
	return handler, gw, nil
}

// record appends payments to the order's audit trail and persists them.
// Persistence errors are logged but do not undo the gateway calls that
// already happened.
func (s *paymentOrchestratorImpl) record(ctx context.Context, order *models.Order, payments []*models.OrderPayment) {
	for _, p := range payments {
		order.AppendPayment(p)
		if err := s.payments.Create(ctx, p); err != nil {
			s.logger.Error("Failed to persist order payment",
				zap.String("order_number", order.OrderNumber),
				zap.String("transaction_type", p.TransactionType),
				zap.Error(err),
			)
		}
	}
}

// openShipmentAuthorization returns the most recent approved
// authorization for the shipment that no capture or reversal references.
func openShipmentAuthorization(order *models.Order, shipmentNumber string) *models.OrderPayment {
	var auth *models.OrderPayment
	closed := make(map[string]bool)
	for _, p := range order.PaymentSnapshot() {
		switch p.TransactionType {
		case models.AuthorizationTransaction:
			if p.IsApproved() && p.ShipmentNumber != nil && *p.ShipmentNumber == shipmentNumber {
				auth = p
			}
		case models.CaptureTransaction, models.ReverseAuthorization:
			if p.IsApproved() {
				closed[p.AuthorizationCode] = true
			}
		}
	}
	if auth == nil || closed[auth.AuthorizationCode] {
		return nil
	}
	return auth
}

// openOrderAuthorization returns the open order-scope authorization, if any.
func openOrderAuthorization(order *models.Order) *models.OrderPayment {
	var auth *models.OrderPayment
	closed := make(map[string]bool)
	for _, p := range order.PaymentSnapshot() {
		switch p.TransactionType {
		case models.AuthorizationTransaction:
			if p.IsApproved() && p.ShipmentNumber == nil {
				auth = p
			}
		case models.CaptureTransaction, models.ReverseAuthorization:
			if p.IsApproved() {
				closed[p.AuthorizationCode] = true
			}
		}
	}
	if auth == nil || closed[auth.AuthorizationCode] {
		return nil
	}
	return auth
}

// shipmentCaptured reports whether an approved capture exists for the shipment.
func shipmentCaptured(order *models.Order, shipmentNumber string) bool {
	for _, p := range order.PaymentSnapshot() {
		if p.TransactionType == models.CaptureTransaction && p.IsApproved() &&
			p.ShipmentNumber != nil && *p.ShipmentNumber == shipmentNumber {
			return true
		}
	}
	return false
}

// InitializePayments authorizes a freshly checked-out order. Order-scope
// methods produce an ORDER_TRANSACTION plus one covering authorization;
// shipment-scope methods produce one authorization per shipment, with
// electronic shipments settling immediately. If the primary method fails
// and a fallback template is given, the failed batch is rolled back and
// initialization retried once with the fallback.
func (s *paymentOrchestratorImpl) InitializePayments(ctx context.Context, order *models.Order, template, fallback *models.OrderPayment) (*models.PaymentResult, error) {
	result, err := s.initializeWith(ctx, order, template)
	if err != nil {
		return nil, err
	}

	if !result.OK() && fallback != nil {
		s.logger.Warn("Primary payment method failed, falling back",
			zap.String("order_number", order.OrderNumber),
			zap.String("primary", string(template.PaymentType)),
			zap.String("fallback", string(fallback.PaymentType)),
		)
		s.RollBackPayments(ctx, order, result.ProcessedPayments)
		result, err = s.initializeWith(ctx, order, fallback)
		if err != nil {
			return nil, err
		}
	}

	s.publishEvent(order, "", "payments_initialized", result)
	return result, nil
}

func (s *paymentOrchestratorImpl) initializeWith(ctx context.Context, order *models.Order, template *models.OrderPayment) (*models.PaymentResult, error) {
	handler, gw, err := s.resolve(order, template.PaymentType)
	if err != nil {
		return nil, err
	}

	payments := handler.GenerateAuthorizeOrderPayments(ctx, gw, template, order)
	s.record(ctx, order, payments)
	return models.NewPaymentResult(payments), nil
}

// AdjustShipmentPayment re-sizes the hold for a shipment whose total
// changed. Returns nil when there is nothing to adjust (no prior payment
// or no total). A flat or shrinking total leaves the hold alone: amounts
// already promised to settle are never reduced automatically. A growing
// total reverses the old hold and authorizes the new amount, exactly two
// processed payments.
func (s *paymentOrchestratorImpl) AdjustShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error) {
	total := shipment.Total(order.Currency)
	if total == nil {
		return nil, nil
	}

	auth := openShipmentAuthorization(order, shipment.ShipmentNumber)
	if auth == nil {
		return nil, nil
	}

	if total.AmountMinor <= auth.AmountMinor {
		return models.NewPaymentResult(nil), nil
	}

	handler, gw, err := s.resolve(order, auth.PaymentType)
	if err != nil {
		return nil, err
	}

	reversal := auth.CloneForFollowUp(models.ReverseAuthorization, auth.AmountMinor)
	if err := gw.ReversePreAuthorization(ctx, reversal); err != nil {
		reversal.Status = models.PaymentStatusFailed
		s.logger.Warn("Reversal declined during adjustment",
			zap.String("shipment_number", shipment.ShipmentNumber),
			zap.Error(err),
		)
	} else {
		reversal.Status = models.PaymentStatusApproved
	}

	processed := []*models.OrderPayment{reversal}
	processed = append(processed, handler.GenerateAuthorizeShipmentPayments(ctx, gw, auth, order, shipment)...)
	s.record(ctx, order, processed)

	result := models.NewPaymentResult(processed)
	s.publishEvent(order, shipment.ShipmentNumber, "shipment_payment_adjusted", result)
	return result, nil
}

// InitializeNewShipmentPayment authorizes a shipment added to an
// already-initialized order, e.g. when a backorder splits off. Exactly
// one authorization, independent of prior shipments' state.
func (s *paymentOrchestratorImpl) InitializeNewShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment, template *models.OrderPayment) (*models.PaymentResult, error) {
	if err := s.checkShippability(ctx, shipment); err != nil {
		return nil, err
	}

	handler, gw, err := s.resolve(order, template.PaymentType)
	if err != nil {
		return nil, err
	}

	payments := handler.GenerateAuthorizeShipmentPayments(ctx, gw, template, order, shipment)
	s.record(ctx, order, payments)

	result := models.NewPaymentResult(payments)
	s.publishEvent(order, shipment.ShipmentNumber, "shipment_payment_initialized", result)
	return result, nil
}

// checkShippability confirms a physical shipment's line items actually
// ship. Lookup failures are tolerated; a definite "not shippable" is not.
func (s *paymentOrchestratorImpl) checkShippability(ctx context.Context, shipment *models.OrderShipment) error {
	if s.skuLookup == nil || shipment.IsElectronic() {
		return nil
	}
	for _, sku := range shipment.Skus {
		resolved, err := s.skuLookup.FindByGuid(ctx, sku.SkuGuid)
		if err != nil {
			s.logger.Warn("Sku lookup failed, skipping shippability check",
				zap.String("sku_guid", sku.SkuGuid),
				zap.Error(err),
			)
			continue
		}
		if !resolved.Shippable {
			return newBusinessRuleError("sku %s on shipment %s is not shippable", sku.SkuGuid, shipment.ShipmentNumber)
		}
	}
	return nil
}

// ProcessShipmentPayment captures the shipment's open authorization for
// its full total. Capturing a cancelled shipment is illegal, as is a
// second capture of an already-settled shipment.
func (s *paymentOrchestratorImpl) ProcessShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error) {
	if shipment.IsCancelled() {
		return nil, &InvalidShipmentStateError{
			ShipmentNumber: shipment.ShipmentNumber,
			Status:         shipment.Status,
			Operation:      "capture",
		}
	}
	if shipmentCaptured(order, shipment.ShipmentNumber) {
		return nil, &InvalidShipmentStateError{
			ShipmentNumber: shipment.ShipmentNumber,
			Status:         shipment.Status,
			Operation:      "repeat capture",
		}
	}

	total := shipment.Total(order.Currency)
	if total == nil {
		return nil, newBusinessRuleError("shipment %s has no total to capture", shipment.ShipmentNumber)
	}

	auth := openShipmentAuthorization(order, shipment.ShipmentNumber)
	if auth == nil {
		return nil, newBusinessRuleError("shipment %s has no open authorization", shipment.ShipmentNumber)
	}

	_, gw, err := s.resolve(order, auth.PaymentType)
	if err != nil {
		return nil, err
	}

	capture := auth.CloneForFollowUp(models.CaptureTransaction, total.AmountMinor)
	if err := gw.Capture(ctx, capture); err != nil {
		capture.Status = models.PaymentStatusFailed
		s.logger.Warn("Capture declined",
			zap.String("order_number", order.OrderNumber),
			zap.String("shipment_number", shipment.ShipmentNumber),
			zap.Error(err),
		)
	} else {
		capture.Status = models.PaymentStatusApproved
	}
	s.record(ctx, order, []*models.OrderPayment{capture})

	result := models.NewPaymentResult([]*models.OrderPayment{capture})
	s.publishEvent(order, shipment.ShipmentNumber, "shipment_captured", result)
	return result, nil
}

// CancelShipmentPayment reverses the shipment's open authorizations and
// cancels the shipment. Illegal once the shipment has been released and
// captured.
func (s *paymentOrchestratorImpl) CancelShipmentPayment(ctx context.Context, order *models.Order, shipment *models.OrderShipment) (*models.PaymentResult, error) {
	if shipment.IsReleased() || shipmentCaptured(order, shipment.ShipmentNumber) {
		return nil, newBusinessRuleError("shipment %s has been released and captured; cancel is not possible", shipment.ShipmentNumber)
	}

	processed, err := s.reverseShipmentHold(ctx, order, shipment)
	if err != nil {
		return nil, err
	}

	s.cancelShipment(ctx, shipment)

	result := models.NewPaymentResult(processed)
	s.publishEvent(order, shipment.ShipmentNumber, "shipment_payment_cancelled", result)
	return result, nil
}

// CancelOrderPayments reverses every outstanding authorization on the
// order. Only legal while nothing has shipped: a released shipment means
// funds were captured, and an electronic shipment settled the moment the
// order initialized. Neither can be undone by a reversal.
func (s *paymentOrchestratorImpl) CancelOrderPayments(ctx context.Context, order *models.Order) (*models.PaymentResult, error) {
	for i := range order.Shipments {
		sh := &order.Shipments[i]
		if sh.IsReleased() || shipmentCaptured(order, sh.ShipmentNumber) {
			return nil, newBusinessRuleError("order %s is partially shipped", order.OrderNumber)
		}
	}
	if order.HasElectronicShipment() {
		return nil, newBusinessRuleError("order %s contains digital goods", order.OrderNumber)
	}

	var processed []*models.OrderPayment
	for i := range order.Shipments {
		sh := &order.Shipments[i]
		if sh.IsCancelled() {
			continue
		}
		reversed, err := s.reverseShipmentHold(ctx, order, sh)
		if err != nil {
			return nil, err
		}
		processed = append(processed, reversed...)
		s.cancelShipment(ctx, sh)
	}

	// an order-scope authorization covers all shipments in one hold
	if auth := openOrderAuthorization(order); auth != nil {
		reversal, err := s.reverseAuthorization(ctx, order, auth)
		if err != nil {
			return nil, err
		}
		processed = append(processed, reversal)
		s.record(ctx, order, []*models.OrderPayment{reversal})
	}

	result := models.NewPaymentResult(processed)
	s.publishEvent(order, "", "order_payments_cancelled", result)
	return result, nil
}

// reverseShipmentHold reverses the shipment's open authorization, if one
// exists, and records the reversal.
func (s *paymentOrchestratorImpl) reverseShipmentHold(ctx context.Context, order *models.Order, shipment *models.OrderShipment) ([]*models.OrderPayment, error) {
	auth := openShipmentAuthorization(order, shipment.ShipmentNumber)
	if auth == nil {
		return nil, nil
	}
	reversal, err := s.reverseAuthorization(ctx, order, auth)
	if err != nil {
		return nil, err
	}
	s.record(ctx, order, []*models.OrderPayment{reversal})
	return []*models.OrderPayment{reversal}, nil
}

func (s *paymentOrchestratorImpl) reverseAuthorization(ctx context.Context, order *models.Order, auth *models.OrderPayment) (*models.OrderPayment, error) {
	_, gw, err := s.resolve(order, auth.PaymentType)
	if err != nil {
		return nil, err
	}

	reversal := auth.CloneForFollowUp(models.ReverseAuthorization, auth.AmountMinor)
	if err := gw.ReversePreAuthorization(ctx, reversal); err != nil {
		reversal.Status = models.PaymentStatusFailed
		s.logger.Warn("Reversal declined",
			zap.String("order_number", order.OrderNumber),
			zap.String("authorization_code", auth.AuthorizationCode),
			zap.Error(err),
		)
	} else {
		reversal.Status = models.PaymentStatusApproved
	}
	return reversal, nil
}

// cancelShipment moves the shipment to CANCELLED in memory and in the store.
func (s *paymentOrchestratorImpl) cancelShipment(ctx context.Context, shipment *models.OrderShipment) {
	shipment.Status = models.ShipmentStatusCancelled
	if s.orders == nil {
		return
	}
	if err := s.orders.UpdateShipmentStatus(ctx, shipment.ShipmentNumber, models.ShipmentStatusCancelled); err != nil {
		s.logger.Error("Failed to persist shipment cancellation",
			zap.String("shipment_number", shipment.ShipmentNumber),
			zap.Error(err),
		)
	}
}

// RollBackPayments compensates every approved entry of a failed batch to
// restore the pre-operation state. Best-effort: failures are logged, and
// compensation continues with the remaining entries. Never returns an error.
func (s *paymentOrchestratorImpl) RollBackPayments(ctx context.Context, order *models.Order, processed []*models.OrderPayment) {
	for _, p := range processed {
		if !p.IsApproved() {
			continue
		}

		switch p.TransactionType {
		case models.AuthorizationTransaction:
			reversal, err := s.reverseAuthorization(ctx, order, p)
			if err != nil {
				s.logger.Error("Rollback could not resolve gateway",
					zap.String("order_number", order.OrderNumber),
					zap.String("authorization_code", p.AuthorizationCode),
					zap.Error(err),
				)
				continue
			}
			s.record(ctx, order, []*models.OrderPayment{reversal})

		case models.CaptureTransaction:
			// settled funds cannot be pulled back through the
			// authorization grammar; flag for manual refund
			s.logger.Error("Rollback encountered a settled capture; manual refund required",
				zap.String("order_number", order.OrderNumber),
				zap.String("authorization_code", p.AuthorizationCode),
				zap.Int64("amount_minor", p.AmountMinor),
			)

		case models.OrderTransaction:
			// bookkeeping record, nothing to compensate
		}
	}
}

// IsOrderPaymentRefundable reports whether a payment can be refunded
// standalone: it must be a capture, and the method must support refunds.
func (s *paymentOrchestratorImpl) IsOrderPaymentRefundable(payment *models.OrderPayment) bool {
	if payment == nil {
		return false
	}
	if payment.TransactionType != models.CaptureTransaction {
		return false
	}
	handler, err := s.handlers.HandlerFor(payment.PaymentType)
	if err != nil {
		return false
	}
	return handler.SupportsRefund()
}

// publishEvent pushes a payment event downstream; non-fatal on error.
func (s *paymentOrchestratorImpl) publishEvent(order *models.Order, shipmentNumber, eventType string, result *models.PaymentResult) {
	if s.publisher == nil {
		return
	}

	var amount int64
	for _, p := range result.ProcessedPayments {
		if p.IsApproved() {
			amount += p.AmountMinor
		}
	}

	event := models.PaymentEvent{
		Type:           eventType,
		OrderNumber:    order.OrderNumber,
		ShipmentNumber: shipmentNumber,
		ResultCode:     result.ResultCode,
		AmountMinor:    amount,
		Currency:       order.Currency,
		Timestamp:      time.Now().UTC(),
	}
	if err := s.publisher.SendPaymentEvent(event); err != nil {
		payload, _ := json.Marshal(event)
		s.logger.Error("Failed to publish payment event",
			zap.ByteString("event", payload),
			zap.Error(err),
		)
	}
}
