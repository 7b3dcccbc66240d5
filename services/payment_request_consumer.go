package services

import (
	"context"
	"encoding/json"
	"time"

	"payment-orchestrator/awsx"
	"payment-orchestrator/models"

	"go.uber.org/zap"
)

// PaymentRequestConsumer consumes checkout payment requests from SQS,
// drives InitializePayments, and publishes the outcome to SNS.
type PaymentRequestConsumer struct {
	sqsConsumer     *awsx.SQSConsumer
	snsPublisher    awsx.SNSPublisher
	paymentTopicArn string
	orchestrator    PaymentOrchestrator
	orders          OrderStore
	logger          *zap.Logger
}

func NewPaymentRequestConsumer(
	sqsConsumer *awsx.SQSConsumer,
	snsPublisher awsx.SNSPublisher,
	paymentTopicArn string,
	orchestrator PaymentOrchestrator,
	orders OrderStore,
	logger *zap.Logger,
) *PaymentRequestConsumer {
	return &PaymentRequestConsumer{
		sqsConsumer:     sqsConsumer,
		snsPublisher:    snsPublisher,
		paymentTopicArn: paymentTopicArn,
		orchestrator:    orchestrator,
		orders:          orders,
		logger:          logger,
	}
}

func (c *PaymentRequestConsumer) Start(ctx context.Context) {
	c.logger.Info("Starting PaymentRequestConsumer (SQS)")

	err := c.sqsConsumer.StartPolling(ctx, func(ctx context.Context, body string) error {
		var req models.PaymentInitRequest
		if err := json.Unmarshal([]byte(body), &req); err != nil {
			c.logger.Warn("Invalid payment request JSON", zap.Error(err))
			return err
		}

		order, err := c.orders.FindByOrderNumber(ctx, req.OrderNumber)
		if err != nil {
			c.logger.Warn("Order not found for payment request",
				zap.String("order_number", req.OrderNumber),
				zap.Error(err),
			)
			return err
		}

		template := templateFromRequest(&req)
		result, err := c.orchestrator.InitializePayments(ctx, order, template, nil)
		if err != nil {
			c.logger.Error("Payment initialization failed",
				zap.String("order_number", req.OrderNumber),
				zap.Error(err),
			)
			return err
		}

		if !result.OK() {
			// compensate the approved entries of the mixed batch
			c.orchestrator.RollBackPayments(ctx, order, result.ProcessedPayments)
		}

		c.publishOutcome(ctx, order, result)
		return nil
	})

	if err != nil && err != context.Canceled {
		c.logger.Error("SQS consumer error", zap.Error(err))
	}
}

func templateFromRequest(req *models.PaymentInitRequest) *models.OrderPayment {
	template := &models.OrderPayment{
		OrderNumber: req.OrderNumber,
		PaymentType: req.PaymentType,
	}
	if req.Token != "" {
		token := req.Token
		template.Token = &token
	}
	if req.CertificateCode != "" {
		code := req.CertificateCode
		template.GiftCertificateCode = &code
	}
	return template
}

func (c *PaymentRequestConsumer) publishOutcome(ctx context.Context, order *models.Order, result *models.PaymentResult) {
	if c.snsPublisher == nil || c.paymentTopicArn == "" {
		c.logger.Warn("SNS not configured, skipping outcome publish")
		return
	}

	eventType := "payments_initialized"
	if !result.OK() {
		eventType = "payments_failed"
	}
	event := models.PaymentEvent{
		Type:        eventType,
		OrderNumber: order.OrderNumber,
		ResultCode:  result.ResultCode,
		AmountMinor: order.TotalMinor,
		Currency:    order.Currency,
		Timestamp:   time.Now().UTC(),
	}

	b, err := json.Marshal(event)
	if err != nil {
		c.logger.Error("Failed to marshal payment event", zap.Error(err))
		return
	}
	if err := c.snsPublisher.Publish(ctx, c.paymentTopicArn, b); err != nil {
		c.logger.Error("Failed to publish payment event", zap.Error(err))
		return
	}
	c.logger.Info("Published payment outcome",
		zap.String("order_number", order.OrderNumber),
		zap.String("result_code", result.ResultCode),
	)
}
