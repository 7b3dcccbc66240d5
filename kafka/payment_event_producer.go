package kafka

import (
	"context"
	"encoding/json"

	"payment-orchestrator/models"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// PaymentEventProducer publishes payment events to Kafka, keyed by order
// number so an order's events stay in one partition.
type PaymentEventProducer struct {
	writer *kafka.Writer
	topic  string
	logger *zap.Logger
}

func NewPaymentEventProducer(brokers []string, topic string, logger *zap.Logger) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	logger.Info("Kafka payment event producer initialized",
		zap.String("topic", topic),
		zap.Strings("brokers", brokers),
	)
	return &PaymentEventProducer{writer: w, topic: topic, logger: logger}
}

func (p *PaymentEventProducer) SendPaymentEvent(event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.OrderNumber),
		Value: data,
	}

	if err := p.writer.WriteMessages(context.Background(), msg); err != nil {
		p.logger.Error("Failed to send payment event", zap.Error(err))
		return err
	}

	p.logger.Info("Sent payment event",
		zap.String("type", event.Type),
		zap.String("order_number", event.OrderNumber),
	)
	return nil
}

func (p *PaymentEventProducer) Close() {
	_ = p.writer.Close()
	p.logger.Info("Kafka producer closed")
}
