package service

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/eventbot/internal/entity"
	"github.com/ds124wfegd/eventbot/internal/metrics"
	"github.com/ds124wfegd/eventbot/pkg/kafka"
	"github.com/ds124wfegd/eventbot/pkg/rabbitMQ"
)

// KafkaAuditAdapter publishes capacity changes to a Kafka topic keyed by event id.
type KafkaAuditAdapter struct {
	producer kafka.Producer
}

func NewKafkaAuditAdapter(p kafka.Producer) *KafkaAuditAdapter {
	return &KafkaAuditAdapter{producer: p}
}

func (a *KafkaAuditAdapter) Publish(ctx context.Context, change *entity.CapacityChange) error {
	if a.producer == nil {
		return nil
	}
	if err := a.producer.SendMessage(ctx, change.EventID, change); err != nil {
		metrics.AuditPublishFailure("kafka")
		return fmt.Errorf("kafka audit: %w", err)
	}
	return nil
}

// RabbitAuditAdapter publishes capacity changes to a durable RabbitMQ queue.
type RabbitAuditAdapter struct {
	queue rabbitMQ.Queue
}

func NewRabbitAuditAdapter(q rabbitMQ.Queue) *RabbitAuditAdapter {
	return &RabbitAuditAdapter{queue: q}
}

func (a *RabbitAuditAdapter) Publish(ctx context.Context, change *entity.CapacityChange) error {
	if a.queue == nil {
		return nil
	}
	if err := a.queue.Publish(ctx, change); err != nil {
		metrics.AuditPublishFailure("rabbitmq")
		return fmt.Errorf("rabbitmq audit: %w", err)
	}
	return nil
}
