package repository

import (
	"context"

	"FinTrain/internal/domain/models"
	domrepo "FinTrain/internal/domain/repository"
	pkgkafka "FinTrain/pkg/kafka"
)

// KafkaOutcomePublisher publishes training outcomes keyed by unit.
type KafkaOutcomePublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaOutcomePublisher(producer *pkgkafka.Producer, topic string) *KafkaOutcomePublisher {
	return &KafkaOutcomePublisher{producer: producer, topic: topic}
}

func (p *KafkaOutcomePublisher) PublishOutcome(ctx context.Context, o models.TrainingOutcome) error {
	return p.producer.Publish(ctx, p.topic, []byte(o.Unit.String()), o)
}

var _ domrepo.OutcomePublisher = (*KafkaOutcomePublisher)(nil)
