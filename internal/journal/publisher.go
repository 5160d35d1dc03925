package journal

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

const (
	defaultTopic     = "pos-sales"
	defaultBatchSize = 100
	defaultTick      = time.Second
)

// messageWriter is the slice of kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher drains the outbox and pushes sale-completed events to Kafka.
// Events keyed by draft id keep per-sale ordering; a failed publish stays
// unpublished and is retried on the next tick.
type Publisher struct {
	repo   OutboxStore
	writer messageWriter
	logger *zap.Logger
	tick   time.Duration
	batch  int
}

func NewPublisher(repo OutboxStore, logger *zap.Logger, brokers ...string) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  defaultTopic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &Publisher{
		repo:   repo,
		writer: w,
		logger: logger,
		tick:   defaultTick,
		batch:  defaultBatchSize,
	}
}

// Run polls the outbox until the context is cancelled.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.publishPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *Publisher) publishPending(ctx context.Context) {
	events, err := p.repo.GetUnpublishedEvents(ctx, p.batch)
	if err != nil {
		p.logger.Error("failed to fetch outbox events", zap.Error(err))
		return
	}

	for _, event := range events {
		msg := kafka.Message{
			Key:   []byte(event.AggregateID),
			Value: event.Payload,
			Headers: []kafka.Header{
				{Key: "event_type", Value: []byte(event.EventType)},
			},
		}

		if err := p.writer.WriteMessages(ctx, msg); err != nil {
			p.logger.Warn("failed to publish outbox event",
				zap.Int64("event_id", event.ID),
				zap.Error(err))
			continue
		}

		if err := p.repo.MarkEventPublished(ctx, event.ID); err != nil {
			p.logger.Warn("failed to mark event published",
				zap.Int64("event_id", event.ID),
				zap.Error(err))
		}
	}
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}
