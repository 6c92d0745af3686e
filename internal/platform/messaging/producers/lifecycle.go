package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pix-disbursement-service/internal/config"
	"github.com/segmentio/kafka-go"
)

type LifecycleEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// Creates a new lifecycle event producer and ensures topic exists
func NewLifecycleEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LifecycleEventProducer, error) {
	if cfg.LifecycleTopic == "" {
		return nil, fmt.Errorf("kafka lifecycle topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for lifecycle producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.LifecycleTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure lifecycle topic %s exists: %w", cfg.LifecycleTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.LifecycleTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        true, // Lifecycle events are best effort, never block the flow
		WriteTimeout: cfg.MaxWait,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Failed to write lifecycle events asynchronously", "topic", cfg.LifecycleTopic, "error", err, "count", len(messages))
			} else {
				logger.Debug("Successfully wrote lifecycle events asynchronously", "topic", cfg.LifecycleTopic, "count", len(messages))
			}
		},
	}

	return &LifecycleEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.LifecycleTopic,
	}, nil
}

func (p *LifecycleEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal lifecycle event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish lifecycle event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish lifecycle event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published lifecycle event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *LifecycleEventProducer) Close() error {
	p.logger.Info("Closing lifecycle Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close lifecycle kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
