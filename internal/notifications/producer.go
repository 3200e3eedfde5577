package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"anchorpoint/internal/shared/config"
	"anchorpoint/pkg/logger"
)

// Producer publishes notification messages for async delivery.
type Producer interface {
	Publish(ctx context.Context, message *EmailMessage) error
	Close() error
}

type kafkaProducer struct {
	producer sarama.SyncProducer
	topic    string
	logger   *logger.Logger
}

// NewProducer connects a sync Kafka producer. Without brokers configured,
// or when the connection fails, delivery degrades to a log-only producer so
// booking flows keep working in development.
func NewProducer(cfg *config.Config) Producer {
	log := logger.GetDefault()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("no kafka brokers configured, notifications are log-only")
		return &logProducer{logger: log}
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = sarama.WaitForAll
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Retry.Max = 3
	saramaConfig.Producer.Timeout = 10 * time.Second
	saramaConfig.Producer.Idempotent = true
	saramaConfig.Net.MaxOpenRequests = 1

	// Hash partitioner keeps per-recipient ordering
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, saramaConfig)
	if err != nil {
		log.Warn(fmt.Sprintf("kafka producer unavailable, notifications are log-only: %v", err))
		return &logProducer{logger: log}
	}

	return &kafkaProducer{
		producer: producer,
		topic:    cfg.Kafka.NotificationTopic,
		logger:   log,
	}
}

func (p *kafkaProducer) Publish(ctx context.Context, message *EmailMessage) error {
	payload, err := message.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	kafkaMessage := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(message.PartitionKey()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("notification_id"), Value: []byte(message.ID.String())},
			{Key: []byte("notification_type"), Value: []byte(message.Type)},
			{Key: []byte("created_at"), Value: []byte(message.CreatedAt.Format(time.RFC3339))},
		},
		Timestamp: message.CreatedAt,
	}

	partition, offset, err := p.producer.SendMessage(kafkaMessage)
	if err != nil {
		return fmt.Errorf("send notification to kafka: %w", err)
	}

	p.logger.Debug(fmt.Sprintf("notification %s published to %s partition %d offset %d",
		message.ID, p.topic, partition, offset))
	return nil
}

func (p *kafkaProducer) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// logProducer writes notifications to the application log instead of a
// broker.
type logProducer struct {
	logger *logger.Logger
}

func (p *logProducer) Publish(ctx context.Context, message *EmailMessage) error {
	p.logger.Info(fmt.Sprintf("notification %s (%s) to %v: %s",
		message.ID, message.Type, message.Recipients, message.Subject))
	return nil
}

func (p *logProducer) Close() error { return nil }
