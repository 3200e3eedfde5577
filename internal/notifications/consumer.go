package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"anchorpoint/internal/shared/config"
	"anchorpoint/pkg/logger"
)

// Consumer drains the notification topic and hands messages to an email
// sender.
type Consumer interface {
	Start(ctx context.Context, numWorkers int) error
	Stop() error
}

const (
	consumerSessionTimeout = 30 * time.Second
	consumerHeartbeat      = 3 * time.Second
	consumerMaxRetries     = 3
	consumerRetryBackoff   = time.Second
)

type kafkaConsumer struct {
	group  sarama.ConsumerGroup
	topics []string
	sender EmailSender
	logger *logger.Logger
	cancel context.CancelFunc
}

// NewConsumer joins the notification consumer group. Returns nil without
// error when no brokers are configured so the server can run without Kafka.
func NewConsumer(cfg *config.Config, sender EmailSender) (Consumer, error) {
	log := logger.GetDefault()

	if len(cfg.Kafka.Brokers) == 0 {
		log.Warn("no kafka brokers configured, notification consumer disabled")
		return nil, nil
	}

	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = consumerSessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = consumerHeartbeat
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	return &kafkaConsumer{
		group:  group,
		topics: []string{cfg.Kafka.NotificationTopic},
		sender: sender,
		logger: log,
	}, nil
}

func (c *kafkaConsumer) Start(ctx context.Context, numWorkers int) error {
	ctx, c.cancel = context.WithCancel(ctx)

	go func() {
		for err := range c.group.Errors() {
			c.logger.Error(fmt.Sprintf("notification consumer group error: %v", err))
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	c.logger.Info(fmt.Sprintf("%d notification workers consuming %v", numWorkers, c.topics))
	return nil
}

func (c *kafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &groupHandler{
		workerID: workerID,
		sender:   c.sender,
		logger:   c.logger,
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.group.Consume(ctx, c.topics, handler); err != nil {
				c.logger.Error(fmt.Sprintf("notification worker %d consume error: %v", workerID, err))
				time.Sleep(time.Second)
			}
		}
	}
}

func (c *kafkaConsumer) Stop() error {
	if c.cancel != nil {
		c.cancel()
	}
	if err := c.group.Close(); err != nil {
		return fmt.Errorf("close consumer group: %w", err)
	}
	return nil
}

type groupHandler struct {
	workerID int
	sender   EmailSender
	logger   *logger.Logger
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.logger.Error(fmt.Sprintf("notification worker %d: %v", h.workerID, err))
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var email EmailMessage
	if err := json.Unmarshal(message.Value, &email); err != nil {
		return fmt.Errorf("unmarshal notification: %w", err)
	}

	return h.sendWithRetry(ctx, &email)
}

func (h *groupHandler) sendWithRetry(ctx context.Context, email *EmailMessage) error {
	for attempt := 0; attempt <= consumerMaxRetries; attempt++ {
		err := h.sender.Send(ctx, email)
		if err == nil {
			return nil
		}

		if attempt == consumerMaxRetries {
			return fmt.Errorf("deliver notification %s after %d attempts: %w", email.ID, attempt, err)
		}

		delay := consumerRetryBackoff * time.Duration(1<<attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
