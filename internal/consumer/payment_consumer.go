package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/publisher"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Sender delivers a single plain-text email.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

const (
	retryBaseDelay = 500 * time.Millisecond
	retryMaxDelay  = 30 * time.Second
)

// PaymentConsumer turns payment.succeeded events into buyer receipts.
// A receipt that fails to send is retried before the next message is read,
// because committing a later offset would skip it for good.
type PaymentConsumer struct {
	reader    messageReader
	sender    Sender
	logger    *zap.Logger
	baseDelay time.Duration
	maxDelay  time.Duration

	fetchFailures int
}

func NewPaymentConsumer(sender Sender, logger *zap.Logger, topic, groupID string, brokers ...string) *PaymentConsumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MaxBytes: 10e6, // 10MB
	})
	return &PaymentConsumer{
		reader:    reader,
		sender:    sender,
		logger:    logger,
		baseDelay: retryBaseDelay,
		maxDelay:  retryMaxDelay,
	}
}

func (c *PaymentConsumer) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		c.processMessage(ctx)
	}
}

func (c *PaymentConsumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("error closing kafka reader", zap.Error(err))
	}
}

func (c *PaymentConsumer) processMessage(ctx context.Context) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		c.logger.Error("error reading message", zap.Int("failures", c.fetchFailures+1), zap.Error(err))
		c.wait(ctx, c.fetchFailures)
		c.fetchFailures++
		return
	}
	c.fetchFailures = 0

	for attempt := 0; ; attempt++ {
		err := c.handle(ctx, m)
		if err == nil {
			break
		}
		if errors.Is(err, ErrInvalidAddress) {
			c.logger.Warn("undeliverable payment receipt, skipping", zap.Int64("offset", m.Offset), zap.Error(err))
			break
		}
		c.logger.Error("failed to send payment receipt",
			zap.Int64("offset", m.Offset),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if !c.wait(ctx, attempt) {
			// Nothing past this offset was committed, so the group re-reads it.
			return
		}
	}

	if err := c.reader.CommitMessages(ctx, m); err != nil {
		c.logger.Error("error committing message", zap.Int64("offset", m.Offset), zap.Error(err))
	}
}

// wait sleeps for the attempt's backoff and reports false when ctx ended first.
func (c *PaymentConsumer) wait(ctx context.Context, attempt int) bool {
	d := c.maxDelay
	if attempt < 16 {
		if backoff := c.baseDelay << attempt; backoff < d {
			d = backoff
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (c *PaymentConsumer) handle(ctx context.Context, m kafka.Message) error {
	if eventType := header(m, "event_type"); eventType != "" && eventType != publisher.EventPaymentSucceeded {
		c.logger.Debug("skipping event", zap.String("event_type", eventType))
		return nil
	}

	var event publisher.PaymentSucceededEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		c.logger.Warn("error parsing message", zap.Error(err))
		return nil
	}
	if event.Email == "" {
		c.logger.Warn("payment event has no recipient, skipping", zap.Int64("order_id", event.OrderID))
		return nil
	}

	subject, body := PaymentReceipt(event)
	if err := c.sender.Send(ctx, event.Email, subject, body); err != nil {
		return fmt.Errorf("send receipt for order %d: %w", event.OrderID, err)
	}

	c.logger.Info("payment receipt sent",
		zap.Int64("order_id", event.OrderID),
		zap.String("event_id", event.EventID),
	)
	return nil
}

func header(m kafka.Message, key string) string {
	for _, h := range m.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
