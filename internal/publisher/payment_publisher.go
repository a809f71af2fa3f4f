package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
)

const EventPaymentSucceeded = "payment.succeeded"

type PaymentSucceededEvent struct {
	EventID       string          `json:"event_id"`
	OrderID       int64           `json:"order_id"`
	UserID        int64           `json:"user_id"`
	Email         string          `json:"email"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionNo string          `json:"transaction_no"`
	PaidAt        time.Time       `json:"paid_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentPublisher announces settled payments so the mailer can notify the buyer.
type PaymentPublisher struct {
	writer  messageWriter
	timeout time.Duration
}

func NewPaymentPublisher(topic string, brokers ...string) *PaymentPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &PaymentPublisher{writer: w, timeout: 5 * time.Second}
}

func (p *PaymentPublisher) PaymentSucceeded(ctx context.Context, order *domain.Order, payment *domain.Payment) error {
	event := PaymentSucceededEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		UserID:        order.UserID,
		Email:         order.ContactEmail,
		Amount:        payment.Amount,
		TransactionNo: payment.TransactionNo,
		PaidAt:        payment.PayDate,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(order.ID, 10)),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventPaymentSucceeded)},
			{Key: "event_id", Value: []byte(event.EventID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish payment event for order %d: %w", order.ID, err)
	}
	return nil
}

func (p *PaymentPublisher) Close() error {
	return p.writer.Close()
}
