package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"go.uber.org/zap"
)

// PaymentStatusChecker reports the gateway outcome of an order's payment.
type PaymentStatusChecker interface {
	PaymentStatus(ctx context.Context, o *domain.Order) (vnpay.QueryStatus, error)
}

type gatewayQuerier interface {
	Query(ctx context.Context, orderID int64, transactionDate time.Time) (vnpay.QueryStatus, error)
}

// LedgerStatusChecker trusts a successful ledger row first and only then asks
// the gateway. Without a gateway client an unrecorded payment counts as failed.
type LedgerStatusChecker struct {
	payments repository.PaymentStore
	gateway  gatewayQuerier
}

// NewLedgerStatusChecker builds a checker. gateway may be nil.
func NewLedgerStatusChecker(payments repository.PaymentStore, gateway *vnpay.QueryClient) *LedgerStatusChecker {
	c := &LedgerStatusChecker{payments: payments}
	if gateway != nil {
		c.gateway = gateway
	}
	return c
}

func (c *LedgerStatusChecker) PaymentStatus(ctx context.Context, o *domain.Order) (vnpay.QueryStatus, error) {
	paid, err := c.payments.HasSuccessfulPayment(ctx, o.ID)
	if err != nil {
		return "", err
	}
	if paid {
		return vnpay.QueryStatusSuccess, nil
	}
	if c.gateway == nil {
		return vnpay.QueryStatusFailed, nil
	}
	return c.gateway.Query(ctx, o.ID, o.OrderDate)
}

// AdvanceStatus moves a delivered order to Completed. Orders in any other
// non-blocked state are returned unchanged.
func (s *OrderService) AdvanceStatus(ctx context.Context, actor policy.Actor, orderID int64) (*domain.Order, error) {
	if err := policy.Authorize(actor, policy.ActionAdvanceStatus, 0); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, invalid("order_id", "must be a positive integer")
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	next, err := domain.Advance(o.Status, o.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}
	if next == o.Status {
		return o, nil
	}

	prev := o.Status
	if err := s.repo.UpdateOrderStatus(ctx, o, next, o.PaymentStatus); err != nil {
		return nil, err
	}
	logger.FromContext(ctx).Info("order status advanced",
		zap.Int64("order_id", o.ID),
		zap.String("from", prev.String()),
		zap.String("to", next.String()),
		zap.Int64("actor_id", actor.ID),
	)
	return o, nil
}

type DeliveryResult struct {
	Order      *domain.Order
	AmountPaid string
}

// ConfirmDelivery marks an order delivered. Cash orders are settled on the
// spot; gateway orders are checked with the gateway first and fail the order
// when the payment did not go through.
func (s *OrderService) ConfirmDelivery(ctx context.Context, actor policy.Actor, orderID int64) (*DeliveryResult, error) {
	if err := policy.Authorize(actor, policy.ActionConfirmDelivery, 0); err != nil {
		return nil, err
	}
	if orderID <= 0 {
		return nil, invalid("order_id", "must be a positive integer")
	}

	o, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := domain.CheckDeliverable(o); err != nil {
		return nil, fmt.Errorf("order %d: %w", o.ID, err)
	}

	paid := true
	if o.PaymentMethod == domain.PaymentMethodVNPay {
		st, err := s.checker.PaymentStatus(ctx, o)
		if err != nil {
			return nil, fmt.Errorf("check payment of order %d: %w", o.ID, err)
		}
		switch st {
		case vnpay.QueryStatusPending:
			return nil, fmt.Errorf("order %d: %w", o.ID, ErrPaymentPending)
		case vnpay.QueryStatusFailed:
			paid = false
		}
	}

	status, payment := domain.Delivered(o, paid)
	if err := s.repo.UpdateOrderStatus(ctx, o, status, payment); err != nil {
		return nil, err
	}

	log := logger.FromContext(ctx).With(zap.Int64("order_id", o.ID), zap.Int64("actor_id", actor.ID))
	if !paid {
		log.Info("delivery rejected: gateway payment failed")
		return nil, fmt.Errorf("order %d: %w", o.ID, ErrPaymentFailed)
	}
	log.Info("order delivered", zap.String("payment_method", string(o.PaymentMethod)))
	return &DeliveryResult{Order: o, AmountPaid: domain.FormatVND(o.TotalAmount)}, nil
}
