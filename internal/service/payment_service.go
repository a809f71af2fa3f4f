package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentNotifier announces a settled payment. Failures are logged by the
// caller and never undo the payment.
type PaymentNotifier interface {
	PaymentSucceeded(ctx context.Context, order *domain.Order, payment *domain.Payment) error
}

type PaymentConfig struct {
	MinAmount      decimal.Decimal // major units, inclusive
	MaxAmount      decimal.Decimal
	VerifyCallback bool
	OrderURL       string // order id is appended
}

type PaymentService struct {
	repo     repository.RepoInterface
	gateway  *vnpay.Client
	notifier PaymentNotifier
	cfg      PaymentConfig
	now      func() time.Time
}

func NewPaymentService(repo repository.RepoInterface, gateway *vnpay.Client, notifier PaymentNotifier, cfg PaymentConfig) *PaymentService {
	return &PaymentService{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
	}
}

type PaymentRequestInput struct {
	OrderID  int64
	BankCode string
	ClientIP string
	Locale   string
}

// PaymentRequestResult holds either a gateway redirect or, for cash orders,
// a confirmation message.
type PaymentRequestResult struct {
	OrderID    int64  `json:"order_id"`
	PaymentURL string `json:"payment_url,omitempty"`
	Message    string `json:"message,omitempty"`
}

const codConfirmation = "Order placed successfully. Please wait for delivery."

func (s *PaymentService) CreatePaymentRequest(ctx context.Context, actor policy.Actor, in PaymentRequestInput) (*PaymentRequestResult, error) {
	if in.OrderID <= 0 {
		return nil, invalid("order_id", "must be a positive integer")
	}
	in.BankCode = cleanText(in.BankCode)
	if in.Locale != "" && in.Locale != "vn" && in.Locale != "en" {
		return nil, invalid("locale", "must be vn or en")
	}

	o, err := s.repo.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionCreatePayment, o.UserID); err != nil {
		return nil, err
	}

	switch o.PaymentMethod {
	case domain.PaymentMethodCOD:
		return s.confirmCashOrder(ctx, o)
	case domain.PaymentMethodVNPay:
	default:
		return nil, fmt.Errorf("order %d: %w", o.ID, domain.ErrInvalidPaymentMethod)
	}

	if o.PaymentStatus == domain.PaymentStatusPaid {
		return nil, fmt.Errorf("order %d: %w", o.ID, ErrAlreadyPaid)
	}
	if o.Status != domain.OrderStatusPending {
		return nil, fmt.Errorf("order %d is %s: %w", o.ID, o.Status, ErrOrderNotPayable)
	}
	if o.TotalAmount.LessThan(s.cfg.MinAmount) || o.TotalAmount.GreaterThan(s.cfg.MaxAmount) {
		return nil, invalid("amount", fmt.Sprintf("must be between %s and %s",
			domain.FormatVND(s.cfg.MinAmount), domain.FormatVND(s.cfg.MaxAmount)))
	}

	paymentURL := s.gateway.PaymentURL(vnpay.PaymentRequest{
		TxnRef:    o.ID,
		Amount:    o.TotalAmount,
		OrderInfo: fmt.Sprintf("Thanh toan cho don hang #%d", o.ID),
		IPAddr:    in.ClientIP,
		Locale:    in.Locale,
		BankCode:  in.BankCode,
	})

	logger.FromContext(ctx).Info("payment request created",
		zap.Int64("order_id", o.ID),
		zap.String("amount", o.TotalAmount.StringFixed(2)),
	)
	return &PaymentRequestResult{OrderID: o.ID, PaymentURL: paymentURL}, nil
}

func (s *PaymentService) confirmCashOrder(ctx context.Context, o *domain.Order) (*PaymentRequestResult, error) {
	switch o.Status {
	case domain.OrderStatusWaitingForDelivery:
	case domain.OrderStatusPending:
		if err := s.repo.UpdateOrderStatus(ctx, o, domain.OrderStatusWaitingForDelivery, o.PaymentStatus); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("order %d is %s: %w", o.ID, o.Status, ErrOrderNotPayable)
	}
	return &PaymentRequestResult{OrderID: o.ID, Message: codConfirmation}, nil
}

// CallbackResult is the outcome of a gateway notification. A declined
// payment is a normal result with Succeeded false, not an error.
type CallbackResult struct {
	Succeeded        bool   `json:"succeeded"`
	Message          string `json:"message"`
	OrderID          int64  `json:"order_id"`
	OrderURL         string `json:"order_url,omitempty"`
	PaymentReturnURL string `json:"payment_return_url,omitempty"`
}

const (
	callbackSucceeded = "Payment successful. Order updated."
	callbackDeclined  = "Payment failed. Order has been canceled."
)

// HandleCallback applies a gateway notification to its order. The order
// update and the ledger row commit together; the buyer notification runs
// after the commit and cannot fail the callback.
func (s *PaymentService) HandleCallback(ctx context.Context, params url.Values) (*CallbackResult, error) {
	log := logger.FromContext(ctx)

	if s.cfg.VerifyCallback {
		if err := s.gateway.Verify(params); err != nil {
			log.Warn("rejected callback with bad signature", zap.String("txn_ref", params.Get("vnp_TxnRef")))
			return nil, err
		}
	}

	cb, err := vnpay.ParseCallback(params)
	if err != nil {
		return nil, err
	}

	var (
		order   *domain.Order
		payment *domain.Payment
		settled bool // this callback moved the order to Paid
	)
	err = s.repo.WithTx(ctx, func(tx repository.Store) error {
		o, err := tx.LockOrder(ctx, cb.OrderID)
		if err != nil {
			return err
		}
		order = o

		if o.PaymentMethod != domain.PaymentMethodVNPay {
			return fmt.Errorf("order %d is %s: %w", o.ID, o.PaymentMethod, ErrCallbackConflict)
		}

		if !cb.Succeeded() {
			switch {
			case o.PaymentStatus == domain.PaymentStatusPaid:
				return fmt.Errorf("declined callback for paid order %d: %w", o.ID, ErrCallbackConflict)
			case o.Status == domain.OrderStatusCanceled || o.Status == domain.OrderStatusFailed:
				return nil
			}
			return tx.UpdateOrderStatus(ctx, o, domain.OrderStatusCanceled, domain.PaymentStatusFailed)
		}

		switch {
		case o.PaymentStatus == domain.PaymentStatusPaid:
			return nil
		case o.Status != domain.OrderStatusPending:
			return fmt.Errorf("settled callback for %s order %d: %w", o.Status, o.ID, ErrCallbackConflict)
		}

		if err := tx.UpdateOrderStatus(ctx, o, domain.OrderStatusWaitingForDelivery, domain.PaymentStatusPaid); err != nil {
			return err
		}

		payDate := cb.PayDate
		if payDate.IsZero() {
			payDate = s.now()
		}
		payment = &domain.Payment{
			OrderID:       o.ID,
			TransactionNo: cb.TransactionNo,
			BankCode:      cb.BankCode,
			CardType:      cb.CardType,
			Amount:        cb.Amount,
			PayDate:       payDate,
			Status:        domain.PaymentRecordSuccess,
		}
		if err := tx.InsertPayment(ctx, payment); err != nil {
			return err
		}
		settled = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !cb.Succeeded() {
		log.Info("payment declined",
			zap.Int64("order_id", order.ID),
			zap.String("response_code", cb.ResponseCode),
		)
		return &CallbackResult{OrderID: order.ID, Message: callbackDeclined}, nil
	}

	if settled {
		log.Info("payment settled",
			zap.Int64("order_id", order.ID),
			zap.String("transaction_no", cb.TransactionNo),
			zap.String("amount", cb.Amount.StringFixed(2)),
		)
		if s.notifier != nil {
			if err := s.notifier.PaymentSucceeded(ctx, order, payment); err != nil {
				log.Warn("payment notification failed", zap.Int64("order_id", order.ID), zap.Error(err))
			}
		}
	}

	return &CallbackResult{
		Succeeded:        true,
		Message:          callbackSucceeded,
		OrderID:          order.ID,
		OrderURL:         s.cfg.OrderURL + strconv.FormatInt(order.ID, 10),
		PaymentReturnURL: s.gateway.ReturnURL(cb),
	}, nil
}

func (s *PaymentService) ListPayments(ctx context.Context, actor policy.Actor) ([]*domain.Payment, error) {
	if err := policy.Authorize(actor, policy.ActionViewReports, 0); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx)
}

func (s *PaymentService) TotalPayments(ctx context.Context, actor policy.Actor) (decimal.Decimal, error) {
	if err := policy.Authorize(actor, policy.ActionViewReports, 0); err != nil {
		return decimal.Zero, err
	}
	return s.repo.TotalPayments(ctx)
}
