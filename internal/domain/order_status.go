package domain

import "errors"

var (
	ErrOrderCompleted       = errors.New("order is already completed")
	ErrPaymentNotSettled    = errors.New("payment for this order has not been settled")
	ErrAwaitingDelivery     = errors.New("order is waiting for delivery and must be confirmed first")
	ErrAlreadyDelivered     = errors.New("order has already been delivered")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
)

// Advance returns the status an operator advance moves the order to. The
// returned status equals the current one when there is nothing to advance.
func Advance(status OrderStatus, payment PaymentStatus) (OrderStatus, error) {
	switch {
	case status == OrderStatusCompleted:
		return status, ErrOrderCompleted
	case payment == PaymentStatusWaitingForPayment:
		return status, ErrPaymentNotSettled
	case status == OrderStatusWaitingForDelivery:
		return status, ErrAwaitingDelivery
	case status == OrderStatusDelivered:
		return OrderStatusCompleted, nil
	}
	return status, nil
}

// CheckDeliverable validates that a delivery confirmation may proceed.
// A completed order counts as delivered.
func CheckDeliverable(o *Order) error {
	if !o.PaymentMethod.Valid() {
		return ErrInvalidPaymentMethod
	}
	if o.Status == OrderStatusDelivered || o.Status == OrderStatusCompleted {
		return ErrAlreadyDelivered
	}
	return nil
}

// Delivered returns the statuses written by a delivery confirmation. paid is the
// gateway payment outcome and is ignored for cash on delivery.
func Delivered(o *Order, paid bool) (OrderStatus, PaymentStatus) {
	if o.PaymentMethod == PaymentMethodCOD {
		return OrderStatusDelivered, PaymentStatusPaid
	}
	if !paid {
		return OrderStatusFailed, PaymentStatusFailed
	}
	return OrderStatusDelivered, o.PaymentStatus
}
