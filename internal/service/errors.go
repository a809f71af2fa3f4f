package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/vnpay"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrEmptyCart        = errors.New("cart is empty")
	ErrAlreadyPaid      = errors.New("order has already been paid")
	ErrOrderNotPayable  = errors.New("order can no longer be paid")
	ErrCallbackConflict = errors.New("payment callback conflicts with the recorded order state")
	ErrPaymentFailed    = errors.New("payment for this order failed")
	ErrPaymentPending   = errors.New("payment is still being processed by the gateway")
)

// ValidationError reports a single malformed or missing input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// Code classifies err into the status code surfaced to callers.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return codes.InvalidArgument
	}

	switch {
	case errors.Is(err, policy.ErrUnauthenticated):
		return codes.Unauthenticated
	case errors.Is(err, policy.ErrForbidden):
		return codes.PermissionDenied

	case errors.Is(err, repository.ErrBrandNotFound),
		errors.Is(err, repository.ErrProductNotFound),
		errors.Is(err, repository.ErrCartNotFound),
		errors.Is(err, repository.ErrCartItemNotFound),
		errors.Is(err, repository.ErrShippingNotFound),
		errors.Is(err, repository.ErrVoucherNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		return codes.NotFound

	case errors.Is(err, repository.ErrDuplicate):
		return codes.AlreadyExists

	case errors.Is(err, repository.ErrLocked),
		errors.Is(err, repository.ErrSerialization),
		errors.Is(err, repository.ErrVersionConflict),
		errors.Is(err, ErrPaymentPending):
		return codes.Aborted

	case errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, repository.ErrInUse),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrOrderNotPayable),
		errors.Is(err, ErrCallbackConflict),
		errors.Is(err, ErrPaymentFailed),
		errors.Is(err, domain.ErrOrderCompleted),
		errors.Is(err, domain.ErrPaymentNotSettled),
		errors.Is(err, domain.ErrAwaitingDelivery),
		errors.Is(err, domain.ErrAlreadyDelivered),
		errors.Is(err, domain.ErrInvalidPaymentMethod):
		return codes.FailedPrecondition

	case errors.Is(err, vnpay.ErrInvalidSignature),
		errors.Is(err, vnpay.ErrMissingField),
		errors.Is(err, vnpay.ErrMalformedField):
		return codes.InvalidArgument

	case errors.Is(err, vnpay.ErrUnavailable),
		errors.Is(err, vnpay.ErrQueryRejected):
		return codes.Unavailable

	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	}

	if st, ok := status.FromError(err); ok {
		return st.Code()
	}
	return codes.Internal
}

// Retryable reports whether a failure with code c left nothing behind, so the
// caller may repeat the whole operation.
func Retryable(c codes.Code) bool {
	switch c {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted:
		return true
	}
	return false
}
