package http

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/service"
	"github.com/shopspring/decimal"
)

type PaymentService interface {
	CreatePaymentRequest(ctx context.Context, actor policy.Actor, in service.PaymentRequestInput) (*service.PaymentRequestResult, error)
	HandleCallback(ctx context.Context, params url.Values) (*service.CallbackResult, error)
	ListPayments(ctx context.Context, actor policy.Actor) ([]*domain.Payment, error)
	TotalPayments(ctx context.Context, actor policy.Actor) (decimal.Decimal, error)
}

type PaymentHandler struct {
	payments PaymentService
}

func NewPaymentHandler(payments PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

type CreatePaymentRequestDTO struct {
	BankCode string `json:"bank_code"`
	Locale   string `json:"locale"`
}

// POST /api/orders/{order_id}/payment
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	var req CreatePaymentRequestDTO
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.payments.CreatePaymentRequest(r.Context(), getActor(r), service.PaymentRequestInput{
		OrderID:  orderID,
		BankCode: req.BankCode,
		ClientIP: clientIP(r),
		Locale:   req.Locale,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// GET /api/vnpay/return
//
// A declined payment is answered with 200 and succeeded=false.
func (h *PaymentHandler) GatewayReturn(w http.ResponseWriter, r *http.Request) {
	res, err := h.payments.HandleCallback(r.Context(), r.URL.Query())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

// GET /api/manager/payments
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, payments)
}

// GET /api/manager/payments/total
func (h *PaymentHandler) TotalPayments(w http.ResponseWriter, r *http.Request) {
	total, err := h.payments.TotalPayments(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"total":     total,
		"formatted": domain.FormatVND(total),
	})
}

// clientIP strips the port from RemoteAddr, which RealIP has already
// replaced with the forwarded address when one was present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
