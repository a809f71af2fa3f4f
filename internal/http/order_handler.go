package http

import (
	"context"
	"net/http"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/service"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	PlaceOrder(ctx context.Context, actor policy.Actor, req service.PlaceOrderRequest) (*service.PlaceOrderResult, error)
	GetOrder(ctx context.Context, actor policy.Actor, id int64) (*domain.Order, error)
	OrderItems(ctx context.Context, actor policy.Actor, id int64) ([]domain.OrderItem, error)
	ListMyOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error)
	ListOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error)
	ListUserOrders(ctx context.Context, actor policy.Actor, userID int64) ([]*domain.Order, error)
	CanceledOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error)
	CompletedTotals(ctx context.Context, actor policy.Actor) (map[domain.PaymentMethod]decimal.Decimal, error)
	AdvanceStatus(ctx context.Context, actor policy.Actor, orderID int64) (*domain.Order, error)
	ConfirmDelivery(ctx context.Context, actor policy.Actor, orderID int64) (*service.DeliveryResult, error)
}

type OrdersHandler struct {
	orders OrderService
}

func NewOrdersHandler(orders OrderService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

type PlaceOrderRequestDTO struct {
	ShippingID      int64                `json:"shipping_id"`
	ShippingAddress string               `json:"shipping_address"`
	VoucherID       *int64               `json:"voucher_id"`
	PaymentMethod   domain.PaymentMethod `json:"payment_method"`
}

type PlaceOrderResponseDTO struct {
	Order     *domain.Order     `json:"order"`
	CartItems []domain.CartItem `json:"cart_items"`
}

type DeliveryResponseDTO struct {
	Message    string        `json:"message"`
	AmountPaid string        `json:"amount_paid"`
	Order      *domain.Order `json:"order"`
}

// POST /api/orders
func (h *OrdersHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	res, err := h.orders.PlaceOrder(r.Context(), getActor(r), service.PlaceOrderRequest{
		ShippingID:      req.ShippingID,
		ShippingAddress: req.ShippingAddress,
		VoucherID:       req.VoucherID,
		PaymentMethod:   req.PaymentMethod,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, PlaceOrderResponseDTO{Order: res.Order, CartItems: res.CartItems})
}

// GET /api/orders/mine
func (h *OrdersHandler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListMyOrders(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

// GET /api/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), getActor(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// GET /api/orders/{order_id}/items
func (h *OrdersHandler) OrderItems(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	items, err := h.orders.OrderItems(r.Context(), getActor(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, items)
}

// GET /api/manager/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

// GET /api/manager/users/{user_id}/orders
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "user_id")
	if !ok {
		return
	}
	orders, err := h.orders.ListUserOrders(r.Context(), getActor(r), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

// GET /api/manager/orders/canceled
func (h *OrdersHandler) CanceledOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.CanceledOrders(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orders)
}

// GET /api/manager/orders/totals
func (h *OrdersHandler) CompletedTotals(w http.ResponseWriter, r *http.Request) {
	totals, err := h.orders.CompletedTotals(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]decimal.Decimal{
		"cash_on_delivery": totals[domain.PaymentMethodCOD],
		"vnpay":            totals[domain.PaymentMethodVNPay],
	})
}

// PUT /api/manager/orders/{order_id}/status
func (h *OrdersHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	order, err := h.orders.AdvanceStatus(r.Context(), getActor(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, order)
}

// PUT /api/manager/orders/{order_id}/confirm-delivery
func (h *OrdersHandler) ConfirmDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}
	res, err := h.orders.ConfirmDelivery(r.Context(), getActor(r), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, DeliveryResponseDTO{
		Message:    "Order delivered.",
		AmountPaid: res.AmountPaid,
		Order:      res.Order,
	})
}
