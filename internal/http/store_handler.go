package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/shopspring/decimal"
)

type ShippingService interface {
	Create(ctx context.Context, actor policy.Actor, sh *domain.Shipping) error
	Get(ctx context.Context, id int64) (*domain.Shipping, error)
	List(ctx context.Context) ([]*domain.Shipping, error)
	Update(ctx context.Context, actor policy.Actor, sh *domain.Shipping) error
	Delete(ctx context.Context, actor policy.Actor, id int64) error
}

type VoucherService interface {
	Create(ctx context.Context, actor policy.Actor, v *domain.Voucher) error
	Get(ctx context.Context, id int64) (*domain.Voucher, error)
	List(ctx context.Context) ([]*domain.Voucher, error)
	Update(ctx context.Context, actor policy.Actor, v *domain.Voucher) error
	ChangeStatus(ctx context.Context, actor policy.Actor, id int64, status domain.VoucherStatus) error
	Delete(ctx context.Context, actor policy.Actor, id int64) error
}

// StoreHandler serves shipping options and vouchers.
type StoreHandler struct {
	shippings ShippingService
	vouchers  VoucherService
}

func NewStoreHandler(shippings ShippingService, vouchers VoucherService) *StoreHandler {
	return &StoreHandler{shippings: shippings, vouchers: vouchers}
}

type ShippingRequestDTO struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"shipping_amount"`
	Method string          `json:"method"`
}

// GET /api/shippings
func (h *StoreHandler) ListShippings(w http.ResponseWriter, r *http.Request) {
	list, err := h.shippings.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

// GET /api/shippings/{shipping_id}
func (h *StoreHandler) GetShipping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipping_id")
	if !ok {
		return
	}
	sh, err := h.shippings.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sh)
}

// POST /api/manager/shippings
func (h *StoreHandler) CreateShipping(w http.ResponseWriter, r *http.Request) {
	var req ShippingRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sh := &domain.Shipping{Name: req.Name, Amount: req.Amount, Method: req.Method}
	if err := h.shippings.Create(r.Context(), getActor(r), sh); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, sh)
}

// PUT /api/manager/shippings/{shipping_id}
func (h *StoreHandler) UpdateShipping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipping_id")
	if !ok {
		return
	}
	var req ShippingRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	sh := &domain.Shipping{ID: id, Name: req.Name, Amount: req.Amount, Method: req.Method}
	if err := h.shippings.Update(r.Context(), getActor(r), sh); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, sh)
}

// DELETE /api/manager/shippings/{shipping_id}
func (h *StoreHandler) DeleteShipping(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "shipping_id")
	if !ok {
		return
	}
	if err := h.shippings.Delete(r.Context(), getActor(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type VoucherRequestDTO struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	StartDate      time.Time       `json:"start_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
}

func (d VoucherRequestDTO) voucher() *domain.Voucher {
	return &domain.Voucher{
		Code:           d.Code,
		DiscountAmount: d.DiscountAmount,
		StartDate:      d.StartDate,
		ExpiryDate:     d.ExpiryDate,
	}
}

type VoucherStatusRequestDTO struct {
	Status domain.VoucherStatus `json:"status"`
}

// GET /api/vouchers/{voucher_id}
func (h *StoreHandler) GetVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "voucher_id")
	if !ok {
		return
	}
	v, err := h.vouchers.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, v)
}

// GET /api/vouchers
func (h *StoreHandler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	list, err := h.vouchers.List(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, list)
}

// POST /api/manager/vouchers
func (h *StoreHandler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	var req VoucherRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	v := req.voucher()
	if err := h.vouchers.Create(r.Context(), getActor(r), v); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, v)
}

// PUT /api/manager/vouchers/{voucher_id}
func (h *StoreHandler) UpdateVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "voucher_id")
	if !ok {
		return
	}
	var req VoucherRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	v := req.voucher()
	v.ID = id
	if err := h.vouchers.Update(r.Context(), getActor(r), v); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, v)
}

// PATCH /api/manager/vouchers/{voucher_id}/status
func (h *StoreHandler) ChangeVoucherStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "voucher_id")
	if !ok {
		return
	}
	var req VoucherStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.vouchers.ChangeStatus(r.Context(), getActor(r), id, req.Status); err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, MessageResponse{Message: "Voucher status updated."})
}

// DELETE /api/manager/vouchers/{voucher_id}
func (h *StoreHandler) DeleteVoucher(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "voucher_id")
	if !ok {
		return
	}
	if err := h.vouchers.Delete(r.Context(), getActor(r), id); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
