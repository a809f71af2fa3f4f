package http

import (
	"context"
	"net/http"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
)

type CartService interface {
	GetCart(ctx context.Context, actor policy.Actor) (*domain.Cart, error)
	AddItem(ctx context.Context, actor policy.Actor, productID int64, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, actor policy.Actor, itemID int64, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, actor policy.Actor, itemID int64) (*domain.Cart, error)
	CompleteCart(ctx context.Context, actor policy.Actor) error
}

type CartHandler struct {
	cart CartService
}

func NewCartHandler(cart CartService) *CartHandler {
	return &CartHandler{cart: cart}
}

type AddItemRequestDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

// GET /api/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cart.GetCart(r.Context(), getActor(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, cart)
}

// POST /api/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.cart.AddItem(r.Context(), getActor(r), req.ProductID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, cart)
}

// PUT /api/cart/items/{item_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}
	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}

	cart, err := h.cart.UpdateItem(r.Context(), getActor(r), itemID, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, cart)
}

// DELETE /api/cart/items/{item_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := pathID(w, r, "item_id")
	if !ok {
		return
	}

	cart, err := h.cart.RemoveItem(r.Context(), getActor(r), itemID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, cart)
}

// POST /api/cart/complete
func (h *CartHandler) CompleteCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.CompleteCart(r.Context(), getActor(r)); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
