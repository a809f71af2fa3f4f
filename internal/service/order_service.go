package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/logger"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/policy"
	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type PlaceOrderRequest struct {
	ShippingID      int64
	ShippingAddress string
	VoucherID       *int64
	PaymentMethod   domain.PaymentMethod
}

// PlaceOrderResult is the stored order together with the cart lines it was
// built from.
type PlaceOrderResult struct {
	Order     *domain.Order
	CartItems []domain.CartItem
}

type OrderService struct {
	repo    repository.RepoInterface
	checker PaymentStatusChecker
	now     func() time.Time
}

func NewOrderService(repo repository.RepoInterface, checker PaymentStatusChecker) *OrderService {
	return &OrderService{repo: repo, checker: checker, now: time.Now}
}

// PlaceOrder converts the actor's active cart into an order. Cart, shipping and
// voucher reads, the order rows and every stock decrement share one
// transaction; any failure leaves no order and no stock change behind.
func (s *OrderService) PlaceOrder(ctx context.Context, actor policy.Actor, req PlaceOrderRequest) (*PlaceOrderResult, error) {
	if err := policy.Authorize(actor, policy.ActionCheckout, actor.ID); err != nil {
		return nil, err
	}
	if err := validatePlaceOrder(&req); err != nil {
		return nil, err
	}

	cart, err := s.repo.GetActiveCart(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, ErrEmptyCart
	}

	var result *PlaceOrderResult
	err = s.repo.WithTx(ctx, func(tx repository.Store) error {
		cart, err := tx.LockActiveCart(ctx, actor.ID)
		if err != nil {
			return err
		}
		if len(cart.Items) == 0 {
			return ErrEmptyCart
		}

		shipping, err := tx.GetShipping(ctx, req.ShippingID)
		if err != nil {
			return err
		}

		now := s.now()
		discount := decimal.Zero
		var voucherID *int64
		if req.VoucherID != nil {
			voucher, err := tx.GetVoucher(ctx, *req.VoucherID)
			if err != nil {
				return err
			}
			if voucher.Applicable(now) {
				discount = voucher.DiscountAmount.Round(2)
				voucherID = &voucher.ID
			}
		}

		products, err := tx.LockProducts(ctx, productIDs(cart.Items))
		if err != nil {
			return err
		}
		for _, item := range cart.Items {
			p, ok := products[item.ProductID]
			if !ok {
				return repository.ErrProductNotFound
			}
			if p.Quantity < item.Quantity {
				return &repository.InsufficientStockError{
					ProductID: p.ID,
					Name:      p.Name,
					Available: p.Quantity,
					Requested: item.Quantity,
				}
			}
		}

		subtotal := domain.Subtotal(cart.Items)
		shippingCost := shipping.Amount.Round(2)
		status, paymentStatus := domain.InitialStatus(req.PaymentMethod)

		order := &domain.Order{
			UserID:               actor.ID,
			ContactEmail:         actor.Email,
			ShippingID:           shipping.ID,
			VoucherID:            voucherID,
			ShippingAddress:      req.ShippingAddress,
			PaymentMethod:        req.PaymentMethod,
			Subtotal:             subtotal,
			ShippingCost:         shippingCost,
			Discount:             discount,
			TotalAmount:          domain.OrderTotal(subtotal, shippingCost, discount),
			Status:               status,
			PaymentStatus:        paymentStatus,
			OrderDate:            now,
			ExpectedDeliveryDate: domain.ExpectedDeliveryDate(now),
		}
		if err := tx.InsertOrder(ctx, order); err != nil {
			return err
		}

		order.Items = make([]domain.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			oi := domain.OrderItem{
				OrderID:     order.ID,
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
			}
			if err := tx.InsertOrderItem(ctx, &oi); err != nil {
				return err
			}
			if err := tx.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				return err
			}
			order.Items = append(order.Items, oi)
		}

		result = &PlaceOrderResult{Order: order, CartItems: cart.Items}
		return nil
	})
	if err != nil {
		var stockErr *repository.InsufficientStockError
		if errors.As(err, &stockErr) {
			logger.FromContext(ctx).Info("checkout rejected: insufficient stock",
				zap.Int64("user_id", actor.ID),
				zap.Int64("product_id", stockErr.ProductID),
				zap.Int("requested", stockErr.Requested),
				zap.Int("available", stockErr.Available),
			)
		}
		return nil, err
	}

	logger.FromContext(ctx).Info("order placed",
		zap.Int64("order_id", result.Order.ID),
		zap.Int64("user_id", actor.ID),
		zap.String("total", result.Order.TotalAmount.StringFixed(2)),
		zap.String("payment_method", string(result.Order.PaymentMethod)),
	)
	return result, nil
}

func validatePlaceOrder(req *PlaceOrderRequest) error {
	req.ShippingAddress = cleanText(req.ShippingAddress)
	switch {
	case req.ShippingID <= 0:
		return invalid("shipping_id", "must be a positive integer")
	case req.ShippingAddress == "":
		return invalid("shipping_address", "is required")
	case len(req.ShippingAddress) > 255:
		return invalid("shipping_address", "must be at most 255 characters")
	case !req.PaymentMethod.Valid():
		return invalid("payment_method", "must be one of: Cash on Delivery, VNpay Payment")
	case req.VoucherID != nil && *req.VoucherID <= 0:
		return invalid("voucher_id", "must be a positive integer")
	}
	return nil
}

func productIDs(items []domain.CartItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// GetOrder returns an order with its items to its owner or to staff.
func (s *OrderService) GetOrder(ctx context.Context, actor policy.Actor, id int64) (*domain.Order, error) {
	if id <= 0 {
		return nil, invalid("order_id", "must be a positive integer")
	}
	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(actor, policy.ActionViewOrder, o.UserID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListOrderItems(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (s *OrderService) OrderItems(ctx context.Context, actor policy.Actor, id int64) ([]domain.OrderItem, error) {
	o, err := s.GetOrder(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	return o.Items, nil
}

func (s *OrderService) ListMyOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error) {
	if err := policy.Authorize(actor, policy.ActionViewOrder, actor.ID); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByUser(ctx, actor.ID)
}

func (s *OrderService) ListOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error) {
	if err := policy.Authorize(actor, policy.ActionListOrders, 0); err != nil {
		return nil, err
	}
	return s.repo.ListOrders(ctx)
}

func (s *OrderService) ListUserOrders(ctx context.Context, actor policy.Actor, userID int64) ([]*domain.Order, error) {
	if err := policy.Authorize(actor, policy.ActionListOrders, 0); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, invalid("user_id", "must be a positive integer")
	}
	return s.repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) CanceledOrders(ctx context.Context, actor policy.Actor) ([]*domain.Order, error) {
	if err := policy.Authorize(actor, policy.ActionListOrders, 0); err != nil {
		return nil, err
	}
	return s.repo.ListOrdersByStatus(ctx, domain.OrderStatusCanceled)
}

// CompletedTotals sums completed orders per payment method.
func (s *OrderService) CompletedTotals(ctx context.Context, actor policy.Actor) (map[domain.PaymentMethod]decimal.Decimal, error) {
	if err := policy.Authorize(actor, policy.ActionViewReports, 0); err != nil {
		return nil, err
	}
	return s.repo.TotalsByPaymentMethod(ctx, domain.OrderStatusCompleted)
}
