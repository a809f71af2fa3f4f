package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/shopspring/decimal"
)

const orderColumns = `order_id, user_id, contact_email, shipping_id, voucher_id, shipping_address, payment_method,
	subtotal, shipping_cost, discount, total_amount, status, payment_status,
	order_date, expected_delivery_date, version, created_at, updated_at`

func scanOrder(row rowScanner) (*domain.Order, error) {
	var o domain.Order
	var voucherID sql.NullInt64
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.ContactEmail,
		&o.ShippingID,
		&voucherID,
		&o.ShippingAddress,
		&o.PaymentMethod,
		&o.Subtotal,
		&o.ShippingCost,
		&o.Discount,
		&o.TotalAmount,
		&o.Status,
		&o.PaymentStatus,
		&o.OrderDate,
		&o.ExpectedDeliveryDate,
		&o.Version,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if voucherID.Valid {
		o.VoucherID = &voucherID.Int64
	}
	return &o, nil
}

func (r *Queries) InsertOrder(ctx context.Context, o *domain.Order) error {
	query := `INSERT INTO orders (user_id, contact_email, shipping_id, voucher_id, shipping_address, payment_method,
	                              subtotal, shipping_cost, discount, total_amount, status, payment_status,
	                              order_date, expected_delivery_date, version, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, NOW(), NOW())
	          RETURNING order_id, version, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query,
		o.UserID,
		o.ContactEmail,
		o.ShippingID,
		nullableID(o.VoucherID),
		o.ShippingAddress,
		o.PaymentMethod,
		o.Subtotal,
		o.ShippingCost,
		o.Discount,
		o.TotalAmount,
		o.Status,
		o.PaymentStatus,
		o.OrderDate,
		o.ExpectedDeliveryDate,
	).Scan(&o.ID, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", classify(err))
	}
	return nil
}

func (r *Queries) InsertOrderItem(ctx context.Context, item *domain.OrderItem) error {
	query := `INSERT INTO order_items (order_id, product_id, quantity, price, created_at)
	          VALUES ($1, $2, $3, $4, NOW()) RETURNING id`

	err := r.q.QueryRowContext(ctx, query, item.OrderID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert order item: %w", classify(err))
	}
	return nil
}

func (r *Queries) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return r.order(ctx, id, "")
}

// LockOrder reads the order under a row lock for the rest of the transaction.
func (r *Queries) LockOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return r.order(ctx, id, " FOR UPDATE")
}

func (r *Queries) order(ctx context.Context, id int64, lock string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE order_id = $1` + lock

	o, err := scanOrder(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", classify(err))
	}
	return o, nil
}

func (r *Queries) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY order_date DESC, order_id DESC`)
}

func (r *Queries) ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE user_id = $1
	                          ORDER BY order_date DESC, order_id DESC`, userID)
}

func (r *Queries) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error) {
	return r.listOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE status = $1
	                          ORDER BY order_date DESC, order_id DESC`, status)
}

func (r *Queries) listOrders(ctx context.Context, query string, args ...any) ([]*domain.Order, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := make([]*domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return orders, nil
}

func (r *Queries) ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	query := `SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price
	          FROM order_items oi JOIN products p ON p.product_id = oi.product_id
	          WHERE oi.order_id = $1 ORDER BY oi.id`

	rows, err := r.q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.OrderItem, 0)
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan order item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

// UpdateOrderStatus writes both statuses if the row still carries o.Version.
// On success o reflects the stored row.
func (r *Queries) UpdateOrderStatus(ctx context.Context, o *domain.Order, status domain.OrderStatus, payment domain.PaymentStatus) error {
	query := `UPDATE orders SET status = $1, payment_status = $2, version = version + 1, updated_at = NOW()
	          WHERE order_id = $3 AND version = $4
	          RETURNING version, updated_at`

	err := r.q.QueryRowContext(ctx, query, status, payment, o.ID, o.Version).Scan(&o.Version, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		if _, getErr := r.GetOrder(ctx, o.ID); errors.Is(getErr, ErrOrderNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("order %d: %w", o.ID, ErrVersionConflict)
	}
	if err != nil {
		return fmt.Errorf("update order status: %w", classify(err))
	}
	o.Status = status
	o.PaymentStatus = payment
	return nil
}

func (r *Queries) TotalsByPaymentMethod(ctx context.Context, status domain.OrderStatus) (map[domain.PaymentMethod]decimal.Decimal, error) {
	query := `SELECT payment_method, COALESCE(SUM(total_amount), 0)
	          FROM orders WHERE status = $1 GROUP BY payment_method`

	rows, err := r.q.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("query totals by payment method: %w", err)
	}
	defer rows.Close()

	totals := map[domain.PaymentMethod]decimal.Decimal{
		domain.PaymentMethodCOD:   decimal.Zero,
		domain.PaymentMethodVNPay: decimal.Zero,
	}
	for rows.Next() {
		var method domain.PaymentMethod
		var sum decimal.Decimal
		if err := rows.Scan(&method, &sum); err != nil {
			return nil, fmt.Errorf("scan totals row: %w", err)
		}
		totals[method] = sum
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return totals, nil
}
