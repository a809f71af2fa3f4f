package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/shopspring/decimal"
)

func (r *Queries) GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.activeCart(ctx, userID, "")
}

// LockActiveCart loads the active cart under a row lock. NOWAIT makes a second
// concurrent checkout of the same cart fail with ErrLocked instead of queueing.
func (r *Queries) LockActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	return r.activeCart(ctx, userID, " FOR UPDATE NOWAIT")
}

// GetOrCreateActiveCart returns the active cart, creating it on first use. A
// concurrent creator losing the unique-index race reads the winner's cart.
func (r *Queries) GetOrCreateActiveCart(ctx context.Context, userID int64) (*domain.Cart, error) {
	cart, err := r.GetActiveCart(ctx, userID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, ErrCartNotFound) {
		return nil, err
	}

	query := `INSERT INTO shopping_carts (user_id, status, created_at, updated_at)
	          VALUES ($1, $2, NOW(), NOW())
	          ON CONFLICT (user_id) WHERE status = 'active' DO NOTHING`
	if _, err := r.q.ExecContext(ctx, query, userID, domain.CartStatusActive); err != nil {
		return nil, fmt.Errorf("insert cart: %w", classify(err))
	}
	return r.GetActiveCart(ctx, userID)
}

func (r *Queries) activeCart(ctx context.Context, userID int64, lock string) (*domain.Cart, error) {
	query := `SELECT cart_id, user_id, status, created_at, updated_at
	          FROM shopping_carts WHERE user_id = $1 AND status = $2` + lock

	var c domain.Cart
	err := r.q.QueryRowContext(ctx, query, userID, domain.CartStatusActive).
		Scan(&c.ID, &c.UserID, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query active cart: %w", classify(err))
	}

	items, err := r.cartItems(ctx, c.ID)
	if err != nil {
		return nil, err
	}
	c.Items = items
	c.Subtotal = domain.Subtotal(items)
	return &c, nil
}

func (r *Queries) cartItems(ctx context.Context, cartID int64) ([]domain.CartItem, error) {
	query := `SELECT ci.id, ci.cart_id, ci.product_id, p.name, p.discounted_price, ci.quantity, ci.price
	          FROM cart_items ci JOIN products p ON p.product_id = ci.product_id
	          WHERE ci.cart_id = $1 ORDER BY ci.id`

	rows, err := r.q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("query cart items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.CartItem, 0)
	for rows.Next() {
		var it domain.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.ProductID, &it.ProductName, &it.DiscountedPrice, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scan cart item row: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return items, nil
}

func (r *Queries) InsertCartItem(ctx context.Context, item *domain.CartItem) error {
	query := `INSERT INTO cart_items (cart_id, product_id, quantity, price, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, NOW(), NOW()) RETURNING id`

	err := r.q.QueryRowContext(ctx, query, item.CartID, item.ProductID, item.Quantity, item.Price).Scan(&item.ID)
	if err != nil {
		return fmt.Errorf("insert cart item: %w", classify(err))
	}
	return r.touchCart(ctx, item.CartID)
}

func (r *Queries) UpdateCartItem(ctx context.Context, itemID int64, quantity int, price decimal.Decimal) error {
	query := `UPDATE cart_items SET quantity = $1, price = $2, updated_at = NOW()
	          WHERE id = $3 RETURNING cart_id`

	var cartID int64
	err := r.q.QueryRowContext(ctx, query, quantity, price, itemID).Scan(&cartID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCartItemNotFound
	}
	if err != nil {
		return fmt.Errorf("update cart item: %w", classify(err))
	}
	return r.touchCart(ctx, cartID)
}

func (r *Queries) DeleteCartItem(ctx context.Context, itemID int64) error {
	return r.deleteByID(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID, ErrCartItemNotFound)
}

// CompleteCart closes the cart and drops its items.
func (r *Queries) CompleteCart(ctx context.Context, cartID int64) error {
	query := `UPDATE shopping_carts SET status = $1, updated_at = NOW()
	          WHERE cart_id = $2 AND status = $3`

	res, err := r.q.ExecContext(ctx, query, domain.CartStatusCompleted, cartID, domain.CartStatusActive)
	if err != nil {
		return fmt.Errorf("complete cart: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("complete cart rows affected: %w", err)
	}
	if n == 0 {
		return ErrCartNotFound
	}

	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}
	return nil
}

func (r *Queries) touchCart(ctx context.Context, cartID int64) error {
	if _, err := r.q.ExecContext(ctx, `UPDATE shopping_carts SET updated_at = NOW() WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("touch cart: %w", err)
	}
	return nil
}
