package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
)

func (r *Queries) CreateShipping(ctx context.Context, s *domain.Shipping) error {
	query := `INSERT INTO shippings (name, shipping_amount, method, created_at, updated_at)
	          VALUES ($1, $2, $3, NOW(), NOW())
	          RETURNING shipping_id, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, s.Name, s.Amount, s.Method).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert shipping: %w", classify(err))
	}
	return nil
}

func (r *Queries) GetShipping(ctx context.Context, id int64) (*domain.Shipping, error) {
	query := `SELECT shipping_id, name, shipping_amount, method, created_at, updated_at
	          FROM shippings WHERE shipping_id = $1`

	var s domain.Shipping
	err := r.q.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.Amount, &s.Method, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrShippingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query shipping by id: %w", err)
	}
	return &s, nil
}

func (r *Queries) ListShippings(ctx context.Context) ([]*domain.Shipping, error) {
	query := `SELECT shipping_id, name, shipping_amount, method, created_at, updated_at
	          FROM shippings ORDER BY shipping_id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query shippings: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Shipping, 0)
	for rows.Next() {
		var s domain.Shipping
		if err := rows.Scan(&s.ID, &s.Name, &s.Amount, &s.Method, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan shipping row: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *Queries) UpdateShipping(ctx context.Context, s *domain.Shipping) error {
	query := `UPDATE shippings SET name = $1, shipping_amount = $2, method = $3, updated_at = NOW()
	          WHERE shipping_id = $4 RETURNING created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, s.Name, s.Amount, s.Method, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrShippingNotFound
	}
	if err != nil {
		return fmt.Errorf("update shipping: %w", classify(err))
	}
	return nil
}

func (r *Queries) DeleteShipping(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM shippings WHERE shipping_id = $1`, id, ErrShippingNotFound)
}
