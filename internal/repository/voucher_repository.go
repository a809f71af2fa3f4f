package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
)

const voucherColumns = `voucher_id, code, discount_amount, start_date, expiry_date, status, created_at, updated_at`

func scanVoucher(row rowScanner) (*domain.Voucher, error) {
	var v domain.Voucher
	err := row.Scan(&v.ID, &v.Code, &v.DiscountAmount, &v.StartDate, &v.ExpiryDate, &v.Status, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (r *Queries) CreateVoucher(ctx context.Context, v *domain.Voucher) error {
	query := `INSERT INTO vouchers (code, discount_amount, start_date, expiry_date, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
	          RETURNING voucher_id, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, v.Code, v.DiscountAmount, v.StartDate, v.ExpiryDate, v.Status).
		Scan(&v.ID, &v.CreatedAt, &v.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert voucher: %w", classify(err))
	}
	return nil
}

func (r *Queries) GetVoucher(ctx context.Context, id int64) (*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE voucher_id = $1`

	v, err := scanVoucher(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVoucherNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query voucher by id: %w", err)
	}
	return v, nil
}

func (r *Queries) ListVouchers(ctx context.Context) ([]*domain.Voucher, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers ORDER BY voucher_id`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query vouchers: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Voucher, 0)
	for rows.Next() {
		v, err := scanVoucher(rows)
		if err != nil {
			return nil, fmt.Errorf("scan voucher row: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func (r *Queries) UpdateVoucher(ctx context.Context, v *domain.Voucher) error {
	query := `UPDATE vouchers SET code = $1, discount_amount = $2, start_date = $3, expiry_date = $4,
	                 status = $5, updated_at = NOW()
	          WHERE voucher_id = $6 RETURNING created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, v.Code, v.DiscountAmount, v.StartDate, v.ExpiryDate, v.Status, v.ID).
		Scan(&v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVoucherNotFound
	}
	if err != nil {
		return fmt.Errorf("update voucher: %w", classify(err))
	}
	return nil
}

func (r *Queries) SetVoucherStatus(ctx context.Context, id int64, status domain.VoucherStatus) error {
	res, err := r.q.ExecContext(ctx, `UPDATE vouchers SET status = $1, updated_at = NOW() WHERE voucher_id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update voucher status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update voucher status rows affected: %w", err)
	}
	if n == 0 {
		return ErrVoucherNotFound
	}
	return nil
}

func (r *Queries) DeleteVoucher(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM vouchers WHERE voucher_id = $1`, id, ErrVoucherNotFound)
}
