package repository

import (
	"context"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/shopspring/decimal"
)

func (r *Queries) InsertPayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (order_id, transaction_no, bank_code, card_type, amount, pay_date, status, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
	          RETURNING payment_id, created_at`

	err := r.q.QueryRowContext(ctx, query,
		p.OrderID,
		p.TransactionNo,
		p.BankCode,
		p.CardType,
		p.Amount,
		p.PayDate,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment: %w", classify(err))
	}
	return nil
}

func (r *Queries) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT payment_id, order_id, transaction_no, bank_code, card_type, amount, pay_date, status, created_at
	          FROM payments ORDER BY payment_id DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Payment, 0)
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.OrderID, &p.TransactionNo, &p.BankCode, &p.CardType, &p.Amount, &p.PayDate, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		out = append(out, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

// TotalPayments sums the settled ledger rows.
func (r *Queries) TotalPayments(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.q.QueryRowContext(ctx, `SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = $1`,
		domain.PaymentRecordSuccess).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query payments total: %w", err)
	}
	return total, nil
}

func (r *Queries) HasSuccessfulPayment(ctx context.Context, orderID int64) (bool, error) {
	var exists bool
	err := r.q.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM payments WHERE order_id = $1 AND status = $2)`,
		orderID, domain.PaymentRecordSuccess).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query successful payment: %w", err)
	}
	return exists, nil
}
