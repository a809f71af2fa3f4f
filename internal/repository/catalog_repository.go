package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/lib/pq"
)

func (r *Queries) CreateBrand(ctx context.Context, b *domain.Brand) error {
	query := `INSERT INTO brands (name, description, image, created_at, updated_at)
	          VALUES ($1, $2, $3, NOW(), NOW())
	          RETURNING brand_id, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query, b.Name, b.Description, b.Image).
		Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert brand: %w", classify(err))
	}
	return nil
}

func (r *Queries) GetBrand(ctx context.Context, id int64) (*domain.Brand, error) {
	query := `SELECT b.brand_id, b.name, b.description, b.image, b.created_at, b.updated_at,
	                 (SELECT COUNT(*) FROM products p WHERE p.brand_id = b.brand_id)
	          FROM brands b WHERE b.brand_id = $1`

	var b domain.Brand
	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&b.ID, &b.Name, &b.Description, &b.Image, &b.CreatedAt, &b.UpdatedAt, &b.TotalProducts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBrandNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query brand by id: %w", err)
	}
	return &b, nil
}

func (r *Queries) ListBrands(ctx context.Context) ([]*domain.Brand, error) {
	query := `SELECT b.brand_id, b.name, b.description, b.image, b.created_at, b.updated_at,
	                 (SELECT COUNT(*) FROM products p WHERE p.brand_id = b.brand_id)
	          FROM brands b ORDER BY b.name`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query brands: %w", err)
	}
	defer rows.Close()

	brands := make([]*domain.Brand, 0)
	for rows.Next() {
		var b domain.Brand
		if err := rows.Scan(&b.ID, &b.Name, &b.Description, &b.Image, &b.CreatedAt, &b.UpdatedAt, &b.TotalProducts); err != nil {
			return nil, fmt.Errorf("scan brand row: %w", err)
		}
		brands = append(brands, &b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return brands, nil
}

func (r *Queries) UpdateBrand(ctx context.Context, b *domain.Brand) error {
	query := `UPDATE brands SET name = $1, description = $2, image = $3, updated_at = NOW()
	          WHERE brand_id = $4 RETURNING updated_at`

	err := r.q.QueryRowContext(ctx, query, b.Name, b.Description, b.Image, b.ID).Scan(&b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrBrandNotFound
	}
	if err != nil {
		return fmt.Errorf("update brand: %w", classify(err))
	}
	return nil
}

func (r *Queries) DeleteBrand(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM brands WHERE brand_id = $1`, id, ErrBrandNotFound)
}

const productColumns = `product_id, brand_id, name, description, short_description, image, product_type,
	price, discount, discounted_price, quantity, status, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var p domain.Product
	var brandID sql.NullInt64
	err := row.Scan(
		&p.ID,
		&brandID,
		&p.Name,
		&p.Description,
		&p.ShortDescription,
		&p.Image,
		&p.ProductType,
		&p.Price,
		&p.Discount,
		&p.DiscountedPrice,
		&p.Quantity,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if brandID.Valid {
		p.BrandID = &brandID.Int64
	}
	return &p, nil
}

// CreateProduct stores p with its derived price and status refreshed.
func (r *Queries) CreateProduct(ctx context.Context, p *domain.Product) error {
	p.Reprice()
	query := `INSERT INTO products (brand_id, name, description, short_description, image, product_type,
	                                price, discount, discounted_price, quantity, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	          RETURNING product_id, created_at, updated_at`

	err := r.q.QueryRowContext(ctx, query,
		nullableID(p.BrandID),
		p.Name,
		p.Description,
		p.ShortDescription,
		p.Image,
		p.ProductType,
		p.Price,
		p.Discount,
		p.DiscountedPrice,
		p.Quantity,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", classify(err))
	}
	return nil
}

func (r *Queries) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE product_id = $1`

	p, err := scanProduct(r.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query product by id: %w", err)
	}
	return p, nil
}

func (r *Queries) ListProducts(ctx context.Context, brandID *int64) ([]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE ($1::BIGINT IS NULL OR brand_id = $1) ORDER BY product_id`

	rows, err := r.q.QueryContext(ctx, query, nullableID(brandID))
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return products, nil
}

// UpdateProduct overwrites the editable fields and recomputes the derived ones.
func (r *Queries) UpdateProduct(ctx context.Context, p *domain.Product) error {
	p.Reprice()
	query := `UPDATE products SET brand_id = $1, name = $2, description = $3, short_description = $4,
	                 image = $5, product_type = $6, price = $7, discount = $8, discounted_price = $9,
	                 quantity = $10, status = $11, updated_at = NOW()
	          WHERE product_id = $12 RETURNING updated_at`

	err := r.q.QueryRowContext(ctx, query,
		nullableID(p.BrandID),
		p.Name,
		p.Description,
		p.ShortDescription,
		p.Image,
		p.ProductType,
		p.Price,
		p.Discount,
		p.DiscountedPrice,
		p.Quantity,
		p.Status,
		p.ID,
	).Scan(&p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if err != nil {
		return fmt.Errorf("update product: %w", classify(err))
	}
	return nil
}

func (r *Queries) DeleteProduct(ctx context.Context, id int64) error {
	return r.deleteByID(ctx, `DELETE FROM products WHERE product_id = $1`, id, ErrProductNotFound)
}

// LockProducts takes row locks on the given products in id order, so that two
// checkouts over overlapping products always lock in the same sequence.
func (r *Queries) LockProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products
	          WHERE product_id = ANY($1) ORDER BY product_id FOR UPDATE`

	rows, err := r.q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("lock products: %w", classify(err))
	}
	defer rows.Close()

	locked := make(map[int64]*domain.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		locked[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", classify(err))
	}
	return locked, nil
}

// DecrementStock removes quantity from stock. The guard in the WHERE clause
// refuses to drive stock negative even if the caller skipped its own check.
func (r *Queries) DecrementStock(ctx context.Context, productID int64, quantity int) error {
	query := `UPDATE products
	          SET quantity = quantity - $1,
	              status = CASE WHEN quantity - $1 > 0 THEN 'available' ELSE 'out of stock' END,
	              updated_at = NOW()
	          WHERE product_id = $2 AND quantity >= $1`

	res, err := r.q.ExecContext(ctx, query, quantity, productID)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("decrement stock rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("product %d: %w", productID, ErrInsufficientStock)
	}
	return nil
}

func (r *Queries) deleteByID(ctx context.Context, query string, id int64, notFound error) error {
	res, err := r.q.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete: %w", classify(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func nullableID(id *int64) sql.NullInt64 {
	if id == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *id, Valid: true}
}
