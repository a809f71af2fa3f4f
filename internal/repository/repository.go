package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Buithihuong2210/AliceSkin-BE-Final/internal/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrBrandNotFound    = errors.New("brand not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCartNotFound     = errors.New("active cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrShippingNotFound = errors.New("shipping option not found")
	ErrVoucherNotFound  = errors.New("voucher not found")
	ErrOrderNotFound    = errors.New("order not found")

	ErrDuplicate         = errors.New("record already exists")
	ErrInUse             = errors.New("record is referenced by other records")
	ErrLocked            = errors.New("record is locked by another transaction")
	ErrSerialization     = errors.New("transaction could not be serialized")
	ErrVersionConflict   = errors.New("record was modified concurrently")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// InsufficientStockError names the product that could not cover the request.
type InsufficientStockError struct {
	ProductID int64
	Name      string
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): requested %d, available %d",
		e.ProductID, e.Name, e.Requested, e.Available)
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type CatalogStore interface {
	CreateBrand(ctx context.Context, b *domain.Brand) error
	GetBrand(ctx context.Context, id int64) (*domain.Brand, error)
	ListBrands(ctx context.Context) ([]*domain.Brand, error)
	UpdateBrand(ctx context.Context, b *domain.Brand) error
	DeleteBrand(ctx context.Context, id int64) error

	CreateProduct(ctx context.Context, p *domain.Product) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, brandID *int64) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	LockProducts(ctx context.Context, ids []int64) (map[int64]*domain.Product, error)
	DecrementStock(ctx context.Context, productID int64, quantity int) error
}

type CartStore interface {
	GetActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	GetOrCreateActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	LockActiveCart(ctx context.Context, userID int64) (*domain.Cart, error)
	InsertCartItem(ctx context.Context, item *domain.CartItem) error
	UpdateCartItem(ctx context.Context, itemID int64, quantity int, price decimal.Decimal) error
	DeleteCartItem(ctx context.Context, itemID int64) error
	CompleteCart(ctx context.Context, cartID int64) error
}

type ShippingStore interface {
	CreateShipping(ctx context.Context, s *domain.Shipping) error
	GetShipping(ctx context.Context, id int64) (*domain.Shipping, error)
	ListShippings(ctx context.Context) ([]*domain.Shipping, error)
	UpdateShipping(ctx context.Context, s *domain.Shipping) error
	DeleteShipping(ctx context.Context, id int64) error
}

type VoucherStore interface {
	CreateVoucher(ctx context.Context, v *domain.Voucher) error
	GetVoucher(ctx context.Context, id int64) (*domain.Voucher, error)
	ListVouchers(ctx context.Context) ([]*domain.Voucher, error)
	UpdateVoucher(ctx context.Context, v *domain.Voucher) error
	SetVoucherStatus(ctx context.Context, id int64, status domain.VoucherStatus) error
	DeleteVoucher(ctx context.Context, id int64) error
}

type OrderStore interface {
	InsertOrder(ctx context.Context, o *domain.Order) error
	InsertOrderItem(ctx context.Context, item *domain.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	LockOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus) ([]*domain.Order, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	UpdateOrderStatus(ctx context.Context, o *domain.Order, status domain.OrderStatus, payment domain.PaymentStatus) error
	TotalsByPaymentMethod(ctx context.Context, status domain.OrderStatus) (map[domain.PaymentMethod]decimal.Decimal, error)
}

type PaymentStore interface {
	InsertPayment(ctx context.Context, p *domain.Payment) error
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	TotalPayments(ctx context.Context) (decimal.Decimal, error)
	HasSuccessfulPayment(ctx context.Context, orderID int64) (bool, error)
}

type Store interface {
	CatalogStore
	CartStore
	ShippingStore
	VoucherStore
	OrderStore
	PaymentStore
}

// RepoInterface is the store plus transaction control.
type RepoInterface interface {
	Store
	WithTx(ctx context.Context, fn func(Store) error) error
	RunMigrations(*Credentials) error
	Close() error
}

type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries runs statements against either the pool or an open transaction.
type Queries struct {
	q dbtx
}

type Repository struct {
	*Queries
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{Queries: &Queries{q: db}, db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// WithTx runs fn inside one read-committed transaction. Any error from fn rolls
// the whole transaction back.
func (r *Repository) WithTx(ctx context.Context, fn func(Store) error) error {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&Queries{q: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("tx err: %w; rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", classify(err))
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// classify maps Postgres error codes onto repository sentinels.
func classify(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505":
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	case "23503":
		return fmt.Errorf("%w: %s", ErrInUse, pqErr.Constraint)
	case "55P03":
		return ErrLocked
	case "40001", "40P01":
		return ErrSerialization
	}
	return err
}
