package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending            OrderStatus = "Pending"
	OrderStatusWaitingForPayment  OrderStatus = "Waiting for Payment"
	OrderStatusWaitingForDelivery OrderStatus = "Waiting for Delivery"
	OrderStatusDelivered          OrderStatus = "Delivered"
	OrderStatusCompleted          OrderStatus = "Completed"
	OrderStatusFailed             OrderStatus = "Failed"
	OrderStatusCanceled           OrderStatus = "Canceled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

func (s OrderStatus) String() string {
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending           PaymentStatus = "Pending"
	PaymentStatusWaitingForPayment PaymentStatus = "Waiting for Payment"
	PaymentStatusPaid              PaymentStatus = "Paid"
	PaymentStatusFailed            PaymentStatus = "Failed"
)

type PaymentMethod string

const (
	PaymentMethodCOD   PaymentMethod = "Cash on Delivery"
	PaymentMethodVNPay PaymentMethod = "VNpay Payment"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodVNPay
}

type Order struct {
	ID                   int64           `json:"order_id"`
	UserID               int64           `json:"user_id"`
	ContactEmail         string          `json:"contact_email"`
	ShippingID           int64           `json:"shipping_id"`
	VoucherID            *int64          `json:"voucher_id"`
	ShippingAddress      string          `json:"shipping_address"`
	PaymentMethod        PaymentMethod   `json:"payment_method"`
	Subtotal             decimal.Decimal `json:"subtotal"`
	ShippingCost         decimal.Decimal `json:"shipping_cost"`
	Discount             decimal.Decimal `json:"discount"`
	TotalAmount          decimal.Decimal `json:"total_amount"`
	Status               OrderStatus     `json:"status"`
	PaymentStatus        PaymentStatus   `json:"payment_status"`
	OrderDate            time.Time       `json:"order_date"`
	ExpectedDeliveryDate time.Time       `json:"expected_delivery_date"`
	Version              int             `json:"-"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
	Items                []OrderItem     `json:"items,omitempty"`
}

type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// InitialStatus returns the statuses a freshly placed order starts in.
func InitialStatus(method PaymentMethod) (OrderStatus, PaymentStatus) {
	if method == PaymentMethodCOD {
		return OrderStatusWaitingForDelivery, PaymentStatusPending
	}
	return OrderStatusPending, PaymentStatusWaitingForPayment
}

func OrderTotal(subtotal, shipping, discount decimal.Decimal) decimal.Decimal {
	return subtotal.Add(shipping).Sub(discount).Round(2)
}

const (
	ProcessingDays = 2
	ShippingDays   = 3
)

// ExpectedDeliveryDate adds processing and shipping days to the order date and
// moves a weekend result to the following Monday. The time of day is dropped.
func ExpectedDeliveryDate(orderDate time.Time) time.Time {
	y, m, d := orderDate.Date()
	date := time.Date(y, m, d, 0, 0, 0, 0, orderDate.Location()).AddDate(0, 0, ProcessingDays+ShippingDays)
	for date.Weekday() == time.Saturday || date.Weekday() == time.Sunday {
		date = date.AddDate(0, 0, 1)
	}
	return date
}
