package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "active"
	CartStatusCompleted CartStatus = "completed"
)

type Cart struct {
	ID        int64           `json:"cart_id"`
	UserID    int64           `json:"user_id"`
	Status    CartStatus      `json:"status"`
	Items     []CartItem      `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// CartItem.Price is the line price frozen when the quantity was last set.
type CartItem struct {
	ID              int64           `json:"id"`
	CartID          int64           `json:"cart_id"`
	ProductID       int64           `json:"product_id"`
	ProductName     string          `json:"product_name"`
	DiscountedPrice decimal.Decimal `json:"discounted_price"`
	Quantity        int             `json:"quantity"`
	Price           decimal.Decimal `json:"price"`
}

func LinePrice(discountedPrice decimal.Decimal, quantity int) decimal.Decimal {
	return discountedPrice.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

func Subtotal(items []CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.Price)
	}
	return sum.Round(2)
}
