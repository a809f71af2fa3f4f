package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusAvailable  ProductStatus = "available"
	ProductStatusOutOfStock ProductStatus = "out of stock"
)

var hundred = decimal.NewFromInt(100)

type Brand struct {
	ID            int64     `json:"brand_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Image         string    `json:"image"`
	TotalProducts int       `json:"total_products"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type Product struct {
	ID               int64           `json:"product_id"`
	BrandID          *int64          `json:"brand_id"`
	Name             string          `json:"name"`
	Description      string          `json:"description"`
	ShortDescription string          `json:"short_description"`
	Image            string          `json:"image"`
	ProductType      string          `json:"product_type"`
	Price            decimal.Decimal `json:"price"`
	Discount         decimal.Decimal `json:"discount"`
	DiscountedPrice  decimal.Decimal `json:"discounted_price"`
	Quantity         int             `json:"quantity"`
	Status           ProductStatus   `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// DiscountedPrice applies a percentage discount. Discounts outside (0, 100)
// leave the price unchanged.
func DiscountedPrice(price, discount decimal.Decimal) decimal.Decimal {
	if discount.IsPositive() && discount.LessThan(hundred) {
		return price.Mul(decimal.NewFromInt(1).Sub(discount.Div(hundred))).Round(2)
	}
	return price
}

func StockStatus(quantity int) ProductStatus {
	if quantity > 0 {
		return ProductStatusAvailable
	}
	return ProductStatusOutOfStock
}

// Reprice refreshes the derived fields after price, discount or quantity changed.
func (p *Product) Reprice() {
	p.DiscountedPrice = DiscountedPrice(p.Price, p.Discount)
	p.Status = StockStatus(p.Quantity)
}
