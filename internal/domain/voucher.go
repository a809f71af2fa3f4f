package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VoucherStatus string

const (
	VoucherStatusActive   VoucherStatus = "active"
	VoucherStatusInactive VoucherStatus = "inactive"
)

type Shipping struct {
	ID        int64           `json:"shipping_id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"shipping_amount"`
	Method    string          `json:"method"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Voucher.Status is the stored status. Expiry is evaluated on read, so callers
// should use CurrentStatus rather than the field.
type Voucher struct {
	ID             int64           `json:"voucher_id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	StartDate      time.Time       `json:"start_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
	Status         VoucherStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// InitialVoucherStatus is the status assigned on create and update.
func InitialVoucherStatus(expiry, now time.Time) VoucherStatus {
	if expiry.Before(now) {
		return VoucherStatusInactive
	}
	return VoucherStatusActive
}

func (v Voucher) CurrentStatus(now time.Time) VoucherStatus {
	if v.Status == VoucherStatusActive && v.ExpiryDate.Before(now) {
		return VoucherStatusInactive
	}
	return v.Status
}

// Applicable reports whether the voucher discount may be used at now.
func (v Voucher) Applicable(now time.Time) bool {
	if v.CurrentStatus(now) != VoucherStatusActive {
		return false
	}
	return !now.Before(v.StartDate) && !now.After(v.ExpiryDate)
}
